package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/pkg/async"
	"github.com/samber/lo"
)

const (
	searchResultLimit     = 5
	DefaultSearchDebounce = 200 * time.Millisecond
)

type SearchResults struct {
	Query string        `json:"query"`
	Users []models.User `json:"users"`
	Posts []models.Post `json:"posts"`
}

// Search matches term against users (display name, role, languages) and
// posts (text, author names), case-insensitively. At most five of each are
// returned.
func Search(users []models.User, posts []models.Post, term string) SearchResults {
	res := SearchResults{Query: term, Users: []models.User{}, Posts: []models.Post{}}

	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return res
	}
	match := func(s string) bool {
		return strings.Contains(strings.ToLower(s), q)
	}

	for _, u := range users {
		if len(res.Users) == searchResultLimit {
			break
		}
		if match(u.DisplayName) || match(u.Role) || lo.SomeBy(u.Languages, match) {
			res.Users = append(res.Users, u.PublicView())
		}
	}
	for _, p := range posts {
		if len(res.Posts) == searchResultLimit {
			break
		}
		if match(p.Text) || match(p.AuthorDisplayName) || match(p.AuthorName) {
			res.Posts = append(res.Posts, p)
		}
	}
	return res
}

// Searcher runs Search against the live users stream and the most recent
// posts
type Searcher struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	debounce time.Duration
}

func NewSearcher(users repositories.UserRepository, posts repositories.PostRepository, debounce time.Duration) *Searcher {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &Searcher{users: users, posts: posts, debounce: debounce}
}

// Run answers every settled query of queries. Queries are debounced, results
// are refreshed when the underlying snapshots change, and a result computed
// for a query that has since been replaced is dropped.
func (s *Searcher) Run(ctx context.Context, queries <-chan string) (<-chan SearchResults, error) {
	users, err := s.users.WatchUsers(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.WatchRecent(ctx, RecentPostsLimit)
	if err != nil {
		return nil, err
	}

	type result struct {
		generation int
		SearchResults
	}

	settled := async.Debounce(ctx, queries, s.debounce)
	results := make(chan result)
	out := make(chan SearchResults)

	go func() {
		defer close(out)

		var (
			latestUsers []models.User
			latestPosts []models.Post
			query       string
			hasQuery    bool
			generation  int
		)

		evaluate := func() {
			if !hasQuery {
				return
			}
			generation++
			gen, q, u, p := generation, query, latestUsers, latestPosts
			go func() {
				select {
				case results <- result{generation: gen, SearchResults: Search(u, p, q)}:
				case <-ctx.Done():
				}
			}()
		}

		for {
			select {
			case <-ctx.Done():
				return

			case q, ok := <-settled:
				if !ok {
					settled = nil
					continue
				}
				query, hasQuery = q, true
				evaluate()

			case snapshot, ok := <-users:
				if !ok {
					return
				}
				latestUsers = snapshot
				evaluate()

			case snapshot, ok := <-posts:
				if !ok {
					return
				}
				latestPosts = snapshot
				evaluate()

			case r := <-results:
				if r.generation != generation {
					continue
				}
				select {
				case out <- r.SearchResults:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
