package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	liveWriteTimeout = 10 * time.Second
	liveReadLimit    = 64 << 10
)

// Frame types sent to live clients
const (
	FrameFeed          = "feed"
	FrameNotifications = "notifications"
	FrameUnread        = "unread"
	FrameOnline        = "online"
	FrameConversations = "conversations"
	FrameChat          = "chat"
	FrameMessages      = "messages"
	FrameSearch        = "search"
	FrameLike          = "like"
	FrameSent          = "sent"
	FrameError         = "error"
)

// Commands accepted from live clients
const (
	CommandLike        = "like"
	CommandOpenChat    = "openChat"
	CommandCloseChat   = "closeChat"
	CommandSendMessage = "sendMessage"
	CommandSearch      = "search"
	CommandLogout      = "logout"
)

// Frame is one server to client message
type Frame struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Command is one client to server message
type Command struct {
	Type           string `json:"type"`
	PostID         string `json:"postId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Name           string `json:"name,omitempty"`
	Color          string `json:"color,omitempty"`
	Text           string `json:"text,omitempty"`
	Query          string `json:"query,omitempty"`
}

// LikeFrame reports the displayed like state of a post
type LikeFrame struct {
	PostID string `json:"postId"`
	services.LikeState
}

// MessagesFrame carries the messages of the open conversation
type MessagesFrame struct {
	ConversationID string           `json:"conversationId"`
	Messages       []models.Message `json:"messages"`
}

// LiveHandler serves the websocket that keeps a signed-in client in sync:
// feed, inbox, online users, conversations, the open chat and search.
type LiveHandler struct {
	feed          *services.FeedService
	notifications *services.NotificationService
	messaging     *services.MessagingService
	interactions  *services.InteractionService
	presence      *services.PresenceTracker
	searcher      *services.Searcher
	upgrader      websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler
func NewLiveHandler(
	feed *services.FeedService,
	notifications *services.NotificationService,
	messaging *services.MessagingService,
	interactions *services.InteractionService,
	presence *services.PresenceTracker,
	searcher *services.Searcher,
) *LiveHandler {
	return &LiveHandler{
		feed:          feed,
		notifications: notifications,
		messaging:     messaging,
		interactions:  interactions,
		presence:      presence,
		searcher:      searcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterLiveRoutes registers the live websocket route
func (h *LiveHandler) RegisterLiveRoutes(g *echo.Group) {
	g.GET("/live", h.Live)
}

// Live upgrades the request and streams until the client disconnects or
// logs out
func (h *LiveHandler) Live(c echo.Context) error {
	p := session.FromContext(c.Request().Context())
	if !p.Authenticated() {
		return httpError(c, services.ErrUnauthenticated)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "websocket upgrade failed", "uid", p.UID, "error", err)
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	client := &liveClient{
		h:       h,
		conn:    conn,
		cancel:  cancel,
		uid:     p.UID,
		session: session.New(),
		popup:   services.NewChatPopup(h.messaging),
		view:    services.NewFeedView(h.interactions),
		queries: make(chan string),
		posts:   map[string]models.Post{},
	}
	defer client.wait()

	client.session.Login(p)
	if err := client.start(ctx); err != nil {
		client.send(Frame{Type: FrameError, Error: err.Error()})
		return nil
	}

	slog.InfoContext(ctx, "live client connected", "uid", p.UID)
	client.readLoop(ctx)
	slog.InfoContext(ctx, "live client disconnected", "uid", p.UID)
	return nil
}

type liveClient struct {
	h      *LiveHandler
	cancel context.CancelFunc
	uid    string

	writeMu sync.Mutex
	conn    *websocket.Conn

	session *session.Session
	popup   *services.ChatPopup
	view    *services.FeedView
	queries chan string

	postsMu sync.Mutex
	posts   map[string]models.Post

	wg sync.WaitGroup
}

func (l *liveClient) send(f Frame) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	_ = l.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := l.conn.WriteJSON(f); err != nil {
		// The read loop notices the broken connection; stop the streams now.
		l.cancel()
	}
}

func (l *liveClient) sendError(err error) {
	l.send(Frame{Type: FrameError, Error: err.Error()})
}

func (l *liveClient) wait() {
	l.cancel()
	l.wg.Wait()
}

func (l *liveClient) start(ctx context.Context) error {
	feed, err := l.h.feed.WatchFeed(ctx, l.uid)
	if err != nil {
		return err
	}
	inbox, err := l.h.notifications.WatchNotifications(ctx)
	if err != nil {
		return err
	}
	online, err := l.h.presence.WatchOnline(ctx)
	if err != nil {
		return err
	}
	conversations, err := l.h.messaging.WatchConversations(ctx)
	if err != nil {
		return err
	}
	results, err := l.h.searcher.Run(ctx, l.queries)
	if err != nil {
		return err
	}

	l.spawn(func() { l.h.presence.RunSession(ctx, l.session.Events(ctx)) })

	l.spawn(func() {
		for posts := range feed {
			l.remember(posts)
			l.send(Frame{Type: FrameFeed, Data: posts})
		}
	})
	l.spawn(func() { forward(l, online, FrameOnline) })
	l.spawn(func() { forward(l, conversations, FrameConversations) })
	l.spawn(func() { forward(l, results, FrameSearch) })
	l.spawn(func() { l.inbox(ctx, inbox) })
	return nil
}

func (l *liveClient) spawn(f func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		f()
	}()
}

func forward[T any](l *liveClient, in <-chan T, frameType string) {
	for v := range in {
		l.send(Frame{Type: frameType, Data: v})
	}
}

// inbox sends the notification list and the unread badge. The badge hides
// message notifications of the conversation open in the chat popup, so it
// is recomputed when either changes.
func (l *liveClient) inbox(ctx context.Context, notifications <-chan []models.Notification) {
	chats := l.popup.Changes(ctx)

	var (
		list []models.Notification
		open *services.OpenChat
	)
	for {
		select {
		case <-ctx.Done():
			return

		case next, ok := <-notifications:
			if !ok {
				return
			}
			list = next
			l.send(Frame{Type: FrameNotifications, Data: list})

		case next, ok := <-chats:
			if !ok {
				return
			}
			open = next
			l.send(Frame{Type: FrameChat, Data: open})
		}
		l.send(Frame{Type: FrameUnread, Data: services.UnreadNotificationCount(list, open)})
	}
}

func (l *liveClient) remember(posts []models.Post) {
	l.postsMu.Lock()
	defer l.postsMu.Unlock()

	l.posts = make(map[string]models.Post, len(posts))
	for _, p := range posts {
		l.posts[p.ID] = p
	}
}

func (l *liveClient) post(ctx context.Context, id string) (models.Post, error) {
	l.postsMu.Lock()
	p, ok := l.posts[id]
	l.postsMu.Unlock()
	if ok {
		return p, nil
	}

	post, err := l.h.interactions.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	return *post, nil
}

func (l *liveClient) readLoop(ctx context.Context) {
	l.conn.SetReadLimit(liveReadLimit)

	for {
		var cmd Command
		if err := l.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				slog.DebugContext(ctx, "live read failed", "uid", l.uid, "error", err)
			}
			return
		}

		if stop := l.handle(ctx, cmd); stop {
			return
		}
	}
}

// handle runs one client command and reports whether the connection should
// be closed
func (l *liveClient) handle(ctx context.Context, cmd Command) bool {
	switch cmd.Type {
	case CommandLike:
		l.spawn(func() { l.toggleLike(ctx, cmd.PostID) })

	case CommandOpenChat:
		l.openChat(ctx, services.OpenChat{ConversationID: cmd.ConversationID, Name: cmd.Name, Color: cmd.Color})

	case CommandCloseChat:
		l.popup.Close()

	case CommandSendMessage:
		l.spawn(func() {
			id, err := l.h.messaging.SendMessage(ctx, cmd.ConversationID, cmd.Text)
			if err != nil {
				l.sendError(err)
				return
			}
			l.send(Frame{Type: FrameSent, Data: models.Message{ID: id, ConversationID: cmd.ConversationID}})
		})

	case CommandSearch:
		select {
		case l.queries <- cmd.Query:
		case <-ctx.Done():
		}

	case CommandLogout:
		l.session.Logout()
		l.popup.Close()
		return true

	default:
		l.sendError(errors.New("unknown command " + cmd.Type))
	}
	return false
}

func (l *liveClient) toggleLike(ctx context.Context, postID string) {
	post, err := l.post(ctx, postID)
	if err != nil {
		l.sendError(err)
		return
	}

	state, err := l.view.ToggleLike(ctx, post)
	frame := Frame{Type: FrameLike, Data: LikeFrame{PostID: postID, LikeState: state}}
	if err != nil {
		frame.Error = err.Error()
	}
	l.send(frame)
}

func (l *liveClient) openChat(ctx context.Context, chat services.OpenChat) {
	messages, err := l.popup.Open(ctx, chat)
	if err != nil {
		l.sendError(err)
		return
	}

	l.spawn(func() {
		for list := range messages {
			l.send(Frame{Type: FrameMessages, Data: MessagesFrame{ConversationID: chat.ConversationID, Messages: list}})
		}
	})
}
