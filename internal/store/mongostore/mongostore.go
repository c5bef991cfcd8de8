// Package mongostore adapts MongoDB to store.Store. Every document lives in a
// single collection keyed by its full path; live queries are served from a
// change stream on that collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentsCollection = "documents"

type record struct {
	Path   string `bson:"_id"`
	Parent string `bson:"parent"`
	Fields bson.M `bson:"fields"`
}

// Store implements store.Store for MongoDB
type Store struct {
	collection *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// New creates a new MongoDB-backed store
func New(db *mongo.Database) *Store {
	return &Store{collection: db.Collection(documentsCollection)}
}

// EnsureIndexes creates the parent index live queries filter on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}},
	})
	return err
}

// Get retrieves a document by path from MongoDB
func (s *Store) Get(ctx context.Context, path string) (*store.Doc, error) {
	_, id, err := store.Split(path)
	if err != nil {
		return nil, err
	}

	var rec record
	err = s.collection.FindOne(ctx, bson.M{"_id": path}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		return nil, err
	}
	return &store.Doc{ID: id, Path: path, Fields: normalizeFields(rec.Fields)}, nil
}

// Set replaces a document in MongoDB, creating it when absent
func (s *Store) Set(ctx context.Context, path string, fields store.Fields) error {
	parent, _, err := store.Split(path)
	if err != nil {
		return err
	}

	rec := record{Path: path, Parent: parent, Fields: resolve(fields)}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": path}, rec, options.Replace().SetUpsert(true))
	return err
}

// Update merges fields into an existing MongoDB document
func (s *Store) Update(ctx context.Context, path string, fields store.Fields) error {
	update := bson.M{}
	section := func(op string) bson.M {
		m, ok := update[op].(bson.M)
		if !ok {
			m = bson.M{}
			update[op] = m
		}
		return m
	}

	for k, v := range fields {
		key := "fields." + k
		switch t := v.(type) {
		case store.Increment:
			section("$inc")[key] = int64(t)
		case store.ArrayUnion:
			section("$addToSet")[key] = bson.M{"$each": []any(t)}
		case store.ArrayRemove:
			section("$pull")[key] = bson.M{"$in": []any(t)}
		case store.TimestampTransform:
			section("$currentDate")[key] = true
		default:
			section("$set")[key] = v
		}
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": path}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	return nil
}

// Delete deletes a document from MongoDB
func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": path})
	return err
}

// Append inserts a document with a fresh ObjectID under collection
func (s *Store) Append(ctx context.Context, collection string, fields store.Fields) (string, error) {
	id := primitive.NewObjectID().Hex()
	rec := record{Path: store.Join(collection, id), Parent: collection, Fields: resolve(fields)}
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return "", err
	}
	return id, nil
}

// Subscribe re-runs q every time the change stream reports a write under
// q's collection.
func (s *Store) Subscribe(ctx context.Context, q store.Query) (<-chan store.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"documentKey._id": bson.M{"$regex": "^" + regexp.QuoteMeta(q.Collection) + "/[^/]+$"},
		}}},
	}
	stream, err := s.collection.Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream on %s: %w", q.Collection, err)
	}

	out := make(chan store.Snapshot)

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		send := func() bool {
			docs, err := s.find(ctx, q)
			snap := store.Snapshot{Docs: docs, Err: err}
			select {
			case out <- snap:
				return err == nil
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		for stream.Next(ctx) {
			if !send() {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			slog.Warn("mongo change stream ended", "collection", q.Collection, "error", err)
			select {
			case out <- store.Snapshot{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (s *Store) find(ctx context.Context, q store.Query) ([]store.Doc, error) {
	filter, findOptions := findArgs(q)

	cursor, err := s.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	docs := make([]store.Doc, 0, len(recs))
	for _, rec := range recs {
		_, id, err := store.Split(rec.Path)
		if err != nil {
			continue
		}
		docs = append(docs, store.Doc{ID: id, Path: rec.Path, Fields: normalizeFields(rec.Fields)})
	}
	return docs, nil
}

// findArgs translates q into the filter and options of a Find call against
// the documents collection.
func findArgs(q store.Query) (bson.M, *options.FindOptions) {
	filter := bson.M{"parent": q.Collection}
	for _, f := range q.Filters {
		key := "fields." + f.Field
		switch f.Op {
		case store.OpIn:
			values, _ := store.InValues(f.Value)
			filter[key] = bson.M{"$in": values}
		default:
			// Equality on an array field matches any element, which is what
			// array-contains needs.
			filter[key] = f.Value
		}
	}

	findOptions := options.Find()
	if len(q.Orders) > 0 {
		sort := bson.D{}
		for _, o := range q.Orders {
			dir := 1
			if o.Dir == store.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: "fields." + o.Field, Value: dir})
			filter["fields."+o.Field] = mergeExists(filter["fields."+o.Field])
		}
		findOptions.SetSort(sort)
	}
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}
	return filter, findOptions
}

// mergeExists keeps documents without the order-by field out of ordered
// results while preserving any equality filter already on that field.
func mergeExists(existing any) any {
	if existing == nil {
		return bson.M{"$exists": true}
	}
	if m, ok := existing.(bson.M); ok {
		m["$exists"] = true
		return m
	}
	return bson.M{"$exists": true, "$eq": existing}
}

// resolve turns transforms into plain values for whole-document writes.
func resolve(fields store.Fields) bson.M {
	out := bson.M{}
	for k, v := range fields {
		switch t := v.(type) {
		case store.Increment:
			out[k] = int64(t)
		case store.ArrayUnion:
			out[k] = []any(t)
		case store.ArrayRemove:
			out[k] = []any{}
		case store.TimestampTransform:
			out[k] = time.Now().UTC()
		default:
			out[k] = v
		}
	}
	return out
}

func normalizeFields(m bson.M) store.Fields {
	out := make(store.Fields, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case int32:
		return int64(x)
	case primitive.A:
		out := make([]any, len(x))
		for i := range x {
			out[i] = normalize(x[i])
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	}
	return v
}
