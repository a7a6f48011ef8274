// Package mongo implements persistence.Store with the official MongoDB driver.
//
// Collections map one to one onto MongoDB databases and collections. Record
// identifiers are the hex form of the document ObjectID, which also provides
// insertion ordering.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/orientation-hub/internal/persistence"
)

// Store is a persistence.Store backed by MongoDB.
type Store struct {
	client         *mongo.Client
	databasePrefix string
}

// Option customises a Store.
type Option func(*Store)

// WithDatabasePrefix prepends prefix to every database name. Tests use it to
// isolate runs sharing one server.
func WithDatabasePrefix(prefix string) Option {
	return func(s *Store) {
		s.databasePrefix = prefix
	}
}

// Connect dials the server at uri and verifies it with a ping.
func Connect(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	clientOpts := options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) collection(c persistence.Collection) *mongo.Collection {
	return s.client.Database(s.databasePrefix + c.Database).Collection(c.Name)
}

// Find returns matching documents sorted by ObjectID.
func (s *Store) Find(ctx context.Context, collection persistence.Collection, filter persistence.Fields) ([]persistence.Record, error) {
	if err := persistence.ValidateCollection(collection); err != nil {
		return nil, err
	}

	cursor, err := s.collection(collection).Find(ctx, toFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: find in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: read %s: %w", collection, err)
	}

	records := make([]persistence.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}
	return records, nil
}

// Insert stores a new document with a fresh ObjectID.
func (s *Store) Insert(ctx context.Context, collection persistence.Collection, fields persistence.Fields) (persistence.Record, error) {
	if err := persistence.ValidateCollection(collection); err != nil {
		return persistence.Record{}, err
	}

	id := primitive.NewObjectID()
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}

	if _, err := s.collection(collection).InsertOne(ctx, doc); err != nil {
		return persistence.Record{}, fmt.Errorf("mongo: insert into %s: %w", collection, err)
	}

	stored := fields.Clone()
	if stored == nil {
		stored = persistence.Fields{}
	}
	return persistence.Record{ID: id.Hex(), Fields: stored}, nil
}

// Update applies set with a single UpdateOne whose filter includes expected.
func (s *Store) Update(ctx context.Context, collection persistence.Collection, id string, expected, set persistence.Fields) (bool, error) {
	if err := persistence.ValidateCollection(collection); err != nil {
		return false, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("mongo: update %s in %s: %w", id, collection, persistence.ErrNotFound)
	}

	coll := s.collection(collection)
	filter := toFilter(expected)
	filter["_id"] = oid

	var matched int64
	if len(set) == 0 {
		matched, err = coll.CountDocuments(ctx, filter)
	} else {
		var result *mongo.UpdateResult
		result, err = coll.UpdateOne(ctx, filter, bson.M{"$set": toFilter(set)})
		if result != nil {
			matched = result.MatchedCount
		}
	}
	if err != nil {
		return false, fmt.Errorf("mongo: update %s in %s: %w", id, collection, err)
	}
	if matched > 0 {
		return true, nil
	}

	err = coll.FindOne(ctx, bson.M{"_id": oid}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, fmt.Errorf("mongo: update %s in %s: %w", id, collection, persistence.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("mongo: update %s in %s: %w", id, collection, err)
	}
	return false, nil
}

// Ping checks connectivity with the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo: ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// DropDatabases removes the databases backing the given collections.
func (s *Store) DropDatabases(ctx context.Context, collections ...persistence.Collection) error {
	seen := make(map[string]bool, len(collections))
	for _, c := range collections {
		name := s.databasePrefix + c.Database
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := s.client.Database(name).Drop(ctx); err != nil {
			return fmt.Errorf("mongo: drop %s: %w", name, err)
		}
	}
	return nil
}

func toFilter(fields persistence.Fields) bson.M {
	filter := bson.M{}
	for k, v := range fields {
		filter[k] = v
	}
	return filter
}

func toRecord(doc bson.M) persistence.Record {
	record := persistence.Record{Fields: make(persistence.Fields, len(doc))}
	for k, v := range doc {
		if k == "_id" {
			record.ID = stringifyID(v)
			continue
		}
		record.Fields[k] = stringify(v)
	}
	return record
}

func stringifyID(v any) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return stringify(v)
}

func stringify(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
