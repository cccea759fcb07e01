package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
)

// Collection names.
const (
	BookingsCollection = "bookings"
	UsersCollection    = "users"
)

// opTimeout bounds every document store round trip.
const opTimeout = 5 * time.Second

// ConnectMongo opens a client without waiting for the server; reachability is
// tracked separately through Ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}
	return client, nil
}

// PingMongo checks the primary answers.
func PingMongo(client *mongo.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}

// EnsureUniqueIndex creates a unique ascending index on field.
func EnsureUniqueIndex(ctx context.Context, coll *mongo.Collection, field string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create index on %s.%s: %w", coll.Name(), field, err)
	}
	return nil
}

// MongoRepository stores documents in a MongoDB collection.
type MongoRepository[T Document] struct {
	coll *mongo.Collection
}

// NewMongoRepository wraps a collection.
func NewMongoRepository[T Document](coll *mongo.Collection) *MongoRepository[T] {
	return &MongoRepository[T]{coll: coll}
}

// Find returns matching documents ordered by id.
func (r *MongoRepository[T]) Find(ctx context.Context, q Query) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter(q), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, upstream("find", err)
	}
	defer cur.Close(ctx)

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, upstream("decode", err)
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

// FindOne returns the first matching document by id order.
func (r *MongoRepository[T]) FindOne(ctx context.Context, q Query) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc T
	err := r.coll.FindOne(ctx, filter(q), options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, upstream("find one", err)
	}
	return doc, nil
}

// Insert stores doc.
func (r *MongoRepository[T]) Insert(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return upstream("insert", err)
	}
	return nil
}

// Update replaces the first document matching q with doc.
func (r *MongoRepository[T]) Update(ctx context.Context, q Query, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, filter(q), doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return upstream("replace", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes every document matching q.
func (r *MongoRepository[T]) Delete(ctx context.Context, q Query) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, filter(q))
	if err != nil {
		return 0, upstream("delete", err)
	}
	return res.DeletedCount, nil
}

func filter(q Query) bson.M {
	f := bson.M{}
	for _, c := range q {
		ops, ok := f[c.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			f[c.Field] = ops
		}
		ops[string(c.Op)] = normalize(c.Value)
	}
	return f
}

func upstream(op string, err error) error {
	return apperr.Wrap(apperr.KindUpstream, "mongo "+op, err)
}
