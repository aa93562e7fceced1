package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// MongoStore keeps one document per map, keyed by the map ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore wraps an existing collection. Close does not disconnect.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: coll.Database().Client(), coll: coll}
}

// DialMongoStore connects to uri and verifies the connection.
func DialMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}
	coll := client.Database(database).Collection(collection)
	return &MongoStore{client: client, coll: coll, owned: true}, nil
}

func (s *MongoStore) Create(ctx context.Context, m *mindmap.MindMap) error {
	created := prepareCreate(*m)
	if _, err := s.coll.InsertOne(ctx, created); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrExists
		}
		return fmt.Errorf("insert map: %w", err)
	}
	*m = created
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	var m mindmap.MindMap
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return mindmap.MindMap{}, ErrNotFound
	}
	if err != nil {
		return mindmap.MindMap{}, fmt.Errorf("find map: %w", err)
	}
	return m.Clone(), nil
}

func (s *MongoStore) Update(ctx context.Context, m *mindmap.MindMap) error {
	prepareUpdate(m)
	update := bson.M{"$set": bson.M{
		"title":      m.Title,
		"nodes":      m.Nodes,
		"edges":      m.Edges,
		"updated_at": m.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored mindmap.MindMap
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": m.ID}, update, opts).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update map: %w", err)
	}
	m.CreatedAt = stored.CreatedAt
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find maps: %w", err)
	}
	out := []mindmap.MindMap{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode maps: %w", err)
	}
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

// Close disconnects the client if the store dialed it.
func (s *MongoStore) Close() error {
	if s.owned {
		return s.client.Disconnect(context.Background())
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
