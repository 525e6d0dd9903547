package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flicky/agri-backoffice/internal/config"
)

// ConnectMongo opens a client that knows how to encode decimal amounts.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetRegistry(NewRegistry()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, nil
}

type mongoStore struct{ db *mongo.Database }

func NewMongoStore(db *mongo.Database) DocumentStore {
	return &mongoStore{db: db}
}

func (s *mongoStore) Get(ctx context.Context, coll, id string, dest any) (bool, error) {
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("get %s/%s: %w", coll, id, err)
	}
	return true, nil
}

func (s *mongoStore) Find(ctx context.Context, coll string, q Query, dest any) error {
	cursor, err := s.db.Collection(coll).Find(ctx, buildFilter(q.Filters), buildFindOptions(q))
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, dest); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

func (s *mongoStore) Add(ctx context.Context, coll string, doc any) (string, error) {
	res, err := s.db.Collection(coll).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", coll, err)
	}
	id, _ := res.InsertedID.(string)
	return id, nil
}

func (s *mongoStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	return s.UpdateWhere(ctx, coll, id, nil, fields)
}

func (s *mongoStore) UpdateWhere(ctx context.Context, coll, id string, filters []Filter, fields map[string]any) error {
	filter := append(bson.D{{Key: "_id", Value: id}}, buildFilter(filters)...)
	res, err := s.db.Collection(coll).UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, coll, id string) error {
	res, err := s.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", coll, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) Count(ctx context.Context, coll string) (int64, error) {
	n, err := s.db.Collection(coll).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", coll, err)
	}
	return n, nil
}

func buildFilter(filters []Filter) bson.D {
	doc := bson.D{}
	for _, f := range filters {
		switch f.Op {
		case OpIn:
			doc = append(doc, bson.E{Key: f.Field, Value: bson.M{"$in": f.Value}})
		default:
			doc = append(doc, bson.E{Key: f.Field, Value: f.Value})
		}
	}
	return doc
}

func buildFindOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}
