package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Entry is one authenticated request.
type Entry struct {
	MongoID   primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID        string             `json:"id" bson:"-"`
	UserID    int64              `json:"userId" bson:"user_id"`
	Method    string             `json:"method" bson:"method"`
	Path      string             `json:"path" bson:"path"`
	Status    int                `json:"status" bson:"status"`
	IP        string             `json:"ip" bson:"ip"`
	UserAgent string             `json:"userAgent" bson:"user_agent"`
	At        time.Time          `json:"at" bson:"at"`
}

type Repository interface {
	Record(ctx context.Context, e *Entry) error
	ByUser(ctx context.Context, userID int64, limit int) ([]*Entry, error)
}

type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("audit"),
	}
}

func (r *MongoRepo) Record(ctx context.Context, e *Entry) error {
	result, err := r.collection.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		e.MongoID = oid
		e.ID = oid.Hex()
	}
	return nil
}

// ByUser returns the newest entries of a user first.
func (r *MongoRepo) ByUser(ctx context.Context, userID int64, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*Entry{}
	for cursor.Next(ctx) {
		var e Entry
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		e.ID = e.MongoID.Hex()
		entries = append(entries, &e)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
