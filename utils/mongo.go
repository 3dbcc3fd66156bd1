package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raushankrgupta/listing-poster/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsCollection = "posts"

// MongoHistory records generated posts.
type MongoHistory struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// ConnectMongo initializes the MongoDB connection
func ConnectMongo(ctx context.Context, uri, database string) (*MongoHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	slog.Default().Info("connected to MongoDB", "database", database)
	return &MongoHistory{
		client:     client,
		collection: client.Database(database).Collection(postsCollection),
	}, nil
}

// Record stores one post.
func (h *MongoHistory) Record(ctx context.Context, rec models.PostRecord) error {
	if _, err := h.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to save post %s: %w", rec.ID, err)
	}
	return nil
}

// List returns one page of posts, newest first, plus the total count.
func (h *MongoHistory) List(ctx context.Context, page, limit int) ([]models.PostRecord, int64, error) {
	total, err := h.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	skip := int64((page - 1) * limit)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := h.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.PostRecord{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, total, nil
}

// Close disconnects the client.
func (h *MongoHistory) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}
