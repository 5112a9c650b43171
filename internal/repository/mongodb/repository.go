package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

const snapshotsCollection = "stock_snapshots"

// Repository defines the interface for stock snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.StockSnapshot) error
	ListSnapshots(ctx context.Context, limit int64) ([]models.StockSnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:     client,
		collection: client.Database(dbName).Collection(snapshotsCollection),
	}, nil
}

// NewSnapshotRepository wraps an existing database handle.
func NewSnapshotRepository(db *mongo.Database) *MongoDBRepository {
	return &MongoDBRepository{
		client:     db.Client(),
		collection: db.Collection(snapshotsCollection),
	}
}

// SaveSnapshot stores one stock snapshot.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.StockSnapshot) error {
	if _, err := r.collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert stock snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (r *MongoDBRepository) ListSnapshots(ctx context.Context, limit int64) ([]models.StockSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	snapshots := make([]models.StockSnapshot, 0)
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode stock snapshots: %w", err)
	}
	return snapshots, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
