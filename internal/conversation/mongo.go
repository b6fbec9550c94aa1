package conversation

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ Log = (*MongoLog)(nil)

// mongoMessage is the stored document shape
type mongoMessage struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"msg_id"`
	UserID    string             `bson:"user_id"`
	Message   string             `bson:"message"`
	Sender    string             `bson:"sender"`
	Timestamp time.Time          `bson:"timestamp"`
}

// MongoLog stores messages in a MongoDB collection
type MongoLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoLog connects to uri and verifies the connection
func NewMongoLog(ctx context.Context, uri, database, collection string) (*MongoLog, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create history index: %w", err)
	}
	return &MongoLog{client: client, collection: coll}, nil
}

func (m *MongoLog) Insert(ctx context.Context, msg Message) error {
	_, err := m.collection.InsertOne(ctx, mongoMessage{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Message:   msg.Text,
		Sender:    string(msg.Sender),
		Timestamp: msg.Timestamp,
	})
	return err
}

func (m *MongoLog) Latest(ctx context.Context, userID string, limit int) ([]Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, Message{
			ID:        d.ID,
			UserID:    d.UserID,
			Text:      d.Message,
			Sender:    Sender(d.Sender),
			Timestamp: d.Timestamp.UTC(),
		})
	}
	return out, nil
}

func (m *MongoLog) DeleteUser(ctx context.Context, userID string) error {
	_, err := m.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func (m *MongoLog) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
