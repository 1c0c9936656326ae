package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
)

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessagesByConversation(ctx context.Context, conversationID uint, skip, limit int64) ([]models.Message, int64, error)
	MarkConversationRead(ctx context.Context, conversationID, recipientID uint) (int64, error)
}

// MongoMessageRepository keeps direct messages in the "messages" collection.
type MongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	return err
}

func (r *MongoMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// GetMessagesByConversation pages newest-first and returns the page in
// chronological order.
func (r *MongoMessageRepository) GetMessagesByConversation(ctx context.Context, conversationID uint, skip, limit int64) ([]models.Message, int64, error) {
	filter := bson.M{"conversation_id": conversationID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSkip(skip).SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, total, nil
}

// MarkConversationRead flags every unread message addressed to recipientID.
func (r *MongoMessageRepository) MarkConversationRead(ctx context.Context, conversationID, recipientID uint) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
