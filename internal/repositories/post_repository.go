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

// Counter fields on a post document.
const (
	PostReactionsCount = "reactions_count"
	PostCommentsCount  = "comments_count"
	PostSharesCount    = "shares_count"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint, audiences []models.Audience, skip, limit int64) ([]models.Post, error)
	CountPostsByUserID(ctx context.Context, userID uint, audiences []models.Audience) (int64, error)
	GetRecentPosts(ctx context.Context, limit int64) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	IncrementCounter(ctx context.Context, postID, field string, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the feed and profile queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Files == nil {
		post.Files = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post); err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// GetPostsByIDs resolves many posts at once. Missing or malformed ids are
// absent from the result.
func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	out := make(map[string]*models.Post, len(ids))
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return out, nil
	}

	posts, err := r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, options.Find())
	if err != nil {
		return nil, err
	}
	for i := range posts {
		out[posts[i].ID.Hex()] = &posts[i]
	}
	return out, nil
}

func authorFilter(userID uint, audiences []models.Audience) bson.M {
	filter := bson.M{"user_id": userID}
	if len(audiences) > 0 {
		filter["audience"] = bson.M{"$in": audiences}
	}
	return filter
}

// GetPostsByUserID lists an author's posts, newest first, restricted to the given audiences
// (all audiences when empty).
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID uint, audiences []models.Audience, skip, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, authorFilter(userID, audiences), findOptions)
}

func (r *MongoPostRepository) CountPostsByUserID(ctx context.Context, userID uint, audiences []models.Audience) (int64, error) {
	return r.collection.CountDocuments(ctx, authorFilter(userID, audiences))
}

// GetRecentPosts returns the newest posts across all authors.
func (r *MongoPostRepository) GetRecentPosts(ctx context.Context, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.D{}, findOptions)
}

func (r *MongoPostRepository) CountPosts(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost writes the editable fields of post.
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"content":    post.Content,
			"audience":   post.Audience,
			"files":      post.Files,
			"updated_at": post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCounter adds delta to one of the counter fields, never going below zero.
func (r *MongoPostRepository) IncrementCounter(ctx context.Context, postID, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	filter := bson.M{"_id": objID}
	if delta < 0 {
		filter[field] = bson.M{"$gte": -delta}
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	return err
}
