package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HighlightRepository defines the interface for highlight album operations
type HighlightRepository interface {
	CreateHighlight(ctx context.Context, highlight *models.Highlight) error
	GetHighlightByID(ctx context.Context, id string) (*models.Highlight, error)
	GetHighlightsByOwner(ctx context.Context, ownerID string) ([]models.Highlight, error)
	AddStory(ctx context.Context, highlightID, storyID string) error
	RemoveStory(ctx context.Context, highlightID, storyID string) error
	DeleteHighlight(ctx context.Context, id string) error
}

type highlightRepository struct {
	collection *mongo.Collection
}

func NewHighlightRepository(mongoDB *mongo.Database) HighlightRepository {
	return &highlightRepository{
		collection: mongoDB.Collection("highlights"),
	}
}

func (r *highlightRepository) CreateHighlight(ctx context.Context, highlight *models.Highlight) error {
	highlight.CreatedAt = time.Now()
	highlight.UpdatedAt = highlight.CreatedAt
	if highlight.StoryIDs == nil {
		highlight.StoryIDs = []string{}
	}
	_, err := r.collection.InsertOne(ctx, highlight)
	return err
}

func (r *highlightRepository) GetHighlightByID(ctx context.Context, id string) (*models.Highlight, error) {
	var highlight models.Highlight
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&highlight)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &highlight, nil
}

func (r *highlightRepository) GetHighlightsByOwner(ctx context.Context, ownerID string) ([]models.Highlight, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var highlights []models.Highlight
	if err = cursor.All(ctx, &highlights); err != nil {
		return nil, err
	}
	return highlights, nil
}

// AddStory appends storyID to the album, preserving insertion order. Adding
// a story twice is a no-op.
func (r *highlightRepository) AddStory(ctx context.Context, highlightID, storyID string) error {
	filter := bson.M{"_id": highlightID, "story_ids": bson.M{"$ne": storyID}}
	update := bson.M{
		"$push": bson.M{"story_ids": storyID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": highlightID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (r *highlightRepository) RemoveStory(ctx context.Context, highlightID, storyID string) error {
	update := bson.M{
		"$pull": bson.M{"story_ids": storyID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": highlightID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *highlightRepository) DeleteHighlight(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
