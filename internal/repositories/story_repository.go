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

// StoryRepository defines the interface for story operations
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	GetActiveStories(ctx context.Context) ([]models.Story, error)
	GetUserStories(ctx context.Context, ownerID string) ([]models.Story, error)
	GetExpiredStories(ctx context.Context) ([]models.Story, error)
	DeleteStory(ctx context.Context, id, requesterID string) (*models.Story, error)
	RecordView(ctx context.Context, storyID, viewerID string) (bool, error)
	ToggleLike(ctx context.Context, storyID, userID string) (bool, error)
	SetHighlighted(ctx context.Context, storyID, highlightID string, highlighted bool) error
	ListMediaObjects(ctx context.Context) (map[string]struct{}, error)
}

type storyRepository struct {
	collection *mongo.Collection
}

func NewStoryRepository(mongoDB *mongo.Database) StoryRepository {
	return &storyRepository{
		collection: mongoDB.Collection("stories"),
	}
}

func (r *storyRepository) CreateStory(ctx context.Context, story *models.Story) error {
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now()
	}
	// ExpiresAt is pinned to CreatedAt here and never mutated afterwards.
	story.ExpiresAt = story.CreatedAt.Add(models.StoryTTL)
	story.SchemaVersion = models.StorySchemaVersion
	if story.ViewerIDs == nil {
		story.ViewerIDs = []string{}
	}
	if story.Likes == nil {
		story.Likes = []string{}
	}
	_, err := r.collection.InsertOne(ctx, story)
	return err
}

func (r *storyRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&story)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) GetActiveStories(ctx context.Context) ([]models.Story, error) {
	filter := bson.M{"expires_at": bson.M{"$gt": time.Now()}}
	return r.findStories(ctx, filter)
}

func (r *storyRepository) GetUserStories(ctx context.Context, ownerID string) ([]models.Story, error) {
	filter := bson.M{
		"owner_id":   ownerID,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	return r.findStories(ctx, filter)
}

// GetExpiredStories returns stories past their TTL that are not pinned into a
// highlight. Highlighted stories are filtered out here so the sweep never
// even considers them.
func (r *storyRepository) GetExpiredStories(ctx context.Context) ([]models.Story, error) {
	filter := bson.M{
		"expires_at":     bson.M{"$lte": time.Now()},
		"is_highlighted": false,
	}
	return r.findStories(ctx, filter)
}

func (r *storyRepository) findStories(ctx context.Context, filter bson.M) ([]models.Story, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	// The displayed likes count is always derived from the set, never from
	// the denormalized counter.
	for i := range stories {
		stories[i].LikesCount = stories[i].DisplayLikesCount()
	}
	return stories, nil
}

// DeleteStory removes a story owned by requesterID and returns the removed
// document so the caller can release its media blobs.
func (r *storyRepository) DeleteStory(ctx context.Context, id, requesterID string) (*models.Story, error) {
	story, err := r.GetStoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != requesterID {
		return nil, ErrNotAuthorized
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner_id": requesterID})
	if err != nil {
		return nil, err
	}
	if res.DeletedCount == 0 {
		return nil, ErrNotFound
	}
	return story, nil
}

// RecordView adds viewerID to the viewer set and bumps the counter in one
// atomic document update, so the membership test and the append cannot race.
// Returns true only on the first view by this viewer.
func (r *storyRepository) RecordView(ctx context.Context, storyID, viewerID string) (bool, error) {
	filter := bson.M{"_id": storyID, "viewer_ids": bson.M{"$ne": viewerID}}
	update := bson.M{
		"$addToSet": bson.M{"viewer_ids": viewerID},
		"$inc":      bson.M{"view_count": 1},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	// Repeat viewer or missing story; tell them apart.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": storyID})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// ToggleLike flips userID's membership in the like set. The set mutation and
// the counter mutation live in the same update document, so they move
// together. Returns true when the story is now liked by the user.
func (r *storyRepository) ToggleLike(ctx context.Context, storyID, userID string) (bool, error) {
	addFilter := bson.M{"_id": storyID, "likes": bson.M{"$ne": userID}}
	addUpdate := bson.M{
		"$addToSet": bson.M{"likes": userID},
		"$inc":      bson.M{"likes_count": 1},
	}
	res, err := r.collection.UpdateOne(ctx, addFilter, addUpdate)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	removeFilter := bson.M{"_id": storyID, "likes": userID}
	removeUpdate := bson.M{
		"$pull": bson.M{"likes": userID},
		"$inc":  bson.M{"likes_count": -1},
	}
	res, err = r.collection.UpdateOne(ctx, removeFilter, removeUpdate)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return false, nil
	}
	return false, ErrNotFound
}

func (r *storyRepository) SetHighlighted(ctx context.Context, storyID, highlightID string, highlighted bool) error {
	update := bson.M{"$set": bson.M{"is_highlighted": highlighted, "highlight_id": highlightID}}
	if !highlighted {
		update = bson.M{
			"$set":   bson.M{"is_highlighted": false},
			"$unset": bson.M{"highlight_id": ""},
		}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": storyID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMediaObjects returns the object-storage keys referenced by any story
// document. The orphan reconciliation pass uses this as its keep-set.
func (r *storyRepository) ListMediaObjects(ctx context.Context) (map[string]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"media_object": 1, "thumbnail_object": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	refs := make(map[string]struct{})
	for cursor.Next(ctx) {
		var doc struct {
			MediaObject     string `bson:"media_object"`
			ThumbnailObject string `bson:"thumbnail_object"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.MediaObject != "" {
			refs[doc.MediaObject] = struct{}{}
		}
		if doc.ThumbnailObject != "" {
			refs[doc.ThumbnailObject] = struct{}{}
		}
	}
	return refs, cursor.Err()
}
