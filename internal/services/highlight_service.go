package services

import (
	"context"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HighlightService manages highlight albums and keeps member stories'
// highlight flags in step, since a flagged story is exempt from the
// expiration sweep.
type HighlightService struct {
	highlights repositories.HighlightRepository
	stories    repositories.StoryRepository
	log        *zap.Logger
}

// NewHighlightService creates a new HighlightService
func NewHighlightService(highlights repositories.HighlightRepository, stories repositories.StoryRepository, log *zap.Logger) *HighlightService {
	return &HighlightService{highlights: highlights, stories: stories, log: log}
}

// CreateHighlight creates an empty album for the owner
func (s *HighlightService) CreateHighlight(ctx context.Context, ownerID string, req models.CreateHighlightRequest) (*models.Highlight, error) {
	highlight := &models.Highlight{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Title:         req.Title,
		CoverImageURL: req.CoverImageURL,
	}
	if err := s.highlights.CreateHighlight(ctx, highlight); err != nil {
		return nil, err
	}
	return highlight, nil
}

// GetHighlightsByOwner lists an owner's albums, newest first
func (s *HighlightService) GetHighlightsByOwner(ctx context.Context, ownerID string) ([]models.Highlight, error) {
	return s.highlights.GetHighlightsByOwner(ctx, ownerID)
}

// AddStory pins a story into an album. The story's highlight flag is set in
// the same call, which exempts it from the sweep even past its expiry.
func (s *HighlightService) AddStory(ctx context.Context, highlightID, storyID, requesterID string) error {
	highlight, err := s.highlights.GetHighlightByID(ctx, highlightID)
	if err != nil {
		return err
	}
	if highlight.OwnerID != requesterID {
		return repositories.ErrNotAuthorized
	}

	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.OwnerID != requesterID {
		return repositories.ErrNotAuthorized
	}

	if err := s.highlights.AddStory(ctx, highlightID, storyID); err != nil {
		return err
	}
	return s.stories.SetHighlighted(ctx, storyID, highlightID, true)
}

// RemoveStory unpins a story. Once the flag is cleared an already-expired
// story becomes sweepable again.
func (s *HighlightService) RemoveStory(ctx context.Context, highlightID, storyID, requesterID string) error {
	highlight, err := s.highlights.GetHighlightByID(ctx, highlightID)
	if err != nil {
		return err
	}
	if highlight.OwnerID != requesterID {
		return repositories.ErrNotAuthorized
	}

	if err := s.highlights.RemoveStory(ctx, highlightID, storyID); err != nil {
		return err
	}
	return s.stories.SetHighlighted(ctx, storyID, "", false)
}

// DeleteHighlight removes an album and clears every member story's flag
func (s *HighlightService) DeleteHighlight(ctx context.Context, highlightID, requesterID string) error {
	highlight, err := s.highlights.GetHighlightByID(ctx, highlightID)
	if err != nil {
		return err
	}
	if highlight.OwnerID != requesterID {
		return repositories.ErrNotAuthorized
	}

	for _, storyID := range highlight.StoryIDs {
		if err := s.stories.SetHighlighted(ctx, storyID, "", false); err != nil && err != repositories.ErrNotFound {
			s.log.Warn("failed to clear highlight flag",
				zap.String("story_id", storyID), zap.Error(err))
		}
	}
	return s.highlights.DeleteHighlight(ctx, highlightID)
}
