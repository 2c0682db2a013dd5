package services

import (
	"context"
	"fmt"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/moderation"
	"github.com/arman306/storyloop/backend/internal/notify"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"go.uber.org/zap"
)

// EngagementService records views, likes and comments against stories.
type EngagementService struct {
	stories  repositories.StoryRepository
	comments repositories.CommentRepository
	views    repositories.ViewRepository
	filter   moderation.ContentFilter
	notifier notify.Notifier
	log      *zap.Logger
}

// NewEngagementService creates a new EngagementService
func NewEngagementService(
	stories repositories.StoryRepository,
	comments repositories.CommentRepository,
	views repositories.ViewRepository,
	filter moderation.ContentFilter,
	notifier notify.Notifier,
	log *zap.Logger,
) *EngagementService {
	return &EngagementService{
		stories:  stories,
		comments: comments,
		views:    views,
		filter:   filter,
		notifier: notifier,
		log:      log,
	}
}

// RecordView marks a story viewed by viewerID. The call is idempotent: a
// repeat viewer changes nothing. First views also land in the append-only
// analytics log, which survives the story itself.
func (s *EngagementService) RecordView(ctx context.Context, storyID, viewerID string) error {
	firstView, err := s.stories.RecordView(ctx, storyID, viewerID)
	if err != nil {
		return err
	}
	if !firstView {
		return nil
	}

	if err := s.views.AppendView(storyID, viewerID); err != nil {
		// The document counter already moved; the analytics row is best
		// effort.
		s.log.Warn("failed to append view log entry",
			zap.String("story_id", storyID), zap.String("viewer_id", viewerID), zap.Error(err))
	}
	return nil
}

// ToggleLike flips the actor's like on a story and notifies the owner when a
// like lands on someone else's story.
func (s *EngagementService) ToggleLike(ctx context.Context, storyID string, actor models.Identity) (bool, error) {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return false, err
	}

	liked, err := s.stories.ToggleLike(ctx, storyID, actor.UserID)
	if err != nil {
		return false, err
	}

	if liked && actor.UserID != story.OwnerID {
		go s.notifier.Notify(context.Background(), notify.EventStoryLiked, actor.UserID, story.OwnerID, map[string]string{
			"story_id":   storyID,
			"actor_name": actor.Name,
		})
	}
	return liked, nil
}

// AddComment moderates and appends a comment, notifying the story owner
// unless they authored it themselves.
func (s *EngagementService) AddComment(ctx context.Context, storyID string, author models.Identity, text string) (*models.Comment, error) {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	verdict, err := s.filter.FilterContent(ctx, text, "story_comment")
	if err != nil {
		return nil, fmt.Errorf("comment moderation failed: %w", err)
	}
	if verdict.ShouldBlock {
		return nil, &ContentRejectedError{Violations: verdict.Violations}
	}

	comment := &models.Comment{
		StoryID:         storyID,
		AuthorID:        author.UserID,
		AuthorName:      author.Name,
		AuthorAvatarURL: author.AvatarURL,
		Text:            text,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		return nil, err
	}

	if author.UserID != story.OwnerID {
		go s.notifier.Notify(context.Background(), notify.EventStoryCommented, author.UserID, story.OwnerID, map[string]string{
			"story_id":   storyID,
			"actor_name": author.Name,
			"preview":    preview(text),
		})
	}
	return comment, nil
}

// ListComments returns a story's comments, oldest first
func (s *EngagementService) ListComments(ctx context.Context, storyID string) ([]models.Comment, error) {
	return s.comments.GetCommentsByStoryID(storyID)
}

// DeleteComment removes a comment; only its author may do so.
func (s *EngagementService) DeleteComment(ctx context.Context, commentID uint, requesterID string) error {
	comment, err := s.comments.GetCommentByID(commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != requesterID {
		return repositories.ErrNotAuthorized
	}
	return s.comments.DeleteComment(commentID)
}

func preview(text string) string {
	const max = 80
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
