package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/moderation"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/arman306/storyloop/backend/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangePublisher lets services signal that the active story set changed.
type ChangePublisher interface {
	StoriesChanged(ctx context.Context)
}

// CreateStoryInput carries the validated upload for a new story.
type CreateStoryInput struct {
	MediaType string
	Caption   string
	FileName  string
	Size      int64
	Content   io.Reader
}

// StoryService implements the upload pipeline: validate, moderate the
// caption, push the blob, derive a thumbnail for videos, and persist the
// story document last.
type StoryService struct {
	stories   repositories.StoryRepository
	media     storage.MediaStore
	filter    moderation.ContentFilter
	thumbs    Thumbnailer
	publisher ChangePublisher
	origin    string
	maxBytes  int64
	log       *zap.Logger
}

// NewStoryService creates a new StoryService
func NewStoryService(
	stories repositories.StoryRepository,
	media storage.MediaStore,
	filter moderation.ContentFilter,
	thumbs Thumbnailer,
	publisher ChangePublisher,
	origin string,
	maxBytes int64,
	log *zap.Logger,
) *StoryService {
	return &StoryService{
		stories:   stories,
		media:     media,
		filter:    filter,
		thumbs:    thumbs,
		publisher: publisher,
		origin:    origin,
		maxBytes:  maxBytes,
		log:       log,
	}
}

// CreateStory runs the full upload pipeline and returns the persisted story.
// Validation and caption moderation happen before any network call.
func (s *StoryService) CreateStory(ctx context.Context, owner models.Identity, input CreateStoryInput) (*models.Story, error) {
	if input.MediaType != models.MediaTypeImage && input.MediaType != models.MediaTypeVideo {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidMedia, input.MediaType)
	}
	if input.Size <= 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidMedia)
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrMediaTooLarge, input.Size)
	}

	if input.Caption != "" {
		verdict, err := s.filter.FilterContent(ctx, input.Caption, "story_caption")
		if err != nil {
			return nil, fmt.Errorf("caption moderation failed: %w", err)
		}
		if verdict.ShouldBlock {
			return nil, &ContentRejectedError{Violations: verdict.Violations}
		}
	}

	storyID := uuid.NewString()
	now := time.Now()
	objectKey := fmt.Sprintf("stories/%s/%s/%d-%s",
		input.MediaType, owner.UserID, now.UnixNano(), SanitizeFileName(input.FileName))

	story := &models.Story{
		ID:             storyID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(models.StoryTTL),
		OwnerID:        owner.UserID,
		OwnerName:      owner.Name,
		OwnerAvatarURL: owner.AvatarURL,
		MediaType:      input.MediaType,
		MediaObject:    objectKey,
		Caption:        input.Caption,
		SharingEnabled: true,
		PublicLink:     fmt.Sprintf("%s/story/%s", s.origin, storyID),
	}

	if input.MediaType == models.MediaTypeVideo {
		if err := s.uploadVideo(ctx, story, input); err != nil {
			return nil, err
		}
	} else {
		mediaURL, err := s.media.Put(ctx, objectKey, input.Content, input.Size, contentTypeFor(input))
		if err != nil {
			return nil, fmt.Errorf("media upload failed: %w", err)
		}
		story.MediaURL = mediaURL
		story.ThumbnailURL = mediaURL
	}

	if err := s.stories.CreateStory(ctx, story); err != nil {
		// The blob is already durable with no referencing document.
		// The sweeper's orphan reconciliation pass will collect it.
		s.log.Warn("story persist failed after blob upload, orphan left behind",
			zap.String("object", objectKey), zap.Error(err))
		return nil, fmt.Errorf("failed to persist story: %w", err)
	}

	s.publisher.StoriesChanged(ctx)
	return story, nil
}

// uploadVideo spools the video to a temp file so ffmpeg can seek it for the
// thumbnail frame, then uploads both blobs.
func (s *StoryService) uploadVideo(ctx context.Context, story *models.Story, input CreateStoryInput) error {
	tmp, err := os.CreateTemp("", "story-video-*")
	if err != nil {
		return fmt.Errorf("failed to spool video upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, input.Content); err != nil {
		return fmt.Errorf("failed to spool video upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	mediaURL, err := s.media.Put(ctx, story.MediaObject, tmp, input.Size, contentTypeFor(input))
	if err != nil {
		return fmt.Errorf("media upload failed: %w", err)
	}
	story.MediaURL = mediaURL

	thumbPath := tmp.Name() + "-thumb.jpg"
	defer os.Remove(thumbPath)
	if err := s.thumbs.CaptureFrame(ctx, tmp.Name(), thumbPath); err != nil {
		// A missing thumbnail degrades the viewer but must not abort the
		// upload.
		s.log.Warn("video thumbnail capture failed", zap.String("story_id", story.ID), zap.Error(err))
		return nil
	}

	thumbFile, err := os.Open(thumbPath)
	if err != nil {
		s.log.Warn("failed to open captured thumbnail", zap.Error(err))
		return nil
	}
	defer thumbFile.Close()

	info, err := thumbFile.Stat()
	if err != nil {
		return nil
	}

	thumbKey := story.MediaObject + ".thumb.jpg"
	thumbURL, err := s.media.Put(ctx, thumbKey, thumbFile, info.Size(), "image/jpeg")
	if err != nil {
		s.log.Warn("thumbnail upload failed", zap.String("story_id", story.ID), zap.Error(err))
		return nil
	}
	story.ThumbnailObject = thumbKey
	story.ThumbnailURL = thumbURL
	return nil
}

// GetActiveStories returns all unexpired stories, newest first
func (s *StoryService) GetActiveStories(ctx context.Context) ([]models.Story, error) {
	return s.stories.GetActiveStories(ctx)
}

// GetUserStories returns one owner's unexpired stories, newest first
func (s *StoryService) GetUserStories(ctx context.Context, ownerID string) ([]models.Story, error) {
	return s.stories.GetUserStories(ctx, ownerID)
}

// GetStoryByID resolves a single story; used by the public share link
func (s *StoryService) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	story, err := s.stories.GetStoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	story.LikesCount = story.DisplayLikesCount()
	return story, nil
}

// DeleteStory removes a story after an ownership check and releases its
// blobs unless the story is pinned into a highlight.
func (s *StoryService) DeleteStory(ctx context.Context, storyID, requesterID string) error {
	story, err := s.stories.DeleteStory(ctx, storyID, requesterID)
	if err != nil {
		return err
	}

	if !story.IsHighlighted {
		if err := s.media.Remove(ctx, story.MediaObject); err != nil {
			s.log.Warn("failed to remove media blob", zap.String("object", story.MediaObject), zap.Error(err))
		}
		if story.ThumbnailObject != "" {
			if err := s.media.Remove(ctx, story.ThumbnailObject); err != nil {
				s.log.Warn("failed to remove thumbnail blob", zap.String("object", story.ThumbnailObject), zap.Error(err))
			}
		}
	}

	s.publisher.StoriesChanged(ctx)
	return nil
}

// SanitizeFileName strips path components and anything outside a safe
// character set from an uploaded file name.
func SanitizeFileName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func contentTypeFor(input CreateStoryInput) string {
	ext := strings.ToLower(filepath.Ext(input.FileName))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	}
	if input.MediaType == models.MediaTypeVideo {
		return "video/mp4"
	}
	return "application/octet-stream"
}
