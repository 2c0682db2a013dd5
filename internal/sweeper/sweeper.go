package sweeper

import (
	"context"
	"time"

	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/arman306/storyloop/backend/internal/storage"
	"go.uber.org/zap"
)

// Sweeper removes stories past their time-to-live and reconciles orphaned
// media blobs. Highlighted stories never reach it: the expired-story query
// filters them out at the source. Comment rows and the view log are left
// untouched; they are durable analytics.
type Sweeper struct {
	stories   repositories.StoryRepository
	media     storage.MediaStore
	publisher services.ChangePublisher

	interval    time.Duration
	orphanGrace time.Duration
	log         *zap.Logger
}

// New creates a Sweeper
func New(
	stories repositories.StoryRepository,
	media storage.MediaStore,
	publisher services.ChangePublisher,
	interval, orphanGrace time.Duration,
	log *zap.Logger,
) *Sweeper {
	return &Sweeper{
		stories:     stories,
		media:       media,
		publisher:   publisher,
		interval:    interval,
		orphanGrace: orphanGrace,
		log:         log,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. The sweep
// never sits in any user-facing call path.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.log.Error("expiration sweep failed", zap.Error(err))
			} else if n > 0 {
				s.log.Info("expiration sweep completed", zap.Int("deleted", n))
			}
			if err := s.ReconcileOrphans(ctx); err != nil {
				s.log.Error("orphan reconciliation failed", zap.Error(err))
			}
		}
	}
}

// Sweep deletes every expired, non-highlighted story and releases its blobs.
// Returns the number of stories removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.stories.GetExpiredStories(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, story := range expired {
		if _, err := s.stories.DeleteStory(ctx, story.ID, story.OwnerID); err != nil {
			s.log.Warn("failed to delete expired story",
				zap.String("story_id", story.ID), zap.Error(err))
			continue
		}
		deleted++

		if err := s.media.Remove(ctx, story.MediaObject); err != nil {
			s.log.Warn("failed to remove media blob",
				zap.String("object", story.MediaObject), zap.Error(err))
		}
		if story.ThumbnailObject != "" {
			if err := s.media.Remove(ctx, story.ThumbnailObject); err != nil {
				s.log.Warn("failed to remove thumbnail blob",
					zap.String("object", story.ThumbnailObject), zap.Error(err))
			}
		}
	}

	if deleted > 0 {
		s.publisher.StoriesChanged(ctx)
	}
	return deleted, nil
}

// ReconcileOrphans removes blobs no story document references. An upload that
// died between the blob write and the document write leaves exactly this kind
// of orphan. Blobs younger than the grace window are skipped so an in-flight
// upload is never collected.
func (s *Sweeper) ReconcileOrphans(ctx context.Context) error {
	referenced, err := s.stories.ListMediaObjects(ctx)
	if err != nil {
		return err
	}

	objects, err := s.media.List(ctx, "stories/")
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-s.orphanGrace)
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if err := s.media.Remove(ctx, obj.Key); err != nil {
			s.log.Warn("failed to remove orphaned blob",
				zap.String("object", obj.Key), zap.Error(err))
			continue
		}
		s.log.Info("removed orphaned blob", zap.String("object", obj.Key))
	}
	return nil
}
