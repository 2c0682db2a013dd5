package services

import (
	"context"
	"testing"
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type highlightFixture struct {
	svc        *HighlightService
	highlights *fakeHighlightRepo
	stories    *fakeStoryRepo
}

func newHighlightFixture() *highlightFixture {
	f := &highlightFixture{
		highlights: newFakeHighlightRepo(),
		stories:    newFakeStoryRepo(),
	}
	f.svc = NewHighlightService(f.highlights, f.stories, zap.NewNop())
	return f
}

func (f *highlightFixture) seed(t *testing.T, ownerID string) (*models.Highlight, *models.Story) {
	t.Helper()
	ctx := context.Background()

	highlight, err := f.svc.CreateHighlight(ctx, ownerID, models.CreateHighlightRequest{Title: "Summer"})
	require.NoError(t, err)

	story := &models.Story{ID: "s1", OwnerID: ownerID, MediaType: models.MediaTypeImage}
	require.NoError(t, f.stories.CreateStory(ctx, story))
	return highlight, story
}

func TestAddStorySetsHighlightFlag(t *testing.T) {
	f := newHighlightFixture()
	highlight, story := f.seed(t, "user-alice")
	ctx := context.Background()

	require.NoError(t, f.svc.AddStory(ctx, highlight.ID, story.ID, "user-alice"))

	got, err := f.stories.GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	assert.True(t, got.IsHighlighted)
	assert.Equal(t, highlight.ID, got.HighlightID)

	album, err := f.highlights.GetHighlightByID(ctx, highlight.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{story.ID}, album.StoryIDs)
}

func TestAddStoryRequiresOwningBoth(t *testing.T) {
	f := newHighlightFixture()
	highlight, story := f.seed(t, "user-alice")
	ctx := context.Background()

	err := f.svc.AddStory(ctx, highlight.ID, story.ID, "user-mallory")
	require.ErrorIs(t, err, repositories.ErrNotAuthorized)

	// Someone else's story cannot be pinned into your album either.
	other := &models.Story{ID: "s2", OwnerID: "user-bob", MediaType: models.MediaTypeImage}
	require.NoError(t, f.stories.CreateStory(ctx, other))
	err = f.svc.AddStory(ctx, highlight.ID, other.ID, "user-alice")
	require.ErrorIs(t, err, repositories.ErrNotAuthorized)
}

func TestRemoveStoryClearsFlagAndMakesSweepable(t *testing.T) {
	f := newHighlightFixture()
	highlight, story := f.seed(t, "user-alice")
	ctx := context.Background()

	require.NoError(t, f.svc.AddStory(ctx, highlight.ID, story.ID, "user-alice"))

	// Age the story past its TTL; while pinned it must not be sweepable.
	f.stories.mu.Lock()
	f.stories.stories[story.ID].ExpiresAt = time.Now().Add(-time.Hour)
	f.stories.mu.Unlock()

	expired, err := f.stories.GetExpiredStories(ctx)
	require.NoError(t, err)
	assert.Empty(t, expired)

	require.NoError(t, f.svc.RemoveStory(ctx, highlight.ID, story.ID, "user-alice"))

	got, err := f.stories.GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	assert.False(t, got.IsHighlighted)
	assert.Empty(t, got.HighlightID)

	expired, err = f.stories.GetExpiredStories(ctx)
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestDeleteHighlightClearsMemberFlags(t *testing.T) {
	f := newHighlightFixture()
	highlight, story := f.seed(t, "user-alice")
	ctx := context.Background()

	require.NoError(t, f.svc.AddStory(ctx, highlight.ID, story.ID, "user-alice"))
	require.NoError(t, f.svc.DeleteHighlight(ctx, highlight.ID, "user-alice"))

	got, err := f.stories.GetStoryByID(ctx, story.ID)
	require.NoError(t, err)
	assert.False(t, got.IsHighlighted)

	_, err = f.highlights.GetHighlightByID(ctx, highlight.ID)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDeleteHighlightNonOwnerDenied(t *testing.T) {
	f := newHighlightFixture()
	highlight, _ := f.seed(t, "user-alice")

	err := f.svc.DeleteHighlight(context.Background(), highlight.ID, "user-mallory")
	require.ErrorIs(t, err, repositories.ErrNotAuthorized)
}
