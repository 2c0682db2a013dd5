package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock hands out a ticker the test drives by hand.
type manualClock struct {
	ticks chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{ticks: make(chan time.Time, 1024)}
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	return manualTicker{ch: c.ticks}
}

// tick advances the session by n timer periods.
func (c *manualClock) tick(n int) {
	for i := 0; i < n; i++ {
		c.ticks <- time.Now()
	}
}

type manualTicker struct {
	ch chan time.Time
}

func (t manualTicker) C() <-chan time.Time { return t.ch }
func (t manualTicker) Stop()               {}

type recorderCall struct {
	storyID  string
	viewerID string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorderCall
}

func (r *fakeRecorder) RecordView(ctx context.Context, storyID, viewerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorderCall{storyID: storyID, viewerID: viewerID})
	return nil
}

func (r *fakeRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRecorder) lastCall() recorderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func imageStory(id, owner string) models.Story {
	return models.Story{ID: id, OwnerID: owner, MediaType: models.MediaTypeImage}
}

func videoStory(id, owner string) models.Story {
	return models.Story{ID: id, OwnerID: owner, MediaType: models.MediaTypeVideo}
}

func newTestSession(t *testing.T, stories []models.Story) (*Session, *manualClock, *fakeRecorder) {
	t.Helper()
	clock := newManualClock()
	recorder := &fakeRecorder{}
	s, err := NewSession(Config{
		Stories:  stories,
		ViewerID: "viewer-1",
		Recorder: recorder,
		Clock:    clock,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, clock, recorder
}

func waitFor(t *testing.T, s *Session, cond func(State) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return cond(s.Snapshot())
	}, 2*time.Second, time.Millisecond)
}

func TestNewSessionStartsLoading(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	st := s.Snapshot()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Equal(t, 0, st.ElapsedMs)
	assert.True(t, st.Muted, "sessions start muted to satisfy autoplay restrictions")
}

func TestTimerDoesNotRunBeforeMediaReady(t *testing.T) {
	s, clock, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	clock.tick(50)
	// Give the loop a moment to drain the ticks.
	require.Eventually(t, func() bool { return len(clock.ticks) == 0 }, 2*time.Second, time.Millisecond)

	st := s.Snapshot()
	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Equal(t, 0, st.ElapsedMs, "elapsed must not accrue while loading")
}

func TestImageStoryAutoAdvances(t *testing.T) {
	s, clock, _ := newTestSession(t, []models.Story{
		imageStory("s1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	clock.tick(ImageDurationMs / TickMs)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })

	st := s.Snapshot()
	assert.Equal(t, PhaseLoading, st.Phase, "a new index re-enters loading")
	assert.Equal(t, 0, st.ElapsedMs)
}

func TestVideoStoryTimerCeiling(t *testing.T) {
	s, clock, _ := newTestSession(t, []models.Story{
		videoStory("v1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	// An image's worth of ticks is not enough for a video.
	clock.tick(ImageDurationMs / TickMs)
	waitFor(t, s, func(st State) bool { return st.ElapsedMs == ImageDurationMs })
	assert.Equal(t, 0, s.Snapshot().Index)

	clock.tick((VideoDurationMs - ImageDurationMs) / TickMs)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })
}

func TestVideoAdvancesOnEndOfMedia(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		videoStory("v1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	s.MediaEnded(0)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })
}

func TestEndOfMediaIgnoredForImages(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		imageStory("s1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	s.MediaEnded(0)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, s.Snapshot().Index)
}

func TestPauseResumePreservesElapsed(t *testing.T) {
	s, clock, _ := newTestSession(t, []models.Story{
		imageStory("s1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	clock.tick(40)
	waitFor(t, s, func(st State) bool { return st.ElapsedMs == 4000 })

	s.PressStart()
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePaused })

	// Paused ticks must not move the clock.
	clock.tick(30)
	require.Eventually(t, func() bool { return len(clock.ticks) == 0 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, 4000, s.Snapshot().ElapsedMs)

	s.PressEnd()
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })
	assert.Equal(t, 4000, s.Snapshot().ElapsedMs, "resume continues from the preserved elapsed time")

	clock.tick(60)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })
}

func TestSwipeNavigation(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		imageStory("s1", "owner-1"),
		imageStory("s2", "owner-1"),
		imageStory("s3", "owner-1"),
	})

	// Delta of 40 is below the threshold: no-op.
	s.TouchStart(200)
	s.TouchEnd(160)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, s.Snapshot().Index)

	// Delta of exactly 50 is still a no-op.
	s.TouchStart(200)
	s.TouchEnd(150)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, s.Snapshot().Index)

	// Swipe left by 60 advances.
	s.TouchStart(200)
	s.TouchEnd(140)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })

	// Swipe right by 60 goes back.
	s.TouchStart(140)
	s.TouchEnd(200)
	waitFor(t, s, func(st State) bool { return st.Index == 0 })
}

func TestPrevOnFirstStoryIsNoop(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		imageStory("s1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	s.Prev()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, s.Snapshot().Index)
}

func TestNextOnLastStoryClosesViewer(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	s.Next()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not close after advancing past the last story")
	}
	assert.True(t, s.Snapshot().Closed)
}

func TestCommentsOverlayForcesPause(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	s.OpenOverlay(OverlayComments)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePaused && st.Overlay == OverlayComments })

	s.CloseOverlay()
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying && st.Overlay == OverlayNone })
}

func TestCloseCommentsWithDraftStaysPaused(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	s.OpenOverlay(OverlayComments)
	s.SetCommentDraft("half-typed thought")
	s.CloseOverlay()
	waitFor(t, s, func(st State) bool { return st.Overlay == OverlayNone })
	assert.Equal(t, PhasePaused, s.Snapshot().Phase)

	// Clearing the draft releases the pause.
	s.SetCommentDraft("")
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })
}

func TestCommentInputFocusPauses(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	s.FocusCommentInput()
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePaused })

	s.BlurCommentInput()
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })
}

func TestShareMenuDoesNotPause(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	s.MediaReady(0)
	waitFor(t, s, func(st State) bool { return st.Phase == PhasePlaying })

	s.OpenOverlay(OverlayShareMenu)
	waitFor(t, s, func(st State) bool { return st.Overlay == OverlayShareMenu })
	assert.Equal(t, PhasePlaying, s.Snapshot().Phase)

	// Panels are mutually exclusive.
	s.OpenOverlay(OverlayInfo)
	waitFor(t, s, func(st State) bool { return st.Overlay == OverlayInfo })
}

func TestMutePersistsAcrossStories(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		videoStory("v1", "owner-1"),
		videoStory("v2", "owner-1"),
	})

	assert.True(t, s.Snapshot().Muted)

	s.ToggleMute()
	waitFor(t, s, func(st State) bool { return !st.Muted })

	s.Next()
	waitFor(t, s, func(st State) bool { return st.Index == 1 })
	assert.False(t, s.Snapshot().Muted, "mute choice survives index changes")
}

func TestViewRecordedPerStoryButNotForOwner(t *testing.T) {
	clock := newManualClock()
	recorder := &fakeRecorder{}
	s, err := NewSession(Config{
		Stories: []models.Story{
			imageStory("own", "viewer-1"), // viewer's own story
			imageStory("other", "owner-2"),
		},
		ViewerID: "viewer-1",
		Recorder: recorder,
		Clock:    clock,
	})
	require.NoError(t, err)
	defer s.Close()

	// Own story: no view recorded.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, recorder.callCount())

	s.Next()
	require.Eventually(t, func() bool { return recorder.callCount() == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, recorderCall{storyID: "other", viewerID: "viewer-1"}, recorder.lastCall())
}

func TestLoadTimeoutSkipsStory(t *testing.T) {
	clock := newManualClock()
	s, err := NewSession(Config{
		Stories: []models.Story{
			imageStory("slow", "owner-1"),
			imageStory("next", "owner-1"),
		},
		ViewerID:    "viewer-1",
		Recorder:    &fakeRecorder{},
		Clock:       clock,
		LoadTimeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)
	defer s.Close()

	// Never signal readiness; the bounded wait must kick in.
	clock.tick(5)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })
	assert.NotEmpty(t, s.Snapshot().Notice)
}

func TestMediaFailureSkipsStory(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		imageStory("broken", "owner-1"),
		imageStory("next", "owner-1"),
	})

	s.MediaFailed(0)
	waitFor(t, s, func(st State) bool { return st.Index == 1 })
	assert.NotEmpty(t, s.Snapshot().Notice)
}

func TestMediaFailureOnLastStoryCloses(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("broken", "owner-1")})

	s.MediaFailed(0)
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not close after the only story failed")
	}
}

func TestStaleMediaSignalsIgnored(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{
		imageStory("s1", "owner-1"),
		imageStory("s2", "owner-1"),
	})

	// Signals for an index other than the current one are dropped.
	s.MediaReady(1)
	s.MediaEnded(1)
	s.MediaFailed(1)
	time.Sleep(20 * time.Millisecond)

	st := s.Snapshot()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, PhaseLoading, st.Phase)
}

func TestCloseIsIdempotentAndStopsInput(t *testing.T) {
	s, _, _ := newTestSession(t, []models.Story{imageStory("s1", "owner-1")})

	s.Close()
	<-s.Done()
	s.Close()

	// Posting after close is a no-op, not a panic.
	s.Next()
	s.PressStart()
	assert.True(t, s.Snapshot().Closed)
}

func TestSessionRequiresStories(t *testing.T) {
	_, err := NewSession(Config{Recorder: &fakeRecorder{}})
	require.Error(t, err)
}
