package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"go.uber.org/zap"
)

// ViewRecorder receives the deduplicated view calls the session emits when a
// story enters the viewport.
type ViewRecorder interface {
	RecordView(ctx context.Context, storyID, viewerID string) error
}

// Config configures a viewer session.
type Config struct {
	// Stories is the ordered sequence the viewer steps through. Must not be
	// empty.
	Stories []models.Story
	// ViewerID identifies the viewer; views on their own stories are not
	// recorded.
	ViewerID string
	// Recorder receives view calls. Required.
	Recorder ViewRecorder
	// Clock defaults to the system clock; tests inject a manual one.
	Clock Clock
	// LoadTimeout bounds the Loading phase; zero means DefaultLoadTimeout.
	LoadTimeout time.Duration
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Session is the per-viewer playback state machine. It owns exactly one
// timer and runs a single event loop; callers interact through methods that
// post into the loop and never block on playback work.
type Session struct {
	stories  []models.Story
	viewerID string
	recorder ViewRecorder
	log      *zap.Logger

	events chan func()
	done   chan struct{}
	ticker Ticker

	loadTimeoutMs int

	// Everything below is mutated only inside the loop, under mu so
	// Snapshot can read concurrently.
	mu    sync.Mutex
	state State

	pressed        bool
	commentFocused bool
	draft          string
	holdForDraft   bool
	touchActive    bool
	touchStartX    float64
	loadWaitMs     int
}

// NewSession opens a viewer over the given story sequence and starts
// playback of the first story.
func NewSession(cfg Config) (*Session, error) {
	if len(cfg.Stories) == 0 {
		return nil, fmt.Errorf("story sequence is empty")
	}
	if cfg.Recorder == nil {
		return nil, fmt.Errorf("view recorder is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	logg := cfg.Logger
	if logg == nil {
		logg = zap.NewNop()
	}
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}

	s := &Session{
		stories:       cfg.Stories,
		viewerID:      cfg.ViewerID,
		recorder:      cfg.Recorder,
		log:           logg,
		events:        make(chan func(), 64),
		done:          make(chan struct{}),
		ticker:        clock.NewTicker(TickInterval),
		loadTimeoutMs: int(timeout / time.Millisecond),
	}
	// Muted by default: the underlying media platforms refuse autoplay
	// with sound, so unmuting is strictly a user action.
	s.state.Muted = true

	s.mu.Lock()
	s.enterIndex(0)
	s.mu.Unlock()

	go s.loop()
	return s, nil
}

func (s *Session) loop() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.events:
			s.mu.Lock()
			fn()
			s.mu.Unlock()
		case <-s.ticker.C():
			s.mu.Lock()
			s.tick()
			s.mu.Unlock()
		}
	}
}

// post hands a mutation to the loop; it is discarded once the session is
// closed.
func (s *Session) post(fn func()) {
	select {
	case <-s.done:
	case s.events <- fn:
	}
}

// Done is closed when the viewer closes, either explicitly or by advancing
// past the last story.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns the current viewer state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentStory returns the story at the current index.
func (s *Session) CurrentStory() models.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stories[s.state.Index]
}

// MediaReady signals that the media at index has fully decoded (first frame
// for images, playable data for video). The advance timer only starts after
// this signal.
func (s *Session) MediaReady(index int) {
	s.post(func() {
		if index != s.state.Index || s.state.Phase != PhaseLoading {
			return
		}
		if s.pauseRequested() {
			s.state.Phase = PhasePaused
		} else {
			s.state.Phase = PhasePlaying
		}
	})
}

// MediaEnded signals end-of-media; it advances video stories regardless of
// the timer.
func (s *Session) MediaEnded(index int) {
	s.post(func() {
		if index != s.state.Index {
			return
		}
		if s.stories[index].MediaType != models.MediaTypeVideo {
			return
		}
		s.advance()
	})
}

// MediaFailed signals a decode failure; the story is skipped with a soft
// notice instead of stalling the viewer.
func (s *Session) MediaFailed(index int) {
	s.post(func() {
		if index != s.state.Index {
			return
		}
		s.skipUnplayable("media failed to load")
	})
}

// PressStart pauses playback while the viewer holds the content area.
func (s *Session) PressStart() {
	s.post(func() {
		s.pressed = true
		s.applyPhase()
	})
}

// PressEnd resumes playback from the preserved elapsed time.
func (s *Session) PressEnd() {
	s.post(func() {
		s.pressed = false
		s.applyPhase()
	})
}

// TouchStart begins gesture tracking at the given horizontal position.
func (s *Session) TouchStart(x float64) {
	s.post(func() {
		s.touchActive = true
		s.touchStartX = x
	})
}

// TouchEnd finishes gesture tracking. A horizontal delta strictly above
// SwipeThreshold navigates; anything at or below it is a no-op.
func (s *Session) TouchEnd(x float64) {
	s.post(func() {
		if !s.touchActive {
			return
		}
		s.touchActive = false
		delta := x - s.touchStartX
		switch {
		case delta > SwipeThreshold:
			s.prev()
		case delta < -SwipeThreshold:
			s.advance()
		}
	})
}

// Next advances to the next story; on the last story it closes the viewer.
func (s *Session) Next() {
	s.post(func() { s.advance() })
}

// Prev steps back one story; on the first story it is a no-op.
func (s *Session) Prev() {
	s.post(func() { s.prev() })
}

// OpenOverlay shows a panel, replacing any other open panel. Opening the
// comments panel pauses playback.
func (s *Session) OpenOverlay(o Overlay) {
	s.post(func() {
		s.state.Overlay = o
		s.applyPhase()
	})
}

// CloseOverlay hides the open panel. Closing the comments panel resumes
// playback only while the comment draft is empty.
func (s *Session) CloseOverlay() {
	s.post(func() {
		if s.state.Overlay == OverlayComments && s.draft != "" {
			s.holdForDraft = true
		}
		s.state.Overlay = OverlayNone
		s.applyPhase()
	})
}

// FocusCommentInput pauses playback while the comment field has focus.
func (s *Session) FocusCommentInput() {
	s.post(func() {
		s.commentFocused = true
		s.applyPhase()
	})
}

// BlurCommentInput resumes playback.
func (s *Session) BlurCommentInput() {
	s.post(func() {
		s.commentFocused = false
		s.holdForDraft = false
		s.applyPhase()
	})
}

// SetCommentDraft tracks the comment input's content.
func (s *Session) SetCommentDraft(text string) {
	s.post(func() {
		s.draft = text
		if text == "" {
			s.holdForDraft = false
		}
		s.applyPhase()
	})
}

// ToggleMute flips the mute state. Mute is independent of the playback phase
// and persists across story changes within the session.
func (s *Session) ToggleMute() {
	s.post(func() {
		s.state.Muted = !s.state.Muted
	})
}

// Close tears the session down: the timer stops and no callback fires
// afterwards.
func (s *Session) Close() {
	s.post(func() { s.close() })
}

// --- loop internals; all called with the state locked ---

func (s *Session) tick() {
	switch s.state.Phase {
	case PhasePlaying:
		s.state.ElapsedMs += TickMs
		if s.state.ElapsedMs >= durationMs(&s.stories[s.state.Index]) {
			s.advance()
		}
	case PhaseLoading:
		s.loadWaitMs += TickMs
		if s.loadWaitMs >= s.loadTimeoutMs {
			s.skipUnplayable("media load timed out")
		}
	}
}

// enterIndex moves playback to a story: elapsed resets, the loading phase is
// re-entered, and the view is recorded unless the viewer owns the story.
func (s *Session) enterIndex(index int) {
	s.state.Index = index
	s.state.Phase = PhaseLoading
	s.state.ElapsedMs = 0
	s.state.Overlay = OverlayNone
	s.state.Notice = ""
	s.loadWaitMs = 0
	s.pressed = false
	s.commentFocused = false
	s.draft = ""
	s.holdForDraft = false
	s.touchActive = false

	story := s.stories[index]
	if story.OwnerID == s.viewerID {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.recorder.RecordView(ctx, story.ID, s.viewerID); err != nil {
			s.log.Warn("failed to record story view",
				zap.String("story_id", story.ID), zap.Error(err))
		}
	}()
}

func (s *Session) advance() {
	if s.state.Closed {
		return
	}
	if s.state.Index >= len(s.stories)-1 {
		s.close()
		return
	}
	s.enterIndex(s.state.Index + 1)
}

func (s *Session) prev() {
	if s.state.Closed || s.state.Index == 0 {
		return
	}
	s.enterIndex(s.state.Index - 1)
}

func (s *Session) skipUnplayable(reason string) {
	story := s.stories[s.state.Index]
	s.log.Warn("skipping unplayable story",
		zap.String("story_id", story.ID), zap.String("reason", reason))
	notice := fmt.Sprintf("story unavailable: %s", reason)
	s.advance()
	if !s.state.Closed {
		s.state.Notice = notice
	}
}

// pauseRequested reports whether any pause source is active: a held press,
// the open comments panel, a focused comment input, or a non-empty draft
// left behind when the panel closed.
func (s *Session) pauseRequested() bool {
	return s.pressed || s.state.Overlay == OverlayComments || s.commentFocused || s.holdForDraft
}

// applyPhase settles Playing/Paused from the pause sources. Loading is left
// alone: only MediaReady moves a story out of Loading, and the settled phase
// is picked there.
func (s *Session) applyPhase() {
	if s.state.Closed || s.state.Phase == PhaseLoading {
		return
	}
	if s.pauseRequested() {
		s.state.Phase = PhasePaused
	} else {
		s.state.Phase = PhasePlaying
	}
}

func (s *Session) close() {
	if s.state.Closed {
		return
	}
	s.state.Closed = true
	s.ticker.Stop()
	close(s.done)
}
