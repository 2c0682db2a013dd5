package playback

import (
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
)

// Phase is the playback phase of the current story.
type Phase int

const (
	// PhaseLoading means the media has not signalled readiness yet. It is
	// re-entered on every index change and the advance timer does not run.
	PhaseLoading Phase = iota
	// PhasePlaying means the advance timer is counting up.
	PhasePlaying
	// PhasePaused means the timer is stopped with elapsed time preserved.
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	}
	return "unknown"
}

// Overlay identifies the panel shown over the player. Panels are mutually
// exclusive; only the comments panel affects the playback phase.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayComments
	OverlayShareMenu
	OverlayDeleteConfirm
	OverlayInfo
)

// Timing constants of the viewer.
const (
	// TickInterval is the cooperative timer period.
	TickInterval = 100 * time.Millisecond
	// TickMs is how much elapsed time one tick represents.
	TickMs = 100
	// ImageDurationMs is the full display time for an image story.
	ImageDurationMs = 10000
	// VideoDurationMs is the timer ceiling for a video story; end-of-media
	// advances earlier.
	VideoDurationMs = 20000
	// SwipeThreshold is the horizontal delta a gesture must exceed to count
	// as a swipe.
	SwipeThreshold = 50.0
	// DefaultLoadTimeout bounds how long a story may sit in Loading before
	// it is skipped as unplayable.
	DefaultLoadTimeout = 8 * time.Second
)

// State is a snapshot of a viewer session.
type State struct {
	Index     int
	Phase     Phase
	ElapsedMs int
	Muted     bool
	Overlay   Overlay
	Closed    bool
	// Notice carries the last soft failure ("story skipped"), empty when
	// none occurred.
	Notice string
}

// durationMs returns the total display time for a story.
func durationMs(story *models.Story) int {
	if story.MediaType == models.MediaTypeVideo {
		return VideoDurationMs
	}
	return ImageDurationMs
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock produces tickers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SystemClock is the wall clock used outside of tests.
var SystemClock Clock = realClock{}
