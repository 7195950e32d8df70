package sound

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Capability identifies which playback backend the manager booted with.
type Capability int

const (
	// CapNone means audio is unavailable or disabled; play calls no-op.
	CapNone Capability = iota
	// CapElement is the single-voice backend: one playback handle per
	// asset key, coarser timing, no decode step before playback.
	CapElement
	// CapMixer is the multi-voice backend: one player per voice over
	// decoded PCM, sample-accurate offsets.
	CapMixer
)

// ContextState mirrors the backend context's running state.
type ContextState int

const (
	StateRunning ContextState = iota
	// StateSuspended means the platform is withholding audio until a
	// user gesture arrives.
	StateSuspended
)

// Voice is one live backend playback instance, exclusively owned by the
// Sound that acquired it.
type Voice interface {
	// Play starts playback at offset seconds into the asset for
	// duration seconds. duration <= 0 plays to the end of the asset.
	Play(offset, duration float64) error
	// Stop halts playback but keeps the voice reusable (pause).
	Stop()
	// Release gives the voice back to the backend. For the mixer this
	// closes the player; the element backend keeps its shared handle.
	Release()
	Playing() bool
	SetVolume(v float64)
	SetLoop(loop bool)
	// Position reports the backend playback position in seconds from
	// the beginning of the asset.
	Position() float64
	// Duration reports the full asset length in seconds, 0 if unknown.
	Duration() float64
}

// Backend abstracts the two playback capabilities behind one contract.
// Sound code branches on Capability and NeedsDecode only, never on the
// concrete type.
type Backend interface {
	Capability() Capability
	// Acquire returns a voice for the asset key. The element backend
	// hands out the same per-asset handle on every call.
	Acquire(key string) (Voice, error)
	// NeedsDecode reports whether assets must be decoded to PCM before
	// a voice can play them.
	NeedsDecode() bool
	SetMasterVolume(v float64)
	SetMasterMuted(muted bool)
	State() ContextState
	// Resume asks a suspended context to start running. Safe to call
	// when already running.
	Resume() error
	Close() error
}

// The ebiten audio context is process-global, created once and shared by
// both backend variants across manager re-creation.
var (
	sharedCtx     *audio.Context
	sharedCtxOnce sync.Once
)

func sharedContext(sampleRate int) *audio.Context {
	sharedCtxOnce.Do(func() {
		sharedCtx = audio.NewContext(sampleRate)
	})
	return sharedCtx
}
