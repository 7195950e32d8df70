package config

// BackendMode selects which playback backend the manager boots with
type BackendMode int

const (
	// BackendAuto prefers the mixer backend and falls back to the
	// element backend when the mixer cannot be created.
	BackendAuto BackendMode = iota
	// BackendElement forces the single-voice element backend.
	BackendElement
	// BackendNone disables audio entirely.
	BackendNone
)

// AudioConfig contains audio-related configuration values
type AudioConfig struct {
	SampleRate int
	Backend    BackendMode

	DefaultVolume float64 // initial per-sound volume (0.0 - 1.0)
	MasterVolume  float64 // initial master volume (0.0 - 1.0)

	// TouchUnlock arms the gesture handshake when the backend context
	// starts suspended (browser autoplay policies, mobile power save).
	TouchUnlock bool

	// DecodeQueue is the buffer size of the decode completion channel.
	// Completions beyond this are delivered on later ticks.
	DecodeQueue int

	DefaultFadeMS float64 // fade duration used when callers pass <= 0
}

var Audio AudioConfig

func init() {
	Audio = AudioConfig{
		SampleRate:    44100,
		Backend:       BackendAuto,
		DefaultVolume: 1.0,
		MasterVolume:  1.0,
		TouchUnlock:   true,
		DecodeQueue:   64,
		DefaultFadeMS: 1000,
	}
}
