package sound

import (
	"fmt"
	"log"

	"github.com/sunfall/chime/config"
)

// LoopSetting says whether a play call overrides the loop flag it would
// otherwise inherit from the marker or the sound.
type LoopSetting int

const (
	LoopInherit LoopSetting = iota
	LoopOff
	LoopOn
)

// PlayOptions carries the optional parameters of a play call.
type PlayOptions struct {
	// Position is the offset in seconds into the marker or clip.
	Position float64
	// Volume overrides the inherited volume when >= 0.
	Volume float64
	Loop   LoopSetting
	// ForceRestart stops and replaces a voice that is already playing.
	ForceRestart bool
}

// DefaultPlayOptions returns the options Play uses: inherit volume and
// loop, start at the beginning, restart if already playing.
func DefaultPlayOptions() PlayOptions {
	return PlayOptions{Volume: -1, ForceRestart: true}
}

// MarkerEvent is the payload of stop and marker-complete signals.
type MarkerEvent struct {
	Sound  *Sound
	Marker string
}

// FadeEvent is the payload of the fade-complete signal.
type FadeEvent struct {
	Sound  *Sound
	Volume float64
}

type playParams struct {
	marker string
	opts   PlayOptions
}

// Sound is a stateful playback controller bound to one asset key. It
// owns its markers and at most one live backend voice (more when
// AllowMultiple is set), and is driven once per tick by its manager.
type Sound struct {
	mgr *Manager
	key string

	markers       map[string]Marker
	currentMarker string

	volume        float64
	preMuteVolume float64
	muted         bool
	loop          bool

	position float64 // seconds into the asset where playback started
	duration float64 // seconds of the marker or clip being played

	isPlaying       bool
	paused          bool
	pendingPlayback bool
	destroyed       bool

	startTime   float64 // engine clock ms
	stopTime    float64
	currentTime float64
	durationMS  float64

	pausedPosition float64 // seconds, backend position captured at pause
	pausedTime     float64 // engine clock ms at pause

	voice Voice
	loose []Voice // detached voices left running by AllowMultiple

	// The element backend reports stale positions right after a seek;
	// playback is only treated as started once the reported position
	// passes the requested start.
	waitingForStart bool

	pending      playParams
	decodedFired bool

	fade *fadeRamp

	// Policy flags, free to set by callers between plays.
	Override      bool
	AllowMultiple bool
	PlayOnce      bool

	OnPlay           Signal[*Sound]
	OnPause          Signal[*Sound]
	OnResume         Signal[*Sound]
	OnLoop           Signal[*Sound]
	OnStop           Signal[MarkerEvent]
	OnMarkerComplete Signal[MarkerEvent]
	OnFadeComplete   Signal[FadeEvent]
	OnMute           Signal[*Sound]
	OnDecoded        Signal[*Sound]
}

func newSound(mgr *Manager, key string, volume float64, loop bool) *Sound {
	return &Sound{
		mgr:           mgr,
		key:           key,
		markers:       make(map[string]Marker),
		volume:        volume,
		preMuteVolume: volume,
		loop:          loop,
	}
}

// Key returns the asset key this sound plays.
func (s *Sound) Key() string { return s.key }

func (s *Sound) IsPlaying() bool       { return s.isPlaying }
func (s *Sound) IsPaused() bool        { return s.paused }
func (s *Sound) IsDestroyed() bool     { return s.destroyed }
func (s *Sound) Pending() bool         { return s.pendingPlayback }
func (s *Sound) CurrentMarker() string { return s.currentMarker }
func (s *Sound) Loop() bool            { return s.loop }
func (s *Sound) SetLoop(loop bool)     { s.loop = loop }

// Duration returns the length in seconds of the marker or clip being
// played, 0 when nothing has been resolved yet.
func (s *Sound) Duration() float64 { return s.duration }

// DurationMS returns Duration in milliseconds.
func (s *Sound) DurationMS() float64 { return s.durationMS }

// CurrentTime returns milliseconds elapsed since playback started.
func (s *Sound) CurrentTime() float64 { return s.currentTime }

// Position returns the offset in seconds where playback started.
func (s *Sound) Position() float64 { return s.position }

// TotalDuration returns the full length of the underlying asset in
// seconds, 0 when the backend does not know it yet.
func (s *Sound) TotalDuration() float64 {
	if s.destroyed || s.mgr == nil || s.mgr.backend == nil {
		return 0
	}
	if pcm := s.mgr.cache.DecodedData(s.key); pcm != nil {
		return float64(len(pcm)) / float64(config.Audio.SampleRate*4)
	}
	if s.voice != nil {
		return s.voice.Duration()
	}
	return 0
}

// AddMarker registers a named sub-range of the asset. Adding a marker
// with an existing name replaces it.
func (s *Sound) AddMarker(m Marker) error {
	if s.destroyed {
		return fmt.Errorf("sound %q is destroyed", s.key)
	}
	if m.Name == "" {
		return fmt.Errorf("marker name must not be empty")
	}
	if m.Duration <= 0 {
		return fmt.Errorf("marker %q: duration must be > 0", m.Name)
	}
	if m.Start < 0 {
		return fmt.Errorf("marker %q: start must be >= 0", m.Name)
	}
	if m.Volume < 0 {
		m.Volume = 0
	}
	if m.Volume > 1 {
		m.Volume = 1
	}
	s.markers[m.Name] = m
	return nil
}

// AddMarkers registers several markers, stopping at the first invalid
// one.
func (s *Sound) AddMarkers(ms []Marker) error {
	for _, m := range ms {
		if err := s.AddMarker(m); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMarker deletes a marker by name and reports whether it existed.
func (s *Sound) RemoveMarker(name string) bool {
	if s.destroyed {
		return false
	}
	if _, ok := s.markers[name]; !ok {
		return false
	}
	delete(s.markers, name)
	return true
}

// Marker looks up a marker by name.
func (s *Sound) Marker(name string) (Marker, bool) {
	m, ok := s.markers[name]
	return m, ok
}

// MarkerCount returns the number of registered markers.
func (s *Sound) MarkerCount() int { return len(s.markers) }

// Play starts playback of the named marker, or of the whole clip when
// marker is empty and the sound has no markers. Returns false when the
// call was rejected as a no-op.
func (s *Sound) Play(marker string) bool {
	return s.play(marker, DefaultPlayOptions(), true)
}

// PlayOpts is Play with explicit options.
func (s *Sound) PlayOpts(marker string, opts PlayOptions) bool {
	return s.play(marker, opts, true)
}

// Restart stops any current playback and plays the marker from the
// beginning.
func (s *Sound) Restart(marker string) bool {
	opts := DefaultPlayOptions()
	opts.ForceRestart = true
	return s.play(marker, opts, true)
}

func (s *Sound) play(marker string, opts PlayOptions, emit bool) bool {
	if s.destroyed || s.mgr == nil || s.mgr.NoAudio() {
		return false
	}

	var pos, dur, vol float64
	var loop bool

	if marker != "" {
		m, ok := s.markers[marker]
		if !ok {
			log.Printf("Warning: sound %q has no marker %q", s.key, marker)
			return false
		}
		rel := opts.Position
		if rel < 0 {
			rel = 0
		}
		if rel > m.Duration {
			rel = m.Duration
		}
		pos = m.Start + rel
		dur = m.Duration - rel
		vol = m.Volume
		loop = m.Loop
	} else {
		if len(s.markers) > 0 {
			log.Printf("Warning: sound %q has markers and must be played via a marker name", s.key)
			return false
		}
		pos = opts.Position
		if pos < 0 {
			pos = 0
		}
		dur = 0 // resolved from the voice once acquired
		vol = s.volume
		loop = s.loop
	}
	if opts.Volume >= 0 {
		vol = opts.Volume
	}
	switch opts.Loop {
	case LoopOn:
		loop = true
	case LoopOff:
		loop = false
	}

	if s.isPlaying && !s.AllowMultiple && !s.Override && !opts.ForceRestart {
		return false
	}

	// Any existing voice is replaced; with AllowMultiple it keeps
	// running detached until it finishes on its own.
	if s.voice != nil {
		if s.AllowMultiple && s.isPlaying {
			s.loose = append(s.loose, s.voice)
		} else {
			s.voice.Stop()
			s.voice.Release()
		}
		s.voice = nil
	}

	s.currentMarker = marker
	s.position = pos
	s.duration = dur
	s.durationMS = dur * 1000
	s.volume = vol
	s.loop = loop

	if !s.readyToPlay() {
		s.pendingPlayback = true
		s.isPlaying = false
		s.paused = false
		s.pending = playParams{marker: marker, opts: opts}
		cache := s.mgr.cache
		if s.mgr.backend.NeedsDecode() && !cache.IsDecoded(s.key) && !cache.IsDecoding(s.key) {
			s.mgr.requestDecode(s.key, s)
		}
		return true
	}

	return s.startVoice(marker, pos, dur, loop, emit)
}

// readyToPlay reports whether the asset can start immediately: backend
// unlocked, bytes present, and decoded when the backend requires it.
func (s *Sound) readyToPlay() bool {
	if s.mgr.touchLocked {
		return false
	}
	cache := s.mgr.cache
	if !cache.IsReady(s.key) {
		return false
	}
	if s.mgr.backend.NeedsDecode() && !cache.IsDecoded(s.key) {
		return false
	}
	return true
}

func (s *Sound) startVoice(marker string, pos, dur float64, loop bool, emit bool) bool {
	voice, err := s.mgr.backend.Acquire(s.key)
	if err != nil {
		log.Printf("Warning: could not acquire voice for %q: %v", s.key, err)
		return false
	}
	voice.SetLoop(loop)
	if err := voice.Play(pos, dur); err != nil {
		log.Printf("Warning: could not start %q: %v", s.key, err)
		voice.Release()
		return false
	}
	s.voice = voice
	if dur <= 0 {
		if total := voice.Duration(); total > pos {
			dur = total - pos
		}
	}

	now := s.mgr.now()
	s.duration = dur
	s.durationMS = dur * 1000
	s.startTime = now
	s.currentTime = 0
	s.stopTime = now + s.durationMS
	s.isPlaying = true
	s.paused = false
	s.pendingPlayback = false
	s.waitingForStart = s.mgr.capability == CapElement
	s.applyVolume()

	if emit {
		s.OnPlay.Emit(s)
	}
	return true
}

// update advances the sound by one tick. Called by the manager only.
func (s *Sound) update(now float64) {
	if s.destroyed {
		return
	}

	// Asset evicted from the cache: the sound has nothing left to play.
	if !s.mgr.cache.Has(s.key) {
		s.Destroy()
		return
	}

	if !s.decodedFired && s.mgr.cache.IsDecoded(s.key) {
		s.decodedFired = true
		s.OnDecoded.Emit(s)
	}

	if s.pendingPlayback && s.readyToPlay() {
		s.pendingPlayback = false
		p := s.pending
		s.play(p.marker, p.opts, true)
	}

	s.sweepLoose()

	if !s.isPlaying {
		return
	}

	if s.waitingForStart {
		if s.voice != nil && s.voice.Position() >= s.position {
			s.waitingForStart = false
			s.startTime = now
			s.stopTime = now + s.durationMS
		}
		// Stale position read; do nothing else this tick.
		return
	}

	s.advanceFade(now)
	if s.destroyed || !s.isPlaying {
		return
	}

	s.currentTime = now - s.startTime
	switch {
	case s.durationMS > 0 && s.currentTime >= s.durationMS:
		s.complete(now)
	case s.durationMS <= 0 && !s.loop && s.voice != nil && !s.voice.Playing():
		// Whole clip of unknown length: trust the backend's end.
		s.Stop()
		if s.PlayOnce {
			s.Destroy()
		}
	}
}

// complete handles the clip or marker reaching its end on the engine
// clock.
func (s *Sound) complete(now float64) {
	switch {
	case s.currentMarker == "" && s.loop:
		// The backend's native loop already wraps the audio; only the
		// accounting restarts here.
		s.startTime = now
		s.currentTime = 0
		s.stopTime = now + s.durationMS
		s.OnLoop.Emit(s)

	case s.currentMarker != "" && s.loop:
		marker := s.currentMarker
		s.OnMarkerComplete.Emit(MarkerEvent{Sound: s, Marker: marker})
		opts := DefaultPlayOptions()
		opts.Loop = LoopOn
		s.play(marker, opts, false)

	default:
		s.Stop()
		if s.PlayOnce {
			s.Destroy()
		}
	}
}

// Pause suspends playback, capturing the backend position so Resume can
// continue from it. Effective only while playing.
func (s *Sound) Pause() {
	if s.destroyed || !s.isPlaying {
		return
	}
	pos := s.position + s.currentTime/1000
	if s.voice != nil {
		if p := s.voice.Position(); p > 0 {
			pos = p
		}
		s.voice.Stop()
	}
	s.pausedPosition = pos
	s.pausedTime = s.mgr.now()
	s.isPlaying = false
	s.paused = true
	s.OnPause.Emit(s)
}

// Resume continues playback from the position captured by Pause.
// Effective only while paused.
func (s *Sound) Resume() {
	if s.destroyed || !s.paused {
		return
	}

	remaining := s.duration - (s.pausedPosition - s.position)
	if remaining < 0 {
		remaining = 0
	}

	voice := s.voice
	if voice == nil {
		v, err := s.mgr.backend.Acquire(s.key)
		if err != nil {
			log.Printf("Warning: could not resume %q: %v", s.key, err)
			return
		}
		voice = v
	}
	voice.SetLoop(s.loop)
	if err := voice.Play(s.pausedPosition, remaining); err != nil {
		log.Printf("Warning: could not resume %q: %v", s.key, err)
		return
	}
	s.voice = voice
	s.applyVolume()

	// Shift startTime by the paused interval so currentTime stays
	// continuous across the pause.
	now := s.mgr.now()
	s.startTime += now - s.pausedTime
	s.stopTime = s.startTime + s.durationMS
	s.paused = false
	s.isPlaying = true
	s.OnResume.Emit(s)
}

// Stop halts playback and releases the voice. Idempotent: a sound that
// is neither playing nor paused is left untouched and no signals fire.
// Stopping from the paused state releases quietly, because pause is not
// a completion.
func (s *Sound) Stop() {
	if s.destroyed {
		return
	}
	if !s.isPlaying && !s.paused {
		s.pendingPlayback = false
		return
	}

	wasPaused := s.paused
	if s.voice != nil {
		s.voice.Stop()
		s.voice.Release()
		s.voice = nil
	}
	s.isPlaying = false
	s.paused = false
	s.pendingPlayback = false
	s.waitingForStart = false

	if wasPaused {
		return
	}

	marker := s.currentMarker
	s.currentMarker = ""
	s.cancelFade()
	if marker != "" {
		s.OnMarkerComplete.Emit(MarkerEvent{Sound: s, Marker: marker})
	}
	s.OnStop.Emit(MarkerEvent{Sound: s, Marker: marker})
}

// Volume returns the sound's own volume, before master scaling.
func (s *Sound) Volume() float64 { return s.volume }

// SetVolume writes through to the live voice. The element backend has
// no headroom above unity, so the value is clamped there.
func (s *Sound) SetVolume(v float64) {
	if s.destroyed {
		return
	}
	if s.mgr != nil && s.mgr.capability == CapElement {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
	}
	if s.muted {
		s.preMuteVolume = v
		return
	}
	s.volume = v
	s.applyVolume()
}

// Muted reports the sound's own mute flag, independent of the master
// mute.
func (s *Sound) Muted() bool { return s.muted }

// SetMute forces the audible volume to zero, caching the current volume
// for restore on unmute.
func (s *Sound) SetMute(m bool) {
	if s.destroyed || m == s.muted {
		return
	}
	s.muted = m
	if m {
		s.preMuteVolume = s.volume
	} else {
		s.volume = s.preMuteVolume
	}
	s.applyVolume()
	s.OnMute.Emit(s)
}

func (s *Sound) applyVolume() {
	if s.voice == nil {
		return
	}
	if s.muted {
		s.voice.SetVolume(0)
		return
	}
	s.voice.SetVolume(s.volume)
}

func (s *Sound) sweepLoose() {
	if len(s.loose) == 0 {
		return
	}
	kept := s.loose[:0]
	for _, v := range s.loose {
		if v.Playing() {
			kept = append(kept, v)
		} else {
			v.Release()
		}
	}
	s.loose = kept
}

// Destroy releases the voice, detaches from the manager, and makes
// every later call a no-op. Terminal.
func (s *Sound) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.cancelFade()
	if s.voice != nil {
		s.voice.Stop()
		s.voice.Release()
		s.voice = nil
	}
	for _, v := range s.loose {
		v.Release()
	}
	s.loose = nil
	s.markers = nil
	s.isPlaying = false
	s.paused = false
	s.pendingPlayback = false
	s.currentMarker = ""

	if s.mgr != nil {
		s.mgr.detach(s)
	}

	s.OnPlay.Clear()
	s.OnPause.Clear()
	s.OnResume.Clear()
	s.OnLoop.Clear()
	s.OnStop.Clear()
	s.OnMarkerComplete.Clear()
	s.OnFadeComplete.Clear()
	s.OnMute.Clear()
	s.OnDecoded.Clear()
}
