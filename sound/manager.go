package sound

import (
	"log"
	"time"

	"github.com/sunfall/chime/assets"
	"github.com/sunfall/chime/config"
)

// DecodeEvent is the payload of the manager's decode signals.
type DecodeEvent struct {
	Key   string
	Sound *Sound // the sound that requested the decode, nil if none
	Err   error  // set on OnDecodeError only
}

type decodeResult struct {
	key   string
	sound *Sound
	pcm   []byte
	err   error
}

// Manager owns the backend context, the master volume cascade, the
// registry of live Sounds, the decode watch list, and the touch-unlock
// handshake. One manager per game instance; the host drives it through
// Update once per frame.
type Manager struct {
	cache   *assets.Cache
	backend Backend
	clock   func() float64 // engine time in milliseconds

	booted     bool
	capability Capability

	masterVolume float64
	muted        bool

	sounds []*Sound // insertion order is iteration order

	watch       *watchList
	touchLocked bool

	decodeDone chan decodeResult

	OnSoundDecode  Signal[DecodeEvent]
	OnDecodeError  Signal[DecodeEvent]
	OnVolumeChange Signal[float64]
	OnMute         Signal[*Manager]
	OnUnMute       Signal[*Manager]
	OnTouchUnlock  Signal[*Manager]
	OnStateChange  Signal[ContextState]
}

// NewManager creates a manager over the given asset cache. The engine
// clock defaults to milliseconds since construction.
func NewManager(cache *assets.Cache) *Manager {
	start := time.Now()
	return &Manager{
		cache:        cache,
		clock:        func() float64 { return float64(time.Since(start)) / float64(time.Millisecond) },
		masterVolume: config.Audio.MasterVolume,
		decodeDone:   make(chan decodeResult, config.Audio.DecodeQueue),
	}
}

// SetClock replaces the engine clock. The clock must be monotonic and
// report milliseconds.
func (m *Manager) SetClock(clock func() float64) {
	m.clock = clock
}

func (m *Manager) now() float64 { return m.clock() }

// Boot performs backend capability detection and context acquisition.
// Called exactly once; later calls are no-ops.
func (m *Manager) Boot() {
	if m.booted {
		return
	}
	switch config.Audio.Backend {
	case config.BackendNone:
		m.BootWith(nil)

	case config.BackendElement:
		b, err := newElementBackend(m.cache, config.Audio.SampleRate)
		if err != nil {
			log.Printf("Warning: element backend unavailable, audio disabled: %v", err)
			b = nil
		}
		m.BootWith(b)

	default:
		b, err := newMixerBackend(m.cache, config.Audio.SampleRate)
		if err != nil {
			log.Printf("Warning: mixer backend unavailable, trying element: %v", err)
			eb, eerr := newElementBackend(m.cache, config.Audio.SampleRate)
			if eerr != nil {
				log.Printf("Warning: element backend unavailable, audio disabled: %v", eerr)
				m.BootWith(nil)
				return
			}
			m.BootWith(eb)
			return
		}
		m.BootWith(b)
	}
}

// BootWith installs a specific backend, nil for no audio. Exposed for
// hosts that supply their own backend and for tests.
func (m *Manager) BootWith(b Backend) {
	if m.booted {
		return
	}
	m.booted = true
	m.backend = b
	if b == nil {
		m.capability = CapNone
		return
	}
	m.capability = b.Capability()
	b.SetMasterVolume(m.masterVolume)
	b.SetMasterMuted(m.muted)
	if config.Audio.TouchUnlock && b.State() == StateSuspended {
		m.touchLocked = true
	}
	m.OnStateChange.Emit(b.State())
}

// Capability returns the backend capability selected at boot.
func (m *Manager) Capability() Capability { return m.capability }

// NoAudio reports whether no usable backend is available.
func (m *Manager) NoAudio() bool { return m.backend == nil || m.capability == CapNone }

// UsingMixer reports whether the graph-based backend is active.
func (m *Manager) UsingMixer() bool { return m.capability == CapMixer }

// UsingElement reports whether the element-based backend is active.
func (m *Manager) UsingElement() bool { return m.capability == CapElement }

// TouchLocked reports whether playback is withheld pending a user
// gesture.
func (m *Manager) TouchLocked() bool { return m.touchLocked }

// Unlock clears the touch lock. Called by the host on the first user
// gesture; one-shot, later calls are no-ops. Sounds that deferred play
// because of the lock resume on their next update.
func (m *Manager) Unlock() {
	if !m.touchLocked {
		return
	}
	m.touchLocked = false
	if m.backend != nil {
		if err := m.backend.Resume(); err != nil {
			log.Printf("Warning: backend resume failed: %v", err)
		}
	}
	m.cache.UnlockAll()
	m.OnTouchUnlock.Emit(m)
	m.OnStateChange.Emit(StateRunning)
}

// Add constructs and registers a new Sound for the asset key. Playback
// does not start.
func (m *Manager) Add(key string, volume float64, loop bool) *Sound {
	s := newSound(m, key, volume, loop)
	m.sounds = append(m.sounds, s)
	return s
}

// Play is Add followed by Play of the whole clip.
func (m *Manager) Play(key string, volume float64, loop bool) *Sound {
	s := m.Add(key, volume, loop)
	s.Play("")
	return s
}

// Remove destroys the sound and drops it from the registry. Reports
// whether the sound was registered.
func (m *Manager) Remove(s *Sound) bool {
	for _, x := range m.sounds {
		if x == s {
			s.Destroy()
			return true
		}
	}
	return false
}

// RemoveByKey destroys every sound on the key and returns how many were
// removed.
func (m *Manager) RemoveByKey(key string) int {
	snapshot := append([]*Sound(nil), m.sounds...)
	removed := 0
	for _, s := range snapshot {
		if s.key == key {
			s.Destroy()
			removed++
		}
	}
	return removed
}

// RemoveAll destroys every registered sound.
func (m *Manager) RemoveAll() {
	snapshot := append([]*Sound(nil), m.sounds...)
	for _, s := range snapshot {
		s.Destroy()
	}
	m.sounds = nil
}

// StopAll stops every registered sound in registry order.
func (m *Manager) StopAll() {
	for _, s := range m.snapshot() {
		s.Stop()
	}
}

// PauseAll pauses every playing sound in registry order.
func (m *Manager) PauseAll() {
	for _, s := range m.snapshot() {
		s.Pause()
	}
}

// ResumeAll resumes every paused sound in registry order.
func (m *Manager) ResumeAll() {
	for _, s := range m.snapshot() {
		s.Resume()
	}
}

// Count returns the number of registered sounds.
func (m *Manager) Count() int { return len(m.sounds) }

// Sounds returns the registered sounds in registry order.
func (m *Manager) Sounds() []*Sound { return m.snapshot() }

func (m *Manager) snapshot() []*Sound {
	return append([]*Sound(nil), m.sounds...)
}

// detach drops a sound from the registry without destroying it. Called
// from Sound.Destroy.
func (m *Manager) detach(s *Sound) {
	for i, x := range m.sounds {
		if x == s {
			m.sounds = append(m.sounds[:i], m.sounds[i+1:]...)
			return
		}
	}
}

// Decode requests an asynchronous decode of the asset. A second request
// for an in-flight decode is suppressed by the cache's decoding flag.
// snd, if non-nil, is carried on the completion signal.
func (m *Manager) Decode(key string, snd *Sound) {
	if m.cache.IsDecoded(key) || m.cache.IsDecoding(key) {
		return
	}
	raw := m.cache.RawData(key)
	if raw == nil {
		log.Printf("Warning: decode requested for unknown asset %q", key)
		return
	}
	m.cache.MarkDecoding(key, true)
	go func() {
		pcm, err := assets.DecodePCM(config.Audio.SampleRate, raw)
		m.decodeDone <- decodeResult{key: key, sound: snd, pcm: pcm, err: err}
	}()
}

func (m *Manager) requestDecode(key string, snd *Sound) {
	m.Decode(key, snd)
}

// SetDecodedCallback arms a watch over the given keys and invokes the
// callback exactly once when all of them report decoded. If every key
// is already decoded the callback runs synchronously. A new call
// replaces a previously armed watch.
func (m *Manager) SetDecodedCallback(keys []string, callback func()) {
	var pending []string
	for _, k := range keys {
		if !m.cache.IsDecoded(k) {
			pending = append(pending, k)
		}
	}
	if len(pending) == 0 {
		callback()
		return
	}
	m.watch = newWatchList(pending, callback)
	for _, k := range pending {
		m.Decode(k, nil)
	}
}

// Update drains decode completions, updates every registered sound in
// registry order, and fires a due watch callback. Called once per host
// tick, never re-entrantly.
func (m *Manager) Update() {
	m.drainDecodes()

	now := m.now()
	for _, s := range m.snapshot() {
		s.update(now)
	}

	if m.watch != nil && m.watch.prune(m.cache) {
		callback := m.watch.callback
		m.watch = nil
		callback()
	}
}

// drainDecodes applies decode completions on the tick goroutine, which
// keeps all state mutation single-threaded.
func (m *Manager) drainDecodes() {
	for {
		select {
		case r := <-m.decodeDone:
			m.finishDecode(r)
		default:
			return
		}
	}
}

func (m *Manager) finishDecode(r decodeResult) {
	snd := r.sound
	if snd != nil && snd.destroyed {
		snd = nil
	}

	if r.err != nil {
		log.Printf("Warning: decode failed for %q: %v", r.key, r.err)
		m.cache.MarkDecoding(r.key, false)
		m.OnDecodeError.Emit(DecodeEvent{Key: r.key, Sound: snd, Err: r.err})
		return
	}

	// The asset may have been evicted while the decode ran.
	if !m.cache.Has(r.key) {
		return
	}
	m.cache.SetDecodedData(r.key, r.pcm)
	m.OnSoundDecode.Emit(DecodeEvent{Key: r.key, Sound: snd})
}

// Volume returns the master volume.
func (m *Manager) Volume() float64 { return m.masterVolume }

// SetVolume sets the master volume, clamped to [0, 1]. Every live voice
// is rescaled through the backend's master stage.
func (m *Manager) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	if v == m.masterVolume {
		return
	}
	m.masterVolume = v
	if m.backend != nil {
		m.backend.SetMasterVolume(v)
	}
	m.OnVolumeChange.Emit(v)
}

// Muted reports the master mute flag.
func (m *Manager) Muted() bool { return m.muted }

// SetMute silences or restores every voice without touching per-sound
// volumes.
func (m *Manager) SetMute(muted bool) {
	if muted == m.muted {
		return
	}
	m.muted = muted
	if m.backend != nil {
		m.backend.SetMasterMuted(muted)
	}
	if muted {
		m.OnMute.Emit(m)
	} else {
		m.OnUnMute.Emit(m)
	}
}

// Destroy stops and destroys every sound and releases the backend.
func (m *Manager) Destroy() {
	m.StopAll()
	m.RemoveAll()
	if m.backend != nil {
		if err := m.backend.Close(); err != nil {
			log.Printf("Warning: backend close failed: %v", err)
		}
		m.backend = nil
	}
	m.capability = CapNone
	m.watch = nil

	m.OnSoundDecode.Clear()
	m.OnDecodeError.Clear()
	m.OnVolumeChange.Clear()
	m.OnMute.Clear()
	m.OnUnMute.Clear()
	m.OnTouchUnlock.Clear()
	m.OnStateChange.Clear()
}
