package sound

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sunfall/chime/assets"
)

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// elementBackend is the single-voice variant: one long-lived playback
// handle per asset key, streaming straight off the encoded bytes. Two
// Sounds on the same key share the handle and therefore the playback
// position, which is the coarse timing model this backend exists for.
type elementBackend struct {
	ctx          *audio.Context
	cache        *assets.Cache
	sampleRate   int
	masterVolume float64
	muted        bool
	handles      map[string]*elementVoice
}

func newElementBackend(cache *assets.Cache, sampleRate int) (*elementBackend, error) {
	ctx := sharedContext(sampleRate)
	if ctx == nil {
		return nil, fmt.Errorf("no audio context available")
	}
	return &elementBackend{
		ctx:          ctx,
		cache:        cache,
		sampleRate:   sampleRate,
		masterVolume: 1.0,
		handles:      make(map[string]*elementVoice),
	}, nil
}

func (b *elementBackend) Capability() Capability { return CapElement }
func (b *elementBackend) NeedsDecode() bool      { return false }

func (b *elementBackend) Acquire(key string) (Voice, error) {
	if v, ok := b.handles[key]; ok {
		return v, nil
	}
	if b.cache.RawData(key) == nil {
		return nil, fmt.Errorf("asset %q has no data", key)
	}
	v := &elementVoice{b: b, key: key, volume: 1.0}
	b.handles[key] = v
	return v, nil
}

func (b *elementBackend) SetMasterVolume(v float64) {
	b.masterVolume = v
	for _, voice := range b.handles {
		voice.applyVolume()
	}
}

func (b *elementBackend) SetMasterMuted(muted bool) {
	b.muted = muted
	for _, voice := range b.handles {
		voice.applyVolume()
	}
}

func (b *elementBackend) State() ContextState {
	if !b.ctx.IsReady() {
		return StateSuspended
	}
	return StateRunning
}

func (b *elementBackend) Resume() error { return nil }

func (b *elementBackend) Close() error {
	for key, voice := range b.handles {
		voice.close()
		delete(b.handles, key)
	}
	return nil
}

// elementVoice wraps the one playback handle an asset gets. The decoded
// stream and player are built lazily on first Play and rebuilt only
// when the loop flag changes.
type elementVoice struct {
	b          *elementBackend
	key        string
	player     *audio.Player
	playerLoop bool // loop mode the current player was built with
	length     int64
	volume     float64
	loop       bool
	ready      bool
}

func (v *elementVoice) ensurePlayer() error {
	if v.player != nil && v.playerLoop == v.loop {
		return nil
	}
	if v.player != nil {
		_ = v.player.Close()
		v.player = nil
	}

	raw := v.b.cache.RawData(v.key)
	if raw == nil {
		return fmt.Errorf("asset %q has no data", v.key)
	}
	stream, err := assets.DecodeStream(v.b.sampleRate, raw)
	if err != nil {
		return fmt.Errorf("failed to open stream for %q: %w", v.key, err)
	}
	v.length = stream.Length()

	var player *audio.Player
	if v.loop {
		player, err = v.b.ctx.NewPlayer(audio.NewInfiniteLoop(stream, v.length))
	} else {
		player, err = v.b.ctx.NewPlayer(stream)
	}
	if err != nil {
		return fmt.Errorf("failed to create player for %q: %w", v.key, err)
	}
	v.player = player
	v.playerLoop = v.loop
	v.ready = true
	return nil
}

// Play seeks the shared handle to offset and starts it. The duration is
// not enforced here; the owning Sound stops the voice off its own clock
// accounting, which is all this backend's timing supports.
func (v *elementVoice) Play(offset, duration float64) error {
	if err := v.ensurePlayer(); err != nil {
		return err
	}
	v.player.Pause()
	if err := v.player.SetPosition(secondsToDuration(offset)); err != nil {
		return fmt.Errorf("failed to seek %q: %w", v.key, err)
	}
	v.applyVolume()
	v.player.Play()
	return nil
}

func (v *elementVoice) Stop() {
	if v.player != nil {
		v.player.Pause()
	}
}

// Release pauses the handle but keeps it alive: the element backend
// owns one handle per asset for the life of the context.
func (v *elementVoice) Release() {
	v.Stop()
}

func (v *elementVoice) close() {
	if v.player != nil {
		_ = v.player.Close()
		v.player = nil
	}
	v.ready = false
}

func (v *elementVoice) Playing() bool {
	return v.player != nil && v.player.IsPlaying()
}

func (v *elementVoice) SetVolume(vol float64) {
	// The element handle clamps; it has no headroom above unity.
	if vol < 0 {
		vol = 0
	}
	if vol > 1 {
		vol = 1
	}
	v.volume = vol
	v.applyVolume()
}

func (v *elementVoice) applyVolume() {
	if v.player == nil {
		return
	}
	if v.b.muted {
		v.player.SetVolume(0)
		return
	}
	eff := v.volume * v.b.masterVolume
	if eff < 0 {
		eff = 0
	}
	if eff > 1 {
		eff = 1
	}
	v.player.SetVolume(eff)
}

func (v *elementVoice) SetLoop(loop bool) {
	v.loop = loop
}

func (v *elementVoice) Position() float64 {
	if v.player == nil {
		return 0
	}
	return v.player.Position().Seconds()
}

func (v *elementVoice) Duration() float64 {
	if v.length == 0 {
		return 0
	}
	return float64(v.length) / float64(v.b.sampleRate*4)
}
