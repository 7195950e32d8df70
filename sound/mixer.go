package sound

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sunfall/chime/assets"
)

// mixerBackend is the graph-based variant: every Play acquires a fresh
// player over the asset's decoded PCM, so any number of voices can run
// at sample-accurate offsets. A master stage scales every live voice.
type mixerBackend struct {
	ctx          *audio.Context
	cache        *assets.Cache
	sampleRate   int
	masterVolume float64
	muted        bool
	voices       map[*mixerVoice]struct{}
}

func newMixerBackend(cache *assets.Cache, sampleRate int) (*mixerBackend, error) {
	ctx := sharedContext(sampleRate)
	if ctx == nil {
		return nil, fmt.Errorf("no audio context available")
	}
	return &mixerBackend{
		ctx:          ctx,
		cache:        cache,
		sampleRate:   sampleRate,
		masterVolume: 1.0,
		voices:       make(map[*mixerVoice]struct{}),
	}, nil
}

func (b *mixerBackend) Capability() Capability { return CapMixer }
func (b *mixerBackend) NeedsDecode() bool      { return true }

func (b *mixerBackend) Acquire(key string) (Voice, error) {
	v := &mixerVoice{b: b, key: key, volume: 1.0}
	b.voices[v] = struct{}{}
	return v, nil
}

func (b *mixerBackend) SetMasterVolume(v float64) {
	b.masterVolume = v
	for voice := range b.voices {
		voice.applyVolume()
	}
}

func (b *mixerBackend) SetMasterMuted(muted bool) {
	b.muted = muted
	for voice := range b.voices {
		voice.applyVolume()
	}
}

func (b *mixerBackend) State() ContextState {
	if !b.ctx.IsReady() {
		return StateSuspended
	}
	return StateRunning
}

// Resume is a no-op: the shared context resumes on its own once the
// host delivers a user gesture to the process.
func (b *mixerBackend) Resume() error { return nil }

func (b *mixerBackend) Close() error {
	for voice := range b.voices {
		voice.Release()
	}
	return nil
}

// mixerVoice plays a slice of decoded PCM through its own player.
type mixerVoice struct {
	b      *mixerBackend
	key    string
	player *audio.Player
	volume float64
	loop   bool
	offset float64 // seconds, start of the sliced segment
}

func (v *mixerVoice) Play(offset, duration float64) error {
	pcm := v.b.cache.DecodedData(v.key)
	if pcm == nil {
		return fmt.Errorf("asset %q has no decoded data", v.key)
	}

	start := v.byteOffset(offset)
	end := len(pcm)
	if duration > 0 {
		end = v.byteOffset(offset + duration)
	}
	if start > len(pcm) {
		start = len(pcm)
	}
	if end > len(pcm) {
		end = len(pcm)
	}
	if end < start {
		end = start
	}
	segment := pcm[start:end]

	if v.player != nil {
		_ = v.player.Close()
		v.player = nil
	}

	var player *audio.Player
	var err error
	if v.loop {
		loop := audio.NewInfiniteLoop(bytes.NewReader(segment), int64(len(segment)))
		player, err = v.b.ctx.NewPlayer(loop)
	} else {
		player, err = v.b.ctx.NewPlayer(bytes.NewReader(segment))
	}
	if err != nil {
		return fmt.Errorf("failed to create player for %q: %w", v.key, err)
	}

	v.player = player
	v.offset = offset
	v.applyVolume()
	player.Play()
	return nil
}

func (v *mixerVoice) Stop() {
	if v.player != nil {
		v.player.Pause()
	}
}

func (v *mixerVoice) Release() {
	if v.player != nil {
		_ = v.player.Close()
		v.player = nil
	}
	delete(v.b.voices, v)
}

func (v *mixerVoice) Playing() bool {
	return v.player != nil && v.player.IsPlaying()
}

func (v *mixerVoice) SetVolume(vol float64) {
	v.volume = vol
	v.applyVolume()
}

func (v *mixerVoice) applyVolume() {
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
	v.player.SetVolume(eff)
}

func (v *mixerVoice) SetLoop(loop bool) {
	v.loop = loop
}

func (v *mixerVoice) Position() float64 {
	if v.player == nil {
		return v.offset
	}
	return v.offset + v.player.Position().Seconds()
}

func (v *mixerVoice) Duration() float64 {
	return assets.PCMDuration(v.b.sampleRate, v.b.cache.DecodedData(v.key))
}

func (v *mixerVoice) byteOffset(sec float64) int {
	if sec < 0 {
		sec = 0
	}
	// 16-bit stereo: 4 bytes per sample frame.
	return int(sec*float64(v.b.sampleRate)) * 4
}
