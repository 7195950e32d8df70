package sound

import (
	"encoding/binary"
	"testing"

	"github.com/sunfall/chime/assets"
)

// fakeClock is a hand-advanced engine clock in milliseconds.
type fakeClock struct {
	ms float64
}

func (c *fakeClock) now() float64       { return c.ms }
func (c *fakeClock) advance(ms float64) { c.ms += ms }

// fakeVoice records backend calls and lets tests steer the reported
// position.
type fakeVoice struct {
	key       string
	playing   bool
	released  bool
	offset    float64
	duration  float64
	volume    float64
	loop      bool
	pos       float64
	total     float64 // full asset length reported by Duration
	playCalls int
}

func (v *fakeVoice) Play(offset, duration float64) error {
	v.offset = offset
	v.duration = duration
	v.playing = true
	v.playCalls++
	return nil
}

func (v *fakeVoice) Stop()               { v.playing = false }
func (v *fakeVoice) Release()            { v.playing = false; v.released = true }
func (v *fakeVoice) Playing() bool       { return v.playing }
func (v *fakeVoice) SetVolume(x float64) { v.volume = x }
func (v *fakeVoice) SetLoop(l bool)      { v.loop = l }
func (v *fakeVoice) Position() float64   { return v.pos }
func (v *fakeVoice) Duration() float64   { return v.total }

type fakeBackend struct {
	cap         Capability
	needsDecode bool
	state       ContextState
	master      float64
	muted       bool
	total       float64 // asset length handed to new voices
	voices      []*fakeVoice
	closed      bool
}

func (b *fakeBackend) Capability() Capability { return b.cap }
func (b *fakeBackend) NeedsDecode() bool      { return b.needsDecode }

func (b *fakeBackend) Acquire(key string) (Voice, error) {
	v := &fakeVoice{key: key, total: b.total}
	b.voices = append(b.voices, v)
	return v, nil
}

func (b *fakeBackend) SetMasterVolume(v float64) { b.master = v }
func (b *fakeBackend) SetMasterMuted(m bool)     { b.muted = m }
func (b *fakeBackend) State() ContextState       { return b.state }
func (b *fakeBackend) Resume() error             { return nil }
func (b *fakeBackend) Close() error              { b.closed = true; return nil }

func (b *fakeBackend) lastVoice(t *testing.T) *fakeVoice {
	t.Helper()
	if len(b.voices) == 0 {
		t.Fatal("no voice acquired")
	}
	return b.voices[len(b.voices)-1]
}

// newTestManager wires a manager to a fake backend and clock. The
// default backend is a mixer that needs no decode, so plays start
// immediately.
func newTestManager(t *testing.T) (*Manager, *fakeBackend, *assets.Cache, *fakeClock) {
	t.Helper()
	return newTestManagerWith(t, &fakeBackend{cap: CapMixer, total: 10})
}

func newTestManagerWith(t *testing.T, b *fakeBackend) (*Manager, *fakeBackend, *assets.Cache, *fakeClock) {
	t.Helper()
	cache := newTestCache()
	m := NewManager(cache)
	clk := &fakeClock{}
	m.SetClock(clk.now)
	m.BootWith(b)
	return m, b, cache, clk
}

func newTestCache() *assets.Cache {
	cache := assets.NewCache()
	cache.AddRaw("blip", []byte("RIFFfake"))
	return cache
}

// testWAV builds a valid 16-bit stereo 44100 Hz RIFF wav of the given
// length filled with silence, decodable by the real decode path.
func testWAV(seconds float64) []byte {
	const rate = 44100
	frames := int(seconds * rate)
	dataLen := frames * 4
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 2) // stereo
	binary.LittleEndian.PutUint32(buf[24:28], rate)
	binary.LittleEndian.PutUint32(buf[28:32], rate*4)
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	return buf
}
