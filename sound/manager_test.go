package sound

import (
	"testing"
	"time"
)

func TestRemoveByKey(t *testing.T) {
	m, _, cache, _ := newTestManager(t)
	cache.AddRaw("boom", []byte("RIFFfake"))

	m.Add("blip", 1, false)
	m.Add("blip", 1, false)
	m.Add("boom", 1, false)

	if got := m.RemoveByKey("blip"); got != 2 {
		t.Errorf("RemoveByKey = %d, want 2", got)
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}
	if m.Sounds()[0].Key() != "boom" {
		t.Errorf("remaining sound key = %q, want boom", m.Sounds()[0].Key())
	}
}

func TestMasterVolumeClamps(t *testing.T) {
	m, b, _, _ := newTestManager(t)

	var changes []float64
	m.OnVolumeChange.Subscribe(func(v float64) { changes = append(changes, v) })

	m.SetVolume(1.5)
	if m.Volume() != 1 {
		t.Errorf("Volume = %v, want 1 (clamped)", m.Volume())
	}

	m.SetVolume(0.5)
	m.SetVolume(-1)
	if m.Volume() != 0 {
		t.Errorf("Volume = %v, want 0 (clamped)", m.Volume())
	}
	if len(changes) != 2 || changes[0] != 0.5 || changes[1] != 0 {
		t.Errorf("volume change events = %v, want [0.5 0]", changes)
	}
	if b.master != 0 {
		t.Errorf("backend master = %v, want 0", b.master)
	}
}

func TestMasterMuteSignals(t *testing.T) {
	m, b, _, _ := newTestManager(t)

	mutes, unmutes := 0, 0
	m.OnMute.Subscribe(func(*Manager) { mutes++ })
	m.OnUnMute.Subscribe(func(*Manager) { unmutes++ })

	m.SetMute(true)
	m.SetMute(true) // redundant
	if !b.muted {
		t.Error("backend should be master-muted")
	}
	m.SetMute(false)

	if mutes != 1 || unmutes != 1 {
		t.Errorf("mutes=%d unmutes=%d, want 1/1", mutes, unmutes)
	}
}

func TestSetDecodedCallbackImmediate(t *testing.T) {
	m, _, cache, _ := newTestManager(t)
	cache.AddRaw("a", []byte("RIFFfake"))
	cache.AddRaw("b", []byte("RIFFfake"))
	cache.SetDecodedData("a", []byte{0})
	cache.SetDecodedData("b", []byte{0})

	calls := 0
	m.SetDecodedCallback([]string{"a", "b"}, func() { calls++ })
	if calls != 1 {
		t.Errorf("callback fired %d times, want 1 (synchronously)", calls)
	}
}

func TestSetDecodedCallbackWaitsForAll(t *testing.T) {
	m, _, cache, _ := newTestManager(t)
	cache.AddRaw("a", []byte("RIFFfake"))
	cache.AddRaw("b", []byte("RIFFfake"))
	// Keep the manager from spawning real decodes; the test completes
	// them by hand.
	cache.MarkDecoding("a", true)
	cache.MarkDecoding("b", true)

	calls := 0
	m.SetDecodedCallback([]string{"a", "b"}, func() { calls++ })
	if calls != 0 {
		t.Fatal("callback must wait for pending decodes")
	}

	cache.SetDecodedData("a", []byte{0})
	m.Update()
	if calls != 0 {
		t.Fatal("callback must wait for every key")
	}

	cache.SetDecodedData("b", []byte{0})
	m.Update()
	if calls != 1 {
		t.Fatalf("callback fired %d times, want 1", calls)
	}

	m.Update()
	if calls != 1 {
		t.Error("callback must fire exactly once")
	}
}

func waitForDecode(t *testing.T, m *Manager, done func() bool) {
	t.Helper()
	for i := 0; i < 500; i++ {
		m.Update()
		if done() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("decode did not settle in time")
}

func TestDecodeSuccess(t *testing.T) {
	m, _, cache, _ := newTestManager(t)
	cache.AddRaw("tone", testWAV(0.05))

	var events []DecodeEvent
	m.OnSoundDecode.Subscribe(func(e DecodeEvent) { events = append(events, e) })

	m.Decode("tone", nil)
	waitForDecode(t, m, func() bool { return cache.IsDecoded("tone") })

	if len(events) != 1 || events[0].Key != "tone" {
		t.Errorf("decode events = %v, want one for tone", events)
	}
	if pcm := cache.DecodedData("tone"); len(pcm) == 0 {
		t.Error("decoded PCM should be stored in the cache")
	}
	// A second request for a decoded asset is a no-op.
	m.Decode("tone", nil)
	m.Update()
	if len(events) != 1 {
		t.Error("re-decoding a decoded asset must not fire again")
	}
}

func TestDecodeFailureSignalsError(t *testing.T) {
	m, _, cache, _ := newTestManager(t)
	cache.AddRaw("junk", []byte("RIFFnot-a-wav"))

	var errs []DecodeEvent
	m.OnDecodeError.Subscribe(func(e DecodeEvent) { errs = append(errs, e) })

	m.Decode("junk", nil)
	waitForDecode(t, m, func() bool { return len(errs) > 0 })

	if errs[0].Key != "junk" || errs[0].Err == nil {
		t.Errorf("decode error event = %+v, want junk with an error", errs[0])
	}
	if cache.IsDecoded("junk") {
		t.Error("failed decode must not mark the asset decoded")
	}
	if cache.IsDecoding("junk") {
		t.Error("failed decode must clear the decoding flag")
	}
}

func TestWatchStaysPendingOnDecodeFailure(t *testing.T) {
	m, _, cache, _ := newTestManager(t)
	cache.AddRaw("junk", []byte("RIFFnot-a-wav"))

	failed := false
	m.OnDecodeError.Subscribe(func(DecodeEvent) { failed = true })

	calls := 0
	m.SetDecodedCallback([]string{"junk"}, func() { calls++ })
	waitForDecode(t, m, func() bool { return failed })

	m.Update()
	if calls != 0 {
		t.Error("watch callback must not fire for a failed key")
	}
}

func TestBulkOperations(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	a := m.Add("blip", 1, false)
	b := m.Add("blip", 1, false)
	a.Play("")
	b.Play("")

	m.PauseAll()
	if !a.IsPaused() || !b.IsPaused() {
		t.Error("pauseAll should pause every playing sound")
	}
	m.ResumeAll()
	if !a.IsPlaying() || !b.IsPlaying() {
		t.Error("resumeAll should resume every paused sound")
	}
	m.StopAll()
	if a.IsPlaying() || b.IsPlaying() {
		t.Error("stopAll should stop every sound")
	}
	if m.Count() != 2 {
		t.Error("stopAll must not remove sounds from the registry")
	}
}

func TestNoAudioPlayIsNoOp(t *testing.T) {
	cache := newTestCache()
	m := NewManager(cache)
	m.BootWith(nil)

	if !m.NoAudio() {
		t.Fatal("manager without a backend should report no audio")
	}
	s := m.Play("blip", 1, false)
	if s.IsPlaying() || s.Pending() {
		t.Error("play without a backend must be a no-op")
	}
}

func TestBootWithSuspendedContextArmsTouchLock(t *testing.T) {
	b := &fakeBackend{cap: CapMixer, state: StateSuspended, total: 10}
	m, _, _, _ := newTestManagerWith(t, b)

	if !m.TouchLocked() {
		t.Error("a suspended context should arm the touch-unlock handshake")
	}
}

func TestBootIsOneShot(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	m.BootWith(&fakeBackend{cap: CapElement})
	if m.Capability() != b.Capability() {
		t.Error("a second boot must not replace the backend")
	}
}

func TestManagerDestroy(t *testing.T) {
	m, b, _, _ := newTestManager(t)
	s := m.Add("blip", 1, false)
	s.Play("")

	m.Destroy()
	if !s.IsDestroyed() {
		t.Error("destroy must destroy every sound")
	}
	if m.Count() != 0 {
		t.Error("registry should be empty")
	}
	if !b.closed {
		t.Error("destroy must release the backend")
	}
	if !m.NoAudio() {
		t.Error("destroyed manager should report no audio")
	}
}
