package sound

import (
	"log"

	"github.com/sunfall/chime/config"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// fadeRamp drives the sound's volume along a linear tween, advanced
// once per tick. Only one ramp is active per sound; starting a new one
// cancels the previous ramp without firing its completion.
type fadeRamp struct {
	tween  *gween.Tween
	target float64
	last   float64 // engine ms of the previous advance
}

// FadeTo ramps the volume to target over durationMS milliseconds.
// Ignored while not playing, while paused, or when the target equals
// the current volume. Reaching exactly zero stops the sound after the
// fade-complete signal.
func (s *Sound) FadeTo(durationMS, target float64) {
	if s.destroyed {
		return
	}
	if durationMS <= 0 {
		durationMS = config.Audio.DefaultFadeMS
	}
	if !s.isPlaying || s.paused {
		log.Printf("Warning: fade on %q ignored, sound is not playing", s.key)
		return
	}
	if target == s.volume {
		log.Printf("Warning: fade on %q ignored, already at volume %v", s.key, target)
		return
	}
	s.fade = &fadeRamp{
		tween:  gween.New(float32(s.volume), float32(target), float32(durationMS/1000), ease.Linear),
		target: target,
		last:   s.mgr.now(),
	}
}

// FadeIn starts playback of the marker (or whole clip) at volume zero
// and ramps to full volume.
func (s *Sound) FadeIn(durationMS float64, loop bool, marker string) {
	opts := DefaultPlayOptions()
	opts.Volume = 0
	if loop {
		opts.Loop = LoopOn
	} else {
		opts.Loop = LoopOff
	}
	if !s.play(marker, opts, true) {
		return
	}
	s.FadeTo(durationMS, 1)
}

// FadeOut ramps the volume to zero and then stops the sound.
func (s *Sound) FadeOut(durationMS float64) {
	s.FadeTo(durationMS, 0)
}

// IsFading reports whether a volume ramp is in flight.
func (s *Sound) IsFading() bool { return s.fade != nil }

func (s *Sound) cancelFade() {
	s.fade = nil
}

// advanceFade moves the active ramp forward by the time elapsed since
// the previous tick. Runs only while playing.
func (s *Sound) advanceFade(now float64) {
	f := s.fade
	if f == nil {
		return
	}
	dt := (now - f.last) / 1000
	if dt < 0 {
		dt = 0
	}
	f.last = now

	value, finished := f.tween.Update(float32(dt))
	s.SetVolume(float64(value))
	if !finished {
		return
	}

	target := f.target
	s.fade = nil
	s.SetVolume(target)
	s.OnFadeComplete.Emit(FadeEvent{Sound: s, Volume: target})
	if target == 0 {
		s.Stop()
	}
}
