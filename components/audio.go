package components

import (
	"github.com/sunfall/chime/sound"
	"github.com/yohamta/donburi"
)

// PendingPlay is a playback request queued by a gameplay system, drained
// by the audio system on its next update.
type PendingPlay struct {
	Key    string
	Marker string // empty plays the whole clip
}

// AudioData stores global audio state (singleton component)
type AudioData struct {
	Manager      *sound.Manager
	PendingPlays []PendingPlay
}

var Audio = donburi.NewComponentType[AudioData]()
