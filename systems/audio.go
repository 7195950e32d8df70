package systems

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sunfall/chime/assets"
	"github.com/sunfall/chime/components"
	"github.com/sunfall/chime/sound"
	"github.com/yohamta/donburi/ecs"
)

// Global audio state - created once and shared across all scenes
var (
	globalCache   *assets.Cache
	globalManager *sound.Manager
	audioInitOnce sync.Once
	touchIDs      []ebiten.TouchID
	justKeys      []ebiten.Key
)

// initGlobalAudio initializes the shared cache and manager (called once)
func initGlobalAudio() {
	audioInitOnce.Do(func() {
		globalCache = assets.NewCache()
		globalManager = sound.NewManager(globalCache)
		globalManager.Boot()
	})
}

// Cache returns the shared asset cache.
func Cache() *assets.Cache {
	initGlobalAudio()
	return globalCache
}

// Manager returns the shared sound manager.
func Manager() *sound.Manager {
	initGlobalAudio()
	return globalManager
}

// UpdateAudio drives the manager once per frame: polls for the unlock
// gesture, drains queued playback requests, and ticks every sound.
func UpdateAudio(e *ecs.ECS) {
	initGlobalAudio()

	pollUnlockGesture()

	entry, ok := components.Audio.First(e.World)
	if ok {
		audioData := components.Audio.Get(entry)
		for _, req := range audioData.PendingPlays {
			playPending(req)
		}
		audioData.PendingPlays = audioData.PendingPlays[:0]
	}

	globalManager.Update()
}

// pollUnlockGesture feeds the one-shot first-gesture notification into
// the manager while the backend is touch-locked.
func pollUnlockGesture() {
	if !globalManager.TouchLocked() {
		return
	}
	touchIDs = inpututil.AppendJustPressedTouchIDs(touchIDs[:0])
	justKeys = inpututil.AppendJustPressedKeys(justKeys[:0])
	if len(touchIDs) > 0 || len(justKeys) > 0 ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		globalManager.Unlock()
	}
}

func playPending(req components.PendingPlay) {
	if req.Marker == "" {
		globalManager.Play(req.Key, 1, false)
		return
	}
	// Marker plays reuse an existing sound for the key when one holds
	// the marker, so sprite sounds are not duplicated per request.
	for _, s := range globalManager.Sounds() {
		if s.Key() != req.Key {
			continue
		}
		if _, ok := s.Marker(req.Marker); ok {
			s.Play(req.Marker)
			return
		}
	}
}

// PlaySound queues a whole-clip playback request for the asset key.
func PlaySound(e *ecs.ECS, key string) {
	audioData := GetOrCreateAudio(e)
	audioData.PendingPlays = append(audioData.PendingPlays, components.PendingPlay{Key: key})
}

// PlayMarker queues a playback request for a named marker on the key.
func PlayMarker(e *ecs.ECS, key, marker string) {
	audioData := GetOrCreateAudio(e)
	audioData.PendingPlays = append(audioData.PendingPlays, components.PendingPlay{Key: key, Marker: marker})
}

// SetMasterVolume changes the manager's master volume (0.0 - 1.0)
func SetMasterVolume(e *ecs.ECS, volume float64) {
	initGlobalAudio()
	globalManager.SetVolume(volume)
}

// GetMasterVolume returns the manager's master volume (0.0 - 1.0)
func GetMasterVolume() float64 {
	initGlobalAudio()
	return globalManager.Volume()
}

// SetMasterMute mutes or unmutes every voice.
func SetMasterMute(e *ecs.ECS, muted bool) {
	initGlobalAudio()
	globalManager.SetMute(muted)
}

// GetOrCreateAudio returns the singleton Audio component for this ECS, creating it if needed
func GetOrCreateAudio(e *ecs.ECS) *components.AudioData {
	initGlobalAudio()

	entry, ok := components.Audio.First(e.World)
	if !ok {
		entry = e.World.Entry(e.World.Create(components.Audio))
		components.Audio.SetValue(entry, components.AudioData{
			Manager:      globalManager,
			PendingPlays: make([]components.PendingPlay, 0, 8),
		})
	}
	return components.Audio.Get(entry)
}
