package systems

import (
	"encoding/json"
	"log"

	"github.com/quasilyte/gdata"
	"github.com/sunfall/chime/config"
	"github.com/sunfall/chime/sound"
)

// SavedAudioSettings represents the audio settings stored on disk
type SavedAudioSettings struct {
	MasterVolume float64 `json:"masterVolume"`
	Muted        bool    `json:"muted"`
}

var gdataManager *gdata.Manager
var gdataInitialized bool

// InitPersistence initializes the gdata manager for settings storage
func InitPersistence() error {
	m, err := gdata.Open(gdata.Config{
		AppName: config.C.AppName,
	})
	if err != nil {
		log.Printf("Warning: Could not initialize persistence: %v", err)
		return err
	}
	gdataManager = m
	gdataInitialized = true
	return nil
}

// LoadAudioSettings loads settings from disk, nil when none are saved
func LoadAudioSettings() (*SavedAudioSettings, error) {
	if !gdataInitialized || gdataManager == nil {
		return nil, nil
	}

	data, err := gdataManager.LoadItem("audio_settings")
	if err != nil {
		log.Printf("Warning: Could not load audio settings: %v", err)
		return nil, nil
	}
	if data == nil {
		return nil, nil
	}

	var settings SavedAudioSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		log.Printf("Warning: Could not parse saved audio settings: %v", err)
		return nil, err
	}
	return &settings, nil
}

// SaveAudioSettings saves settings to disk
func SaveAudioSettings(s *SavedAudioSettings) error {
	if !gdataInitialized || gdataManager == nil {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("Warning: Could not serialize audio settings: %v", err)
		return err
	}

	if err := gdataManager.SaveItem("audio_settings", data); err != nil {
		log.Printf("Warning: Could not save audio settings: %v", err)
		return err
	}
	return nil
}

// SaveCurrentSettings snapshots the manager's volume and mute state
func SaveCurrentSettings(m *sound.Manager) {
	saved := &SavedAudioSettings{
		MasterVolume: m.Volume(),
		Muted:        m.Muted(),
	}
	_ = SaveAudioSettings(saved)
}

// ApplySavedSettings applies loaded settings to the manager
func ApplySavedSettings(m *sound.Manager, saved *SavedAudioSettings) {
	if saved == nil {
		return
	}
	m.SetVolume(saved.MasterVolume)
	m.SetMute(saved.Muted)
}
