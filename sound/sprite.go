package sound

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/sunfall/chime/config"
)

// AtlasEntry describes one named segment in an audio sprite atlas.
// Times are in seconds from the beginning of the shared asset.
type AtlasEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Loop  bool    `json:"loop"`
}

// Atlas is the descriptor an audio sprite is built from.
type Atlas struct {
	Spritemap map[string]AtlasEntry `json:"spritemap"`
	Autoplay  string                `json:"autoplay,omitempty"`
}

// ParseAtlas decodes an atlas descriptor from JSON.
func ParseAtlas(data []byte) (*Atlas, error) {
	var atlas Atlas
	if err := json.Unmarshal(data, &atlas); err != nil {
		return nil, fmt.Errorf("failed to parse sprite atlas: %w", err)
	}
	if len(atlas.Spritemap) == 0 {
		return nil, fmt.Errorf("sprite atlas has an empty spritemap")
	}
	return &atlas, nil
}

// AudioSprite bundles the named markers of one shared asset, exposing
// each as an independently playable sound. A thin facade: each marker
// gets its own Sound registered with the manager.
type AudioSprite struct {
	key    string
	mgr    *Manager
	sounds map[string]*Sound
}

// AddSprite builds an audio sprite for the asset key from a JSON atlas
// descriptor.
func (m *Manager) AddSprite(key string, atlasJSON []byte) (*AudioSprite, error) {
	atlas, err := ParseAtlas(atlasJSON)
	if err != nil {
		return nil, err
	}
	return m.AddSpriteFromAtlas(key, atlas), nil
}

// AddSpriteFromAtlas builds an audio sprite from an already parsed
// atlas. Entries with a non-positive length are skipped with a warning.
// The atlas autoplay entry, if named, starts immediately.
func (m *Manager) AddSpriteFromAtlas(key string, atlas *Atlas) *AudioSprite {
	sp := &AudioSprite{
		key:    key,
		mgr:    m,
		sounds: make(map[string]*Sound, len(atlas.Spritemap)),
	}

	for name, e := range atlas.Spritemap {
		if e.End <= e.Start {
			log.Printf("Warning: sprite %q entry %q has non-positive length, skipped", key, name)
			continue
		}
		s := m.Add(key, config.Audio.DefaultVolume, e.Loop)
		s.AllowMultiple = true
		if err := s.AddMarker(Marker{
			Name:     name,
			Start:    e.Start,
			Duration: e.End - e.Start,
			Volume:   1,
			Loop:     e.Loop,
		}); err != nil {
			log.Printf("Warning: sprite %q entry %q rejected: %v", key, name, err)
			m.Remove(s)
			continue
		}
		sp.sounds[name] = s
	}

	if atlas.Autoplay != "" {
		sp.Play(atlas.Autoplay)
	}
	return sp
}

// Key returns the shared asset key.
func (sp *AudioSprite) Key() string { return sp.key }

// Get returns the sound for a marker name, nil if unknown.
func (sp *AudioSprite) Get(name string) *Sound {
	return sp.sounds[name]
}

// Count returns the number of marker sounds in the sprite.
func (sp *AudioSprite) Count() int { return len(sp.sounds) }

// Play starts the named marker and returns its sound, nil if the name
// is unknown.
func (sp *AudioSprite) Play(name string) *Sound {
	s, ok := sp.sounds[name]
	if !ok {
		log.Printf("Warning: sprite %q has no sound %q", sp.key, name)
		return nil
	}
	s.Play(name)
	return s
}

// Stop stops the named marker, or every marker when name is empty.
func (sp *AudioSprite) Stop(name string) {
	if name == "" {
		for _, s := range sp.sounds {
			s.Stop()
		}
		return
	}
	if s, ok := sp.sounds[name]; ok {
		s.Stop()
	}
}

// PauseAll pauses every playing marker sound.
func (sp *AudioSprite) PauseAll() {
	for _, s := range sp.sounds {
		s.Pause()
	}
}

// ResumeAll resumes every paused marker sound.
func (sp *AudioSprite) ResumeAll() {
	for _, s := range sp.sounds {
		s.Resume()
	}
}

// Destroy destroys every constituent sound.
func (sp *AudioSprite) Destroy() {
	for name, s := range sp.sounds {
		s.Destroy()
		delete(sp.sounds, name)
	}
}
