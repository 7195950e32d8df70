package sound

import "testing"

const atlasJSON = `{
	"spritemap": {
		"intro":  {"start": 0,   "end": 1.5, "loop": false},
		"hum":    {"start": 1.5, "end": 2.0, "loop": true},
		"broken": {"start": 3.0, "end": 3.0, "loop": false}
	}
}`

func TestParseAtlas(t *testing.T) {
	atlas, err := ParseAtlas([]byte(atlasJSON))
	if err != nil {
		t.Fatalf("ParseAtlas: %v", err)
	}
	if len(atlas.Spritemap) != 3 {
		t.Errorf("spritemap entries = %d, want 3", len(atlas.Spritemap))
	}
	e := atlas.Spritemap["hum"]
	if e.Start != 1.5 || e.End != 2.0 || !e.Loop {
		t.Errorf("hum entry = %+v", e)
	}
}

func TestParseAtlasErrors(t *testing.T) {
	if _, err := ParseAtlas([]byte("{not json")); err == nil {
		t.Error("invalid JSON should error")
	}
	if _, err := ParseAtlas([]byte(`{"spritemap": {}}`)); err == nil {
		t.Error("empty spritemap should error")
	}
}

func TestAddSpriteBuildsOneSoundPerEntry(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	sp, err := m.AddSprite("blip", []byte(atlasJSON))
	if err != nil {
		t.Fatal(err)
	}
	// The zero-length entry is skipped.
	if sp.Count() != 2 {
		t.Errorf("sprite sounds = %d, want 2", sp.Count())
	}
	if m.Count() != 2 {
		t.Errorf("manager registry = %d, want 2", m.Count())
	}

	s := sp.Get("intro")
	if s == nil {
		t.Fatal("intro sound missing")
	}
	mk, ok := s.Marker("intro")
	if !ok {
		t.Fatal("intro marker missing")
	}
	if mk.Duration != 1.5 {
		t.Errorf("intro duration = %v, want 1.5", mk.Duration)
	}
	if !s.AllowMultiple {
		t.Error("sprite sounds should allow overlapping plays")
	}

	hum := sp.Get("hum")
	if hm, _ := hum.Marker("hum"); !hm.Loop {
		t.Error("hum marker should loop")
	}
}

func TestSpritePlayAndStop(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	sp, err := m.AddSprite("blip", []byte(atlasJSON))
	if err != nil {
		t.Fatal(err)
	}

	s := sp.Play("intro")
	if s == nil || !s.IsPlaying() {
		t.Fatal("playing a known sprite sound should start it")
	}
	if s.CurrentMarker() != "intro" {
		t.Errorf("current marker = %q, want intro", s.CurrentMarker())
	}

	if sp.Play("missing") != nil {
		t.Error("playing an unknown sprite sound should return nil")
	}

	sp.Play("hum")
	sp.Stop("")
	for _, name := range []string{"intro", "hum"} {
		if sp.Get(name).IsPlaying() {
			t.Errorf("%s should be stopped", name)
		}
	}
}

func TestSpriteAutoplay(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	atlas := &Atlas{
		Spritemap: map[string]AtlasEntry{
			"theme": {Start: 0, End: 2, Loop: true},
		},
		Autoplay: "theme",
	}

	sp := m.AddSpriteFromAtlas("blip", atlas)
	if !sp.Get("theme").IsPlaying() {
		t.Error("autoplay entry should start at construction")
	}
}

func TestSpriteDestroy(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	sp, err := m.AddSprite("blip", []byte(atlasJSON))
	if err != nil {
		t.Fatal(err)
	}

	sp.Destroy()
	if sp.Count() != 0 {
		t.Error("destroy should drop every sprite sound")
	}
	if m.Count() != 0 {
		t.Error("destroy should detach the sounds from the manager")
	}
}
