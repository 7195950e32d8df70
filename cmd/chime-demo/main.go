package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sunfall/chime/sound"
	"github.com/sunfall/chime/systems"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

const demoKey = "demo"

// demoAtlas slices the first two seconds of the loaded asset into two
// named sprite markers.
var demoAtlas = &sound.Atlas{
	Spritemap: map[string]sound.AtlasEntry{
		"first":  {Start: 0, End: 1.0},
		"second": {Start: 1.0, End: 2.0},
	},
}

type Game struct {
	ecs    *ecs.ECS
	sprite *sound.AudioSprite
	last   string
}

func NewGame(audioPath string) (*Game, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", audioPath, err)
	}
	systems.Cache().AddRaw(demoKey, data)

	if err := systems.InitPersistence(); err == nil {
		if saved, err := systems.LoadAudioSettings(); err == nil && saved != nil {
			systems.ApplySavedSettings(systems.Manager(), saved)
		}
	}

	e := ecs.NewECS(donburi.NewWorld())
	e.AddSystem(systems.UpdateAudio)

	sprite := systems.Manager().AddSpriteFromAtlas(demoKey, demoAtlas)

	return &Game{ecs: e, sprite: sprite}, nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.Key1) {
		g.sprite.Play("first")
		g.last = "first"
	}
	if inpututil.IsKeyJustPressed(ebiten.Key2) {
		g.sprite.Play("second")
		g.last = "second"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.sprite.Stop("")
		g.last = ""
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		m := systems.Manager()
		m.SetMute(!m.Muted())
		systems.SaveCurrentSettings(m)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		if s := g.sprite.Get(g.last); s != nil {
			s.FadeOut(1500)
		}
	}

	g.ecs.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	m := systems.Manager()
	msg := "chime demo\n1/2: play sprite markers  S: stop  M: mute  F: fade out"
	if m.TouchLocked() {
		msg += "\naudio locked - press any key or click to unlock"
	}
	if g.last != "" {
		if s := g.sprite.Get(g.last); s != nil && s.IsPlaying() {
			msg += fmt.Sprintf("\nplaying %q  t=%.0fms / %.0fms", g.last, s.CurrentTime(), s.DurationMS())
		}
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) Layout(w, h int) (int, int) {
	return 480, 270
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: chime-demo <audio file (.ogg or .wav)>")
	}

	ebiten.SetWindowSize(960, 540)
	ebiten.SetWindowTitle("chime demo")

	game, err := NewGame(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
