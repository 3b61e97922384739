package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/wfc3d/internal/wfc"
)

const (
	cellSize     = 24
	screenWidth  = 800
	screenHeight = 600
)

var (
	uncollapsedColor = color.RGBA{60, 60, 68, 255}
	forgottenColor   = color.RGBA{30, 30, 34, 255}
	backgroundColor  = color.RGBA{18, 18, 20, 255}
)

// Game implements ebiten.Game, the same three-method shape as
// internal/ui/game.go's Game, reading from a Map instead of owning
// chess position state: this viewer is read-only against whatever a
// Collapser is concurrently mutating.
type Game struct {
	m      wfc.Map
	origin wfc.Position
	size   wfc.Position
	layer  int
}

// NewGame returns a viewer over the box [origin, origin+size), starting
// at the lowest Z layer.
func NewGame(m wfc.Map, origin, size wfc.Position) *Game {
	return &Game{m: m, origin: origin, size: size}
}

// Update implements ebiten.Game: arrow keys step the displayed Z layer.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		g.layer++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		g.layer--
	}
	if g.layer < 0 {
		g.layer = 0
	}
	if g.layer >= g.size.Z {
		g.layer = g.size.Z - 1
	}
	return nil
}

// Draw implements ebiten.Game: one flat-colored quad per cell of the
// current layer, color = a hash of the collapsed module index, gray
// for uncollapsed cells, darker gray for forgotten ones.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	z := g.origin.Z + g.layer
	for y := 0; y < g.size.Y; y++ {
		for x := 0; x < g.size.X; x++ {
			pos := wfc.Position{X: g.origin.X + x, Y: g.origin.Y + y, Z: z}
			slot := g.m.GetSlot(pos)

			c := uncollapsedColor
			switch {
			case slot == nil:
				continue
			case slot.Forgotten:
				c = forgottenColor
			case slot.Collapsed():
				c = moduleColor(slot.Module)
			}
			vector.DrawFilledRect(screen, float32(x*cellSize), float32(y*cellSize), cellSize-1, cellSize-1, c, false)
		}
	}

	ebiten.SetWindowTitle(fmt.Sprintf("wfc-viewer — layer z=%d/%d", z, g.origin.Z+g.size.Z-1))
}

// Layout implements ebiten.Game with a fixed logical screen size; the
// viewer doesn't need HiDPI scaling the way the chess board renderer
// does, since quads are drawn at a fixed cell size rather than scaled
// to fill a resizable panel.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// moduleColor derives a stable, visually distinct color from a module
// index via a cheap multiplicative hash, avoiding a dependency on the
// catalog knowing its own module colors.
func moduleColor(module int) color.RGBA {
	h := uint32(module)*2654435761 + 0x9e3779b9
	return color.RGBA{
		R: uint8(h >> 24),
		G: uint8(h >> 16),
		B: uint8(h >> 8),
		A: 255,
	}
}
