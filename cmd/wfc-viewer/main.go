// wfc-viewer is a minimal debugging host: it renders one Z-layer of a
// Map as flat-colored quads and lets arrow keys step through layers.
// It is a read surface only, not a stand-in for real asset
// instantiation.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/hailam/wfc3d/internal/wfc"
)

func main() {
	catalogPath := flag.String("catalog", "", "path to a catalog JSON file")
	sizeX := flag.Int("x", 16, "box size along x")
	sizeY := flag.Int("y", 16, "box size along y")
	sizeZ := flag.Int("z", 1, "box size along z")
	seed := flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
	flag.Parse()

	if *catalogPath == "" {
		log.Fatal("-catalog is required")
	}
	catalog, err := wfc.LoadCatalogFile(*catalogPath)
	if err != nil {
		log.Fatalf("loading catalog: %v", err)
	}

	size := wfc.Position{X: *sizeX, Y: *sizeY, Z: *sizeZ}
	m := wfc.NewBoxMap(catalog, wfc.Position{}, size, wfc.DefaultHistoryCapacity)

	// Collapse runs on its own goroutine so Draw can show cells filling
	// in live; Map reads from Draw race with the collapse goroutine's
	// writes, same as any other long-running background solve watched
	// through a debug view.
	collapser := wfc.NewCollapser(rand.New(rand.NewSource(*seed)))
	go func() {
		if err := collapser.CollapseBox(m, wfc.Position{}, size, nil); err != nil {
			log.Printf("collapse: %v", err)
		}
	}()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("wfc-viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := NewGame(m, wfc.Position{}, size)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
