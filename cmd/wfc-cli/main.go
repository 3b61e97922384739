package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/hailam/wfc3d/internal/control"
	"github.com/hailam/wfc3d/internal/storage"
	"github.com/hailam/wfc3d/internal/wfc"
)

var (
	cpuprofile    = flag.String("cpuprofile", "", "write cpu profile to file")
	catalogPath   = flag.String("catalog", "", "path to a catalog JSON file")
	constraints   = flag.String("constraints", "", "path to a boundary constraints JSON file")
	mapKind       = flag.String("map", "box", "map implementation: box or stream")
	sizeX         = flag.Int("x", 8, "box size along x")
	sizeY         = flag.Int("y", 8, "box size along y")
	sizeZ         = flag.Int("z", 1, "box size along z")
	historyCap    = flag.Int("history", wfc.DefaultHistoryCapacity, "history ring capacity")
	seed          = flag.Int64("seed", 0, "PRNG seed (0 falls back to WFC_SEED, then a time-derived seed)")
	batchDir      = flag.String("batch", "", "run every region listed under this directory independently")
	batchWorkers  = flag.Int("batch-workers", 4, "bounded worker pool size for -batch")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	if *catalogPath == "" {
		log.Fatal("-catalog is required")
	}
	catalog, err := wfc.LoadCatalogFile(*catalogPath)
	if err != nil {
		log.Fatalf("loading catalog: %v", err)
	}

	st, err := storage.NewStorage()
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer st.Close()

	if *batchDir != "" {
		runBatch(catalog, st)
		return
	}

	runInteractive(catalog, st)
}

func resolveSeed() int64 {
	if *seed != 0 {
		return *seed
	}
	if v := os.Getenv("WFC_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return time.Now().UnixNano()
}

// runInteractive wires one Map + Collapser to the control protocol over
// stdin/stdout, the single-run counterpart to cmd/chessplay-uci's
// UCI-over-stdio entrypoint.
func runInteractive(catalog *wfc.Catalog, st *storage.Storage) {
	m := newMap(catalog)

	if *constraints != "" {
		cs, err := wfc.LoadBoundaryConstraintsFile(*constraints)
		if err != nil {
			log.Fatalf("loading boundary constraints: %v", err)
		}
		if err := m.ApplyBoundaryConstraints(cs); err != nil {
			log.Fatalf("applying boundary constraints: %v", err)
		}
	}

	rng := rand.New(rand.NewSource(resolveSeed()))
	collapser := wfc.NewCollapser(rng)

	ctl := control.New(m, collapser)
	ctl.Run(os.Stdin, os.Stdout)
}

func newMap(catalog *wfc.Catalog) wfc.Map {
	size := wfc.Position{X: *sizeX, Y: *sizeY, Z: *sizeZ}
	switch *mapKind {
	case "stream":
		sm := wfc.NewStreamingMap(catalog, *historyCap)
		sm.SetRangeLimit(wfc.Position{}, size)
		return sm
	default:
		return wfc.NewBoxMap(catalog, wfc.Position{}, size, *historyCap)
	}
}

// region is one independently solvable batch unit: a named origin/size
// box, resumable via its own run ID.
type region struct {
	RunID  string
	Origin wfc.Position
	Size   wfc.Position
}

// runBatch solves every region under -batch concurrently across a
// bounded worker pool, grounded on the teacher's Lazy-SMP worker
// fan-out (internal/engine/engine.go's resultCh + sync.WaitGroup
// pattern): each worker goroutine owns a disjoint Map/Collapser pair
// and its own PRNG, matching §5's "independent runs may run
// concurrently" addition.
func runBatch(catalog *wfc.Catalog, st *storage.Storage) {
	entries, err := os.ReadDir(*batchDir)
	if err != nil {
		log.Fatalf("reading batch directory: %v", err)
	}

	var regions []region
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		runID := e.Name()
		if snap, err := st.LoadRunSnapshot(runID); err == nil && snap != nil && snap.Completed {
			log.Printf("skipping %s: already completed", runID)
			continue
		}
		regions = append(regions, region{
			RunID:  runID,
			Origin: wfc.Position{},
			Size:   wfc.Position{X: *sizeX, Y: *sizeY, Z: *sizeZ},
		})
	}

	jobs := make(chan region)
	var wg sync.WaitGroup
	for i := 0; i < *batchWorkers; i++ {
		wg.Add(1)
		go batchWorker(i, jobs, catalog, st, &wg)
	}

	for _, r := range regions {
		jobs <- r
	}
	close(jobs)
	wg.Wait()
}

func batchWorker(id int, jobs <-chan region, catalog *wfc.Catalog, st *storage.Storage, wg *sync.WaitGroup) {
	defer wg.Done()
	for r := range jobs {
		if err := st.RecordRunStarted(); err != nil {
			log.Printf("worker %d: record run started: %v", id, err)
		}

		m := wfc.NewBoxMap(catalog, r.Origin, r.Size, wfc.DefaultHistoryCapacity)
		rng := rand.New(rand.NewSource(resolveSeed() + int64(id)))
		collapser := wfc.NewCollapser(rng)

		start := time.Now()
		err := collapser.CollapseBox(m, r.Origin, r.Size, nil)
		elapsed := time.Since(start)

		completed := err == nil
		if err := saveBatchResult(st, m, r, completed, elapsed); err != nil {
			log.Printf("worker %d: saving result for %s: %v", id, r.RunID, err)
		}
		if completed {
			log.Printf("worker %d: %s completed in %s", id, r.RunID, elapsed)
		} else {
			log.Printf("worker %d: %s failed: %v", id, r.RunID, err)
		}
	}
}

func saveBatchResult(st *storage.Storage, m *wfc.BoxMap, r region, completed bool, elapsed time.Duration) error {
	snap := &storage.RunSnapshot{
		RunID:     r.RunID,
		Origin:    r.Origin,
		Size:      r.Size,
		Completed: completed,
		Failed:    !completed,
		StartedAt: time.Now().Add(-elapsed),
	}
	for _, p := range m.Positions() {
		if s := m.GetSlot(p); s != nil && s.Collapsed() {
			snap.Collapsed = append(snap.Collapsed, storage.CellAssignment{Position: p, Module: s.Module})
		}
	}
	if err := st.SaveRunSnapshot(snap); err != nil {
		return err
	}
	// Collapser doesn't expose a standalone backtrack counter; History's
	// total-pushes count already includes every collapse plus every
	// re-collapse performed after an undo, so it overstates backtracks
	// specifically. Recording 0 here rather than a misleading number.
	return st.RecordRunFinished(*catalogPath, completed, len(snap.Collapsed), 0, elapsed)
}
