package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/wfc3d/internal/wfc"
)

// Storage keys. Run snapshots are keyed per run under runPrefix so many
// runs' resume state can coexist; keyLatestRun always points at the most
// recently touched run ID, letting a host resume "the" in-progress run
// without having to remember its ID itself.
const (
	runPrefix      = "run:"
	keyLatestRun   = "latest_run"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
)

// CellAssignment is one collapsed cell as persisted in a RunSnapshot.
type CellAssignment struct {
	Position wfc.Position `json:"position"`
	Module   int          `json:"module"`
}

// RunSnapshot is enough state to resume or audit one solver run: the
// catalog it was run against, the region it covers, the seed driving its
// randomness, and every cell collapsed so far (so a resumed run can
// replay them via Slot.Collapse instead of recomputing the search).
type RunSnapshot struct {
	RunID       string           `json:"run_id"`
	CatalogName string           `json:"catalog_name"`
	Seed        int64            `json:"seed"`
	Origin      wfc.Position     `json:"origin"`
	Size        wfc.Position     `json:"size"`
	Collapsed   []CellAssignment `json:"collapsed"`
	Completed   bool             `json:"completed"`
	Failed      bool             `json:"failed"`
	StartedAt   time.Time        `json:"started_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// RunStats accumulates lifetime solver statistics across every run this
// store has recorded.
type RunStats struct {
	RunsStarted          int            `json:"runs_started"`
	RunsCompleted        int            `json:"runs_completed"`
	RunsFailed           int            `json:"runs_failed"`
	TotalCollapses       int            `json:"total_collapses"`
	TotalBacktracks      int            `json:"total_backtracks"`
	LongestBacktrack     int            `json:"longest_backtrack"`
	CompletionsByCatalog map[string]int `json:"completions_by_catalog"`
	TotalSolveTime       time.Duration  `json:"total_solve_time"`
}

// NewRunStats returns empty lifetime statistics.
func NewRunStats() *RunStats {
	return &RunStats{CompletionsByCatalog: make(map[string]int)}
}

// GetCompletionRate returns the fraction of started runs that completed
// successfully, as a percentage in [0,100].
func (s *RunStats) GetCompletionRate() float64 {
	if s.RunsStarted == 0 {
		return 0
	}
	return float64(s.RunsCompleted) / float64(s.RunsStarted) * 100
}

// Storage wraps BadgerDB for persistent run snapshots and stats.
type Storage struct {
	db *badger.DB
}

// NewStorage opens (creating if absent) the BadgerDB database under the
// platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %s: %w", dbDir, err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch reports whether this is the first time Storage has been
// opened against this data directory.
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})
	return firstLaunch, err
}

// MarkFirstLaunchComplete records that first-launch setup has run.
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

func runKey(runID string) []byte {
	return []byte(runPrefix + runID)
}

// SaveRunSnapshot persists snap and updates the latest-run pointer.
func (s *Storage) SaveRunSnapshot(snap *RunSnapshot) error {
	snap.UpdatedAt = time.Now()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(runKey(snap.RunID), data); err != nil {
			return err
		}
		return txn.Set([]byte(keyLatestRun), []byte(snap.RunID))
	})
}

// LoadRunSnapshot loads the snapshot for runID, or (nil, nil) if absent.
func (s *Storage) LoadRunSnapshot(runID string) (*RunSnapshot, error) {
	var snap *RunSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(runID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snap = &RunSnapshot{}
			return json.Unmarshal(val, snap)
		})
	})
	return snap, err
}

// LoadLatestRunSnapshot loads whichever run was most recently saved, or
// (nil, nil) if no run has ever been saved.
func (s *Storage) LoadLatestRunSnapshot() (*RunSnapshot, error) {
	var runID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyLatestRun))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			runID = string(val)
			return nil
		})
	})
	if err != nil || runID == "" {
		return nil, err
	}
	return s.LoadRunSnapshot(runID)
}

// DeleteRunSnapshot removes a completed or abandoned run's resume state.
func (s *Storage) DeleteRunSnapshot(runID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(runKey(runID))
	})
}

// SaveStats persists lifetime solver statistics.
func (s *Storage) SaveStats(stats *RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads lifetime solver statistics, or empty stats if none
// have been recorded yet.
func (s *Storage) LoadStats() (*RunStats, error) {
	stats := NewRunStats()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	return stats, err
}

// RecordRunStarted updates lifetime stats for a newly started run.
func (s *Storage) RecordRunStarted() error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.RunsStarted++
	return s.SaveStats(stats)
}

// RecordRunFinished updates lifetime stats for a run that just finished,
// successfully or not.
func (s *Storage) RecordRunFinished(catalogName string, completed bool, collapses, backtracks int, solveTime time.Duration) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.TotalCollapses += collapses
	stats.TotalBacktracks += backtracks
	stats.TotalSolveTime += solveTime
	if backtracks > stats.LongestBacktrack {
		stats.LongestBacktrack = backtracks
	}
	if completed {
		stats.RunsCompleted++
		stats.CompletionsByCatalog[catalogName]++
	} else {
		stats.RunsFailed++
	}
	return s.SaveStats(stats)
}
