package storage

import (
	"os"
	"testing"

	"github.com/hailam/wfc3d/internal/wfc"
)

func TestNewRunStats(t *testing.T) {
	stats := NewRunStats()
	if stats.RunsStarted != 0 {
		t.Errorf("expected 0 runs started")
	}
	if stats.GetCompletionRate() != 0 {
		t.Errorf("expected 0%% completion rate on empty stats")
	}
}

func TestCompletionRate(t *testing.T) {
	stats := &RunStats{RunsStarted: 10, RunsCompleted: 7, RunsFailed: 3}
	if rate := stats.GetCompletionRate(); rate != 70 {
		t.Errorf("expected 70%% completion rate, got %.2f%%", rate)
	}
}

func TestRunSnapshotRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wfc-storage-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	t.Setenv("XDG_DATA_HOME", tmpDir)

	st, err := NewStorage()
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	defer st.Close()

	snap := &RunSnapshot{
		RunID:       "run-1",
		CatalogName: "test-catalog",
		Seed:        42,
		Origin:      wfc.Position{},
		Size:        wfc.Position{X: 4, Y: 4, Z: 1},
		Collapsed: []CellAssignment{
			{Position: wfc.Position{X: 0, Y: 0, Z: 0}, Module: 0},
			{Position: wfc.Position{X: 1, Y: 0, Z: 0}, Module: 1},
		},
	}
	if err := st.SaveRunSnapshot(snap); err != nil {
		t.Fatalf("SaveRunSnapshot: %v", err)
	}

	loaded, err := st.LoadRunSnapshot("run-1")
	if err != nil {
		t.Fatalf("LoadRunSnapshot: %v", err)
	}
	if loaded == nil || len(loaded.Collapsed) != 2 || loaded.Seed != 42 {
		t.Fatalf("loaded snapshot mismatch: %+v", loaded)
	}

	latest, err := st.LoadLatestRunSnapshot()
	if err != nil {
		t.Fatalf("LoadLatestRunSnapshot: %v", err)
	}
	if latest == nil || latest.RunID != "run-1" {
		t.Fatalf("LoadLatestRunSnapshot = %+v, want run-1", latest)
	}

	if err := st.DeleteRunSnapshot("run-1"); err != nil {
		t.Fatalf("DeleteRunSnapshot: %v", err)
	}
	gone, err := st.LoadRunSnapshot("run-1")
	if err != nil {
		t.Fatalf("LoadRunSnapshot after delete: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil snapshot after delete, got %+v", gone)
	}
}

func TestRecordRunFinished(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wfc-storage-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)

	st, err := NewStorage()
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	defer st.Close()

	if err := st.RecordRunStarted(); err != nil {
		t.Fatalf("RecordRunStarted: %v", err)
	}
	if err := st.RecordRunFinished("test-catalog", true, 16, 3, 0); err != nil {
		t.Fatalf("RecordRunFinished: %v", err)
	}

	stats, err := st.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.RunsStarted != 1 || stats.RunsCompleted != 1 {
		t.Fatalf("stats = %+v, want 1 started/1 completed", stats)
	}
	if stats.TotalCollapses != 16 || stats.LongestBacktrack != 3 {
		t.Fatalf("stats = %+v, want 16 collapses/3 longest backtrack", stats)
	}
	if stats.CompletionsByCatalog["test-catalog"] != 1 {
		t.Fatalf("CompletionsByCatalog = %+v, want test-catalog:1", stats.CompletionsByCatalog)
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("data directory was not created: %s", dataDir)
	}
}
