package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stellarlinkco/qa-gate/internal/config"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleRun(id string, started time.Time) *RunRecord {
	return &RunRecord{
		ID:              id,
		Suite:           "release-check",
		StartedAt:       started,
		FinishedAt:      started.Add(30 * time.Second),
		Gate:            "fail",
		OverallPassRate: 0.714,
		GlobalThreshold: 0.70,
		Categories: []CategoryRecord{
			{Name: "bias", Threshold: 1.0, Passed: 1, Failed: 1, Total: 2, PassRate: 0.5},
			{Name: "grounding", Threshold: 0.8, Passed: 4, Errored: 1, Total: 5, PassRate: 0.8, MeetsThreshold: true},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := st.SaveRun(ctx, sampleRun("run-1", started)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Suite != "release-check" || got.Gate != "fail" {
		t.Fatalf("GetRun: got %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("StartedAt: got %v want %v", got.StartedAt, started)
	}
	if len(got.Categories) != 2 {
		t.Fatalf("categories: got %d want 2", len(got.Categories))
	}
	if got.Categories[0].Name != "bias" || got.Categories[0].Threshold != 1.0 {
		t.Fatalf("categories[0]: got %+v", got.Categories[0])
	}
}

func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("GetRun: got %v, want not-found error", err)
	}
}

func TestSaveRun_EmptyID(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	run := sampleRun("", time.Now())
	if err := st.SaveRun(context.Background(), run); err == nil {
		t.Fatal("SaveRun: want error for empty id")
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		run := sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))
		if i%2 == 0 {
			run.Suite = "other-suite"
		}
		if err := st.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	all, err := st.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("ListRuns: got %d want 5", len(all))
	}
	// Most recent first.
	for i := 1; i < len(all); i++ {
		if all[i].StartedAt.After(all[i-1].StartedAt) {
			t.Fatalf("ListRuns: out of order at %d", i)
		}
	}

	bySuite, err := st.ListRuns(ctx, RunFilter{Suite: "release-check"})
	if err != nil {
		t.Fatalf("ListRuns by suite: %v", err)
	}
	if len(bySuite) != 2 {
		t.Fatalf("ListRuns by suite: got %d want 2", len(bySuite))
	}

	since, err := st.ListRuns(ctx, RunFilter{Since: base.Add(3 * time.Hour)})
	if err != nil {
		t.Fatalf("ListRuns since: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("ListRuns since: got %d want 2", len(since))
	}

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("ListRuns limit: got %d want 2", len(limited))
	}
	if limited[0].ID != "run-4" {
		t.Fatalf("ListRuns limit: first id %q", limited[0].ID)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Storage.Type = "memory"
	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.SaveRun(context.Background(), sampleRun("m-1", time.Now())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	if _, err := Open(&config.Config{Storage: config.StorageConfig{Type: "postgres"}}); err == nil {
		t.Fatal("Open: want error for unsupported type")
	}
}

func TestOpen_SQLitePathFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Storage.Path = filepath.Join(t.TempDir(), "nested", "runs.db")
	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.SaveRun(context.Background(), sampleRun("p-1", time.Now())); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
}
