package store

import (
	"context"
	"time"
)

// Store persists gate runs so the pipeline can inspect history.
type Store interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	Close() error
}

// RunRecord stores one gate run.
type RunRecord struct {
	ID              string
	Suite           string
	StartedAt       time.Time
	FinishedAt      time.Time
	Gate            string // "pass" or "fail"
	OverallPassRate float64
	GlobalThreshold float64
	Categories      []CategoryRecord // JSON serialized in storage
}

// CategoryRecord stores one category's score within a run.
type CategoryRecord struct {
	Name           string  `json:"name"`
	Threshold      float64 `json:"threshold"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	Errored        int     `json:"errored"`
	Total          int     `json:"total"`
	PassRate       float64 `json:"pass_rate"`
	MeetsThreshold bool    `json:"meets_threshold"`
	Empty          bool    `json:"empty,omitempty"`
}

// RunFilter filters run listings.
type RunFilter struct {
	Suite string
	Since time.Time
	Until time.Time
	Limit int
}
