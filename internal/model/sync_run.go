package model

import "time"

type SyncRunType string

const (
	SyncRunGadget  SyncRunType = "gadget-sync"
	SyncRunProduct SyncRunType = "product-sync"
	SyncRunStock   SyncRunType = "stock-sync"
)

type SyncRunStatus string

const (
	SyncRunCompleted SyncRunStatus = "completed"
	SyncRunFailed    SyncRunStatus = "failed"
)

// SyncRun is the audit record of one reconciliation phase. It is written
// once, after the phase ends.
type SyncRun struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Type      SyncRunType   `db:"type" json:"type"`
	Status    SyncRunStatus `db:"status" json:"status"`
	StartedAt time.Time     `db:"started_at" json:"started_at"`
	EndedAt   time.Time     `db:"ended_at" json:"ended_at"`
	Summary   string        `db:"summary" json:"summary"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
