package scans

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
//
// Per-scan writes are single-writer (the owning orchestrator), so
// implementations only need last-write-wins semantics.
type Repository interface {
	// Create inserts a new scan; fails with ErrExists on a duplicate ID.
	Create(ctx context.Context, s *Scan) error
	// Apply merges the non-nil fields of u into the stored scan. Unknown
	// IDs are a silent no-op.
	Apply(ctx context.Context, id ScanID, u Update) error
	// Get returns the scan or ErrNotFound.
	Get(ctx context.Context, id ScanID) (*Scan, error)
	// ByUsername returns all scans for a username, newest first.
	ByUsername(ctx context.Context, username string) ([]*Scan, error)
}

// Purger is optionally implemented by stores that support age-based
// retention cleanup.
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ArchiveStore port (interface untuk penyimpanan hasil scan)
type ArchiveStore interface {
	// ArchiveResults uploads the completed scan's results and returns the
	// object URL.
	ArchiveResults(ctx context.Context, s *Scan) (string, error)
}
