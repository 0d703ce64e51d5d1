// Package memory is the in-process scan store: a keyed map plus a
// per-username index. It is the default backend and the one tests use;
// the SQL stores are drop-in replacements behind the same port.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

type ScanRepository struct {
	mu     sync.RWMutex
	scans  map[domain.ScanID]*domain.Scan
	byUser map[string][]domain.ScanID
}

func NewScanRepository() *ScanRepository {
	return &ScanRepository{
		scans:  make(map[domain.ScanID]*domain.Scan),
		byUser: make(map[string][]domain.ScanID),
	}
}

func (r *ScanRepository) Create(_ context.Context, s *domain.Scan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scans[s.ID]; ok {
		return domain.ErrExists
	}
	cp := clone(s)
	r.scans[s.ID] = cp
	r.byUser[s.Username] = append(r.byUser[s.Username], s.ID)
	return nil
}

// Apply merges u into the stored scan. Unknown IDs are a silent no-op;
// the orchestrator is the only writer, so last write wins is enough.
func (r *ScanRepository) Apply(_ context.Context, id domain.ScanID, u domain.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.scans[id]
	if !ok {
		return nil
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Progress != nil {
		s.Progress = *u.Progress
	}
	if u.Logs != nil {
		s.Logs = append([]string(nil), u.Logs...)
	}
	if u.Results != nil {
		s.Results = u.Results
	}
	if u.Error != nil {
		s.Error = *u.Error
	}
	if u.CompletedAt != nil {
		t := *u.CompletedAt
		s.CompletedAt = &t
	}
	return nil
}

func (r *ScanRepository) Get(_ context.Context, id domain.ScanID) (*domain.Scan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s), nil
}

func (r *ScanRepository) ByUsername(_ context.Context, username string) ([]*domain.Scan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[username]
	out := make([]*domain.Scan, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.scans[id]; ok {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteOlderThan drops scans created before cutoff and reports how many
// were removed.
func (r *ScanRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.scans {
		if s.CreatedAt.Before(cutoff) {
			delete(r.scans, id)
			ids := r.byUser[s.Username]
			for i, sid := range ids {
				if sid == id {
					r.byUser[s.Username] = append(ids[:i], ids[i+1:]...)
					break
				}
			}
			removed++
		}
	}
	return removed, nil
}

// clone copies the record so readers never share slices with the
// orchestrator's writes. Results is set exactly once and treated as
// immutable after that, so the pointer itself is safe to share.
func clone(s *domain.Scan) *domain.Scan {
	cp := *s
	cp.Platforms = append([]string(nil), s.Platforms...)
	cp.Logs = append([]string(nil), s.Logs...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
