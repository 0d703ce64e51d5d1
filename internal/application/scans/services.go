package scans

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	domainai "github.com/aibcdev/brandscan/internal/domain/ai"
	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service implements use-cases untuk brand scans.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	repo    domain.Repository
	gen     domainai.Generator
	archive domain.ArchiveStore
	clock   Clock

	// slots bounds how many scans run at once. A scan waiting for a slot
	// stays in status "starting".
	slots *semaphore.Weighted

	wg sync.WaitGroup
}

// Config for New. Archive is optional; Clock defaults to SystemClock.
type Config struct {
	Repo          domain.Repository
	Generator     domainai.Generator
	Archive       domain.ArchiveStore
	Clock         Clock
	MaxConcurrent int64
}

func New(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Service{
		repo:    cfg.Repo,
		gen:     cfg.Generator,
		archive: cfg.Archive,
		clock:   cfg.Clock,
		slots:   semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

//
// ==== USE CASES ====
//

// Command untuk memulai scan
type StartScanCommand struct {
	Username  string
	Platforms []string
	ScanType  string
}

// StartScan creates the scan record and kicks the orchestrator off in the
// background. The caller gets the new ID immediately; progress is
// observed by polling.
func (s *Service) StartScan(ctx context.Context, cmd StartScanCommand) (domain.ScanID, error) {
	if cmd.ScanType == "" {
		cmd.ScanType = "standard"
	}

	id := domain.ScanID("scan_" + uuid.NewString())
	rec := &domain.Scan{
		ID:        id,
		Username:  cmd.Username,
		Platforms: cmd.Platforms,
		ScanType:  cmd.ScanType,
		Status:    domain.StatusStarting,
		Progress:  0,
		Logs:      []string{},
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return "", err
	}

	// Detached from the request context so a client disconnect never
	// cancels a running scan.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.Background(), id, cmd)
	}()

	return id, nil
}

// Wait blocks until every background scan launched so far has settled.
// Used by graceful shutdown and tests.
func (s *Service) Wait() { s.wg.Wait() }

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	return s.repo.Get(ctx, id)
}

// History returns all scans for a username, newest first.
func (s *Service) History(ctx context.Context, username string) ([]*domain.Scan, error) {
	return s.repo.ByUsername(ctx, username)
}

// LatestComplete returns the most recent completed scan for a username,
// or nil when the user has none.
func (s *Service) LatestComplete(ctx context.Context, username string) (*domain.Scan, error) {
	all, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if sc.Status == domain.StatusComplete && sc.Results != nil {
			return sc, nil
		}
	}
	return nil, nil
}
