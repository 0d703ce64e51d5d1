package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) Create(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO brand_scans
(id, username, platforms, scan_type, status, progress, logs, results, error, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);
`
	platforms, err := json.Marshal(s.Platforms)
	if err != nil {
		return fmt.Errorf("encoding platforms: %w", err)
	}
	logs, err := json.Marshal(s.Logs)
	if err != nil {
		return fmt.Errorf("encoding logs: %w", err)
	}
	var results any
	if s.Results != nil {
		b, err := json.Marshal(s.Results)
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		results = string(b)
	}

	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		s.ID, s.Username, string(platforms), s.ScanType, s.Status, s.Progress,
		string(logs), results, sql.NullString{String: s.Error, Valid: s.Error != ""},
		created, s.CompletedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrExists
	}
	return err
}

func (r *ScanRepository) Apply(ctx context.Context, id domain.ScanID, u domain.Update) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if u.Status != nil {
		sets = append(sets, "status = "+arg(*u.Status))
	}
	if u.Progress != nil {
		sets = append(sets, "progress = "+arg(*u.Progress))
	}
	if u.Logs != nil {
		logs, err := json.Marshal(u.Logs)
		if err != nil {
			return fmt.Errorf("encoding logs: %w", err)
		}
		sets = append(sets, "logs = "+arg(string(logs)))
	}
	if u.Results != nil {
		results, err := json.Marshal(u.Results)
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		sets = append(sets, "results = "+arg(string(results)))
	}
	if u.Error != nil {
		sets = append(sets, "error = "+arg(*u.Error))
	}
	if u.CompletedAt != nil {
		sets = append(sets, "completed_at = "+arg(*u.CompletedAt))
	}
	if len(sets) == 0 {
		return nil
	}

	q := "UPDATE brand_scans SET " + strings.Join(sets, ", ") + " WHERE id = " + arg(id) + ";"
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	const q = `
SELECT id, username, platforms, scan_type, status, progress, logs, results, error, created_at, completed_at
FROM brand_scans
WHERE id = $1 LIMIT 1;
`
	s, err := scanRow(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *ScanRepository) ByUsername(ctx context.Context, username string) ([]*domain.Scan, error) {
	const q = `
SELECT id, username, platforms, scan_type, status, progress, logs, results, error, created_at, completed_at
FROM brand_scans
WHERE username = $1 ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM brand_scans WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.Scan, error) {
	var (
		s           domain.Scan
		platforms   string
		logs        string
		results     sql.NullString
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&s.ID, &s.Username, &platforms, &s.ScanType, &s.Status, &s.Progress,
		&logs, &results, &errMsg, &s.CreatedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(platforms), &s.Platforms); err != nil {
		return nil, fmt.Errorf("decoding platforms: %w", err)
	}
	if err := json.Unmarshal([]byte(logs), &s.Logs); err != nil {
		return nil, fmt.Errorf("decoding logs: %w", err)
	}
	if results.Valid {
		if err := json.Unmarshal([]byte(results.String), &s.Results); err != nil {
			return nil, fmt.Errorf("decoding results: %w", err)
		}
	}
	if errMsg.Valid {
		s.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}
