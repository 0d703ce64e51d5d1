package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create insert scan record baru
func (r *ScanRepository) Create(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO brand_scans
(id, username, platforms, scan_type, status, progress, logs, results, error, created_at, completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?);
`
	platforms, err := toJSON(s.Platforms)
	if err != nil {
		return fmt.Errorf("encoding platforms: %w", err)
	}
	logs, err := toJSON(s.Logs)
	if err != nil {
		return fmt.Errorf("encoding logs: %w", err)
	}
	results, err := toNullableJSON(s.Results)
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		s.ID, s.Username, platforms, s.ScanType, s.Status, s.Progress,
		logs, results, nullableString(s.Error), created, s.CompletedAt,
	)
	if err != nil && strings.Contains(err.Error(), "Duplicate entry") {
		return domain.ErrExists
	}
	return err
}

// Apply update sebagian kolom saja, kolom lain tidak disentuh
func (r *ScanRepository) Apply(ctx context.Context, id domain.ScanID, u domain.Update) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}
	if u.Progress != nil {
		sets = append(sets, "progress = ?")
		args = append(args, *u.Progress)
	}
	if u.Logs != nil {
		logs, err := toJSON(u.Logs)
		if err != nil {
			return fmt.Errorf("encoding logs: %w", err)
		}
		sets = append(sets, "logs = ?")
		args = append(args, logs)
	}
	if u.Results != nil {
		results, err := toJSON(u.Results)
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		sets = append(sets, "results = ?")
		args = append(args, results)
	}
	if u.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *u.Error)
	}
	if u.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *u.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	q := "UPDATE brand_scans SET " + strings.Join(sets, ", ") + " WHERE id = ?;"
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// Get by ID
func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	const q = `
SELECT id, username, platforms, scan_type, status, progress, logs, results, error, created_at, completed_at
FROM brand_scans
WHERE id = ? LIMIT 1;
`
	s, err := scanRow(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// ByUsername semua scan milik user, terbaru dulu
func (r *ScanRepository) ByUsername(ctx context.Context, username string) ([]*domain.Scan, error) {
	const q = `
SELECT id, username, platforms, scan_type, status, progress, logs, results, error, created_at, completed_at
FROM brand_scans
WHERE username = ? ORDER BY created_at DESC;
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

// DeleteOlderThan hapus scan lama (retention cleanup)
func (r *ScanRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM brand_scans WHERE created_at < ?;`, cutoff)
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

	if err := fromJSON(platforms, &s.Platforms); err != nil {
		return nil, fmt.Errorf("decoding platforms: %w", err)
	}
	if err := fromJSON(logs, &s.Logs); err != nil {
		return nil, fmt.Errorf("decoding logs: %w", err)
	}
	if results.Valid {
		if err := fromJSON(results.String, &s.Results); err != nil {
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
