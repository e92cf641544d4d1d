package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	applogger "HerdPulse/pkg/logger"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subjects (
	owner_id TEXT NOT NULL,
	id       TEXT NOT NULL,
	label    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (owner_id, id)
);

CREATE TABLE IF NOT EXISTS yields (
	owner_id   TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	day        TEXT NOT NULL,
	morning    REAL NOT NULL,
	afternoon  REAL NOT NULL,
	total      REAL NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (owner_id, subject_id, day)
);

CREATE INDEX IF NOT EXISTS idx_yields_owner_day ON yields (owner_id, day);

CREATE TABLE IF NOT EXISTS owner_versions (
	owner_id TEXT PRIMARY KEY,
	version  INTEGER NOT NULL
);
`

const (
	sqliteInsertSubject = `INSERT OR IGNORE INTO subjects (owner_id, id, label) VALUES (?, ?, '')`
	sqliteUpsertYield   = `
INSERT INTO yields (owner_id, subject_id, day, morning, afternoon, total, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id, subject_id, day) DO UPDATE SET
	morning = excluded.morning,
	afternoon = excluded.afternoon,
	total = excluded.total,
	updated_at = excluded.updated_at`
	sqliteBumpVersion = `
INSERT INTO owner_versions (owner_id, version) VALUES (?, 1)
ON CONFLICT (owner_id) DO UPDATE SET version = version + 1`
)

// SQLiteHistoryStore implements YieldStore on an embedded SQLite file. A record
// per (owner, subject, day) is kept; storing the same day again replaces it.
type SQLiteHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.YieldStore = (*SQLiteHistoryStore)(nil)

// NewSQLiteHistoryStore opens (or creates) the database at path and applies the schema.
func NewSQLiteHistoryStore(path string) (*SQLiteHistoryStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection: writes serialize instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	s := &SQLiteHistoryStore{db: db}
	if err := s.Init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// SetLogger injects a structured logger.
func (s *SQLiteHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLiteHistoryStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Store(ctx context.Context, r *models.YieldRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	return s.StoreBatch(ctx, []*models.YieldRecord{r})
}

func (s *SQLiteHistoryStore) StoreBatch(ctx context.Context, records []*models.YieldRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	owners := map[string]struct{}{}
	for _, r := range records {
		if r == nil {
			continue
		}
		if r.OwnerID == "" || r.SubjectID == "" {
			return fmt.Errorf("store yield: owner_id and subject_id required")
		}
		if _, err := tx.ExecContext(ctx, sqliteInsertSubject, r.OwnerID, r.SubjectID); err != nil {
			return fmt.Errorf("register subject: %w", err)
		}
		day := models.Day(r.Date).Format(models.DateLayout)
		if _, err := tx.ExecContext(ctx, sqliteUpsertYield, r.OwnerID, r.SubjectID, day, r.Morning, r.Afternoon, r.Total, now); err != nil {
			if s.l != nil {
				s.l.Error("sqlite store_yield error",
					applogger.String("owner_id", r.OwnerID),
					applogger.String("subject_id", r.SubjectID),
					applogger.String("day", day),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store yield: %w", err)
		}
		owners[r.OwnerID] = struct{}{}
	}
	for owner := range owners {
		if _, err := tx.ExecContext(ctx, sqliteBumpVersion, owner); err != nil {
			return fmt.Errorf("bump version: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) UpsertSubject(ctx context.Context, subj models.Subject) error {
	const q = `
INSERT INTO subjects (owner_id, id, label) VALUES (?, ?, ?)
ON CONFLICT (owner_id, id) DO UPDATE SET label = excluded.label`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, q, subj.OwnerID, subj.ID, subj.Label); err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteBumpVersion, subj.OwnerID); err != nil {
		return fmt.Errorf("bump version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteHistoryStore) FetchRecords(ctx context.Context, hq domrepo.HistoryQuery) ([]models.YieldRecord, error) {
	start := time.Now()
	where, args := historyFilter(hq)
	q := fmt.Sprintf(`SELECT subject_id, owner_id, day, morning, afternoon, total
FROM yields WHERE %s ORDER BY day %s, subject_id ASC`, where, domrepo.NormalizeOrder(hq.Order).SQL())
	if hq.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, hq.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("sqlite fetch_records query error",
				applogger.String("owner_id", hq.OwnerID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer rows.Close()

	out := make([]models.YieldRecord, 0, 64)
	for rows.Next() {
		var (
			r   models.YieldRecord
			day string
		)
		if err := rows.Scan(&r.SubjectID, &r.OwnerID, &day, &r.Morning, &r.Afternoon, &r.Total); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		d, err := time.Parse(models.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		r.Date = d
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("sqlite fetch_records ok",
			applogger.String("owner_id", hq.OwnerID),
			applogger.String("subject_id", hq.SubjectID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *SQLiteHistoryStore) ListSubjects(ctx context.Context, ownerID string) ([]models.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, owner_id, label FROM subjects WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		var subj models.Subject
		if err := rows.Scan(&subj.ID, &subj.OwnerID, &subj.Label); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, subj)
	}
	return out, rows.Err()
}

// DataVersion is a per-owner counter bumped in the same transaction as every write.
func (s *SQLiteHistoryStore) DataVersion(ctx context.Context, ownerID string) (string, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM owner_versions WHERE owner_id = ?`, ownerID).Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("data version: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}

func (s *SQLiteHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}
