package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	pkgch "HerdPulse/pkg/clickhouse"
	applogger "HerdPulse/pkg/logger"
)

// CHHistoryStore implements YieldStore backed by ClickHouse.
type CHHistoryStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.YieldStore = (*CHHistoryStore)(nil)

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistoryStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, pkgch.HerdSchema())
}

const chInsertYield = `INSERT INTO yields (owner_id, subject_id, day, morning, afternoon, total, ingested_at) VALUES `

func (s *CHHistoryStore) Store(ctx context.Context, r *models.YieldRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	_, err := s.db.ExecContext(ctx, chInsertYield+"(?, ?, ?, ?, ?, ?, ?)",
		r.OwnerID, r.SubjectID, models.Day(r.Date), r.Morning, r.Afternoon, r.Total, time.Now().UTC(),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_yield error",
				applogger.String("owner_id", r.OwnerID),
				applogger.String("subject_id", r.SubjectID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store yield: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) StoreBatch(ctx context.Context, records []*models.YieldRecord) error {
	if len(records) == 0 {
		return nil
	}
	// multi-row VALUES, 2000 rows per statement
	const chunkSize = 2000
	now := time.Now().UTC()
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, r := range records[start:end] {
			if r == nil || r.OwnerID == "" || r.SubjectID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.OwnerID, r.SubjectID, models.Day(r.Date), r.Morning, r.Afternoon, r.Total, now)
		}
		if len(values) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, chInsertYield+strings.Join(values, ","), args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_batch error",
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store batch: %w", err)
		}
	}
	return nil
}

func (s *CHHistoryStore) UpsertSubject(ctx context.Context, subj models.Subject) error {
	const q = `INSERT INTO subjects (owner_id, id, label, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, subj.OwnerID, subj.ID, subj.Label, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) FetchRecords(ctx context.Context, hq domrepo.HistoryQuery) ([]models.YieldRecord, error) {
	start := time.Now()
	where, args := historyFilter(hq)
	order := domrepo.NormalizeOrder(hq.Order).SQL()
	q := fmt.Sprintf(`
        SELECT subject_id, owner_id, day, morning, afternoon, total
        FROM yields FINAL
        WHERE %s
        ORDER BY day %s, subject_id ASC`, where, order)
	if hq.Limit > 0 {
		q += "\n        LIMIT ?"
		args = append(args, hq.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch_records query error",
				applogger.String("owner_id", hq.OwnerID),
				applogger.String("subject_id", hq.SubjectID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer rows.Close()

	out := make([]models.YieldRecord, 0, 128)
	for rows.Next() {
		var r models.YieldRecord
		if err := rows.Scan(&r.SubjectID, &r.OwnerID, &r.Date, &r.Morning, &r.Afternoon, &r.Total); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse fetch_records scan error",
					applogger.String("owner_id", hq.OwnerID),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Date = models.Day(r.Date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch_records rows error",
				applogger.String("owner_id", hq.OwnerID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse fetch_records ok",
			applogger.String("owner_id", hq.OwnerID),
			applogger.String("subject_id", hq.SubjectID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// ListSubjects returns subjects registered explicitly or seen in the owner's records.
func (s *CHHistoryStore) ListSubjects(ctx context.Context, ownerID string) ([]models.Subject, error) {
	const q = `
        SELECT subject_id, max(label) AS label
        FROM (
            SELECT subject_id, '' AS label FROM yields WHERE owner_id = ?
            UNION ALL
            SELECT id AS subject_id, label FROM subjects FINAL WHERE owner_id = ?
        )
        GROUP BY subject_id
        ORDER BY subject_id`
	rows, err := s.db.QueryContext(ctx, q, ownerID, ownerID)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse list_subjects query error",
				applogger.String("owner_id", ownerID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		subj := models.Subject{OwnerID: ownerID}
		if err := rows.Scan(&subj.ID, &subj.Label); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, subj)
	}
	return out, rows.Err()
}

// DataVersion combines the row count with the latest ingest time. Re-entering a
// day adds a row until the next merge, so either part moves on every write.
func (s *CHHistoryStore) DataVersion(ctx context.Context, ownerID string) (string, error) {
	const q = `SELECT count(), toUnixTimestamp64Milli(max(ingested_at)) FROM yields WHERE owner_id = ?`
	var (
		n    uint64
		last int64
	)
	if err := s.db.QueryRowContext(ctx, q, ownerID).Scan(&n, &last); err != nil {
		return "", fmt.Errorf("data version: %w", err)
	}
	return fmt.Sprintf("%d-%d", n, last), nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the client is owned by the caller.
func (s *CHHistoryStore) Close() error { return nil }

// historyFilter renders the WHERE clause shared by both stores.
func historyFilter(hq domrepo.HistoryQuery) (string, []interface{}) {
	conds := []string{"owner_id = ?"}
	args := []interface{}{hq.OwnerID}
	if hq.SubjectID != "" {
		conds = append(conds, "subject_id = ?")
		args = append(args, hq.SubjectID)
	}
	if hq.From != nil {
		conds = append(conds, "day >= ?")
		args = append(args, models.Day(*hq.From).Format(models.DateLayout))
	}
	if hq.To != nil {
		conds = append(conds, "day <= ?")
		args = append(args, models.Day(*hq.To).Format(models.DateLayout))
	}
	return strings.Join(conds, " AND "), args
}
