package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	competition TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	body        TEXT NOT NULL,
	PRIMARY KEY (competition, seq)
);
CREATE TABLE IF NOT EXISTS records (
	journal TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	body    TEXT NOT NULL,
	PRIMARY KEY (journal, seq)
);`

// SQLiteStore keeps one row per snapshot, ordered by a per-competition
// sequence number. Each write is a single transaction.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (and creates) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ErrUnwritable)
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnwritable, err)
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrUnwritable, err)
	}
	// One connection serializes writers inside the process.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", ErrUnwritable, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrUnwritable, err)
	}
	return &SQLiteStore{db: db, log: o.logger.Named("sqlitestore")}, nil
}

// ReadAll implements Store.ReadAll.
func (s *SQLiteStore) ReadAll(ctx context.Context, competition string) ([]model.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "sqlitestore.ReadAll", trace.WithAttributes(attribute.String("competition", competition)))
	defer span.End()
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	name, err := normalizeName(competition)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM snapshots WHERE competition = ? ORDER BY seq`, name)
	if err != nil {
		metrics.RecordStoreError("unavailable")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	defer rows.Close()

	history := []model.Snapshot{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
		}
		var snap model.Snapshot
		if err := json.Unmarshal([]byte(body), &snap); err != nil {
			metrics.RecordStoreError("corrupt")
			span.RecordError(err)
			s.log.Warn(ctx, "corrupt snapshot row", logger.String("competition", name), logger.Error(err))
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, name, err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	return history, nil
}

// Append implements Store.Append.
func (s *SQLiteStore) Append(ctx context.Context, competition string, snap model.Snapshot) error {
	ctx, span := tracer.Start(ctx, "sqlitestore.Append", trace.WithAttributes(attribute.String("competition", competition)))
	defer span.End()

	name, err := normalizeName(competition)
	if err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM snapshots WHERE competition = ?`, name).Scan(&next); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO snapshots (competition, seq, body) VALUES (?, ?, ?)`, name, next, string(body))
		return err
	})
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError("unwritable")
		return fmt.Errorf("%w: append %s: %w", ErrUnwritable, name, err)
	}
	metrics.RecordSnapshotAppended(name)
	s.log.Debug(ctx, "snapshot appended", logger.String("competition", name), logger.String("season", snap.Season))
	return nil
}

// Replace implements Store.Replace.
func (s *SQLiteStore) Replace(ctx context.Context, competition string, history []model.Snapshot) error {
	ctx, span := tracer.Start(ctx, "sqlitestore.Replace", trace.WithAttributes(
		attribute.String("competition", competition),
		attribute.Int("snapshots", len(history)),
	))
	defer span.End()

	name, err := normalizeName(competition)
	if err != nil {
		return err
	}
	bodies := make([]string, len(history))
	for i, snap := range history {
		b, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot %d: %w", i, err)
		}
		bodies[i] = string(b)
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE competition = ?`, name); err != nil {
			return err
		}
		for i, body := range bodies {
			if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (competition, seq, body) VALUES (?, ?, ?)`, name, i, body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError("unwritable")
		return fmt.Errorf("%w: replace %s: %w", ErrUnwritable, name, err)
	}
	s.log.Info(ctx, "history replaced", logger.String("competition", name), logger.Int("snapshots", len(history)))
	return nil
}

// Competitions implements Store.Competitions.
func (s *SQLiteStore) Competitions(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "sqlitestore.Competitions")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT competition FROM snapshots ORDER BY competition`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// AppendRecord implements Store.AppendRecord.
func (s *SQLiteStore) AppendRecord(ctx context.Context, journal string, raw json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "sqlitestore.AppendRecord", trace.WithAttributes(attribute.String("journal", journal)))
	defer span.End()

	name, err := normalizeName(journal)
	if err != nil {
		return err
	}
	if !json.Valid(raw) {
		return fmt.Errorf("journal %s: invalid json record", name)
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM records WHERE journal = ?`, name).Scan(&next); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO records (journal, seq, body) VALUES (?, ?, ?)`, name, next, string(raw))
		return err
	})
	if err != nil {
		metrics.RecordStoreError("unwritable")
		return fmt.Errorf("%w: journal %s: %w", ErrUnwritable, name, err)
	}
	metrics.RecordRecordAppended(name)
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close implements Store.Close.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
