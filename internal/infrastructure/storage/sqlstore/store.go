package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultListLimit = 20

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		run_id      TEXT PRIMARY KEY,
		created_at  BIGINT NOT NULL,
		input_count INTEGER NOT NULL,
		group_count INTEGER NOT NULL,
		deal_count  INTEGER NOT NULL,
		result      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at)`,
}

// Store persists analysis runs in SQLite or PostgreSQL. Each run is kept as
// a JSON document next to the summary columns used for listing.
type Store struct {
	db     *sql.DB
	driver string
	log    logger.Logger
}

// Open connects to the database and creates the schema if missing
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	if log == nil {
		log = logger.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("analysis store ready", logger.String("driver", driver))
	return s, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Save inserts the run, replacing any previous row with the same run id
func (s *Store) Save(ctx context.Context, result *domain.AnalysisResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", result.RunID, err)
	}

	query := s.rebind(`
		INSERT INTO analysis_runs (run_id, created_at, input_count, group_count, deal_count, result)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			created_at = excluded.created_at,
			input_count = excluded.input_count,
			group_count = excluded.group_count,
			deal_count = excluded.deal_count,
			result = excluded.result`)

	_, err = s.db.ExecContext(ctx, query,
		result.RunID,
		result.CreatedAt.UnixNano(),
		result.InputCount,
		len(result.Groups),
		len(result.Deals),
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", result.RunID, err)
	}

	s.log.Debug("analysis saved", logger.String("run_id", result.RunID))
	return nil
}

// Get returns the run with the given id
func (s *Store) Get(ctx context.Context, runID string) (*domain.AnalysisResult, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT result FROM analysis_runs WHERE run_id = ?`), runID)
	return scanResult(row)
}

// Latest returns the most recently created run
func (s *Store) Latest(ctx context.Context) (*domain.AnalysisResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT result FROM analysis_runs ORDER BY created_at DESC, run_id DESC LIMIT 1`)
	return scanResult(row)
}

// List returns summaries of the most recent runs, newest first
func (s *Store) List(ctx context.Context, limit int) ([]domain.AnalysisSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT run_id, created_at, input_count, group_count, deal_count
		FROM analysis_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var summaries []domain.AnalysisSummary
	for rows.Next() {
		var (
			sum       domain.AnalysisSummary
			createdAt int64
		)
		if err := rows.Scan(&sum.RunID, &createdAt, &sum.InputCount, &sum.GroupCount, &sum.DealCount); err != nil {
			return nil, fmt.Errorf("scan analysis summary: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt).UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return summaries, nil
}

func scanResult(row *sql.Row) (*domain.AnalysisResult, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("load analysis: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &result, nil
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
