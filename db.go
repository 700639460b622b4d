package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// resolveDSN picks the explicit DSN first, then DPS_DB_DSN, then DATABASE_URL.
func resolveDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DPS_DB_DSN"))
	}
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return "", errors.New("DPS_DB_DSN, DATABASE_URL, or --db-url is required for the postgres source")
	}
	return dsn, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS dealer_performance;`,
		`CREATE TABLE IF NOT EXISTS dealer_performance.dashboard_payloads (
			id BIGSERIAL PRIMARY KEY,
			record_id TEXT NOT NULL,
			bac TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS dashboard_payloads_lookup_idx
			ON dealer_performance.dashboard_payloads(record_id, bac, generated_at DESC);`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// pgQueryService reads the newest payload for a record and scope. Initial
// payloads are stored with an empty bac.
type pgQueryService struct {
	db      *sql.DB
	timeout time.Duration
}

func newPGQueryService(db *sql.DB, timeout time.Duration) *pgQueryService {
	return &pgQueryService{db: db, timeout: timeout}
}

func (s *pgQueryService) InitialData(ctx context.Context, recordID string) (*DashboardPayload, error) {
	payload, err := s.latest(ctx, recordID, "")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("no dashboard data for record %s", recordID)
	}
	return payload, err
}

func (s *pgQueryService) DataForBAC(ctx context.Context, recordID, bac string) (*DashboardPayload, error) {
	payload, err := s.latest(ctx, recordID, bac)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("no dashboard data for BAC %s", bac)
	}
	return payload, err
}

func (s *pgQueryService) latest(ctx context.Context, recordID, bac string) (*DashboardPayload, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var content []byte
	row := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM dealer_performance.dashboard_payloads
		WHERE record_id = $1 AND bac = $2
		ORDER BY generated_at DESC, id DESC
		LIMIT 1;
	`, recordID, bac)
	if err := row.Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &FetchError{Message: fmt.Sprintf("load dashboard payload: %v", err)}
	}
	return decodePayload(content)
}

func (s *pgQueryService) Close() error {
	return s.db.Close()
}

type seedRow struct {
	RecordID string
	BAC      string
	Payload  *DashboardPayload
}

// seedRows flattens fixtures into insert order: records sorted by id, the
// initial payload first and then scopes sorted by BAC.
func seedRows(records map[string]recordFixture) []seedRow {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]seedRow, 0, len(records))
	for _, id := range ids {
		record := records[id]
		if record.Initial != nil {
			rows = append(rows, seedRow{RecordID: id, Payload: record.Initial})
		}
		bacs := make([]string, 0, len(record.Scopes))
		for bac := range record.Scopes {
			bacs = append(bacs, bac)
		}
		sort.Strings(bacs)
		for _, bac := range bacs {
			if record.Scopes[bac] == nil {
				continue
			}
			rows = append(rows, seedRow{RecordID: id, BAC: bac, Payload: record.Scopes[bac]})
		}
	}
	return rows
}

func seedDatabase(ctx context.Context, db *sql.DB, rows []seedRow, generatedAt time.Time) (err error) {
	if err := ensureSchema(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dealer_performance.dashboard_payloads (
			record_id,
			bac,
			payload,
			generated_at
		) VALUES ($1,$2,$3,$4);
	`)
	if err != nil {
		return err
	}
	defer insertStmt.Close()

	for _, row := range rows {
		content, encErr := encodePayload(row.Payload)
		if encErr != nil {
			return encErr
		}
		if _, err = insertStmt.ExecContext(ctx, row.RecordID, row.BAC, string(content), generatedAt); err != nil {
			return fmt.Errorf("insert %s/%s: %w", row.RecordID, row.BAC, err)
		}
	}

	return tx.Commit()
}
