// Package store loads DQR datasets into Postgres.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"claimtool/internal/dqr"
)

//go:embed schema.sql
var Schema string

// Data tables, in load order.
const (
	TableDischarges = "disch_temp"
	TableDiagnoses  = "dx_temp"
	TableProcedures = "px_temp"
	TablePhysicians = "r_phy"
	TableAttributes = "std_attributes"
	TableRuns       = "load_runs"
)

// DataTables lists the tables replaced by every load.
var DataTables = []string{TableDischarges, TableDiagnoses, TableProcedures, TablePhysicians, TableAttributes}

// ErrCountMismatch reports a table whose row count after a load differs from
// the rows sent.
var ErrCountMismatch = errors.New("row count mismatch")

var dialect = goqu.Dialect("postgres")

// Execer runs a statement.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Querier runs a single-row query.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts a transaction. *pgxpool.Pool and *pgx.Conn satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool connects and pings the database.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// InitSchema creates the tables if they do not exist.
func InitSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Truncate empties tables.
func Truncate(ctx context.Context, db Execer, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	ts := make([]any, len(tables))
	for i, t := range tables {
		ts[i] = t
	}
	sql, _, err := dialect.Truncate(ts...).ToSQL()
	if err != nil {
		return fmt.Errorf("build truncate: %w", err)
	}
	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// Count returns the rows of table loaded by runID, or all rows when runID is
// the zero UUID.
func Count(ctx context.Context, db Querier, table string, runID uuid.UUID) (int64, error) {
	ds := dialect.From(table).Select(goqu.COUNT(goqu.Star()))
	if runID != uuid.Nil {
		ds = ds.Where(goqu.Ex{"run_id": runID.String()})
	}
	sql, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count %s: %w", table, err)
	}
	var n int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// TableCount is the outcome of loading one table.
type TableCount struct {
	Table  string
	Sent   int
	Stored int64
}

// LoadSummary describes one load.
type LoadSummary struct {
	RunID    uuid.UUID
	Tables   []TableCount
	Duration time.Duration
}

// Get returns the count for table.
func (s *LoadSummary) Get(table string) (TableCount, bool) {
	for _, t := range s.Tables {
		if t.Table == table {
			return t, true
		}
	}
	return TableCount{}, false
}

// Log writes one event per table.
func (s *LoadSummary) Log(l zerolog.Logger) {
	for _, t := range s.Tables {
		l.Info().Str("run_id", s.RunID.String()).Str("table", t.Table).
			Int("sent", t.Sent).Int64("stored", t.Stored).Msg("table loaded")
	}
}

// Source names a load in load_runs.
type Source struct {
	Path     string
	Facility string
}

// Load replaces the data tables with ds in a single transaction, records the
// run in load_runs and checks every table's row count before committing.
func Load(ctx context.Context, db Beginner, ds *dqr.Dataset, src Source, runID uuid.UUID) (*LoadSummary, error) {
	start := time.Now()
	log := zerolog.Ctx(ctx).With().Str("run_id", runID.String()).Logger()

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := Truncate(ctx, tx, DataTables...); err != nil {
		return nil, err
	}
	if err := insertRun(ctx, tx, ds, src, runID); err != nil {
		return nil, err
	}

	copies := []struct {
		table string
		cols  []string
		n     int
		row   func(i int) []any
	}{
		{TableDischarges, dischargeColumns, len(ds.Discharges), func(i int) []any { return dischargeRow(runID, &ds.Discharges[i]) }},
		{TableDiagnoses, diagnosisColumns, len(ds.Diagnoses), func(i int) []any { return diagnosisRow(runID, &ds.Diagnoses[i]) }},
		{TableProcedures, procedureColumns, len(ds.Procedures), func(i int) []any { return procedureRow(runID, &ds.Procedures[i]) }},
		{TablePhysicians, physicianColumns, len(ds.Physicians), func(i int) []any { return physicianRow(runID, &ds.Physicians[i]) }},
		{TableAttributes, attributeColumns, len(ds.Attributes), func(i int) []any { return attributeRow(runID, &ds.Attributes[i]) }},
	}

	sum := &LoadSummary{RunID: runID}
	for _, c := range copies {
		copied, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.cols,
			pgx.CopyFromSlice(c.n, func(i int) ([]any, error) { return c.row(i), nil }))
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", c.table, err)
		}
		log.Debug().Str("table", c.table).Int64("rows", copied).Msg("copied")

		stored, err := Count(ctx, tx, c.table, runID)
		if err != nil {
			return nil, err
		}
		if stored != int64(c.n) {
			return nil, fmt.Errorf("%s: %w: sent %d, stored %d", c.table, ErrCountMismatch, c.n, stored)
		}
		sum.Tables = append(sum.Tables, TableCount{Table: c.table, Sent: c.n, Stored: stored})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	sum.Duration = time.Since(start)
	log.Info().Dur("elapsed", sum.Duration).Msg("load committed")
	return sum, nil
}

func insertRun(ctx context.Context, tx pgx.Tx, ds *dqr.Dataset, src Source, runID uuid.UUID) error {
	sql, args, err := dialect.Insert(TableRuns).Rows(goqu.Record{
		"run_id":     runID.String(),
		"source":     src.Path,
		"facility":   src.Facility,
		"discharges": len(ds.Discharges),
		"diagnoses":  len(ds.Diagnoses),
		"procedures": len(ds.Procedures),
		"attributes": len(ds.Attributes),
		"physicians": len(ds.Physicians),
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}
