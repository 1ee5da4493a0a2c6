/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence interfaces (wage.TxStore, wage.ContractProvider,
  wage.WorkerDirectory) using SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  contracts:       Hourly-wage contracts (rate stored as exact decimal text)
  workers:         User-to-worker links for the worker-facing read path
  weekly_buckets:  One aggregate per (contract, ISO week)
  shifts:          Individual shift records, owning the bucket foreign key

BUCKET UNIQUENESS:
  The invariant "at most one bucket per (contract, ISO week)" is enforced by
  a UNIQUE(contract_id, iso_year, iso_week) index. GetOrCreateBucket inserts
  with ON CONFLICT DO NOTHING and then selects by week key, so concurrent
  callers racing to create the same week converge on one row.

TRANSACTIONS:
  WithTx wraps a unit of work in a sql.Tx. Every lifecycle mutation
  (create / batch-create / update / delete plus its recomputation) runs
  inside one such transaction - a failure rolls the whole sequence back.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/wage.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - wage/store.go:        interface definitions
  - wage/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/wage-engine/wage"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	queries
	sqldb *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{queries: queries{db: db}, sqldb: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqldb.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Contracts (read-only reference data for the engine)
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		workplace_id TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'KRW',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_workplace
		ON contracts(workplace_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_worker
		ON contracts(worker_id);

	-- Workers (user-facing identity link)
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	);

	-- Weekly buckets, one per (contract, ISO week)
	CREATE TABLE IF NOT EXISTS weekly_buckets (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		iso_year INTEGER NOT NULL,
		iso_week INTEGER NOT NULL,
		total_hours TEXT NOT NULL DEFAULT '0',
		paid_leave_amount TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		overtime_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one bucket per (contract, ISO week). Get-or-create
	-- relies on this index to stay race-free.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_buckets_contract_week
		ON weekly_buckets(contract_id, iso_year, iso_week);

	CREATE INDEX IF NOT EXISTS idx_buckets_contract
		ON weekly_buckets(contract_id);

	-- Shift records. The bucket relation lives here, on the shift side.
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		bucket_id TEXT REFERENCES weekly_buckets(id),
		work_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		worked_minutes INTEGER NOT NULL,
		status TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_contract_date
		ON shifts(contract_id, work_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_bucket
		ON shifts(bucket_id);
	CREATE INDEX IF NOT EXISTS idx_shifts_date
		ON shifts(work_date);
	`

	_, err := s.sqldb.Exec(schema)
	return err
}

// Reset clears all data. Used by the demo scenario loader and tests only.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.sqldb.ExecContext(ctx, `
		DELETE FROM shifts;
		DELETE FROM weekly_buckets;
		DELETE FROM workers;
		DELETE FROM contracts;
	`)
	if err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(wage.Store) error) error {
	tx, err := s.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(queries{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the same query methods
// serve direct calls and units of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements wage.Store against whichever handle it is bound to.
type queries struct {
	db dbtx
}

// =============================================================================
// SHIFT STORE
// =============================================================================

const shiftColumns = `id, contract_id, bucket_id, work_date, start_time, end_time,
	break_minutes, worked_minutes, status, memo, created_at, updated_at`

func (q queries) SaveShift(ctx context.Context, shift wage.ShiftRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO shifts (id, contract_id, bucket_id, work_date, start_time, end_time,
			break_minutes, worked_minutes, status, memo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bucket_id = excluded.bucket_id,
			work_date = excluded.work_date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_minutes = excluded.break_minutes,
			worked_minutes = excluded.worked_minutes,
			status = excluded.status,
			memo = excluded.memo,
			updated_at = excluded.updated_at
	`,
		shift.ID,
		shift.ContractID,
		nullString(string(shift.BucketID)),
		shift.WorkDate.Format(dateLayout),
		shift.Start.String(),
		shift.End.String(),
		shift.BreakMinutes,
		shift.WorkedMinutes,
		shift.Status,
		shift.Memo,
		shift.CreatedAt.UTC().Format(time.RFC3339),
		shift.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (q queries) GetShift(ctx context.Context, id wage.ShiftID) (wage.ShiftRecord, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id)
	shift, err := scanShift(row)
	if err == sql.ErrNoRows {
		return wage.ShiftRecord{}, wage.ErrShiftNotFound
	}
	return shift, err
}

func (q queries) DeleteShift(ctx context.Context, id wage.ShiftID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return wage.ErrShiftNotFound
	}
	return nil
}

func (q queries) ListShiftsByContract(ctx context.Context, contractID wage.ContractID) ([]wage.ShiftRecord, error) {
	return q.listShifts(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE contract_id = ?
		ORDER BY work_date, id
	`, contractID)
}

func (q queries) ListShiftsByBucket(ctx context.Context, bucketID wage.BucketID) ([]wage.ShiftRecord, error) {
	return q.listShifts(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE bucket_id = ?
		ORDER BY work_date, id
	`, bucketID)
}

func (q queries) CountShiftsByBucket(ctx context.Context, bucketID wage.BucketID) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shifts WHERE bucket_id = ?`, bucketID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count shifts: %w", err)
	}
	return n, nil
}

const prefixedShiftColumns = `s.id, s.contract_id, s.bucket_id, s.work_date, s.start_time,
	s.end_time, s.break_minutes, s.worked_minutes, s.status, s.memo, s.created_at, s.updated_at`

func (q queries) ListShiftsByWorkplace(ctx context.Context, workplaceID wage.WorkplaceID, from, to time.Time) ([]wage.ShiftRecord, error) {
	return q.listShifts(ctx, `
		SELECT `+prefixedShiftColumns+` FROM shifts s
		JOIN contracts c ON c.id = s.contract_id
		WHERE c.workplace_id = ? AND s.work_date BETWEEN ? AND ?
		ORDER BY s.work_date, s.id
	`, workplaceID, from.Format(dateLayout), to.Format(dateLayout))
}

func (q queries) ListShiftsByWorker(ctx context.Context, workerID wage.WorkerID, from, to time.Time) ([]wage.ShiftRecord, error) {
	return q.listShifts(ctx, `
		SELECT `+prefixedShiftColumns+` FROM shifts s
		JOIN contracts c ON c.id = s.contract_id
		WHERE c.worker_id = ? AND s.work_date BETWEEN ? AND ?
		ORDER BY s.work_date, s.id
	`, workerID, from.Format(dateLayout), to.Format(dateLayout))
}

func (q queries) listShifts(ctx context.Context, query string, args ...any) ([]wage.ShiftRecord, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []wage.ShiftRecord
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShift(row scanner) (wage.ShiftRecord, error) {
	var (
		s                    wage.ShiftRecord
		bucketID             sql.NullString
		workDate             string
		startStr, endStr     string
		createdAt, updatedAt string
	)
	err := row.Scan(&s.ID, &s.ContractID, &bucketID, &workDate, &startStr, &endStr,
		&s.BreakMinutes, &s.WorkedMinutes, &s.Status, &s.Memo, &createdAt, &updatedAt)
	if err != nil {
		return wage.ShiftRecord{}, err
	}

	s.BucketID = wage.BucketID(bucketID.String)
	if s.WorkDate, err = time.Parse(dateLayout, workDate); err != nil {
		return wage.ShiftRecord{}, fmt.Errorf("corrupt work_date %q: %w", workDate, err)
	}
	if s.Start, err = wage.ParseTimeOfDay(startStr); err != nil {
		return wage.ShiftRecord{}, err
	}
	if s.End, err = wage.ParseTimeOfDay(endStr); err != nil {
		return wage.ShiftRecord{}, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return s, nil
}

// =============================================================================
// BUCKET STORE
// =============================================================================

const bucketColumns = `id, contract_id, iso_year, iso_week, total_hours,
	paid_leave_amount, overtime_hours, overtime_amount, created_at`

func (q queries) GetOrCreateBucket(ctx context.Context, contractID wage.ContractID, week wage.WeekKey, newID wage.BucketID, now time.Time) (wage.WeeklyBucket, error) {
	// Insert first; the unique (contract_id, iso_year, iso_week) index makes
	// this a no-op when the week's bucket already exists, so concurrent
	// callers converge on one row.
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO weekly_buckets (id, contract_id, iso_year, iso_week, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(contract_id, iso_year, iso_week) DO NOTHING
	`, newID, contractID, week.Year, week.Week, now.UTC().Format(time.RFC3339))
	if err != nil {
		return wage.WeeklyBucket{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	row := q.db.QueryRowContext(ctx, `
		SELECT `+bucketColumns+` FROM weekly_buckets
		WHERE contract_id = ? AND iso_year = ? AND iso_week = ?
	`, contractID, week.Year, week.Week)
	bucket, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return wage.WeeklyBucket{}, wage.ErrBucketNotFound
	}
	return bucket, err
}

func (q queries) GetBucket(ctx context.Context, id wage.BucketID) (wage.WeeklyBucket, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+bucketColumns+` FROM weekly_buckets WHERE id = ?`, id)
	bucket, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return wage.WeeklyBucket{}, wage.ErrBucketNotFound
	}
	return bucket, err
}

func (q queries) UpdateBucketTotals(ctx context.Context, id wage.BucketID, totals wage.Totals) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE weekly_buckets
		SET total_hours = ?, paid_leave_amount = ?, overtime_hours = ?, overtime_amount = ?
		WHERE id = ?
	`,
		totals.TotalHours.String(),
		totals.PaidLeaveAmount.String(),
		totals.OvertimeHours.String(),
		totals.OvertimeAmount.String(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update bucket totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return wage.ErrBucketNotFound
	}
	return nil
}

func (q queries) DeleteBucket(ctx context.Context, id wage.BucketID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM weekly_buckets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return wage.ErrBucketNotFound
	}
	return nil
}

func (q queries) ListBucketsByContract(ctx context.Context, contractID wage.ContractID) ([]wage.WeeklyBucket, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bucketColumns+` FROM weekly_buckets
		WHERE contract_id = ?
		ORDER BY iso_year, iso_week
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	var buckets []wage.WeeklyBucket
	for rows.Next() {
		bucket, err := scanBucket(rows)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// ListAllBuckets returns every bucket across all contracts. Used by the
// consistency auditor sweep.
func (q queries) ListAllBuckets(ctx context.Context) ([]wage.WeeklyBucket, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+bucketColumns+` FROM weekly_buckets
		ORDER BY contract_id, iso_year, iso_week
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	var buckets []wage.WeeklyBucket
	for rows.Next() {
		bucket, err := scanBucket(rows)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func scanBucket(row scanner) (wage.WeeklyBucket, error) {
	var (
		b                         wage.WeeklyBucket
		totalHours, paidLeave     string
		overtimeHours, overtime   string
		createdAt                 string
	)
	err := row.Scan(&b.ID, &b.ContractID, &b.Week.Year, &b.Week.Week,
		&totalHours, &paidLeave, &overtimeHours, &overtime, &createdAt)
	if err != nil {
		return wage.WeeklyBucket{}, err
	}

	if b.TotalHours, err = decimal.NewFromString(totalHours); err != nil {
		return wage.WeeklyBucket{}, fmt.Errorf("corrupt total_hours %q: %w", totalHours, err)
	}
	if b.PaidLeaveAmount, err = decimal.NewFromString(paidLeave); err != nil {
		return wage.WeeklyBucket{}, fmt.Errorf("corrupt paid_leave_amount %q: %w", paidLeave, err)
	}
	if b.OvertimeHours, err = decimal.NewFromString(overtimeHours); err != nil {
		return wage.WeeklyBucket{}, fmt.Errorf("corrupt overtime_hours %q: %w", overtimeHours, err)
	}
	if b.OvertimeAmount, err = decimal.NewFromString(overtime); err != nil {
		return wage.WeeklyBucket{}, fmt.Errorf("corrupt overtime_amount %q: %w", overtime, err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return b, nil
}

// =============================================================================
// CONTRACT PROVIDER / WORKER DIRECTORY
// =============================================================================

func (q queries) SaveContract(ctx context.Context, c wage.Contract) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO contracts (id, worker_id, workplace_id, hourly_rate, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			worker_id = excluded.worker_id,
			workplace_id = excluded.workplace_id,
			hourly_rate = excluded.hourly_rate,
			currency = excluded.currency
	`,
		c.ID, c.WorkerID, c.WorkplaceID, c.HourlyRate.String(), c.Currency,
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

func (q queries) Contract(ctx context.Context, id wage.ContractID) (wage.Contract, error) {
	var (
		c         wage.Contract
		rate      string
		createdAt string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, worker_id, workplace_id, hourly_rate, currency, created_at
		FROM contracts WHERE id = ?
	`, id).Scan(&c.ID, &c.WorkerID, &c.WorkplaceID, &rate, &c.Currency, &createdAt)
	if err == sql.ErrNoRows {
		return wage.Contract{}, wage.ErrContractNotFound
	}
	if err != nil {
		return wage.Contract{}, fmt.Errorf("failed to load contract: %w", err)
	}

	if c.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return wage.Contract{}, fmt.Errorf("corrupt hourly_rate %q: %w", rate, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return c, nil
}

func (q queries) SaveWorker(ctx context.Context, w wage.Worker) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO workers (id, user_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, name = excluded.name
	`, w.ID, w.UserID, w.Name)
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

func (q queries) WorkerByUser(ctx context.Context, userID wage.UserID) (wage.Worker, error) {
	var w wage.Worker
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name FROM workers WHERE user_id = ?
	`, userID).Scan(&w.ID, &w.UserID, &w.Name)
	if err == sql.ErrNoRows {
		return wage.Worker{}, wage.ErrWorkerNotFound
	}
	if err != nil {
		return wage.Worker{}, fmt.Errorf("failed to load worker: %w", err)
	}
	return w, nil
}

// =============================================================================
// HELPERS
// =============================================================================

const dateLayout = "2006-01-02"

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Compile-time interface checks.
var (
	_ wage.TxStore          = (*Store)(nil)
	_ wage.Store            = queries{}
	_ wage.ContractProvider = (*Store)(nil)
	_ wage.WorkerDirectory  = (*Store)(nil)
)
