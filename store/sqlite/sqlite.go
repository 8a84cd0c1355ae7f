/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements point and user persistence using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  generic.PointStore:   Point persistence
  generic.TxPointStore: Atomic read-then-append for registration
  timesheet.UserStore:  Users and their schedule codes

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the points table (a trigger aborts them)
  - Reset() is the only delete, used by demo scenarios

KEY TABLES:
  users:  Employees with schedule_code and optional shift_anchor
  points: Immutable log of clock-in/clock-out points

TIMESTAMPS:
  Stored as fixed-width UTC text (nanosecond precision), so text order is
  time order and range queries can use idx_points_user_at.

CONCURRENCY:
  Transactions are opened with BEGIN IMMEDIATE (_txlock=immediate): the
  write lock is taken before the last point is read, so two processes
  registering for the same user serialize on the database.

MIGRATION:
  Schema is migrated on New() with golang-migrate from the embedded
  migrations/ directory.

USAGE:
  store, err := sqlite.New("./data/timeclock.db", logger)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/ledger.go: Registrar using TxPointStore
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ generic.TxPointStore = (*Store)(nil)
	_ timesheet.UserStore  = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isMemory(dbPath) {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// POINT STORE (generic.PointStore interface)
// =============================================================================

const pointColumns = `id, user_id, at, kind, source, latitude, longitude, idempotency_key, created_at`

// Append adds a point to the log.
func (s *Store) Append(ctx context.Context, e generic.ClockEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPoint(ctx, s.db, e)
}

func appendPoint(ctx context.Context, db execer, e generic.ClockEvent) error {
	var lat, lng sql.NullFloat64
	if e.Location != nil {
		lat = sql.NullFloat64{Float64: e.Location.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: e.Location.Longitude, Valid: true}
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO points (` + pointColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		string(e.ID),
		string(e.UserID),
		formatTime(e.At),
		string(e.Kind),
		string(e.Source),
		lat,
		lng,
		nullString(e.IdempotencyKey),
		formatTime(createdAt),
	)
	if err != nil {
		switch {
		case isConstraintError(err, sqlite3.ErrConstraintUnique) && strings.Contains(err.Error(), "idempotency_key"):
			return generic.ErrDuplicateIdempotencyKey
		case isConstraintError(err, sqlite3.ErrConstraintForeignKey):
			return fmt.Errorf("append point for %s: %w", e.UserID, generic.ErrUserNotFound)
		}
		return fmt.Errorf("failed to append point: %w", err)
	}
	return nil
}

// LoadRange returns points with from <= at < to, ascending.
func (s *Store) LoadRange(ctx context.Context, userID generic.UserID, from, to time.Time) ([]generic.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadRange(ctx, s.db, userID, from, to)
}

func loadRange(ctx context.Context, db querier, userID generic.UserID, from, to time.Time) ([]generic.ClockEvent, error) {
	query := `
		SELECT ` + pointColumns + `
		FROM points
		WHERE user_id = ? AND at >= ? AND at < ?
		ORDER BY at ASC, rowid ASC
	`
	rows, err := db.QueryContext(ctx, query, string(userID), formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	points := []generic.ClockEvent{}
	for rows.Next() {
		e, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, e)
	}
	return points, rows.Err()
}

// LastBefore returns the latest point at or before at, not earlier than since.
func (s *Store) LastBefore(ctx context.Context, userID generic.UserID, since *time.Time, at time.Time) (*generic.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lastBefore(ctx, s.db, userID, since, at)
}

func lastBefore(ctx context.Context, db querier, userID generic.UserID, since *time.Time, at time.Time) (*generic.ClockEvent, error) {
	query := `SELECT ` + pointColumns + ` FROM points WHERE user_id = ? AND at <= ?`
	args := []any{string(userID), formatTime(at)}
	if since != nil {
		query += ` AND at >= ?`
		args = append(args, formatTime(*since))
	}
	query += ` ORDER BY at DESC, rowid DESC LIMIT 1`

	e, err := scanPoint(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*generic.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findByIdempotencyKey(ctx, s.db, key)
}

func findByIdempotencyKey(ctx context.Context, db querier, key string) (*generic.ClockEvent, error) {
	query := `SELECT ` + pointColumns + ` FROM points WHERE idempotency_key = ?`
	e, err := scanPoint(db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoint(row scanner) (generic.ClockEvent, error) {
	var (
		e              generic.ClockEvent
		id, userID     string
		at, createdAt  string
		kind, source   string
		lat, lng       sql.NullFloat64
		idempotencyKey sql.NullString
	)
	if err := row.Scan(&id, &userID, &at, &kind, &source, &lat, &lng, &idempotencyKey, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan point: %w", err)
	}

	var err error
	if e.At, err = parseTime(at); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, err
	}
	e.ID = generic.PointID(id)
	e.UserID = generic.UserID(userID)
	e.Kind = generic.PointKind(kind)
	e.Source = generic.PointSource(source)
	e.IdempotencyKey = idempotencyKey.String
	if lat.Valid && lng.Valid {
		e.Location = &generic.GeoLocation{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	return e, nil
}

// =============================================================================
// TRANSACTIONS (generic.TxPointStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.PointStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore reads and writes through the open transaction only.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Append(ctx context.Context, e generic.ClockEvent) error {
	return appendPoint(ctx, ts.tx, e)
}

func (ts *txStore) LoadRange(ctx context.Context, userID generic.UserID, from, to time.Time) ([]generic.ClockEvent, error) {
	return loadRange(ctx, ts.tx, userID, from, to)
}

func (ts *txStore) LastBefore(ctx context.Context, userID generic.UserID, since *time.Time, at time.Time) (*generic.ClockEvent, error) {
	return lastBefore(ctx, ts.tx, userID, since, at)
}

func (ts *txStore) FindByIdempotencyKey(ctx context.Context, key string) (*generic.ClockEvent, error) {
	return findByIdempotencyKey(ctx, ts.tx, key)
}

// =============================================================================
// USER STORE (timesheet.UserStore interface)
// =============================================================================

const userColumns = `id, first_name, last_name, email, schedule_code, shift_anchor, created_at`

func (s *Store) CreateUser(ctx context.Context, u timesheet.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		string(u.ID),
		u.FirstName,
		u.LastName,
		u.Email,
		string(u.ScheduleCode),
		nullDate(u.ShiftAnchor),
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id generic.UserID) (*timesheet.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, generic.ErrUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]timesheet.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []timesheet.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateSchedule(ctx context.Context, id generic.UserID, code generic.ScheduleCode, anchor *generic.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET schedule_code = ?, shift_anchor = ? WHERE id = ?`,
		string(code), nullDate(anchor), string(id))
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, generic.ErrUserNotFound)
	}
	return nil
}

func scanUser(row scanner) (timesheet.User, error) {
	var (
		u            timesheet.User
		id, schedule string
		anchor       sql.NullString
		createdAt    string
	)
	if err := row.Scan(&id, &u.FirstName, &u.LastName, &u.Email, &schedule, &anchor, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("failed to scan user: %w", err)
	}
	u.ID = generic.UserID(id)
	u.ScheduleCode = generic.ScheduleCode(schedule)
	if anchor.Valid && anchor.String != "" {
		d, err := generic.ParseDate(anchor.String)
		if err != nil {
			return u, err
		}
		u.ShiftAnchor = &d
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return u, err
	}
	return u, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all points and users. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"points", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func isConstraintError(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}
