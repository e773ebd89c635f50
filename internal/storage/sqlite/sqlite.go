package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Also registers the "sqlite" driver (pure Go).
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"weekgrid-service/internal/models"
	"weekgrid-service/internal/storage"
	"weekgrid-service/pkg/response"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Storage keeps slot records in an embedded SQLite database.
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database at path, applies pragmas and runs the
// migrations. ":memory:" gives a private in-memory database.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Single-writer engine; one connection also keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply pragmas: %w", op, err)
	}

	if err := storage.RunMigrations(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.sqlite.Ping"

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *Storage) ReadAll(ctx context.Context) ([]models.SlotRecord, error) {
	const op = "storage.sqlite.ReadAll"

	rows, err := s.db.QueryContext(ctx, `
		SELECT week_id, person, day, time_slot, status
		FROM slot_records
		ORDER BY week_id, person, day, time_slot`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var records []models.SlotRecord
	for rows.Next() {
		var weekID, person, day, timeSlot, status string

		if err := rows.Scan(&weekID, &person, &day, &timeSlot, &status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		st, err := models.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		records = append(records, models.SlotRecord{
			SlotKey: models.SlotKey{
				WeekID:   models.WeekID(weekID),
				Person:   models.Person(person),
				Day:      models.Day(day),
				TimeSlot: models.TimeSlot(timeSlot),
			},
			Status: st,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}

	return records, nil
}

func (s *Storage) Upsert(ctx context.Context, key models.SlotKey, status models.Status) error {
	const op = "storage.sqlite.Upsert"

	if status == models.StatusNeutral {
		return fmt.Errorf("%s: %s: %w", op, key, response.ErrNeutralRecord)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slot_records (week_id, person, day, time_slot, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_id, person, day, time_slot) DO UPDATE SET
			status     = excluded.status,
			updated_at = excluded.updated_at`,
		string(key.WeekID), string(key.Person), string(key.Day), string(key.TimeSlot),
		string(status), time.Now().UTC().Unix(),
	)
	if err != nil {
		return classify(op, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key models.SlotKey) error {
	const op = "storage.sqlite.Delete"

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM slot_records
		WHERE week_id = ? AND person = ? AND day = ? AND time_slot = ?`,
		string(key.WeekID), string(key.Person), string(key.Day), string(key.TimeSlot),
	)
	if err != nil {
		return classify(op, err)
	}

	return nil
}

// classify marks errors from a lost connection or an unusable database file
// as ErrStoreUnavailable. Statement errors such as a missing table or a
// constraint violation are wrapped as they are.
func classify(op string, err error) error {
	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		// Extended result codes carry the primary code in the low byte.
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
