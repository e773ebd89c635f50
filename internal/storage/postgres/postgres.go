package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"weekgrid-service/internal/models"
	"weekgrid-service/internal/storage"
	"weekgrid-service/pkg/response"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify(op, err)
	}

	if err := storage.RunMigrations(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.postgres.Ping"

	if err := s.db.PingContext(ctx); err != nil {
		return classify(op, err)
	}

	return nil
}

func (s *Storage) ReadAll(ctx context.Context) ([]models.SlotRecord, error) {
	const op = "storage.postgres.ReadAll"

	rows, err := s.db.QueryContext(ctx,
		`SELECT week_id, person, day, time_slot, status
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

// Upsert creates or replaces the record at key. The conflict target is
// exactly the composite key.
func (s *Storage) Upsert(ctx context.Context, key models.SlotKey, status models.Status) error {
	const op = "storage.postgres.Upsert"

	if status == models.StatusNeutral {
		return fmt.Errorf("%s: %s: %w", op, key, response.ErrNeutralRecord)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slot_records (week_id, person, day, time_slot, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (week_id, person, day, time_slot)
		DO UPDATE
		SET status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		string(key.WeekID),
		string(key.Person),
		string(key.Day),
		string(key.TimeSlot),
		string(status),
	)
	if err != nil {
		return classify(op, err)
	}

	return nil
}

// Delete removes the record at key; a missing record is not an error.
func (s *Storage) Delete(ctx context.Context, key models.SlotKey) error {
	const op = "storage.postgres.Delete"

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM slot_records
		WHERE week_id=$1 AND person=$2 AND day=$3 AND time_slot=$4`,
		string(key.WeekID),
		string(key.Person),
		string(key.Day),
		string(key.TimeSlot),
	)
	if err != nil {
		return classify(op, err)
	}

	return nil
}

// classify marks connection-level failures as ErrStoreUnavailable.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "57":
			return fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
		}
		if pqErr.Code == "23505" {
			return fmt.Errorf("%s: %w: %w", op, response.ErrConflict, err)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
