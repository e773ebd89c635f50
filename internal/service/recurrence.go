package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"weekgrid-service/api"
	"weekgrid-service/internal/lock"
	"weekgrid-service/internal/models"
	"weekgrid-service/internal/week"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

const (
	recurrenceLockTTL = 2 * time.Minute

	opDelete = "delete"
	opUpsert = "upsert"
)

type keyFailure struct {
	week models.WeekID
	op   string
	err  error
}

// Propagate applies status to the same (person, day, slot) in the start week
// and every week of the horizon after it.
//
// Every target is deleted first so nothing from an earlier run survives,
// then written unless the status is Neutral. Keys are independent: a failed
// key is recorded and the run moves on. The run is idempotent, so retrying
// the same call is the recovery for a partial failure, which is reported as
// ErrPartialBatch alongside the result.
func (s *Service) Propagate(ctx context.Context, req *api.RecurrenceRequest) (*api.RecurrenceResponse, error) {
	const op = "service.Propagate"

	key, err := s.parseKey(req.SlotRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	horizon, err := s.horizon(key.WeekID, req.HorizonWeeks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	weeks, err := week.Following(key.WeekID, horizon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
	}

	unlock, err := s.acquire(ctx, lock.RecurrenceKey(key.Person, key.Day, key.TimeSlot), recurrenceLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	runID := uuid.NewString()
	log := s.log.With(
		slog.String("op", op),
		slog.String("run_id", runID),
		slog.String("person", string(key.Person)),
		slog.String("day", string(key.Day)),
		slog.String("time_slot", string(key.TimeSlot)),
		slog.String("status", string(status)),
	)

	applied, failed := s.applyRecurrence(ctx, log, key, status, weeks)

	table := s.refreshAfterWrite(ctx, op)

	res := &api.RecurrenceResponse{
		RunID:        runID,
		Person:       string(key.Person),
		Day:          string(key.Day),
		TimeSlot:     string(key.TimeSlot),
		Status:       string(status),
		HorizonWeeks: horizon,
		Weeks:        make([]string, 0, len(weeks)),
		Applied:      applied,
		Failed:       make([]api.FailedKey, 0, len(failed)),
	}
	if table != nil {
		res.Version = table.Version
	}
	for _, w := range weeks {
		res.Weeks = append(res.Weeks, string(w))
	}
	for _, f := range failed {
		res.Failed = append(res.Failed, api.FailedKey{WeekID: string(f.week), Op: f.op, Error: f.err.Error()})
	}

	log.Info("Recurrence applied",
		slog.String("start_week", string(key.WeekID)),
		slog.Int("targets", len(weeks)),
		slog.Int("applied", applied),
		slog.Int("failed", len(failed)),
	)

	if len(failed) > 0 {
		return res, fmt.Errorf("%s: %d of %d keys failed: %w", op, len(failed), len(weeks), response.ErrPartialBatch)
	}

	return res, nil
}

// applyRecurrence runs the delete pass over every target and then the write
// pass over the targets whose delete succeeded, so a key is never written
// before its delete completed. It returns how many weeks reached the desired
// state and the failed keys.
func (s *Service) applyRecurrence(ctx context.Context, log *slog.Logger, key models.SlotKey, status models.Status, weeks []models.WeekID) (int, []keyFailure) {
	var failed []keyFailure

	fail := func(w models.WeekID, op string, err error) {
		log.Error("Recurrence key failed", slog.String("week_id", string(w)), slog.String("key_op", op), sl.Err(err))
		failed = append(failed, keyFailure{week: w, op: op, err: err})
	}

	cleared := make([]models.WeekID, 0, len(weeks))
	for _, w := range weeks {
		if err := ctx.Err(); err != nil {
			fail(w, opDelete, err)
			continue
		}

		k := key
		k.WeekID = w
		if err := s.store.Delete(ctx, k); err != nil {
			fail(w, opDelete, err)
			continue
		}
		cleared = append(cleared, w)
	}

	if status == models.StatusNeutral {
		return len(cleared), failed
	}

	applied := 0
	for _, w := range cleared {
		if err := ctx.Err(); err != nil {
			fail(w, opUpsert, err)
			continue
		}

		k := key
		k.WeekID = w
		if err := s.store.Upsert(ctx, k, status); err != nil {
			fail(w, opUpsert, err)
			continue
		}
		applied++
	}

	return applied, failed
}

// horizon resolves the number of weeks after start to cover. Without an
// explicit value it is the configured default, or else the ISO weeks left
// in start's year.
func (s *Service) horizon(start models.WeekID, requested *int) (int, error) {
	const op = "service.horizon"

	if requested != nil {
		if *requested < 0 || *requested > week.MaxHorizon {
			return 0, fmt.Errorf("%s: %d: %w", op, *requested, response.ErrInvalidHorizon)
		}
		return *requested, nil
	}

	if s.cal.DefaultHorizonWeeks > 0 {
		return min(s.cal.DefaultHorizonWeeks, week.MaxHorizon), nil
	}

	n, err := week.RemainingInYear(start)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
