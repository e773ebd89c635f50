package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"weekgrid-service/api"
	"weekgrid-service/internal/lock"
	"weekgrid-service/internal/models"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

const slotLockTTL = 10 * time.Second

// Toggle advances one slot through neutral -> available -> unavailable ->
// neutral, reading the current effective status from a fresh snapshot.
func (s *Service) Toggle(ctx context.Context, req *api.SlotRequest) (*api.SlotResponse, error) {
	const op = "service.Toggle"

	key, err := s.parseKey(*req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.acquire(ctx, lock.SlotKey(key), slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	table, err := s.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := table.Status(key).Next()

	if err := s.write(ctx, key, next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table = s.refreshAfterWrite(ctx, op)

	s.log.Info("Slot toggled", slog.String("key", key.String()), slog.String("status", string(next)))

	return slotResponse(key, next, table.Version), nil
}

// SetStatus writes an explicit status for one slot.
func (s *Service) SetStatus(ctx context.Context, req *api.SetStatusRequest) (*api.SlotResponse, error) {
	const op = "service.SetStatus"

	key, err := s.parseKey(req.SlotRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.acquire(ctx, lock.SlotKey(key), slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.write(ctx, key, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table := s.refreshAfterWrite(ctx, op)

	var version uint64
	if table != nil {
		version = table.Version
	}

	return slotResponse(key, status, version), nil
}

func slotResponse(key models.SlotKey, status models.Status, version uint64) *api.SlotResponse {
	return &api.SlotResponse{
		WeekID:   string(key.WeekID),
		Person:   string(key.Person),
		Day:      string(key.Day),
		TimeSlot: string(key.TimeSlot),
		Status:   string(status),
		Version:  version,
	}
}

// acquire takes a named lock and returns its release function.
func (s *Service) acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	const op = "service.acquire"

	token, locked, err := s.locker.Lock(ctx, key, ttl)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %s: %w", op, key, response.ErrLocked)
	}

	return func() {
		// The request context may already be done; release regardless.
		if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("Failed to release lock", slog.String("key", key), sl.Err(err))
		}
	}, nil
}
