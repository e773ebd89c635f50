package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"weekgrid-service/api"
	"weekgrid-service/internal/availability"
	"weekgrid-service/internal/feed"
	"weekgrid-service/internal/lock"
	"weekgrid-service/internal/models"
	"weekgrid-service/internal/week"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

// Store is the keyed record store behind the calendar. Upsert and Delete
// must be idempotent; no multi-key atomicity is assumed.
type Store interface {
	Ping(ctx context.Context) error
	ReadAll(ctx context.Context) ([]models.SlotRecord, error)
	Upsert(ctx context.Context, key models.SlotKey, status models.Status) error
	Delete(ctx context.Context, key models.SlotKey) error
}

// Calendar is the static shape the service works with.
type Calendar struct {
	Roster              models.Roster
	Grid                models.Grid
	SlotDuration        time.Duration
	Location            *time.Location
	DefaultHorizonWeeks int
}

type Service struct {
	log    *slog.Logger
	store  Store
	locker lock.Locker
	cal    Calendar

	snapshot  atomic.Pointer[availability.Table]
	refreshMu sync.Mutex
	now       func() time.Time
}

func NewService(log *slog.Logger, store Store, locker lock.Locker, cal Calendar) *Service {
	if locker == nil {
		locker = lock.Nop{}
	}
	if cal.Location == nil {
		cal.Location = time.UTC
	}
	if cal.SlotDuration <= 0 {
		cal.SlotDuration = time.Hour
	}
	if len(cal.Grid.Days) == 0 {
		cal.Grid.Days = models.Days
	}

	return &Service{
		log:    log.With(slog.String("component", "service")),
		store:  store,
		locker: locker,
		cal:    cal,
		now:    time.Now,
	}
}

// Snapshot

// Refresh rebuilds the snapshot from a full store read. On failure the
// previous snapshot is kept.
func (s *Service) Refresh(ctx context.Context) (*availability.Table, error) {
	const op = "service.Refresh"

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	records, err := s.store.ReadAll(ctx)
	if err != nil {
		if errors.Is(err, response.ErrStoreUnavailable) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrStoreUnavailable, err)
	}

	var version uint64 = 1
	if prev := s.snapshot.Load(); prev != nil {
		version = prev.Version + 1
	}

	table := availability.NewTable(records, version, s.now())
	s.snapshot.Store(table)

	if n := table.Skipped(); n > 0 {
		s.log.Warn("Snapshot skipped rows with malformed week ids", slog.Int("rows", n))
	}

	s.log.Debug("Snapshot refreshed",
		slog.Uint64("version", version),
		slog.Int("records", table.Len()),
	)

	return table, nil
}

// Snapshot returns the current snapshot, loading it on first use.
func (s *Service) Snapshot(ctx context.Context) (*availability.Table, error) {
	if t := s.snapshot.Load(); t != nil {
		return t, nil
	}

	return s.Refresh(ctx)
}

// RefreshSnapshot is the transport-facing form of Refresh.
func (s *Service) RefreshSnapshot(ctx context.Context) (*api.SnapshotResponse, error) {
	const op = "service.RefreshSnapshot"

	table, err := s.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.SnapshotResponse{
		Version:   table.Version,
		FetchedAt: table.FetchedAt.UTC().Format(time.RFC3339),
		Records:   table.Len(),
		Weeks:     len(table.Weeks()),
	}, nil
}

// refreshAfterWrite rebuilds the snapshot after a mutation. Failures are
// logged only; the write itself already succeeded.
func (s *Service) refreshAfterWrite(ctx context.Context, op string) *availability.Table {
	table, err := s.Refresh(ctx)
	if err != nil {
		s.log.Warn("Failed to refresh snapshot after write", slog.String("op", op), sl.Err(err))
		return s.snapshot.Load()
	}

	return table
}

// Roster & weeks

func (s *Service) Roster() *api.RosterResponse {
	out := &api.RosterResponse{
		People:    make([]string, 0, len(s.cal.Roster)),
		Days:      make([]string, 0, len(s.cal.Grid.Days)),
		TimeSlots: make([]string, 0, len(s.cal.Grid.Slots)),
	}
	for _, p := range s.cal.Roster {
		out.People = append(out.People, string(p))
	}
	for _, d := range s.cal.Grid.Days {
		out.Days = append(out.Days, string(d))
	}
	for _, ts := range s.cal.Grid.Slots {
		out.TimeSlots = append(out.TimeSlots, string(ts))
	}

	return out
}

// Week describes the week with the given id.
func (s *Service) Week(weekID string) (*api.WeekResponse, error) {
	const op = "service.Week"

	id, err := week.Parse(weekID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	monday, err := week.Monday(id, s.cal.Location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return weekResponse(week.InfoOf(monday)), nil
}

// WeekOf describes the week containing date; the zero date means today.
func (s *Service) WeekOf(date time.Time) *api.WeekResponse {
	if date.IsZero() {
		date = s.now()
	}

	return weekResponse(week.InfoOf(date.In(s.cal.Location)))
}

func weekResponse(info week.Info) *api.WeekResponse {
	days := make([]api.WeekDay, 0, len(info.Dates))
	for _, dd := range info.Dates {
		days = append(days, api.WeekDay{Day: string(dd.Day), Date: dd.Date.Format("2006-01-02")})
	}

	return &api.WeekResponse{
		WeekID: string(info.ID),
		Range:  info.Range,
		Days:   days,
		Prev:   string(info.Prev),
		Next:   string(info.Next),
	}
}

// Views

// WeekSummary merges every roster member's statuses for one week.
func (s *Service) WeekSummary(ctx context.Context, weekID string) (*availability.WeekSummary, error) {
	const op = "service.WeekSummary"

	id, err := week.Parse(weekID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table, err := s.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return availability.Aggregate(table, id, s.cal.Roster, s.cal.Grid), nil
}

func (s *Service) PersonWeek(ctx context.Context, weekID, person string) (*api.PersonWeekResponse, error) {
	const op = "service.PersonWeek"

	id, err := week.Parse(weekID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.parsePerson(person)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table, err := s.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.PersonWeekResponse{
		WeekID:  string(id),
		Person:  string(p),
		Version: table.Version,
		Slots:   table.PersonWeek(id, p, s.cal.Grid),
	}, nil
}

// AvailabilityFeed renders person's Available slots for fromWeek and the
// following weeks-1 weeks as iCalendar text.
func (s *Service) AvailabilityFeed(ctx context.Context, person, fromWeek string, weeks int) (string, error) {
	const op = "service.AvailabilityFeed"

	p, err := s.parsePerson(person)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	start := week.Of(s.now().In(s.cal.Location))
	if fromWeek != "" {
		if start, err = week.Parse(fromWeek); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if weeks < 1 {
		return "", fmt.Errorf("%s: weeks=%d: %w", op, weeks, response.ErrInvalidHorizon)
	}

	ids, err := week.Following(start, weeks-1)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	table, err := s.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	entries, err := feed.Collect(table, p, ids, s.cal.Grid, s.cal.Location, s.cal.SlotDuration)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return feed.Build(string(p), entries, s.now()), nil
}

// Parsing

func (s *Service) parsePerson(person string) (models.Person, error) {
	const op = "service.parsePerson"

	p := models.Person(person)
	if !s.cal.Roster.Contains(p) {
		return "", fmt.Errorf("%s: %q: %w", op, person, response.ErrUnknownPerson)
	}

	return p, nil
}

// parseKey validates every part of a slot request against the calendar.
// A malformed week id fails fast like any other bad argument.
func (s *Service) parseKey(req api.SlotRequest) (models.SlotKey, error) {
	const op = "service.parseKey"

	id, err := week.Parse(req.WeekID)
	if err != nil {
		return models.SlotKey{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.parsePerson(req.Person)
	if err != nil {
		return models.SlotKey{}, fmt.Errorf("%s: %w", op, err)
	}

	d, err := models.ParseDay(req.Day)
	if err != nil {
		return models.SlotKey{}, fmt.Errorf("%s: %w", op, err)
	}

	ts := models.TimeSlot(req.TimeSlot)
	if !s.cal.Grid.HasSlot(ts) {
		return models.SlotKey{}, fmt.Errorf("%s: %q: %w", op, req.TimeSlot, response.ErrUnknownTimeSlot)
	}

	return models.SlotKey{WeekID: id, Person: p, Day: d, TimeSlot: ts}, nil
}

// write applies one status to one key. Neutral is stored as absence.
func (s *Service) write(ctx context.Context, key models.SlotKey, status models.Status) error {
	if status == models.StatusNeutral {
		return s.store.Delete(ctx, key)
	}

	return s.store.Upsert(ctx, key, status)
}
