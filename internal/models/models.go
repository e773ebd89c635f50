package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"weekgrid-service/pkg/response"
)

type Status string

const (
	StatusNeutral     Status = "neutral"
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Next returns the status a manual press moves the slot to:
// neutral -> available -> unavailable -> neutral.
func (s Status) Next() Status {
	switch s {
	case StatusNeutral:
		return StatusAvailable
	case StatusAvailable:
		return StatusUnavailable
	default:
		return StatusNeutral
	}
}

func (s Status) Valid() bool {
	return s == StatusNeutral || s == StatusAvailable || s == StatusUnavailable
}

// ParseStatus accepts the lower-case wire values. The empty string is Neutral.
func ParseStatus(s string) (Status, error) {
	const op = "models.ParseStatus"

	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StatusNeutral, nil
	}
	if !st.Valid() {
		return "", fmt.Errorf("%s: %q: %w", op, s, response.ErrInvalidStatus)
	}

	return st, nil
}

type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days is the fixed column order of the weekly grid.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index is the offset of the day from Monday, or -1 for an unknown label.
func (d Day) Index() int {
	return slices.Index(Days, d)
}

func ParseDay(s string) (Day, error) {
	const op = "models.ParseDay"

	s = strings.TrimSpace(s)
	for _, d := range Days {
		if strings.EqualFold(string(d), s) || strings.EqualFold(string(d)[:3], s) {
			return d, nil
		}
	}

	return "", fmt.Errorf("%s: %q: %w", op, s, response.ErrUnknownDay)
}

// TimeSlot is a clock label such as "9:00".
type TimeSlot string

// Clock returns the hour and minute of the slot label.
func (t TimeSlot) Clock() (int, int, error) {
	const op = "models.TimeSlot.Clock"

	parsed, err := time.Parse("15:04", string(t))
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %q: %w", op, t, response.ErrUnknownTimeSlot)
	}

	return parsed.Hour(), parsed.Minute(), nil
}

type Person string

// Roster is the closed, ordered set of people tracked by the calendar.
type Roster []Person

func (r Roster) Contains(p Person) bool {
	return slices.Contains(r, p)
}

// Grid is the day x time slot shape of one week.
type Grid struct {
	Days  []Day
	Slots []TimeSlot
}

func (g Grid) HasSlot(t TimeSlot) bool {
	return slices.Contains(g.Slots, t)
}

// WeekID identifies one Monday-start ISO week, e.g. "2024-W05".
type WeekID string

// SlotKey is the composite identity of one persisted record.
type SlotKey struct {
	WeekID   WeekID   `db:"week_id"`
	Person   Person   `db:"person"`
	Day      Day      `db:"day"`
	TimeSlot TimeSlot `db:"time_slot"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.WeekID, k.Person, k.Day, k.TimeSlot)
}

type SlotRecord struct {
	SlotKey
	Status Status `db:"status"`
}
