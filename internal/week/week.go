// Package week maps calendar dates to Monday-start ISO weeks and back.
//
// Week ids have the canonical form "YYYY-Www" built from the ISO week-year,
// so lexical order is chronological order and the last days of December can
// belong to week 1 of the next year.
package week

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"

	"weekgrid-service/internal/models"
	"weekgrid-service/pkg/response"
)

// MaxHorizon bounds how many weeks a single enumeration may cover.
const MaxHorizon = 520

var idRegex = regexp.MustCompile(`^(\d{4})-[Ww](\d{1,2})$`)

// Of returns the id of the week containing date, in date's location.
func Of(date time.Time) models.WeekID {
	year, wk := date.ISOWeek()
	return format(year, wk)
}

func format(year, wk int) models.WeekID {
	return models.WeekID(fmt.Sprintf("%04d-W%02d", year, wk))
}

// Parse validates s and returns its canonical form. The week marker is
// required: a bare "YYYY-WW" pairs a calendar year with an ISO week and
// cannot name the last days of December or the first days of January.
func Parse(s string) (models.WeekID, error) {
	year, wk, err := YearWeek(models.WeekID(s))
	if err != nil {
		return "", err
	}

	return format(year, wk), nil
}

// YearWeek splits an id into ISO week-year and week number.
func YearWeek(id models.WeekID) (int, int, error) {
	const op = "week.YearWeek"

	m := idRegex.FindStringSubmatch(string(id))
	if m == nil {
		return 0, 0, fmt.Errorf("%s: %q: %w", op, id, response.ErrMalformedWeekID)
	}

	year, _ := strconv.Atoi(m[1])
	wk, _ := strconv.Atoi(m[2])

	if year < 1 || wk < 1 || wk > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("%s: %q: %w", op, id, response.ErrMalformedWeekID)
	}

	return year, wk, nil
}

// WeeksInYear is 52 or 53 depending on the ISO calendar of year.
func WeeksInYear(year int) int {
	// 28 December always falls in the last ISO week of its year.
	_, wk := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return wk
}

// Monday returns midnight of the first day of the week in loc.
func Monday(id models.WeekID, loc *time.Location) (time.Time, error) {
	const op = "week.Monday"

	year, wk, err := YearWeek(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	// 4 January is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	first := jan4.AddDate(0, 0, -weekdayOffset(jan4))

	return first.AddDate(0, 0, 7*(wk-1)), nil
}

// weekdayOffset is the number of days since Monday.
func weekdayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// StartOf returns midnight of the Monday on or before date.
func StartOf(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return d.AddDate(0, 0, -weekdayOffset(d))
}

type DayDate struct {
	Day  models.Day
	Date time.Time
}

// Dates returns the seven days of the week containing date, Monday first.
func Dates(date time.Time) []DayDate {
	start := StartOf(date)

	out := make([]DayDate, 0, len(models.Days))
	for i, d := range models.Days {
		out = append(out, DayDate{Day: d, Date: start.AddDate(0, 0, i)})
	}

	return out
}

// Shift moves date by n whole weeks.
func Shift(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, 7*n)
}

// FormatRange renders the week boundaries, e.g. "1-7 January 2024" or
// "28 January - 3 February 2024".
func FormatRange(date time.Time) string {
	start := StartOf(date)
	end := start.AddDate(0, 0, 6)

	switch {
	case start.Year() != end.Year():
		return fmt.Sprintf("%s - %s", start.Format("2 January 2006"), end.Format("2 January 2006"))
	case start.Month() != end.Month():
		return fmt.Sprintf("%s - %s", start.Format("2 January"), end.Format("2 January 2006"))
	default:
		return fmt.Sprintf("%d-%s", start.Day(), end.Format("2 January 2006"))
	}
}

// Add returns the id n weeks after id (n may be negative).
func Add(id models.WeekID, n int) (models.WeekID, error) {
	const op = "week.Add"

	monday, err := Monday(id, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return Of(Shift(monday, n)), nil
}

// Following returns start and the n weeks after it, in order. Weeks are
// counted as elapsed weeks from the start Monday, so the enumeration crosses
// year boundaries and week 53 without special cases.
func Following(start models.WeekID, n int) ([]models.WeekID, error) {
	const op = "week.Following"

	if n < 0 || n > MaxHorizon {
		return nil, fmt.Errorf("%s: %d: %w", op, n, response.ErrInvalidHorizon)
	}

	monday, err := Monday(start, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   n + 1,
		Dtstart: monday,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	canonical := Of(monday)
	ids := []models.WeekID{canonical}
	seen := map[models.WeekID]struct{}{canonical: {}}

	for _, t := range rule.All() {
		id := Of(t)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

// RemainingInYear counts the weeks after id up to the last ISO week of its year.
func RemainingInYear(id models.WeekID) (int, error) {
	const op = "week.RemainingInYear"

	year, wk, err := YearWeek(id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return WeeksInYear(year) - wk, nil
}

type Info struct {
	ID    models.WeekID
	Dates []DayDate
	Range string
	Prev  models.WeekID
	Next  models.WeekID
}

func InfoOf(date time.Time) Info {
	return Info{
		ID:    Of(date),
		Dates: Dates(date),
		Range: FormatRange(date),
		Prev:  Of(Shift(date, -1)),
		Next:  Of(Shift(date, 1)),
	}
}
