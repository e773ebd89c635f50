// Package feed renders a person's Available slots as an iCalendar feed.
package feed

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"weekgrid-service/internal/availability"
	"weekgrid-service/internal/models"
	"weekgrid-service/internal/week"
)

type Entry struct {
	Key   models.SlotKey
	Start time.Time
	End   time.Time
}

// Collect lists the Available slots of person across weeks, in week, day,
// then grid slot order.
func Collect(t *availability.Table, person models.Person, weeks []models.WeekID, grid models.Grid, loc *time.Location, slot time.Duration) ([]Entry, error) {
	const op = "feed.Collect"

	var out []Entry

	for _, id := range weeks {
		monday, err := week.Monday(id, loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		for _, d := range grid.Days {
			day := monday.AddDate(0, 0, d.Index())

			for _, ts := range grid.Slots {
				key := models.SlotKey{WeekID: id, Person: person, Day: d, TimeSlot: ts}
				if t.Status(key) != models.StatusAvailable {
					continue
				}

				h, m, err := ts.Clock()
				if err != nil {
					return nil, fmt.Errorf("%s: %w", op, err)
				}

				start := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
				out = append(out, Entry{Key: key, Start: start, End: start.Add(slot)})
			}
		}
	}

	return out, nil
}

// Build serializes entries into a VCALENDAR with one VEVENT per entry.
func Build(name string, entries []Entry, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//weekgrid-service//availability//EN")
	cal.SetXWRCalName(name)

	for _, e := range entries {
		ev := cal.AddEvent(uid(e.Key))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.Start)
		ev.SetEndAt(e.End)
		ev.SetSummary(fmt.Sprintf("%s available", e.Key.Person))
	}

	return cal.Serialize()
}

func uid(k models.SlotKey) string {
	r := strings.NewReplacer("/", "-", ":", "", " ", "")
	return strings.ToLower(r.Replace(k.String())) + "@weekgrid"
}
