// Package availability holds the in-memory projection of the slot store and
// the aggregation that merges per-person statuses into per-slot summaries.
package availability

import (
	"slices"
	"time"

	"weekgrid-service/internal/models"
	"weekgrid-service/internal/week"
)

type (
	DayGrid    map[models.Day]map[models.TimeSlot]models.Status
	personWeek map[models.Person]DayGrid
)

// Table is an immutable snapshot of every record in the store. Missing
// entries read as Neutral. It is rebuilt wholesale, never patched.
type Table struct {
	Version   uint64
	FetchedAt time.Time

	weeks   map[models.WeekID]personWeek
	records int
	skipped int
}

func NewTable(records []models.SlotRecord, version uint64, fetchedAt time.Time) *Table {
	t := &Table{
		Version:   version,
		FetchedAt: fetchedAt,
		weeks:     make(map[models.WeekID]personWeek),
	}

	for _, rec := range records {
		// Legacy rows may carry an explicit neutral value; absence is the same thing.
		if rec.Status == models.StatusNeutral || !rec.Status.Valid() {
			continue
		}

		// Lookups use canonical ids; rows whose id does not parse are unreachable.
		id, err := week.Parse(string(rec.WeekID))
		if err != nil {
			t.skipped++
			continue
		}

		people, ok := t.weeks[id]
		if !ok {
			people = make(personWeek)
			t.weeks[id] = people
		}
		days, ok := people[rec.Person]
		if !ok {
			days = make(DayGrid)
			people[rec.Person] = days
		}
		slots, ok := days[rec.Day]
		if !ok {
			slots = make(map[models.TimeSlot]models.Status)
			days[rec.Day] = slots
		}

		if _, dup := slots[rec.TimeSlot]; !dup {
			t.records++
		}
		slots[rec.TimeSlot] = rec.Status
	}

	return t
}

// Status returns the effective status of key.
func (t *Table) Status(key models.SlotKey) models.Status {
	if t == nil {
		return models.StatusNeutral
	}

	if st, ok := t.weeks[key.WeekID][key.Person][key.Day][key.TimeSlot]; ok {
		return st
	}

	return models.StatusNeutral
}

// PersonWeek returns a full grid for one person, Neutral-filled.
func (t *Table) PersonWeek(weekID models.WeekID, person models.Person, grid models.Grid) DayGrid {
	out := make(DayGrid, len(grid.Days))

	for _, d := range grid.Days {
		slots := make(map[models.TimeSlot]models.Status, len(grid.Slots))
		for _, ts := range grid.Slots {
			slots[ts] = t.Status(models.SlotKey{WeekID: weekID, Person: person, Day: d, TimeSlot: ts})
		}
		out[d] = slots
	}

	return out
}

// Weeks lists the weeks holding at least one non-neutral record, in order.
func (t *Table) Weeks() []models.WeekID {
	if t == nil {
		return nil
	}

	ids := make([]models.WeekID, 0, len(t.weeks))
	for id := range t.weeks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// Len is the number of non-neutral records in the snapshot.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.records
}

// Skipped counts stored rows whose week id could not be parsed.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}
