package availability

import (
	"slices"
	"testing"
	"time"

	"weekgrid-service/internal/models"
)

var (
	testRoster = models.Roster{"A", "B", "C"}
	testGrid   = models.Grid{Days: models.Days, Slots: []models.TimeSlot{"9:00", "10:00", "11:00"}}
)

func rec(week models.WeekID, p models.Person, d models.Day, ts models.TimeSlot, st models.Status) models.SlotRecord {
	return models.SlotRecord{
		SlotKey: models.SlotKey{WeekID: week, Person: p, Day: d, TimeSlot: ts},
		Status:  st,
	}
}

func TestTable_MissingKeyIsNeutral(t *testing.T) {
	table := NewTable([]models.SlotRecord{
		rec("2024-W05", "A", models.Monday, "10:00", models.StatusAvailable),
	}, 1, time.Now())

	cases := []models.SlotKey{
		{WeekID: "2024-W05", Person: "A", Day: models.Monday, TimeSlot: "9:00"},
		{WeekID: "2024-W05", Person: "B", Day: models.Monday, TimeSlot: "10:00"},
		{WeekID: "2024-W06", Person: "A", Day: models.Monday, TimeSlot: "10:00"},
		{WeekID: "2024-W05", Person: "A", Day: models.Tuesday, TimeSlot: "10:00"},
	}
	for _, k := range cases {
		if got := table.Status(k); got != models.StatusNeutral {
			t.Fatalf("%s: want neutral, got %s", k, got)
		}
	}

	var nilTable *Table
	if got := nilTable.Status(cases[0]); got != models.StatusNeutral {
		t.Fatalf("nil table: want neutral, got %s", got)
	}
}

func TestTable_IgnoresStoredNeutral(t *testing.T) {
	table := NewTable([]models.SlotRecord{
		rec("2024-W05", "A", models.Monday, "10:00", models.StatusNeutral),
		rec("2024-W05", "B", models.Monday, "10:00", models.StatusUnavailable),
	}, 3, time.Now())

	if table.Len() != 1 {
		t.Fatalf("want 1 record, got %d", table.Len())
	}
	if !slices.Equal(table.Weeks(), []models.WeekID{"2024-W05"}) {
		t.Fatalf("unexpected weeks %v", table.Weeks())
	}
}

func TestTable_NormalizesStoredWeekIDs(t *testing.T) {
	table := NewTable([]models.SlotRecord{
		rec("2024-w5", "A", models.Monday, "10:00", models.StatusAvailable),
		rec("2024-W05", "A", models.Monday, "10:00", models.StatusAvailable),
		rec("2024-05", "B", models.Monday, "10:00", models.StatusUnavailable),
		rec("garbage", "B", models.Tuesday, "10:00", models.StatusUnavailable),
	}, 1, time.Now())

	key := models.SlotKey{WeekID: "2024-W05", Person: "A", Day: models.Monday, TimeSlot: "10:00"}
	if got := table.Status(key); got != models.StatusAvailable {
		t.Fatalf("lowercase id should resolve to the canonical week, got %s", got)
	}
	if table.Len() != 1 || table.Skipped() != 2 {
		t.Fatalf("want 1 record and 2 skipped, got %d and %d", table.Len(), table.Skipped())
	}

	key.Person = "B"
	if got := table.Status(key); got != models.StatusNeutral {
		t.Fatalf("bare calendar-year id must not be read as an ISO week, got %s", got)
	}
}

func TestTable_PersonWeekIsNeutralFilled(t *testing.T) {
	table := NewTable([]models.SlotRecord{
		rec("2024-W05", "A", models.Friday, "11:00", models.StatusUnavailable),
	}, 1, time.Now())

	grid := table.PersonWeek("2024-W05", "A", testGrid)
	if len(grid) != 7 {
		t.Fatalf("want 7 days, got %d", len(grid))
	}
	if grid[models.Friday]["11:00"] != models.StatusUnavailable {
		t.Fatalf("friday 11:00 should be unavailable")
	}
	if grid[models.Monday]["9:00"] != models.StatusNeutral {
		t.Fatalf("monday 9:00 should be neutral")
	}
}

func TestAggregate_PartitionsRoster(t *testing.T) {
	table := NewTable([]models.SlotRecord{
		rec("2024-W05", "A", models.Monday, "10:00", models.StatusAvailable),
		rec("2024-W05", "B", models.Monday, "10:00", models.StatusUnavailable),
		rec("2024-W05", "A", models.Sunday, "9:00", models.StatusUnavailable),
		rec("2024-W06", "C", models.Monday, "10:00", models.StatusAvailable),
	}, 7, time.Now())

	ws := Aggregate(table, "2024-W05", testRoster, testGrid)
	if ws.Version != 7 {
		t.Fatalf("want version 7, got %d", ws.Version)
	}

	for _, d := range testGrid.Days {
		for _, ts := range testGrid.Slots {
			s := ws.Slot(d, ts)
			union := append(append(append([]models.Person(nil), s.Available...), s.Unavailable...), s.Neutral...)
			if len(union) != len(testRoster) {
				t.Fatalf("%s %s: lists hold %d people, want %d", d, ts, len(union), len(testRoster))
			}
			for _, p := range testRoster {
				if !slices.Contains(union, p) {
					t.Fatalf("%s %s: %s missing from partition", d, ts, p)
				}
			}
		}
	}

	s := ws.Slot(models.Monday, "10:00")
	if !slices.Equal(s.Available, []models.Person{"A"}) ||
		!slices.Equal(s.Unavailable, []models.Person{"B"}) ||
		!slices.Equal(s.Neutral, []models.Person{"C"}) {
		t.Fatalf("unexpected partition %+v", s)
	}
	if s.AllAvailable {
		t.Fatal("monday 10:00 is not fully available")
	}
}

func TestAggregate_AllAvailable(t *testing.T) {
	var records []models.SlotRecord
	for _, p := range testRoster {
		records = append(records, rec("2024-W05", p, models.Wednesday, "11:00", models.StatusAvailable))
	}
	records = append(records, rec("2024-W05", "A", models.Wednesday, "9:00", models.StatusAvailable))

	ws := Aggregate(NewTable(records, 1, time.Now()), "2024-W05", testRoster, testGrid)

	if !ws.AllAvailable(models.Wednesday, "11:00") {
		t.Fatal("wednesday 11:00 should be fully available")
	}
	if ws.AllAvailable(models.Wednesday, "9:00") {
		t.Fatal("wednesday 9:00 should not be fully available")
	}
	if len(ws.Open) != 1 || ws.Open[0] != (Cell{Day: models.Wednesday, TimeSlot: "11:00"}) {
		t.Fatalf("unexpected open cells %v", ws.Open)
	}
}

func TestAggregate_EmptyTableAndRoster(t *testing.T) {
	ws := Aggregate(nil, "2024-W05", testRoster, testGrid)
	s := ws.Slot(models.Tuesday, "9:00")
	if !slices.Equal(s.Neutral, []models.Person(testRoster)) {
		t.Fatalf("everyone should be neutral, got %+v", s)
	}

	empty := Aggregate(nil, "2024-W05", nil, testGrid)
	if empty.AllAvailable(models.Tuesday, "9:00") {
		t.Fatal("an empty roster never makes a slot fully available")
	}
}
