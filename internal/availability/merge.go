package availability

import (
	"weekgrid-service/internal/models"
)

type SlotSummary struct {
	Available    []models.Person `json:"available"`
	Unavailable  []models.Person `json:"unavailable"`
	Neutral      []models.Person `json:"neutral"`
	AllAvailable bool            `json:"all_available"`
}

type Cell struct {
	Day      models.Day      `json:"day"`
	TimeSlot models.TimeSlot `json:"time_slot"`
}

type WeekSummary struct {
	WeekID  models.WeekID                                  `json:"week_id"`
	Version uint64                                         `json:"version"`
	Slots   map[models.Day]map[models.TimeSlot]SlotSummary `json:"slots"`
	Open    []Cell                                         `json:"open"`
}

// Aggregate partitions the roster for every cell of grid in the given week.
// Each person lands in exactly one list, following roster order; a person
// without any record is Neutral everywhere.
func Aggregate(t *Table, weekID models.WeekID, roster models.Roster, grid models.Grid) *WeekSummary {
	ws := &WeekSummary{
		WeekID: weekID,
		Slots:  make(map[models.Day]map[models.TimeSlot]SlotSummary, len(grid.Days)),
		Open:   []Cell{},
	}
	if t != nil {
		ws.Version = t.Version
	}

	for _, d := range grid.Days {
		row := make(map[models.TimeSlot]SlotSummary, len(grid.Slots))

		for _, ts := range grid.Slots {
			sum := SlotSummary{
				Available:   []models.Person{},
				Unavailable: []models.Person{},
				Neutral:     []models.Person{},
			}

			for _, p := range roster {
				switch t.Status(models.SlotKey{WeekID: weekID, Person: p, Day: d, TimeSlot: ts}) {
				case models.StatusAvailable:
					sum.Available = append(sum.Available, p)
				case models.StatusUnavailable:
					sum.Unavailable = append(sum.Unavailable, p)
				default:
					sum.Neutral = append(sum.Neutral, p)
				}
			}

			sum.AllAvailable = len(roster) > 0 && len(sum.Available) == len(roster)
			if sum.AllAvailable {
				ws.Open = append(ws.Open, Cell{Day: d, TimeSlot: ts})
			}

			row[ts] = sum
		}

		ws.Slots[d] = row
	}

	return ws
}

// Slot returns the summary of one cell; cells outside the grid are empty.
func (w *WeekSummary) Slot(day models.Day, slot models.TimeSlot) SlotSummary {
	return w.Slots[day][slot]
}

func (w *WeekSummary) AllAvailable(day models.Day, slot models.TimeSlot) bool {
	return w.Slots[day][slot].AllAvailable
}
