package api

import "weekgrid-service/internal/availability"

type SlotRequest struct {
	WeekID   string `json:"week_id" validate:"required"`
	Person   string `json:"person" validate:"required"`
	Day      string `json:"day" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
}

type SetStatusRequest struct {
	SlotRequest
	Status string `json:"status" validate:"omitempty,oneof=neutral available unavailable"`
}

type RecurrenceRequest struct {
	SlotRequest
	Status       string `json:"status" validate:"omitempty,oneof=neutral available unavailable"`
	HorizonWeeks *int   `json:"horizon_weeks,omitempty" validate:"omitempty,min=0,max=520"`
}

type SlotResponse struct {
	WeekID   string `json:"week_id"`
	Person   string `json:"person"`
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
	Status   string `json:"status"`
	Version  uint64 `json:"version"`
}

type FailedKey struct {
	WeekID string `json:"week_id"`
	Op     string `json:"op"`
	Error  string `json:"error"`
}

type RecurrenceResponse struct {
	RunID        string      `json:"run_id"`
	Person       string      `json:"person"`
	Day          string      `json:"day"`
	TimeSlot     string      `json:"time_slot"`
	Status       string      `json:"status"`
	HorizonWeeks int         `json:"horizon_weeks"`
	Weeks        []string    `json:"weeks"`
	Applied      int         `json:"applied"`
	Failed       []FailedKey `json:"failed"`
	Version      uint64      `json:"version"`
}

type WeekDay struct {
	Day  string `json:"day"`
	Date string `json:"date"`
}

type WeekResponse struct {
	WeekID string    `json:"week_id"`
	Range  string    `json:"range"`
	Days   []WeekDay `json:"days"`
	Prev   string    `json:"prev"`
	Next   string    `json:"next"`
}

type RosterResponse struct {
	People    []string `json:"people"`
	Days      []string `json:"days"`
	TimeSlots []string `json:"time_slots"`
}

type PersonWeekResponse struct {
	WeekID  string               `json:"week_id"`
	Person  string               `json:"person"`
	Version uint64               `json:"version"`
	Slots   availability.DayGrid `json:"slots"`
}

type SnapshotResponse struct {
	Version   uint64 `json:"version"`
	FetchedAt string `json:"fetched_at"`
	Records   int    `json:"records"`
	Weeks     int    `json:"weeks"`
}
