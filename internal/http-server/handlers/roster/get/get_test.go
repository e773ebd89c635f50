package get

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"weekgrid-service/api"
)

type fakeRoster struct{}

func (fakeRoster) Roster() *api.RosterResponse {
	return &api.RosterResponse{
		People:    []string{"Léo", "Hervé"},
		Days:      []string{"Monday"},
		TimeSlots: []string{"9:00", "10:00"},
	}
}

func TestGet(t *testing.T) {
	rec := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), fakeRoster{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roster", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var out Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Code != "" {
		t.Fatalf("unexpected error %+v", out.ResponseError)
	}
	if out.Roster == nil || !slices.Equal(out.Roster.People, []string{"Léo", "Hervé"}) || len(out.Roster.TimeSlots) != 2 {
		t.Fatalf("unexpected roster %+v", out.Roster)
	}
}
