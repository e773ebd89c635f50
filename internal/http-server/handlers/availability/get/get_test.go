package get

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"weekgrid-service/internal/availability"
	"weekgrid-service/internal/models"
	"weekgrid-service/pkg/response"
)

type fakeSummary struct {
	err error
	got string
}

func (f *fakeSummary) WeekSummary(_ context.Context, weekID string) (*availability.WeekSummary, error) {
	f.got = weekID
	if f.err != nil {
		return nil, f.err
	}

	table := availability.NewTable([]models.SlotRecord{{
		SlotKey: models.SlotKey{WeekID: "2024-W05", Person: "A", Day: models.Monday, TimeSlot: "10:00"},
		Status:  models.StatusAvailable,
	}}, 1, time.Time{})

	return availability.Aggregate(table, "2024-W05", models.Roster{"A"}, models.Grid{Days: models.Days, Slots: []models.TimeSlot{"10:00"}}), nil
}

func get(t *testing.T, getter SummaryGetter, target string) (int, Response) {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/weeks/{week}/availability", New(slog.New(slog.NewTextHandler(io.Discard, nil)), getter))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var out Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}

	return rec.Code, out
}

func TestGet_OK(t *testing.T) {
	f := &fakeSummary{}
	code, out := get(t, f, "/weeks/2024-W05/availability")

	if code != http.StatusOK || f.got != "2024-W05" {
		t.Fatalf("unexpected %d, week %q", code, f.got)
	}
	if out.Availability == nil || len(out.Availability.Open) != 1 || out.Availability.Open[0].Day != models.Monday {
		t.Fatalf("unexpected body %+v", out.Availability)
	}
}

func TestGet_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		want response.ErrCode
	}{
		{"malformed week", fmt.Errorf("x: %w", response.ErrMalformedWeekID), http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"store", fmt.Errorf("x: %w", response.ErrStoreUnavailable), http.StatusServiceUnavailable, response.STORE_UNAVAILABLE},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, out := get(t, &fakeSummary{err: c.err}, "/weeks/2024-W05/availability")

			if code != c.code || out.Code != string(c.want) {
				t.Fatalf("want %d %s, got %d %s", c.code, c.want, code, out.Code)
			}
		})
	}
}
