package set

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"weekgrid-service/api"
	"weekgrid-service/internal/models"
	"weekgrid-service/pkg/response"
)

type fakeSetter struct {
	err error
	got *api.SetStatusRequest
}

func (f *fakeSetter) SetStatus(_ context.Context, req *api.SetStatusRequest) (*api.SlotResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	return &api.SlotResponse{WeekID: req.WeekID, Person: req.Person, Day: req.Day, TimeSlot: req.TimeSlot, Status: string(status)}, nil
}

func serve(t *testing.T, setter SlotSetter, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPut, "/slots", strings.NewReader(body))
	rec := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil)), setter).ServeHTTP(rec, req)

	var out Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}

	return rec, out
}

func TestSet_EmptyStatusIsNeutral(t *testing.T) {
	f := &fakeSetter{}
	rec, out := serve(t, f, `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","status":""}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if f.got == nil || f.got.Status != "" {
		t.Fatalf("empty status should pass validation untouched, got %+v", f.got)
	}
	if out.Slot == nil || out.Slot.Status != string(models.StatusNeutral) {
		t.Fatalf("want neutral, got %+v", out.Slot)
	}
}

func TestSet_Explicit(t *testing.T) {
	rec, out := serve(t, &fakeSetter{}, `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","status":"unavailable"}`)

	if rec.Code != http.StatusOK || out.Slot == nil || out.Slot.Status != "unavailable" {
		t.Fatalf("unexpected %d %+v", rec.Code, out)
	}
}

func TestSet_Errors(t *testing.T) {
	const body = `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","status":"available"}`

	cases := []struct {
		name string
		body string
		err  error
		code int
		want response.ErrCode
	}{
		{"decode", `[`, nil, http.StatusBadRequest, response.BAD_REQUEST},
		{"bad status", `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","status":"maybe"}`, nil, http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"malformed week", body, fmt.Errorf("x: %w", response.ErrMalformedWeekID), http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"locked", body, fmt.Errorf("x: %w", response.ErrLocked), http.StatusConflict, response.LOCKED},
		{"store", body, fmt.Errorf("x: %w", response.ErrStoreUnavailable), http.StatusServiceUnavailable, response.STORE_UNAVAILABLE},
		{"other", body, fmt.Errorf("boom"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, out := serve(t, &fakeSetter{err: c.err}, c.body)

			if rec.Code != c.code {
				t.Fatalf("want %d, got %d", c.code, rec.Code)
			}
			if out.Code != string(c.want) {
				t.Fatalf("want code %s, got %s", c.want, out.Code)
			}
		})
	}
}
