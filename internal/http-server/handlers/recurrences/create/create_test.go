package create

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
	"weekgrid-service/pkg/response"
)

type fakePropagator struct {
	res *api.RecurrenceResponse
	err error
	got *api.RecurrenceRequest
}

func (f *fakePropagator) Propagate(_ context.Context, req *api.RecurrenceRequest) (*api.RecurrenceResponse, error) {
	f.got = req
	return f.res, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func do(t *testing.T, p RecurrencePropagator, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/recurrences", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	New(discard(), p).ServeHTTP(rec, req)

	var out Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}

	return rec, out
}

const validBody = `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","status":"available","horizon_weeks":2}`

func TestCreate_OK(t *testing.T) {
	p := &fakePropagator{res: &api.RecurrenceResponse{RunID: "run", Weeks: []string{"2024-W05", "2024-W06", "2024-W07"}, Applied: 3}}

	rec, out := do(t, p, validBody)

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d", rec.Code)
	}
	if out.Recurrence == nil || out.Recurrence.Applied != 3 {
		t.Fatalf("unexpected body %+v", out)
	}
	if p.got == nil || p.got.HorizonWeeks == nil || *p.got.HorizonWeeks != 2 || p.got.Person != "A" {
		t.Fatalf("request not forwarded: %+v", p.got)
	}
}

func TestCreate_PartialFailure(t *testing.T) {
	p := &fakePropagator{
		res: &api.RecurrenceResponse{
			Applied: 2,
			Failed:  []api.FailedKey{{WeekID: "2024-W06", Op: "delete", Error: "timeout"}},
		},
		err: fmt.Errorf("service.Propagate: 1 of 3 keys failed: %w", response.ErrPartialBatch),
	}

	rec, out := do(t, p, validBody)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("want 207, got %d", rec.Code)
	}
	if out.Code != string(response.PARTIAL_BATCH_FAILURE) {
		t.Fatalf("unexpected code %q", out.Code)
	}
	if out.Recurrence == nil || len(out.Recurrence.Failed) != 1 || out.Recurrence.Failed[0].WeekID != "2024-W06" {
		t.Fatalf("failed keys should be reported: %+v", out.Recurrence)
	}
}

func TestCreate_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
		want response.ErrCode
	}{
		{"decode", `{`, nil, http.StatusBadRequest, response.BAD_REQUEST},
		{"missing field", `{"week_id":"2024-W05","person":"A","day":"Monday"}`, nil, http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"bad status", `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","status":"maybe"}`, nil, http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"horizon too large", `{"week_id":"2024-W05","person":"A","day":"Monday","time_slot":"10:00","horizon_weeks":1000}`, nil, http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"malformed week", validBody, fmt.Errorf("x: %w", response.ErrMalformedWeekID), http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"locked", validBody, fmt.Errorf("x: %w", response.ErrLocked), http.StatusConflict, response.LOCKED},
		{"store", validBody, fmt.Errorf("x: %w", response.ErrStoreUnavailable), http.StatusServiceUnavailable, response.STORE_UNAVAILABLE},
		{"other", validBody, fmt.Errorf("boom"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, out := do(t, &fakePropagator{err: c.err}, c.body)

			if rec.Code != c.code {
				t.Fatalf("want %d, got %d", c.code, rec.Code)
			}
			if out.Code != string(c.want) {
				t.Fatalf("want code %s, got %s", c.want, out.Code)
			}
		})
	}
}

func TestCreate_MalformedWeekMessage(t *testing.T) {
	_, out := do(t, &fakePropagator{err: fmt.Errorf("service.parseKey: %w", response.ErrMalformedWeekID)}, validBody)

	if out.Message != response.ErrMalformedWeekID.Error() {
		t.Fatalf("unexpected message %q", out.Message)
	}
}
