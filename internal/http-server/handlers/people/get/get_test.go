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

	"github.com/go-chi/chi/v5"

	"weekgrid-service/api"
	"weekgrid-service/pkg/response"
)

type fakePersonWeek struct {
	err error
}

func (f fakePersonWeek) PersonWeek(_ context.Context, weekID, person string) (*api.PersonWeekResponse, error) {
	if f.err != nil {
		return nil, f.err
	}

	return &api.PersonWeekResponse{WeekID: weekID, Person: person, Version: 3}, nil
}

func get(t *testing.T, getter PersonWeekGetter, target string) (int, Response) {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/weeks/{week}/people/{person}", New(slog.New(slog.NewTextHandler(io.Discard, nil)), getter))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var out Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}

	return rec.Code, out
}

func TestGet_OK(t *testing.T) {
	code, out := get(t, fakePersonWeek{}, "/weeks/2024-W05/people/A")

	if code != http.StatusOK {
		t.Fatalf("want 200, got %d", code)
	}
	if out.PersonWeek == nil || out.PersonWeek.WeekID != "2024-W05" || out.PersonWeek.Person != "A" {
		t.Fatalf("unexpected body %+v", out.PersonWeek)
	}
}

func TestGet_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		want response.ErrCode
	}{
		{"unknown person", fmt.Errorf("x: %w", response.ErrUnknownPerson), http.StatusNotFound, response.NOT_FOUND},
		{"malformed week", fmt.Errorf("x: %w", response.ErrMalformedWeekID), http.StatusBadRequest, response.INVALID_ARGUMENT},
		{"store", fmt.Errorf("x: %w", response.ErrStoreUnavailable), http.StatusServiceUnavailable, response.STORE_UNAVAILABLE},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, out := get(t, fakePersonWeek{err: c.err}, "/weeks/2024-W05/people/Nobody")

			if code != c.code || out.Code != string(c.want) {
				t.Fatalf("want %d %s, got %d %s", c.code, c.want, code, out.Code)
			}
		})
	}
}
