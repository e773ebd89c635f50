package postgres

import (
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/lib/pq"

	"weekgrid-service/pkg/response"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		unavailable bool
		conflict    bool
	}{
		{"connection failure", &pq.Error{Code: "08006"}, true, false},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true, false},
		{"unique violation", &pq.Error{Code: "23505"}, false, true},
		{"check violation", &pq.Error{Code: "23514"}, false, false},
		{"bad conn", driver.ErrBadConn, true, false},
		{"other", errors.New("boom"), false, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := classify("op", c.err)

			if !errors.Is(err, c.err) {
				t.Fatalf("cause should stay in the chain: %v", err)
			}
			if got := errors.Is(err, response.ErrStoreUnavailable); got != c.unavailable {
				t.Fatalf("unavailable: want %v, got %v (%v)", c.unavailable, got, err)
			}
			if got := errors.Is(err, response.ErrConflict); got != c.conflict {
				t.Fatalf("conflict: want %v, got %v (%v)", c.conflict, got, err)
			}
		})
	}
}
