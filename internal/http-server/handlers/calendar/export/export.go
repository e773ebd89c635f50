package export

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

const defaultWeeks = 4

type FeedExporter interface {
	AvailabilityFeed(ctx context.Context, person, fromWeek string, weeks int) (string, error)
}

// New serves a person's Available slots as an iCalendar feed.
// Query: from (week id, default current week), weeks (default 4).
func New(log *slog.Logger, exporter FeedExporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendar.export.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		person := chi.URLParam(r, "person")
		from := r.URL.Query().Get("from")

		weeks := defaultWeeks
		if raw := r.URL.Query().Get("weeks"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				log.Error("Invalid weeks", slog.String("weeks", raw))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.INVALID_ARGUMENT), "weeks must be an integer"))
				return
			}
			weeks = n
		}

		ics, err := exporter.AvailabilityFeed(r.Context(), person, from, weeks)

		if errors.Is(err, response.ErrUnknownPerson) {
			log.Error("unknown person", slog.String("person", person))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "unknown person"))
			return
		}

		if response.IsInvalidArgument(err) {
			log.Error("Invalid argument", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.InvalidArgument(err))
			return
		}

		if errors.Is(err, response.ErrStoreUnavailable) {
			log.Error("store unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.STORE_UNAVAILABLE), "store unavailable"))
			return
		}

		if err != nil {
			log.Error("Failed to export calendar", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to export calendar"))
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="availability.ics"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ics))
	}
}
