package get

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"weekgrid-service/api"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

type WeekGetter interface {
	Week(weekID string) (*api.WeekResponse, error)
	WeekOf(date time.Time) *api.WeekResponse
}

type Response struct {
	response.Response
	Week *api.WeekResponse `json:"week,omitempty"`
}

// New serves /weeks/{week} and, without a week param, /weeks/current
// with an optional ?date=YYYY-MM-DD.
func New(log *slog.Logger, getter WeekGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.weeks.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		weekID := chi.URLParam(r, "week")

		if weekID == "" {
			var date time.Time
			if raw := r.URL.Query().Get("date"); raw != "" {
				parsed, err := time.Parse(time.DateOnly, raw)
				if err != nil {
					log.Error("Invalid date", slog.String("date", raw), sl.Err(err))
					w.WriteHeader(http.StatusBadRequest)
					render.JSON(w, r, response.Error(string(response.INVALID_ARGUMENT), "date must be YYYY-MM-DD"))
					return
				}
				date = parsed
			}

			render.JSON(w, r, Response{Week: getter.WeekOf(date)})
			return
		}

		week, err := getter.Week(weekID)

		if errors.Is(err, response.ErrMalformedWeekID) {
			log.Error("Malformed week id", slog.String("week", weekID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.InvalidArgument(err))
			return
		}

		if err != nil {
			log.Error("Failed to get week", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get week"))
			return
		}

		render.JSON(w, r, Response{Week: week})
	}
}
