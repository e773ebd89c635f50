package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"weekgrid-service/internal/availability"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

type SummaryGetter interface {
	WeekSummary(ctx context.Context, weekID string) (*availability.WeekSummary, error)
}

type Response struct {
	response.Response
	Availability *availability.WeekSummary `json:"availability,omitempty"`
}

func New(log *slog.Logger, getter SummaryGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		weekID := chi.URLParam(r, "week")

		summary, err := getter.WeekSummary(r.Context(), weekID)

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
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Debug("Availability returned", slog.String("week", string(summary.WeekID)), slog.Int("open", len(summary.Open)))

		render.JSON(w, r, Response{Availability: summary})
	}
}
