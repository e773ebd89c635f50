package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"weekgrid-service/api"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

type PersonWeekGetter interface {
	PersonWeek(ctx context.Context, weekID, person string) (*api.PersonWeekResponse, error)
}

type Response struct {
	response.Response
	PersonWeek *api.PersonWeekResponse `json:"person_week,omitempty"`
}

func New(log *slog.Logger, getter PersonWeekGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.people.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		weekID := chi.URLParam(r, "week")
		person := chi.URLParam(r, "person")

		pw, err := getter.PersonWeek(r.Context(), weekID, person)

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
			log.Error("Failed to get person week", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get person week"))
			return
		}

		render.JSON(w, r, Response{PersonWeek: pw})
	}
}
