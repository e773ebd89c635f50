package get

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"weekgrid-service/api"
	"weekgrid-service/pkg/response"
)

type RosterGetter interface {
	Roster() *api.RosterResponse
}

type Response struct {
	response.Response
	Roster *api.RosterResponse `json:"roster"`
}

func New(log *slog.Logger, getter RosterGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.roster.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		roster := getter.Roster()

		log.Debug("Roster returned", slog.Int("people", len(roster.People)))

		render.JSON(w, r, Response{Roster: roster})
	}
}
