package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"weekgrid-service/api"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context) (*api.SnapshotResponse, error)
}

type Response struct {
	response.Response
	Snapshot *api.SnapshotResponse `json:"snapshot,omitempty"`
}

func New(log *slog.Logger, refresher SnapshotRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.snapshot.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		snapshot, err := refresher.RefreshSnapshot(r.Context())

		if errors.Is(err, response.ErrStoreUnavailable) {
			log.Error("store unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.STORE_UNAVAILABLE), "store unavailable"))
			return
		}

		if err != nil {
			log.Error("Failed to refresh snapshot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to refresh snapshot"))
			return
		}

		log.Info("Snapshot refreshed", slog.Uint64("version", snapshot.Version))

		render.JSON(w, r, Response{Snapshot: snapshot})
	}
}
