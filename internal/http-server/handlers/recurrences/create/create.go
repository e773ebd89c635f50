package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"weekgrid-service/api"
	"weekgrid-service/pkg/response"
	"weekgrid-service/pkg/sl"
)

type RecurrencePropagator interface {
	Propagate(ctx context.Context, req *api.RecurrenceRequest) (*api.RecurrenceResponse, error)
}

type Request struct {
	api.RecurrenceRequest
}

type Response struct {
	response.Response
	Recurrence *api.RecurrenceResponse `json:"recurrence,omitempty"`
}

func New(log *slog.Logger, propagator RecurrencePropagator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.recurrences.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		recurrence, err := propagator.Propagate(r.Context(), &req.RecurrenceRequest)

		if errors.Is(err, response.ErrPartialBatch) {
			log.Warn("Recurrence partially applied", slog.Int("failed", len(recurrence.Failed)), sl.Err(err))
			w.WriteHeader(http.StatusMultiStatus)
			render.JSON(w, r, Response{
				Response:   response.Error(string(response.PARTIAL_BATCH_FAILURE), "some weeks failed, retry the same request"),
				Recurrence: recurrence,
			})
			return
		}

		if response.IsInvalidArgument(err) {
			log.Error("Invalid argument", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.InvalidArgument(err))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("recurrence is locked")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.LOCKED), "another recurrence is running for this slot, retry"))
			return
		}

		if errors.Is(err, response.ErrStoreUnavailable) {
			log.Error("store unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.STORE_UNAVAILABLE), "store unavailable"))
			return
		}

		if err != nil {
			log.Error("Failed to propagate recurrence", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to propagate recurrence"))
			return
		}

		log.Info("Recurrence propagated", slog.String("run_id", recurrence.RunID), slog.Int("weeks", len(recurrence.Weeks)))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Recurrence: recurrence})
	}
}
