package set

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

type SlotSetter interface {
	SetStatus(ctx context.Context, req *api.SetStatusRequest) (*api.SlotResponse, error)
}

type Request struct {
	api.SetStatusRequest
}

type Response struct {
	response.Response
	Slot *api.SlotResponse `json:"slot,omitempty"`
}

func New(log *slog.Logger, setter SlotSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.set.New"

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

		slot, err := setter.SetStatus(r.Context(), &req.SetStatusRequest)

		if response.IsInvalidArgument(err) {
			log.Error("Invalid argument", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.InvalidArgument(err))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is being updated, retry"))
			return
		}

		if errors.Is(err, response.ErrStoreUnavailable) {
			log.Error("store unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.STORE_UNAVAILABLE), "store unavailable"))
			return
		}

		if err != nil {
			log.Error("Failed to set slot status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set slot status"))
			return
		}

		log.Info("Slot status set", slog.String("status", slot.Status))

		render.JSON(w, r, Response{Slot: slot})
	}
}
