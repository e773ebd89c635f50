package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST        ErrCode = "REQUEST_FAILED"
	BAD_REQUEST           ErrCode = "FAILED_TO_DECODE"
	INVALID_ARGUMENT      ErrCode = "INVALID_ARGUMENT"
	NOT_FOUND             ErrCode = "NOT_FOUND"
	LOCKED                ErrCode = "LOCKED"
	CONFLICT              ErrCode = "CONFLICT"
	STORE_UNAVAILABLE     ErrCode = "STORE_UNAVAILABLE"
	PARTIAL_BATCH_FAILURE ErrCode = "PARTIAL_BATCH_FAILURE"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrConflict   = errors.New("conflict")

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPartialBatch     = errors.New("partial batch failure")
	ErrMalformedWeekID  = errors.New("malformed week id")
	ErrNeutralRecord    = errors.New("neutral status is stored as absence")

	ErrUnknownPerson   = errors.New("unknown person")
	ErrUnknownDay      = errors.New("unknown day")
	ErrUnknownTimeSlot = errors.New("unknown time slot")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidHorizon  = errors.New("invalid horizon")
)

var invalidArgument = []error{
	ErrBadRequest,
	ErrMalformedWeekID,
	ErrUnknownPerson,
	ErrUnknownDay,
	ErrUnknownTimeSlot,
	ErrInvalidStatus,
	ErrInvalidHorizon,
}

// IsInvalidArgument reports whether err was caused by caller input.
func IsInvalidArgument(err error) bool {
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// InvalidArgument names the bad input in err without leaking the wrap chain.
func InvalidArgument(err error) Response {
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return Error(string(INVALID_ARGUMENT), target.Error())
		}
	}

	return Error(string(INVALID_ARGUMENT), "invalid argument")
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "oneof":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Error(string(INVALID_ARGUMENT), strings.Join(errMsg, ", "))
}
