package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// respondError maps domain and application errors onto HTTP status codes.
// Unrecognized errors become 500 without leaking their message.
func respondError(c echo.Context, err error) error {
	code := statusCodeFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal error"
	}

	return c.JSON(code, ErrorResponse{Code: code, Message: message})
}

func statusCodeFor(err error) int {
	var notFound *errs.ObjectNotFoundError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commands.ErrOrderAlreadyAssigned),
		errors.Is(err, ports.ErrStaleVersion),
		errors.Is(err, agent.ErrAgentBusy),
		errors.Is(err, agent.ErrAgentNotAvailable),
		errors.Is(err, commands.ErrPingOrderMismatch):
		return http.StatusConflict
	case isValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	var (
		invalid    *errs.ValueIsInvalidError
		required   *errs.ValueIsRequiredError
		outOfRange *errs.ValueIsOutOfRangeError
	)

	return errors.As(err, &invalid) || errors.As(err, &required) || errors.As(err, &outOfRange)
}
