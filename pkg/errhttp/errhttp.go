// Package errhttp maps domain sentinel errors to HTTP responses.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/pkg/httpx"
	"github.com/ghuser/salesledger/services/sales/domain"
)

// RetryAfterSeconds is sent with 409 responses for lock timeouts.
const RetryAfterSeconds = 1

type insufficientStockBody struct {
	Error     string `json:"error"`
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Unrecognized errors become 500: they are reported to the request's Sentry
// hub and their message is not exposed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToStatus(err)

	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		httpx.JSON(w, status, insufficientStockBody{
			Error:     stockErr.Error(),
			ProductID: stockErr.ProductID.String(),
			Available: stockErr.Available,
			Requested: stockErr.Requested,
		})
		return
	case errors.Is(err, domain.ErrLockTimeout):
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	case status >= http.StatusInternalServerError:
		capture(r, err)
	}

	httpx.JSONError(w, status, httpx.SafeError(err, status))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOrderAlreadyCancelled),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest // 400
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized // 401
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, domain.ErrLockTimeout),
		errors.Is(err, domain.ErrProductInUse):
		return http.StatusConflict // 409
	default:
		return http.StatusInternalServerError // 500
	}
}

func capture(r *http.Request, err error) {
	if r == nil {
		return
	}
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	}
}
