package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/services/sales/domain"
)

func TestWriteError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ErrEmptyOrder", domain.ErrEmptyOrder, http.StatusBadRequest},
		{"ErrInvalidQuantity", domain.ErrInvalidQuantity, http.StatusBadRequest},
		{"wrapped ErrInvalidProduct", fmt.Errorf("%w: name too long", domain.ErrInvalidProduct), http.StatusBadRequest},
		{"insufficient stock", &domain.InsufficientStockError{ProductID: uuid.New(), Available: 1, Requested: 2}, http.StatusBadRequest},
		{"ErrOrderAlreadyCancelled", domain.ErrOrderAlreadyCancelled, http.StatusBadRequest},
		{"ErrInvalidTransition", domain.ErrInvalidTransition, http.StatusBadRequest},
		{"ErrInvalidCredentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"ErrProductNotFound", domain.ErrProductNotFound, http.StatusNotFound},
		{"wrapped ErrOrderNotFound", fmt.Errorf("get order: %w", domain.ErrOrderNotFound), http.StatusNotFound},
		{"ErrLockTimeout", domain.ErrLockTimeout, http.StatusConflict},
		{"ErrProductInUse", domain.ErrProductInUse, http.StatusConflict},
		{"ErrStoreFailure", fmt.Errorf("%w: commit", domain.ErrStoreFailure), http.StatusInternalServerError},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			WriteError(w, r, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), domain.ErrOrderNotFound)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != domain.ErrOrderNotFound.Error() {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
}

func TestWriteError_InsufficientStockDetails(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodPost, "/", nil),
		fmt.Errorf("reserve: %w", &domain.InsufficientStockError{ProductID: id, ProductName: "Widget", Available: 1, Requested: 2}))

	var body insufficientStockBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body.ProductID != id.String() || body.Available != 1 || body.Requested != 2 {
		t.Fatalf("unexpected details: %+v", body)
	}
	if body.Error != "Insufficient stock for product Widget. Available: 1, Requested: 2" {
		t.Fatalf("unexpected message: %q", body.Error)
	}
}

func TestWriteError_LockTimeoutRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodPost, "/", nil), fmt.Errorf("lock: %w", domain.ErrLockTimeout))

	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}
}

func TestWriteError_HidesInternalMessages(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection refused to 10.0.0.3"))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("internal error leaked: %q", body["error"])
	}
}

func TestWriteError_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, nil, errors.New("boom"))

	ct := w.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected Content-Type: %q", ct)
	}
}
