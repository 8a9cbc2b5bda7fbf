package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/markup-checker/internal/executor"
	"github.com/jonathan/markup-checker/internal/refstore"
)

// Client-facing messages of the fetch proxy.
const (
	msgURLMissing  = "URLが提供されていません。"
	msgFetchFailed = "URLの取得に失敗しました。"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Fetch failures map to 500.
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		configErr     *executor.ConfigurationError
		refErr        *refstore.ValidationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &configErr), errors.As(err, &refErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
