package history

import (
	"net/http"

	"github.com/codefox-dev/codefox/internal/common/apperrors"
)

var (
	// ErrHistory is the base error for the history store.
	ErrHistory apperrors.Error = apperrors.New("history store error").SetStatusCode(http.StatusInternalServerError)

	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound apperrors.Error = ErrHistory.New("execution record not found").SetStatusCode(http.StatusNotFound)

	// ErrNoDatabase is returned when the store is used without a configured DSN.
	ErrNoDatabase apperrors.Error = ErrHistory.New("no database configured")
)
