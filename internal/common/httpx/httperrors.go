package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/codefox-dev/codefox/internal/common/apperrors"
)

// Error is an HTTP error response with a status code and description.
type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
}

type errorRsp struct {
	Error string `json:"error"`
}

// Send writes the error response to the ResponseWriter. A nil writer is a
// no-op.
func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	body, err := json.Marshal(&errorRsp{Error: e.Description})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("unable to encode error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	w.Write(body)
}

// Error returns the description.
func (e *Error) Error() string {
	return e.Description
}

// SendError maps an application error onto an HTTP error response, using
// 500 when the error carries no status code.
func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	statusCode := err.StatusCode()
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	(&Error{StatusCode: statusCode, Description: err.ErrorAll()}).Send(w)
}

// ErrApplicationError returns an error for application-level failures.
func ErrApplicationError(msg ...string) *Error {
	s := "unable to process request"
	if len(msg) > 0 {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusInternalServerError}
}

// ErrInvalidRequest returns an error for malformed request data.
func ErrInvalidRequest(msg ...string) *Error {
	s := "invalid request data"
	if len(msg) > 0 {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusBadRequest}
}

// ErrNotFound returns an error for a missing resource.
func ErrNotFound(msg ...string) *Error {
	s := "resource not found"
	if len(msg) > 0 {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusNotFound}
}

// ErrForbidden returns an error for a denied request.
func ErrForbidden(msg ...string) *Error {
	s := "access denied"
	if len(msg) > 0 {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusForbidden}
}

// ErrRequestTimeout returns an error for a timed-out request.
func ErrRequestTimeout() *Error {
	return &Error{Description: "request timed out", StatusCode: http.StatusRequestTimeout}
}
