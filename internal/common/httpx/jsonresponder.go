// Package httpx provides JSON response helpers and HTTP error types shared
// by the dashboard and tool service handlers.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codefox-dev/codefox/internal/common/logger"
)

// SendJsonRsp sends a JSON response with the given status code. Accepts
// pre-marshaled JSON (string or []byte) or any marshalable value.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, msg any) {
	var body []byte
	switch m := msg.(type) {
	case string:
		if json.Valid([]byte(m)) {
			body = []byte(m)
		}
	case []byte:
		if json.Valid(m) {
			body = m
		}
	default:
		var err error
		body, err = json.Marshal(msg)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("unable to marshal json response")
			ErrApplicationError("Id: " + logger.RequestIDFromContext(ctx)).Send(w)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
