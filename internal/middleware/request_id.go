package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type requestIdKey string

const RequestIdKey requestIdKey = "requestId"

// WithRequestId tags every request with an id, reusing the widget's own
// X-Request-ID when it sends one. The id rides the context, the response
// header and the request-scoped zerolog logger.
func WithRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := r.Header.Get("X-Request-ID")
		if reqId == "" {
			reqId = uuid.New().String()
		}

		logger := log.With().Str("requestId", reqId).Logger()
		ctx := logger.WithContext(context.WithValue(r.Context(), RequestIdKey, reqId))
		r = r.WithContext(ctx)
		r.Header.Set("X-Request-ID", reqId)
		w.Header().Set("X-Request-ID", reqId)

		next.ServeHTTP(w, r)
	})
}
