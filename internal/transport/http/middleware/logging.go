package httpmw

import (
	"log/slog"
	"net/http"
	"time"

	middlewareChi "github.com/go-chi/chi/v5/middleware"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/pkg/logger"
)

// AccessLog logs one line per request with the chi request id and, when
// a trace span is active, its trace attrs.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middlewareChi.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middlewareChi.GetReqID(r.Context())),
		}
		attrs = append(attrs, logger.AttrsFromCtx(r.Context())...)
		slog.LogAttrs(r.Context(), slog.LevelInfo, "http request", attrs...)
	})
}
