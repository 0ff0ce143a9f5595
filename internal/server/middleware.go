package server

import (
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/wasmserve/internal/metrics"
	"github.com/Kush-Singh-26/wasmserve/internal/mimetype"
)

// Cross-origin isolation headers, required for SharedArrayBuffer and
// high-resolution timers.
const (
	HeaderCOEP = "Cross-Origin-Embedder-Policy"
	HeaderCOOP = "Cross-Origin-Opener-Policy"

	COEPRequireCorp = "require-corp"
	COOPSameOrigin  = "same-origin"
)

type middleware func(http.Handler) http.Handler

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// isolationHeaders adds COEP and COOP to every response. They are set
// before the inner handler runs; error responses from the file server keep
// them.
func isolationHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set(HeaderCOEP, COEPRequireCorp)
		h.Set(HeaderCOOP, COOPSameOrigin)
		next.ServeHTTP(w, r)
	})
}

// contentType presets Content-Type for regular files from the registry.
// http.ServeContent keeps a preset type instead of guessing, and
// http.Error replaces it if the file cannot be served after all.
func contentType(fsys afero.Fs, registry *mimetype.Registry) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := cleanRequestPath(r.URL.Path)
			if info, err := fsys.Stat(name); err == nil && info.Mode().IsRegular() {
				w.Header().Set("Content-Type", registry.ContentType(name))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cleanRequestPath roots and cleans a URL path the same way http.FileServer
// does, so "..", "." and duplicate slashes never climb above "/".
func cleanRequestPath(p string) string {
	return path.Clean("/" + p)
}

// statusRecorder captures the status code and body size for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.size += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// accessLog writes one line per request and records it in m.
func accessLog(logger *slog.Logger, m *metrics.ServeMetrics) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.Record(status, rec.size, w.Header().Get("Content-Type") == mimetype.Wasm)

			logger.Info("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"size", units.HumanSize(float64(rec.size)),
				"remote", r.RemoteAddr,
				"duration", time.Since(start),
			)
		})
	}
}
