package handler

import (
	"log/slog"
	"net/http"

	"github.com/catma/overlay/internal/middleware"
	"github.com/catma/overlay/internal/service"
)

// NewRouter builds the HTTP mux with all routes and middleware.
func NewRouter(logger *slog.Logger, svc service.OverlayService, maxBodyBytes int64) http.Handler {
	mux := http.NewServeMux()

	overlay := NewOverlayHandler(svc)

	// Health endpoints
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /ready", Health)

	// Stand-off exchange format endpoints (spec §6, §8 scenario 6)
	mux.HandleFunc("POST /api/v1/standoff/open", overlay.Open)
	mux.HandleFunc("POST /api/v1/standoff/roundtrip", overlay.RoundTrip)
	mux.HandleFunc("POST /api/v1/standoff/validate", overlay.Validate)
	mux.HandleFunc("POST /api/v1/standoff/merge", overlay.Merge)
	mux.HandleFunc("POST /api/v1/standoff/totext", overlay.ConvertToText)

	// Inline projection endpoint (spec components C3-C5)
	mux.HandleFunc("POST /api/v1/project", overlay.Project)

	// Apply middleware chain (innermost first; Logging ends up outermost)
	var h http.Handler = mux
	h = middleware.MaxBodySize(maxBodyBytes)(h)
	h = middleware.CORS(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.Logging(logger)(h)

	return h
}
