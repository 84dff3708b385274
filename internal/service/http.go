package service

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jamesprial/migas-go/internal/auth"
	"github.com/jamesprial/migas-go/internal/logging"
	"github.com/jamesprial/migas-go/internal/tools"
)

// Options configures NewMCPServer and NewHandler.
type Options struct {
	Name          string
	Version       string
	AuthToken     string
	Registrations []tools.Registration
}

// NewMCPServer builds an MCP server with every registration added.
func NewMCPServer(opts Options) *server.MCPServer {
	s := server.NewMCPServer(opts.Name, opts.Version, server.WithToolCapabilities(false))
	names := tools.RegisterAll(s, opts.Registrations)
	logging.Logger().Debug().Strs("tools", names).Msg("registered MCP tools")
	return s
}

// NewHandler routes:
//
//	/mcp      streamable HTTP MCP endpoint, behind bearer auth
//	/metrics  Prometheus metrics
//	/healthz  liveness
func NewHandler(mcpServer *server.MCPServer, authToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	mcpHandler := server.NewStreamableHTTPServer(mcpServer)
	r.With(auth.NewAuthMiddleware(authToken)).Handle("/mcp", mcpHandler)

	return r
}

// NewHTTPServer wraps handler with the server timeouts used in serve mode.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Logger().Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
