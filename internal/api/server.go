// Package api exposes polls, responses, statistics and insights over JSON
// HTTP.
package api

import (
	"bytes"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/metrics"
	"github.com/rewired-gh/pollsight/internal/service"
)

// Options configures the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed origins. Empty disables CORS headers.
	CORSOrigins []string
}

// Server routes HTTP requests to the service.
type Server struct {
	svc     *service.Service
	metrics *metrics.Metrics
	router  *mux.Router
	opts    Options
}

// NewServer builds the router. m may be nil, in which case /metrics is not
// registered.
func NewServer(svc *service.Service, m *metrics.Metrics, opts Options) *Server {
	s := &Server{svc: svc, metrics: m, router: mux.NewRouter(), opts: opts}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("/health", s.health, http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.handle("/polls", s.createPoll, http.MethodPost)
	s.handle("/polls", s.listPolls, http.MethodGet)
	s.handle("/polls/{id}", s.getPoll, http.MethodGet)
	s.handle("/polls/{id}/upvote", s.upvote, http.MethodPost)
	s.handle("/polls/{id}/responses", s.submitResponse, http.MethodPost)
	s.handle("/polls/{id}/stats", s.pollStats, http.MethodGet)
	s.handle("/polls/{id}/insights", s.globalInsights, http.MethodGet)
	s.handle("/polls/{id}/insights/personal", s.personalInsights, http.MethodGet)

	s.handle("/users/{id}/demographics", s.saveDemographics, http.MethodPut)
	s.handle("/users/{id}/demographics", s.getDemographics, http.MethodGet)
}

func (s *Server) handle(path string, h http.HandlerFunc, method string) {
	s.router.Handle(path, s.metrics.WrapHandler(path, h)).Methods(method)
}

// Handler returns the root handler with panic recovery, request logging and
// CORS applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if len(s.opts.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}
	h = handlers.LoggingHandler(logWriter{}, h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(h)
}

// logWriter forwards access log lines to the debug log.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	logger.Debug("%s", bytes.TrimSpace(p))
	return len(p), nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	logger.Error("Recovered from panic in HTTP handler: %v", v)
}
