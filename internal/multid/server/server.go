// Package server exposes the sqlitemultid database over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eggpool/sqlitemulti/internal/log"
	"github.com/eggpool/sqlitemulti/internal/multid/db"
	"github.com/eggpool/sqlitemulti/internal/multid/stats"
	"github.com/eggpool/sqlitemulti/internal/util/httputil"
)

// Config represents the configuration for a sqlitemultid server.
type Config struct {
	// Logger is the shared sqlitemultid logger.
	Logger log.Logger
	// Db is the database instance to serve.
	Db *db.DB
	// Stats is the shared stats collector.
	Stats *stats.DBStats
	// ListenHost is the host to listen on.
	ListenHost string
	// ListenPort is the port to listen on.
	ListenPort string
	// AuthToken is the pre-hashed token clients must present. Empty
	// disables authentication.
	AuthToken string
	// AuthTokenAlgorithm is the hash algorithm of AuthToken, one of
	// plaintext, argon2 or bcrypt.
	AuthTokenAlgorithm string
}

// Server is the HTTP server of sqlitemultid.
type Server struct {
	isInitialized bool
	conf          Config
	server        http.Server
}

// NewServer creates a new sqlitemultid server.
func NewServer(config Config) (*Server, error) {
	if config.Db == nil || !config.Db.IsInitialized() {
		return nil, errors.New("database is required")
	}
	if config.Stats == nil {
		return nil, errors.New("stats collector is required")
	}
	if config.ListenHost == "" {
		config.ListenHost = "0.0.0.0"
	}
	if config.ListenPort == "" {
		config.ListenPort = "9876"
	}

	s := Server{
		isInitialized: true,
		conf:          config,
	}
	return &s, nil
}

// IsInitialized returns true if the server is initialized.
func (s *Server) IsInitialized() bool {
	return s.isInitialized
}

// Handler builds the HTTP handler with all routes and middlewares.
func (s *Server) Handler() http.Handler {
	buildHandler := httputil.CreateHandlerFuncBuilder(s.errorHandler)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", buildHandler(s.healthHandler))
	mux.HandleFunc("GET /version", buildHandler(s.versionHandler))
	mux.HandleFunc("GET /stats", buildHandler(s.statsHandler, s.authMiddleware))
	mux.HandleFunc("POST /query", buildHandler(s.queryHandler, s.authMiddleware))

	return s.identityMiddleware(mux)
}

// identityMiddleware tags every response with the server identity and
// keeps the HTTP request counters up to date.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.conf.Stats.IncHTTPRequests()
		s.conf.Stats.IncQueuedHTTPRequests()
		defer s.conf.Stats.DecQueuedHTTPRequests()

		w.Header().Set("X-Server", "sqlitemulti")
		next.ServeHTTP(w, r)
	})
}

// Start starts the server and blocks until it is stopped.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.conf.ListenHost, s.conf.ListenPort)
	s.server = http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	s.conf.Logger.InfoNs(log.NsServer, "server started", log.KV{
		"listen_host": s.conf.ListenHost,
		"listen_port": s.conf.ListenPort,
	})

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	return s.server.Shutdown(context.Background())
}
