package oauth

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/halcyonlabs/oauth2-core/instrumentation"
	"github.com/halcyonlabs/oauth2-core/security"
	"github.com/halcyonlabs/oauth2-core/storage"
)

// Stores bundles the storage interfaces the engine depends on. A single
// implementation may back several fields, as the in-memory store does.
type Stores struct {
	Clients storage.ClientStore
	Users   storage.UserStore
	Admins  storage.AdminStore
	Codes   storage.CodeStore
	Tokens  storage.TokenStore
}

func (s Stores) validate() error {
	if s.Clients == nil {
		return fmt.Errorf("client store is required")
	}
	if s.Users == nil {
		return fmt.Errorf("user store is required")
	}
	if s.Admins == nil {
		return fmt.Errorf("admin store is required")
	}
	if s.Codes == nil {
		return fmt.Errorf("code store is required")
	}
	if s.Tokens == nil {
		return fmt.Errorf("token store is required")
	}
	return nil
}

// Server is the credential lifecycle engine. It is safe for concurrent
// use once constructed; the Set* methods are meant for wiring at startup,
// before the first request.
type Server struct {
	config Config
	stores Stores
	logger *slog.Logger

	auditor *security.Auditor
	limiter *security.RateLimiter
	inst    *instrumentation.Instrumentation
	tracer  trace.Tracer
}

// New creates a new engine. The configuration is validated fail-fast;
// a missing signing key is a construction error, not a runtime surprise.
func New(config Config, stores Stores, logger *slog.Logger) (*Server, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config: config,
		stores: stores,
		logger: logger,
		tracer: tracenoop.NewTracerProvider().Tracer("oauth"),
	}, nil
}

// SetAuditor enables security audit logging
func (s *Server) SetAuditor(auditor *security.Auditor) {
	s.auditor = auditor
}

// SetRateLimiter enables rate limiting of admin login attempts
func (s *Server) SetRateLimiter(limiter *security.RateLimiter) {
	s.limiter = limiter
}

// SetInstrumentation wires metrics and tracing
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	if inst == nil {
		return
	}
	s.inst = inst
	s.tracer = inst.Tracer("engine")
}

// Config returns a copy of the effective configuration
func (s *Server) Config() Config {
	return s.config
}

// metrics returns the metric holder, or nil when instrumentation is off.
// The holder's Record* methods are nil-safe.
func (s *Server) metrics() *instrumentation.Metrics {
	if s.inst == nil {
		return nil
	}
	return s.inst.Metrics()
}
