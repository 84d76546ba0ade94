// Package server assembles and runs the CampusMatch site.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/campusmatch/campusmatch/client"
	"github.com/campusmatch/campusmatch/internal/config"
	"github.com/campusmatch/campusmatch/internal/registration"
	"github.com/campusmatch/campusmatch/internal/website/landing"
	"github.com/campusmatch/campusmatch/pkg/health"
	"github.com/campusmatch/campusmatch/pkg/limits"
	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/metrics"
	"github.com/campusmatch/campusmatch/pkg/protocol"
	"github.com/campusmatch/campusmatch/pkg/router"
	"github.com/campusmatch/campusmatch/pkg/shutdown"
	"github.com/campusmatch/campusmatch/pkg/state"
	"github.com/campusmatch/campusmatch/pkg/tracing"
	"github.com/campusmatch/campusmatch/pkg/transport"
)

const (
	cleanupInterval = time.Minute
	storeTimeout    = 2 * time.Second
	limiterIdle     = 10 * time.Minute
)

// Health and metrics endpoints.
const (
	PathLiveness  = "/healthz"
	PathReadiness = "/readyz"
	PathMetrics   = "/metrics"
)

const metricsNamespace = "campusmatch"

// Options are the parts a Server is built from.
type Options struct {
	Config  *config.Config
	Store   state.Store
	Answers *state.AnswerStore
	Logger  logging.Logger
	// Tracer is optional.
	Tracer trace.Tracer
	// Metrics is created when nil.
	Metrics *metrics.Metrics
	Version string
}

// Server is the HTTP side of the site.
type Server struct {
	router  *router.Router
	health  *health.Checker
	metrics *metrics.Metrics
	http    *http.Server
	logger  logging.Logger
	// rate is nil when page loads are not limited.
	rate *limits.RateLimiter

	mu   sync.Mutex
	addr net.Addr
}

// New wires the routes, middleware and health checks.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if opts.Store == nil || opts.Answers == nil {
		return nil, errors.New("server: store and answers are required")
	}

	codec, err := protocol.NewCodecRegistry().Get(cfg.Transport.Codec)
	if err != nil {
		return nil, fmt.Errorf("transport codec: %w", err)
	}
	tc := transport.DefaultTransportConfig()
	tc.Codec = codec

	sc := router.DefaultSessionManagerConfig()
	sc.MaxSessions = cfg.Server.MaxSessions

	key := limits.ClientIP
	if cfg.Server.TrustProxy {
		key = limits.ForwardedIP
	}

	ropts := []router.Option{
		router.WithLogger(logger),
		router.WithTransportConfig(tc),
		router.WithWebSocketConfig(&transport.WebSocketConfig{
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			InsecureDevMode: cfg.Server.Dev,
		}),
		router.WithSessionConfig(sc),
	}
	if cfg.Server.MaxConnsPerIP > 0 {
		conns := limits.NewConnectionLimiter(cfg.Server.MaxConnsPerIP, key)
		ropts = append(ropts, router.WithConnectionGate(conns.Gate))
	}
	r := router.New(ropts...)

	var pageMW []router.Middleware
	var rate *limits.RateLimiter
	if cfg.Server.RequestsPerSecond > 0 {
		rate = limits.NewRateLimiter(cfg.Server.RequestsPerSecond, key)
		pageMW = append(pageMW, rate.Middleware())
	}
	r.Use(router.RequestID())
	r.Use(router.Recovery(logger))
	r.Use(logging.RequestLogger(logger))
	if opts.Tracer != nil {
		r.Use(tracing.Middleware(opts.Tracer))
	}
	r.Use(router.SecureHeaders())
	r.Use(router.DeviceCookie())

	m := opts.Metrics
	if m == nil {
		if m, err = metrics.New(metricsNamespace); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	deps := registration.Deps{
		Answers:  opts.Answers,
		Logger:   logger,
		Tracer:   opts.Tracer,
		Recorder: m,
	}
	r.Live(registration.PathHome, registration.NewLandingView(landing.DefaultOptions()),
		router.WithRouteMiddleware(pageMW...),
	)
	for _, flow := range registration.Flows() {
		r.Live(flow.Path, registration.NewFlowView(flow, deps),
			router.WithRouteMiddleware(pageMW...),
			router.WithRouteMiddleware(router.NoStore()),
			router.WithMeta("flow", flow.Name),
		)
	}
	r.Handle("GET "+client.Prefix, client.Handler())

	checker := health.NewChecker(opts.Version)
	checker.AddCriticalCheck("store", health.PingCheck(opts.Store), storeTimeout)
	checker.AddCheck("sessions", health.CapacityCheck(r.Sessions().Count, cfg.Server.MaxSessions), time.Second)
	r.Handle("GET "+PathLiveness, checker.LivenessHandler())
	r.Handle("GET "+PathReadiness, checker.ReadinessHandler())

	if err := observe(m, r, rate); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	r.Handle("GET "+PathMetrics, m.Handler())

	return &Server{
		router:  r,
		health:  checker,
		metrics: m,
		logger:  logger,
		rate:    rate,
		http: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func observe(m *metrics.Metrics, r *router.Router, rate *limits.RateLimiter) error {
	if err := m.ObserveGauge("sessions_active", "Live sessions",
		func() int64 { return int64(r.Sessions().Count()) }); err != nil {
		return err
	}
	if rate == nil {
		return nil
	}
	return m.ObserveCounter("rate_limited_total", "Page loads refused by the rate limiter", rate.Rejected)
}

// Metrics exposes the instruments so callers can add their own.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Handler is the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the live router.
func (s *Server) Router() *router.Router {
	return s.router
}

// Health exposes the checker so callers can add checks.
func (s *Server) Health() *health.Checker {
	return s.health
}

// Addr is the bound address once Run is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves until ctx ends or hooks receives a shutdown signal. The HTTP
// server and live sessions are registered on hooks before serving.
func (s *Server) Run(ctx context.Context, hooks *shutdown.Handler) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	hooks.RegisterFunc("http", shutdown.PriorityHTTP, s.http.Shutdown)
	hooks.RegisterFunc("live", shutdown.PriorityLive, s.router.Shutdown)
	hooks.RegisterFunc("metrics", shutdown.PriorityLast, s.metrics.Shutdown)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.router.StartCleanup(ctx, cleanupInterval)
	if s.rate != nil {
		s.rate.StartSweeper(ctx, cleanupInterval, limiterIdle)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	}()
	s.logger.Info("listening", logging.String("addr", ln.Addr().String()))

	waitErr := hooks.Wait(ctx)
	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	default:
	}
	if errors.Is(waitErr, shutdown.ErrAlreadyClosed) {
		return nil
	}
	return waitErr
}
