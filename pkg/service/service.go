// Package service composes every proxy collaborator package into a single
// runnable process: it owns the client-facing listeners, the I/O worker
// pool, and the graceful shutdown sequence, grounded on the teacher's
// pkg/server.Server start/shutdown idiom (NewServer/Start/Shutdown with a
// sync.Once guard) but rebuilt around TCP listeners and the proxy's own
// connection lifecycle instead of net/http.
package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/brokerproxy/pkg/admission"
	"mercator-hq/brokerproxy/pkg/config"
	"mercator-hq/brokerproxy/pkg/directproxy"
	"mercator-hq/brokerproxy/pkg/discovery"
	"mercator-hq/brokerproxy/pkg/egress"
	"mercator-hq/brokerproxy/pkg/identity"
	"mercator-hq/brokerproxy/pkg/ioloop"
	"mercator-hq/brokerproxy/pkg/lookupproxy"
	"mercator-hq/brokerproxy/pkg/proxyconn"
	"mercator-hq/brokerproxy/pkg/resolver"
	"mercator-hq/brokerproxy/pkg/security/auth"
	"mercator-hq/brokerproxy/pkg/security/secrets"
	tlssec "mercator-hq/brokerproxy/pkg/security/tls"
	"mercator-hq/brokerproxy/pkg/telemetry/health"
	"mercator-hq/brokerproxy/pkg/telemetry/logging"
	"mercator-hq/brokerproxy/pkg/telemetry/metrics"
	"mercator-hq/brokerproxy/pkg/telemetry/tracing"
	"mercator-hq/brokerproxy/pkg/topicstats"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the broker proxy process: every accepted connection it
// serves shares the same discovery provider, admission controller, egress
// validator, and telemetry, wired together once at construction.
type Service struct {
	cfg *config.Config

	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Collector
	health  *health.Checker

	discovery  discovery.Provider
	resolver   *resolver.Resolver
	admission  *admission.ConnectionController
	topicStats *topicstats.Registry

	authenticator identity.Authenticator
	authorizer    identity.Authorizer
	certReloader  *tlssec.CertificateReloader

	lookup *lookupproxy.Handler
	broker *directproxy.Handler

	pool      *ioloop.Pool
	acceptors []*ioloop.Acceptor
	listeners []net.Listener

	telemetryServer *http.Server

	mu         sync.Mutex
	conns      map[uint64]*proxyconn.ProxyConnection
	nextConnID uint64

	wg sync.WaitGroup

	shutdownOnce sync.Once
	isRunning    bool
}

// New builds a Service from cfg without starting anything — no listener is
// opened and no goroutine is started until Run is called, mirroring the
// teacher's NewServer/Start split.
func New(cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg:   cfg,
		conns: make(map[uint64]*proxyconn.ProxyConnection),
	}

	logger, err := logging.New(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactPII:      cfg.Telemetry.Logging.RedactPII,
		BufferSize:     cfg.Telemetry.Logging.BufferSize,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to initialize logging: %w", err)
	}
	s.logger = logger

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("service: failed to initialize tracing: %w", err)
	}
	s.tracer = tracer

	registry := prometheus.NewRegistry()
	s.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	s.health = health.New(cfg.Telemetry.Health.CheckTimeout)
	s.health.RegisterCheck("config", func(ctx context.Context) error {
		return config.Validate(cfg)
	})

	secretMgr, err := buildSecretManager(cfg.Security.Secrets)
	if err != nil {
		return nil, fmt.Errorf("service: failed to initialize secrets: %w", err)
	}

	if err := s.wireSecurity(secretMgr); err != nil {
		return nil, err
	}

	if err := s.wireDiscoveryAndSplicing(); err != nil {
		return nil, err
	}

	s.admission = admission.NewConnectionController(
		cfg.Limits.MaxConcurrentInboundConnections,
		cfg.Limits.MaxConcurrentInboundConnectionsPerIP,
	)

	lookupSem := admission.NewSemaphore(cfg.Limits.MaxConcurrentLookupRequests)
	s.lookup = lookupproxy.NewHandler(lookupSem, s.discovery, s.authorizer, s.metrics, lookupproxy.Config{
		DialTimeout:          cfg.Proxy.ReadTimeout,
		RequestTimeout:       cfg.Proxy.ReadTimeout,
		ProxyProtocolVersion: 1,
		AdvertisedServiceURL: advertisedServiceURL(cfg),
	})

	s.health.RegisterCheck("discovery", func(ctx context.Context) error {
		brokers, err := s.discovery.ListActiveBrokers(ctx)
		if err != nil {
			return err
		}
		if len(brokers) == 0 {
			return fmt.Errorf("no brokers registered")
		}
		return nil
	})
	s.health.RegisterCheck("auth", func(ctx context.Context) error {
		if cfg.Security.Authentication.Enabled && s.authenticator == nil {
			return fmt.Errorf("authentication enabled but no authenticator configured")
		}
		return nil
	})

	s.pool = ioloop.NewPool(cfg.Proxy.NumIOThreads, 256)
	s.topicStats.Start()

	return s, nil
}

// wireSecurity builds the authenticator/authorizer pair (token-based or
// mTLS, never both — spec §4.1/§4.2 names a single Connect/AuthResponse
// challenge per connection) and, when TLS is enabled for the client
// listener, a CertificateReloader so a rotated certificate takes effect
// without a restart.
func (s *Service) wireSecurity(secretMgr *secrets.Manager) error {
	cfg := s.cfg

	if cfg.Security.Authentication.Enabled {
		tokens := make([]*auth.TokenInfo, 0, len(cfg.Security.Authentication.Tokens))
		for _, t := range cfg.Security.Authentication.Tokens {
			if !t.Enabled {
				continue
			}
			token := t.Token
			if secretMgr != nil {
				if resolved, err := secretMgr.ResolveReferences(context.Background(), token); err == nil {
					token = resolved
				}
			}
			tokens = append(tokens, &auth.TokenInfo{
				Token:     token,
				Principal: t.Role,
				Enabled:   true,
				CreatedAt: time.Now(),
			})
		}
		store := auth.NewTokenValidator(tokens)
		s.authenticator = auth.NewTokenAuthenticator(store, cfg.Security.Authentication.Method)
		s.authorizer = auth.NewTenantAuthorizer(store)
	} else if cfg.Security.TLS.MTLS.Enabled {
		s.authenticator = tlssec.NewCertAuthenticator(cfg.Security.TLS.MTLS.IdentitySource)
	}

	if cfg.Security.TLS.Enabled && cfg.Security.TLS.ReloadInterval != "" {
		tlsCfg := adaptTLSConfig(cfg.Security.TLS)
		s.certReloader = tlssec.NewCertificateReloader(tlsCfg.CertFile, tlsCfg.KeyFile, tlsCfg.ParseReloadInterval())
	}

	return nil
}

// wireDiscoveryAndSplicing builds the discovery provider and the
// collaborators the direct-splice path needs: the egress validator, the
// DNS resolver, and the per-topic stats registry.
func (s *Service) wireDiscoveryAndSplicing() error {
	cfg := s.cfg

	refresh := func(ctx context.Context) ([]discovery.Broker, error) {
		brokers := make([]discovery.Broker, 0, len(cfg.Discovery.StaticBrokers))
		for i, url := range cfg.Discovery.StaticBrokers {
			brokers = append(brokers, discovery.Broker{
				Name:       fmt.Sprintf("broker-%d", i),
				ServiceURL: url,
				Healthy:    true,
			})
		}
		return brokers, nil
	}
	disc, err := discovery.NewStaticProvider(context.Background(), refresh, cfg.Discovery.RefreshInterval)
	if err != nil {
		return fmt.Errorf("service: failed to initialize discovery: %w", err)
	}
	s.discovery = disc

	validator, err := egress.NewValidator(
		cfg.Egress.AllowedHostNames,
		cfg.Egress.AllowedIPAddresses,
		cfg.Egress.AllowedTargetPorts,
	)
	if err != nil {
		return fmt.Errorf("service: invalid egress configuration: %w", err)
	}

	s.resolver = resolver.NewResolver(0)
	s.topicStats = topicstats.NewRegistry(cfg.Limits.TopicStats.MaxTrackedTopics, cfg.Limits.TopicStats.RollupInterval)

	var brokerTLSConfig *tls.Config
	if cfg.Security.BrokerTLS.Enabled {
		tlsCfg := adaptTLSConfig(cfg.Security.BrokerTLS)
		brokerTLSConfig, err = tlsCfg.ToTLSConfig()
		if err != nil {
			return fmt.Errorf("service: invalid backend TLS configuration: %w", err)
		}
	}

	s.broker = directproxy.NewHandler(validator, s.resolver, s.topicStats, s.metrics, directproxy.Config{
		DialTimeout:          cfg.Proxy.ReadTimeout,
		TLSConfig:            brokerTLSConfig,
		ZeroCopyEnabled:      cfg.Proxy.ProxyZeroCopyModeEnabled,
		ProxyProtocolVersion: 1,
	})

	return nil
}

// buildSecretManager constructs a secrets.Manager from the configured
// provider chain. A config with no providers returns a nil manager, which
// wireSecurity treats as "resolve nothing" rather than an error.
func buildSecretManager(cfg config.SecretsConfig) (*secrets.Manager, error) {
	if len(cfg.Providers) == 0 {
		return nil, nil
	}

	var providers []secrets.SecretProvider
	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		switch pc.Type {
		case "env":
			providers = append(providers, secrets.NewEnvProvider(pc.Prefix))
		case "file":
			fp, err := secrets.NewFileProvider(pc.Path, pc.Watch)
			if err != nil {
				return nil, fmt.Errorf("secrets: failed to initialize file provider %q: %w", pc.Path, err)
			}
			providers = append(providers, fp)
		default:
			return nil, fmt.Errorf("secrets: unknown provider type %q", pc.Type)
		}
	}
	if len(providers) == 0 {
		return nil, nil
	}

	return secrets.NewManager(providers, secrets.CacheConfig{
		Enabled: true,
		TTL:     5 * time.Minute,
		MaxSize: 1000,
	}), nil
}

// adaptTLSConfig translates the YAML-facing config.TLSConfig into
// pkg/security/tls's Config, which owns the actual crypto/tls.Config
// construction and certificate loading.
func adaptTLSConfig(c config.TLSConfig) tlssec.Config {
	return tlssec.Config{
		Enabled:        c.Enabled,
		CertFile:       c.CertFile,
		KeyFile:        c.KeyFile,
		MinVersion:     c.MinVersion,
		CipherSuites:   c.CipherSuites,
		ReloadInterval: c.ReloadInterval,
		MTLS: tlssec.MTLSConfig{
			Enabled:          c.MTLS.Enabled,
			ClientCAFile:     c.MTLS.ClientCAFile,
			ClientAuthType:   c.MTLS.ClientAuthType,
			VerifyClientCert: c.MTLS.Enabled,
			IdentitySource:   c.MTLS.IdentitySource,
		},
	}
}

func advertisedServiceURL(cfg *config.Config) string {
	addr := cfg.Proxy.AdvertisedAddress
	if addr == "" {
		addr = cfg.Proxy.BindAddress
	}
	return fmt.Sprintf("pulsar://%s:%d", addr, cfg.Proxy.ServicePort)
}

func (s *Service) addConn(c *proxyconn.ProxyConnection) {
	s.mu.Lock()
	s.conns[c.ID()] = c
	s.mu.Unlock()
}

func (s *Service) removeConn(id uint64) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

// activeConnCount reports the number of connections still being served,
// consulted by Shutdown while it waits out the drain deadline.
func (s *Service) activeConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// snapshotConns returns the currently live connections, used by Shutdown to
// force-close stragglers once the drain deadline elapses.
func (s *Service) snapshotConns() []*proxyconn.ProxyConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*proxyconn.ProxyConnection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out
}

// handleConn is the ioloop.ConnHandler bound to every Acceptor. It gates
// admission, constructs the per-connection state machine, and blocks for
// the connection's whole lifetime (Serve doesn't return until the socket
// closes), which is fine here because it runs on its own dedicated
// goroutine, not the worker's cooperative loop.
func (s *Service) handleConn(conn net.Conn, worker *ioloop.Worker) {
	ip, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		ip = conn.RemoteAddr().String()
	}

	release, ok := s.admission.TryAdmit(ip)
	if !ok {
		s.metrics.IncRejectedConnections()
		conn.Close()
		return
	}
	s.metrics.IncActiveConnections()

	id := atomic.AddUint64(&s.nextConnID, 1)

	// traceID correlates this connection's span and log lines; it has no
	// relation to proto.Command.RequestID, which is a client-chosen wire
	// value the teacher's evidence recorder pattern doesn't apply to.
	traceID := uuid.NewString()
	ctx, span := s.tracer.Start(context.Background(), "proxy.connection")
	tracing.SetRequestAttributes(span, traceID, "")
	defer span.End()

	deps := proxyconn.Deps{
		Authenticator: s.authenticator,
		Lookup:        s.lookup,
		Broker:        s.broker,
		Metrics:       s.metrics,
		IdleTimeout:   s.cfg.Proxy.ReadTimeout,
		OnClose: func(c *proxyconn.ProxyConnection) {
			s.removeConn(c.ID())
			release()
			s.metrics.DecActiveConnections()
			if principal := c.Principal(); !principal.IsZero() {
				tracing.SetTenantAttribute(span, principal.Name)
			}
		},
	}

	pc := proxyconn.New(id, conn, worker, deps)
	s.addConn(pc)

	if s.cfg.Proxy.ProxyLogLevel >= 1 {
		s.logger.Info("connection accepted", "conn_id", id, "trace_id", traceID, "remote_addr", conn.RemoteAddr().String())
	}

	pc.Serve(ctx)
}

// Run starts every listener, the I/O worker pool, and the telemetry HTTP
// server, then blocks until ctx is canceled, at which point it runs
// Shutdown with cfg.Proxy.ShutdownTimeout.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("service: already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	if s.certReloader != nil {
		if err := s.certReloader.Start(ctx); err != nil {
			return fmt.Errorf("service: failed to start certificate reloader: %w", err)
		}
	}

	if err := s.startListeners(); err != nil {
		return err
	}
	s.health.RegisterCheck("listener", func(ctx context.Context) error {
		s.mu.Lock()
		n := len(s.listeners)
		s.mu.Unlock()
		if n == 0 {
			return fmt.Errorf("no active listeners")
		}
		return nil
	})

	s.startTelemetryServer()

	s.logger.Info("broker proxy started",
		"bind_address", s.cfg.Proxy.BindAddress,
		"service_port", s.cfg.Proxy.ServicePort,
		"service_port_tls", s.cfg.Proxy.ServicePortTLS,
		"io_threads", s.cfg.Proxy.NumIOThreads,
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Proxy.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// startListeners opens the plaintext and (if configured) TLS client-facing
// listeners and starts cfg.Proxy.NumAcceptorThreads Acceptor goroutines per
// listener, all feeding the same worker pool.
func (s *Service) startListeners() error {
	cfg := s.cfg

	if cfg.Proxy.ServicePort > 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Proxy.BindAddress, cfg.Proxy.ServicePort))
		if err != nil {
			return fmt.Errorf("service: failed to bind plaintext listener: %w", err)
		}
		s.addListener(ln)
	}

	if cfg.Proxy.ServicePortTLS > 0 {
		tlsCfg := adaptTLSConfig(cfg.Security.TLS)
		tlsCfg.Enabled = true
		goTLSConfig, err := tlsCfg.ToTLSConfig()
		if err != nil {
			return fmt.Errorf("service: failed to configure TLS listener: %w", err)
		}
		if s.certReloader != nil {
			goTLSConfig.Certificates = nil
			goTLSConfig.GetCertificate = s.certReloader.GetCertificateFunc()
		}

		ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Proxy.BindAddress, cfg.Proxy.ServicePortTLS))
		if err != nil {
			return fmt.Errorf("service: failed to bind TLS listener: %w", err)
		}
		s.addListener(tls.NewListener(ln, goTLSConfig))
	}

	if len(s.listeners) == 0 {
		return fmt.Errorf("service: no listener configured (both servicePort and servicePortTls are 0)")
	}

	numAcceptors := cfg.Proxy.NumAcceptorThreads
	if numAcceptors <= 0 {
		numAcceptors = 1
	}

	for _, ln := range s.listeners {
		listener := ln
		for i := 0; i < numAcceptors; i++ {
			acceptor := ioloop.NewAcceptor(listener, s.pool, s.handleConn)
			s.acceptors = append(s.acceptors, acceptor)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := acceptor.Serve(); err != nil {
					s.logger.Error("acceptor stopped", "error", err)
				}
			}()
		}
	}

	return nil
}

func (s *Service) addListener(ln net.Listener) {
	s.listeners = append(s.listeners, ln)
}

// startTelemetryServer starts the metrics/health HTTP server on its own
// port, entirely separate from the data-plane listeners (spec §6: "the
// proxy's data-plane listener never doubles as an HTTP server").
func (s *Service) startTelemetryServer() {
	if !s.cfg.Telemetry.Metrics.Enabled && !s.cfg.Telemetry.Health.Enabled {
		return
	}
	if s.cfg.Telemetry.Metrics.Port <= 0 {
		return
	}

	mux := http.NewServeMux()
	if s.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	if s.cfg.Telemetry.Health.Enabled {
		mux.HandleFunc(s.cfg.Telemetry.Health.LivenessPath, s.health.LivenessHandler())
		mux.HandleFunc(s.cfg.Telemetry.Health.ReadinessPath, s.health.ReadinessHandler())
		mux.HandleFunc("/version", health.VersionHandler(Version, Commit, BuildTime))
	}

	s.telemetryServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Telemetry.Metrics.Port),
		Handler: mux,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.telemetryServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("telemetry server stopped", "error", err)
		}
	}()
}

// Shutdown stops accepting new connections, waits up to the surrounding
// context's deadline for in-flight connections to drain, then force-closes
// any stragglers and tears down the worker pool and telemetry server.
// Grounded on the teacher's Server.Shutdown sync.Once + timeout idiom,
// rebuilt for a drain loop instead of http.Server.Shutdown's built-in one.
func (s *Service) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown")

		for _, acceptor := range s.acceptors {
			acceptor.Close()
		}
		for _, acceptor := range s.acceptors {
			acceptor.Wait()
		}

		s.drainConnections(ctx)

		s.pool.Stop()

		if s.telemetryServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.telemetryServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("service: telemetry server shutdown error: %w", err)
			}
		}

		if err := s.resolver.Close(); err != nil {
			s.logger.Error("resolver shutdown error", "error", err)
		}

		if err := s.discovery.Close(); err != nil {
			s.logger.Error("discovery provider shutdown error", "error", err)
		}
		s.topicStats.Close()

		if err := s.tracer.Shutdown(context.Background()); err != nil {
			s.logger.Error("tracer shutdown error", "error", err)
		}

		s.wg.Wait()

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("broker proxy stopped")
	})

	return shutdownErr
}

// drainConnections polls for the live connection set to empty out,
// force-closing every straggler once ctx's deadline passes (spec §4.3: a
// graceful shutdown drains in-flight connections up to a deadline rather
// than severing them immediately).
func (s *Service) drainConnections(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.activeConnCount() == 0 {
			return
		}
		select {
		case <-ctx.Done():
			s.logger.Warn("shutdown drain deadline reached, forcing remaining connections closed",
				"remaining", s.activeConnCount())
			for _, c := range s.snapshotConns() {
				c.Close()
			}
			return
		case <-ticker.C:
		}
	}
}

// IsRunning reports whether Run has started the service and Shutdown has
// not yet completed.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
