package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/distribution-auth/ruleauth/auth"
	"github.com/distribution-auth/ruleauth/config"
)

// listenConfig is read from RULEAUTH_ prefixed environment variables.
type listenConfig struct {
	Addr            string        `env:"ADDR, default=localhost:8080"`
	TLSCert         string        `env:"TLS_CERT"`
	TLSKey          string        `env:"TLS_KEY"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
}

func loadListenConfig(ctx context.Context, lookuper envconfig.Lookuper) (listenConfig, error) {
	var cfg listenConfig

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("RULEAUTH_", lookuper),
	})
	if err != nil {
		return listenConfig{}, err
	}

	return cfg, nil
}

func (c listenConfig) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("must provide both a TLS certificate and key")
	}

	return nil
}

func newRouter(service auth.TokenService, logger *zap.Logger, gatherer prometheus.Gatherer) http.Handler {
	server := auth.TokenServer{
		Service: service,
		Logger:  logger,
	}

	router := mux.NewRouter()
	router.Path("/token").Methods(http.MethodGet).HandlerFunc(server.TokenHandler)
	router.Path("/token").Methods(http.MethodPost).HandlerFunc(server.OAuth2Handler)
	router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return router
}

func serve(ctx context.Context, c *cli.Command) error {
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer logger.Sync() // nolint: errcheck

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	listen, err := loadListenConfig(ctx, envconfig.OsLookuper())
	if err != nil {
		return err
	}

	if c.IsSet("addr") {
		listen.Addr = c.String("addr")
	}

	if c.IsSet("tls-cert") {
		listen.TLSCert = c.String("tls-cert")
	}

	if c.IsSet("tls-key") {
		listen.TLSKey = c.String("tls-key")
	}

	if err := listen.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service, err := cfg.CreateTokenService(logger, reg)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	server := &http.Server{
		Addr:              listen.Addr,
		Handler:           newRouter(service, logger, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("listening", zap.String("addr", listen.Addr), zap.Bool("tls", listen.TLSCert != ""))

		if listen.TLSCert != "" {
			errCh <- server.ListenAndServeTLS(listen.TLSCert, listen.TLSKey)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err

	case <-ctx.Done():
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), listen.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}
