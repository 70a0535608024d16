// Package server assembles and runs the prover service: setups, JWK
// refreshing, the on-chain watcher, and the HTTP listeners.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keylesszk/prover-service/config"
	"github.com/keylesszk/prover-service/input"
	"github.com/keylesszk/prover-service/jwk"
	"github.com/keylesszk/prover-service/metrics"
	"github.com/keylesszk/prover-service/onchain"
	"github.com/keylesszk/prover-service/prover"
	"github.com/keylesszk/prover-service/server/api"
	"github.com/keylesszk/prover-service/trainingwheels"
)

// privateKeyEnvVar overrides the training wheels seed file when set.
const privateKeyEnvVar = "PRIVATE_KEY"

const defaultRequestTimeout = 60 * time.Second

// Run starts the prover service and blocks until shutdown.
func Run(cfg *config.ProverServiceConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)
	slogger := NewSlog(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting the prover service")

	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Circuit setups. The candidate setup is optional and only proven under
	// once the chain switches to its verifying key.
	defaultSetup, err := prover.LoadSetup(cfg.SetupPaths())
	if err != nil {
		return fmt.Errorf("loading default setup: %w", err)
	}
	logger.Info("Loaded default setup", "name", defaultSetup.Name)

	var candidateSetup *prover.Setup
	if paths, ok := cfg.NewSetupPaths(); ok {
		candidateSetup, err = prover.LoadSetup(paths)
		if err != nil {
			return fmt.Errorf("loading candidate setup: %w", err)
		}
		logger.Info("Loaded candidate setup", "name", candidateSetup.Name)
	}

	// Training wheels key.
	twKeyPair, err := loadTrainingWheelsKey(cfg)
	if err != nil {
		return fmt.Errorf("loading training wheels key: %w", err)
	}

	// JWK cache with background refreshing, plus the federated resolver
	// when enabled.
	cache := jwk.NewCache(jwk.NewFetcher(), slogger)
	cache.OnRefresh = func(iss string, ok bool) {
		outcome := "success"
		if !ok {
			outcome = "failure"
		}
		m.JwkFetchesTotal.WithLabelValues(iss, outcome).Inc()
	}
	cache.StartRefreshLoops(ctx, cfg.OidcProviders, cfg.JwkRefreshRate())

	keys := &jwk.Resolver{Cache: cache}
	if cfg.EnableFederatedJwks {
		keys.Federated = jwk.NewFederatedResolver(jwk.DefaultFederatedProviders, jwk.NewFetcher())
	}

	// On-chain snapshot watcher.
	var watcher *onchain.Watcher
	if cfg.OnChainVKURL != "" || cfg.OnChainKeylessConfigURL != "" {
		watcher = onchain.NewWatcher(cfg.OnChainVKURL, cfg.OnChainKeylessConfigURL, slogger)
		watcher.Start(ctx, cfg.OnChainRefreshRate())
	}

	validator := input.NewValidator(defaultSetup.CircuitConfig, keys)

	defaultPipeline := prover.NewPipeline(defaultSetup, twKeyPair, cfg.MaxCommittedEpkBytes, slogger).WithMetrics(m)
	var candidatePipeline *prover.Pipeline
	if candidateSetup != nil {
		candidatePipeline = prover.NewPipeline(candidateSetup, twKeyPair, cfg.MaxCommittedEpkBytes, slogger).WithMetrics(m)
	}

	state := NewState(validator, defaultPipeline, candidatePipeline, watcher, slogger)
	state.SetTrainingWheelsKey(twKeyPair.PublicKey())
	deployment := api.NewDeploymentInformation(twKeyPair.PublicKey())
	apiServer := api.NewServer(cfg, deployment, state, cache, slogger)

	r := setupRouter(apiServer, m, defaultRequestTimeout, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   defaultRequestTimeout,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// The metrics listener stays on its own port so it never has to be
	// exposed publicly.
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.MetricsPort),
		Handler: m.Handler(),
	}
	go func() {
		logger.Info("Metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	logger.Info("Shutting down server gracefully...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Metrics server shutdown failed", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

// loadTrainingWheelsKey reads the Ed25519 seed from the environment, falling
// back to the configured seed file.
func loadTrainingWheelsKey(cfg *config.ProverServiceConfig) (*trainingwheels.KeyPair, error) {
	if seed := os.Getenv(privateKeyEnvVar); seed != "" {
		return trainingwheels.FromSeedHex(seed)
	}
	if cfg.TrainingWheelsSeedFile != "" {
		return trainingwheels.FromSeedFile(cfg.TrainingWheelsSeedFile)
	}
	return nil, fmt.Errorf("no training wheels key configured: set %s or training_wheels_seed_file", privateKeyEnvVar)
}
