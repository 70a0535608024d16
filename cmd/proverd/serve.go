// Package proverd hosts the serve command of the prover service.
package proverd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keylesszk/prover-service/config"
	"github.com/keylesszk/prover-service/server"
)

func NewServeCmd() *cobra.Command {
	var (
		configPath string
		overrides  = config.Default()
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the prover service",
		Long:  `Start the HTTP service that validates OIDC JWTs and issues Groth16 proofs over them.`,
		Example: `  # Start with a config file
  keyless-prover serve --config config.yml

  # Override the listen port and resources directory
  keyless-prover serve --config config.yml --port 9090 --resources-dir ./ceremonies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// Explicit flags win over the config file.
			if cmd.Flags().Changed("host") {
				cfg.Host = overrides.Host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = overrides.Port
			}
			if cmd.Flags().Changed("metrics-port") {
				cfg.MetricsPort = overrides.MetricsPort
			}
			if cmd.Flags().Changed("resources-dir") {
				cfg.ResourcesDir = overrides.ResourcesDir
			}
			if cmd.Flags().Changed("setup-dir") {
				cfg.SetupDir = overrides.SetupDir
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = overrides.LogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = overrides.LogFormat
			}

			return server.Run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yml", "Path to the service config file")
	cmd.Flags().StringVar(&overrides.Host, "host", overrides.Host, "Host to bind to")
	cmd.Flags().Uint16VarP(&overrides.Port, "port", "p", overrides.Port, "Port to listen on")
	cmd.Flags().Uint16Var(&overrides.MetricsPort, "metrics-port", overrides.MetricsPort, "Port to serve metrics on")
	cmd.Flags().StringVar(&overrides.ResourcesDir, "resources-dir", overrides.ResourcesDir, "Directory holding the ceremony setups")
	cmd.Flags().StringVar(&overrides.SetupDir, "setup-dir", overrides.SetupDir, "Setup subdirectory to prove under")
	cmd.Flags().StringVar(&overrides.LogLevel, "log-level", overrides.LogLevel, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&overrides.LogFormat, "log-format", overrides.LogFormat, "Log format (text, json)")

	return cmd
}

// loadConfig reads the config file when present; a missing file falls back to
// defaults so the flags alone can drive a local run.
func loadConfig(path string) (*config.ProverServiceConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			cfg := config.Default()
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return config.LoadConfig(path)
}
