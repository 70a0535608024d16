// Package config loads the prover service configuration from YAML and
// resolves the on-disk layout of circuit setups.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keylesszk/prover-service/jwk"
	"github.com/keylesszk/prover-service/prover"
)

// Files every setup directory is expected to contain under these fixed names.
const (
	circuitConfigFilename  = "circuit_config.yml"
	witnessGenJsFilename   = "generate_witness.js"
	witnessGenWasmFilename = "main.wasm"
)

// ProverServiceConfig is the service configuration. The zero value is not
// usable; load it with LoadConfig or start from Default.
type ProverServiceConfig struct {
	// Setup layout: resources_dir holds one subdirectory per ceremony, each
	// with the zkey, verifying key, witness generator and circuit config.
	SetupDir     string `yaml:"setup_dir"`
	NewSetupDir  string `yaml:"new_setup_dir,omitempty"`
	ResourcesDir string `yaml:"resources_dir"`

	ZkeyFilename             string `yaml:"zkey_filename"`
	VerificationKeyFilename  string `yaml:"verification_key_filename"`
	WitnessGenBinaryFilename string `yaml:"witness_gen_binary_filename"`
	ProverBinaryPath         string `yaml:"prover_binary_path"`

	OidcProviders      []jwk.Issuer `yaml:"oidc_providers"`
	JwkRefreshRateSecs uint64       `yaml:"jwk_refresh_rate_secs"`

	Host        string `yaml:"host"`
	Port        uint16 `yaml:"port"`
	MetricsPort uint16 `yaml:"metrics_port"`

	EnableFederatedJwks  bool `yaml:"enable_federated_jwks"`
	MaxCommittedEpkBytes int  `yaml:"max_committed_epk_bytes"`

	// On-chain snapshot polling; empty URLs disable the watcher.
	OnChainVKURL            string `yaml:"onchain_vk_url,omitempty"`
	OnChainKeylessConfigURL string `yaml:"onchain_keyless_config_url,omitempty"`
	OnChainRefreshRateSecs  uint64 `yaml:"onchain_refresh_rate_secs"`

	// Training wheels seed file; the PRIVATE_KEY environment variable takes
	// precedence when set.
	TrainingWheelsSeedFile string `yaml:"training_wheels_seed_file,omitempty"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ShutdownTimeoutSecs uint64 `yaml:"shutdown_timeout_secs"`
}

// Default returns the configuration the service ships with.
func Default() ProverServiceConfig {
	return ProverServiceConfig{
		SetupDir:                 "default",
		ResourcesDir:             "/resources/ceremonies",
		ZkeyFilename:             "prover_key.zkey",
		VerificationKeyFilename:  "verification_key.yml",
		WitnessGenBinaryFilename: "main_c",
		ProverBinaryPath:         "rapidsnark",
		JwkRefreshRateSecs:       10,
		Host:                     "0.0.0.0",
		Port:                     8083,
		MetricsPort:              9100,
		MaxCommittedEpkBytes:     93,
		OnChainRefreshRateSecs:   600,
		LogLevel:                 "info",
		LogFormat:                "json",
		ShutdownTimeoutSecs:      30,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*ProverServiceConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot run without.
func (c *ProverServiceConfig) Validate() error {
	if c.ResourcesDir == "" {
		return fmt.Errorf("resources_dir must be set")
	}
	if c.SetupDir == "" {
		return fmt.Errorf("setup_dir must be set")
	}
	if c.ZkeyFilename == "" || c.VerificationKeyFilename == "" || c.WitnessGenBinaryFilename == "" {
		return fmt.Errorf("setup filenames must be set")
	}
	if c.MaxCommittedEpkBytes <= 0 {
		return fmt.Errorf("max_committed_epk_bytes must be positive")
	}
	if c.JwkRefreshRateSecs == 0 {
		return fmt.Errorf("jwk_refresh_rate_secs must be positive")
	}
	for i, p := range c.OidcProviders {
		if p.Iss == "" || p.JWKSURL == "" {
			return fmt.Errorf("oidc_providers[%d]: iss and jwks_url must be set", i)
		}
	}
	if (c.OnChainVKURL != "" || c.OnChainKeylessConfigURL != "") && c.OnChainRefreshRateSecs == 0 {
		return fmt.Errorf("onchain_refresh_rate_secs must be positive when on-chain polling is enabled")
	}
	return nil
}

// SetupPaths resolves the on-disk layout of the default setup.
func (c *ProverServiceConfig) SetupPaths() prover.SetupPaths {
	return c.setupPaths(c.SetupDir)
}

// NewSetupPaths resolves the candidate setup layout, or false when no
// candidate is configured.
func (c *ProverServiceConfig) NewSetupPaths() (prover.SetupPaths, bool) {
	if c.NewSetupDir == "" {
		return prover.SetupPaths{}, false
	}
	return c.setupPaths(c.NewSetupDir), true
}

func (c *ProverServiceConfig) setupPaths(setupDir string) prover.SetupPaths {
	dir := expandTilde(filepath.Join(c.ResourcesDir, setupDir))
	return prover.SetupPaths{
		Name:              setupDir,
		CircuitConfigPath: filepath.Join(dir, circuitConfigFilename),
		VKPath:            filepath.Join(dir, c.VerificationKeyFilename),
		ZkeyPath:          filepath.Join(dir, c.ZkeyFilename),
		ProverBinary:      expandTilde(c.ProverBinaryPath),
		WitnessGenBinary:  filepath.Join(dir, c.WitnessGenBinaryFilename),
		WitnessGenJs:      filepath.Join(dir, witnessGenJsFilename),
		WitnessGenWasm:    filepath.Join(dir, witnessGenWasmFilename),
	}
}

// JwkRefreshRate returns the JWK refresh interval as a duration.
func (c *ProverServiceConfig) JwkRefreshRate() time.Duration {
	return time.Duration(c.JwkRefreshRateSecs) * time.Second
}

// OnChainRefreshRate returns the on-chain polling interval as a duration.
func (c *ProverServiceConfig) OnChainRefreshRate() time.Duration {
	return time.Duration(c.OnChainRefreshRateSecs) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c *ProverServiceConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

// Redacted returns a copy safe to expose over the config endpoint.
func (c *ProverServiceConfig) Redacted() ProverServiceConfig {
	out := *c
	out.TrainingWheelsSeedFile = ""
	return out
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
