// Copyright 2025 Certen Protocol
//
// Prover configuration loading: a small, flat option set read from an
// optional YAML file and overlaid with environment variables. This is
// not a general config framework; the option set is short enough that
// one doesn't pay for itself here.

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/certen/nitro-attestation-zk/pkg/prover"
	"github.com/certen/nitro-attestation-zk/pkg/zkprogram"
)

// BackendConfig is the remote proving service endpoint and credential
// for one zkVM backend.
type BackendConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
}

// ProverConfig is the full set of options recognized by cmd/nitro-prover,
// matching spec's ProverConfig plus the backend remote endpoints.
type ProverConfig struct {
	DefaultTrustedCertsPrefixLen uint8  `yaml:"default_trusted_certs_prefix_length"`
	SkipTimeValidityCheck        bool   `yaml:"skip_time_validity_check"`
	SkipContractProgramIdCheck   bool   `yaml:"skip_contract_program_id_check"`
	MaxConcurrency               int    `yaml:"prove_max_concurrency"`
	DevMode                      bool   `yaml:"dev_mode"`

	ContractAddress string `yaml:"contract_address"`
	EthereumRPCURL  string `yaml:"ethereum_rpc_url"`

	// RiscZero is the Bonsai proving-service config consulted when the
	// selected backend is RISC Zero.
	RiscZero BackendConfig `yaml:"risc_zero"`
	// Succinct is the SP1 prover-network config consulted when the
	// selected backend is Succinct.
	Succinct BackendConfig `yaml:"succinct"`
}

// LoadProverConfig reads path (if non-empty) as YAML, then applies
// environment variable overrides per spec.md §6.
func LoadProverConfig(path string) (*ProverConfig, error) {
	cfg := &ProverConfig{DefaultTrustedCertsPrefixLen: 1}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *ProverConfig) applyEnvOverrides() {
	if v := os.Getenv("PROVE_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
	if v := os.Getenv("DEFAULT_TRUSTED_CERTS_PREFIX_LENGTH"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			c.DefaultTrustedCertsPrefixLen = uint8(n)
		}
	}
	if v := os.Getenv("SKIP_TIME_VALIDITY_CHECK"); v != "" {
		c.SkipTimeValidityCheck = parseBool(v)
	}
	if v := os.Getenv("SKIP_CONTRACT_PROGRAM_ID_CHECK"); v != "" {
		c.SkipContractProgramIdCheck = parseBool(v)
	}
	if v := os.Getenv("BONSAI_API_URL"); v != "" {
		c.RiscZero.APIURL = v
	}
	if v := os.Getenv("BONSAI_API_KEY"); v != "" {
		c.RiscZero.APIKey = v
	}
	if v := os.Getenv("NETWORK_RPC_URL"); v != "" {
		c.Succinct.APIURL = v
	}
	if v := os.Getenv("NETWORK_PRIVATE_KEY"); v != "" {
		c.Succinct.APIKey = v
	}
	if v := os.Getenv("CONTRACT_ADDRESS"); v != "" {
		c.ContractAddress = v
	}
	if v := os.Getenv("ETHEREUM_RPC_URL"); v != "" {
		c.EthereumRPCURL = v
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// ToProverConfig converts the flat file/env config into prover.Config.
func (c *ProverConfig) ToProverConfig() prover.Config {
	return prover.Config{
		DefaultTrustedCertsPrefixLen: c.DefaultTrustedCertsPrefixLen,
		SkipTimeValidityCheck:        c.SkipTimeValidityCheck,
		SkipContractProgramIDCheck:   c.SkipContractProgramIdCheck,
		MaxConcurrency:               c.MaxConcurrency,
	}
}

// RemoteConfigFor returns the zkprogram.RemoteProverConfig built from the
// RiscZero backend section when risc0 is true, else the Succinct section.
func (c *ProverConfig) RemoteConfigFor(risc0 bool) zkprogram.RemoteProverConfig {
	if risc0 {
		return zkprogram.RemoteProverConfig{APIURL: c.RiscZero.APIURL, APIKey: c.RiscZero.APIKey}
	}
	return zkprogram.RemoteProverConfig{APIURL: c.Succinct.APIURL, APIKey: c.Succinct.APIKey}
}
