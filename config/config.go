// Package config loads tallycore's runtime configuration from command-line
// flags, environment variables and defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultAPIHost       = "0.0.0.0"
	defaultAPIPort       = 8080
	defaultLogLevel      = "info"
	defaultLogOutput     = "stdout"
	defaultDatadir       = ".tallycore" // prefixed with the user's home directory
	defaultKeyBits       = 2048
	defaultThreshold     = 3
	defaultTotalTrustees = 5
)

// Config holds the application configuration.
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Crypto  CryptoConfig
	Web3    Web3Config
	Log     LogConfig
	Datadir string
}

// APIConfig holds the HTTP API server configuration.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Backend is either "memdb" (ephemeral, for development and tests) or
	// "pebble" (on-disk, for production).
	Backend string `mapstructure:"backend"`
}

// CryptoConfig holds Paillier/threshold parameters. Load reads them and
// Validate checks them; they are not passed to the engine or the API, and
// each election and trustee-issuance request carries its own key size and
// threshold.
type CryptoConfig struct {
	KeyBits       int `mapstructure:"keyBits"`
	Threshold     int `mapstructure:"threshold"`
	TotalTrustees int `mapstructure:"totalTrustees"`
}

// Web3Config holds the optional on-chain result-publication configuration.
// PrivKey is left empty to disable publication entirely.
type Web3Config struct {
	PrivKey       string `mapstructure:"privkey"`
	RPC           string `mapstructure:"rpc"`
	AnchorAddress string `mapstructure:"anchorAddress"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// Load loads configuration from flags, environment variables, and defaults.
// Environment variables use the TALLYCORE_ prefix, with dots replaced by
// underscores (e.g. TALLYCORE_API_PORT).
func Load(args []string) (*Config, error) {
	v := viper.New()

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("api.host", defaultAPIHost)
	v.SetDefault("api.port", defaultAPIPort)
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("crypto.keyBits", defaultKeyBits)
	v.SetDefault("crypto.threshold", defaultThreshold)
	v.SetDefault("crypto.totalTrustees", defaultTotalTrustees)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("datadir", defaultDatadirPath)

	fs := flag.NewFlagSet("tallycore", flag.ContinueOnError)
	fs.StringP("api.host", "h", defaultAPIHost, "API host")
	fs.IntP("api.port", "p", defaultAPIPort, "API port")
	fs.String("storage.backend", "pebble", "storage backend: pebble or memdb")
	fs.Int("crypto.keyBits", defaultKeyBits, "Paillier key size in bits (validated only, not applied to elections)")
	fs.Int("crypto.threshold", defaultThreshold, "trustee threshold K (validated only, not applied to elections)")
	fs.Int("crypto.totalTrustees", defaultTotalTrustees, "total trustee count N (validated only, not applied to elections)")
	fs.String("web3.privkey", "", "hex-encoded Ethereum private key used to publish results on chain (disabled if empty)")
	fs.String("web3.rpc", "", "Ethereum JSON-RPC endpoint used for result publication")
	fs.String("web3.anchorAddress", "", "Ethereum address receiving result-anchoring transactions")
	fs.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	fs.StringP("datadir", "d", defaultDatadirPath, "data directory for the storage backend")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tallycore [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the TALLYCORE_ prefix,\n")
		fmt.Fprintf(os.Stderr, "with dots (.) replaced by underscores (_).\n")
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parsing flags: %w", err)
	}

	v.SetEnvPrefix("TALLYCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants Load cannot enforce through defaults alone.
func (c *Config) Validate() error {
	if c.Crypto.Threshold <= 0 || c.Crypto.Threshold > c.Crypto.TotalTrustees {
		return fmt.Errorf("config: threshold %d must be in [1, %d]", c.Crypto.Threshold, c.Crypto.TotalTrustees)
	}
	if c.Storage.Backend != "pebble" && c.Storage.Backend != "memdb" {
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Web3.PrivKey != "" && (c.Web3.RPC == "" || c.Web3.AnchorAddress == "") {
		return fmt.Errorf("config: web3.rpc and web3.anchorAddress are required when web3.privkey is set")
	}
	return nil
}
