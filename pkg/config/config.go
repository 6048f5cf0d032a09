package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cuemby/strata/pkg/bucket"
	"gopkg.in/yaml.v3"
)

// Config is Strata's process-level configuration (spec §6.6).
type Config struct {
	DataDir     string `yaml:"dataDir"`
	BucketCount uint32 `yaml:"bucketCount"`
	BlobBackend string `yaml:"blobBackend"` // memory | fs | bolt
	ListenAddr  string `yaml:"listenAddr"`
	LogLevel    string `yaml:"logLevel"`
	LogJSON     bool   `yaml:"logJSON"`
}

// Default returns the configuration used when no file and no overrides are
// supplied.
func Default() Config {
	return Config{
		DataDir:     "./strata-data",
		BucketCount: 256,
		BlobBackend: "fs",
		ListenAddr:  ":7420",
		LogLevel:    "info",
		LogJSON:     false,
	}
}

// Load reads path (if non-empty) as YAML over the defaults, then applies
// STRATA_-prefixed environment variable overrides, matching the
// flag-then-env resolution order the teacher uses for CLI configuration
// (cmd/warren/main.go's persistent flags plus OnInitialize hook).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.BucketCount != bucket.Count {
		return Config{}, fmt.Errorf("config: bucketCount %d does not match this binary's fixed bucket count %d", cfg.BucketCount, bucket.Count)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("STRATA_DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv("STRATA_BUCKET_COUNT"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.BucketCount = uint32(n)
		}
	}
	if v, ok := os.LookupEnv("STRATA_BLOB_BACKEND"); ok {
		cfg.BlobBackend = v
	}
	if v, ok := os.LookupEnv("STRATA_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("STRATA_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("STRATA_LOG_JSON"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = b
		}
	}
}
