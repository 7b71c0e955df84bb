package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr  = ":8087"
	defaultDBPath      = "workbench.db"
	defaultAuthTimeout = 60 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

type fileConfig struct {
	Listen             string `yaml:"listen"`
	DBPath             string `yaml:"db_path"`
	AuthTimeoutSeconds int    `yaml:"auth_timeout_seconds"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
}

// Config holds runtime settings for the workbench service.
type Config struct {
	// Listen is the local HTTP listen address.
	Listen string
	// DBPath is the SQLite database file path.
	DBPath string
	// AuthTimeout bounds how long the redirect capture server waits
	// for the OAuth callback before giving up.
	AuthTimeout time.Duration
	// HTTPTimeout applies to outbound SuiteQL and token requests.
	HTTPTimeout time.Duration
}

// Load reads settings from an optional YAML file, then applies
// environment overrides (WORKBENCH_LISTEN, WORKBENCH_DB,
// WORKBENCH_AUTH_TIMEOUT, WORKBENCH_HTTP_TIMEOUT). A missing file is
// not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Listen:      defaultListenAddr,
		DBPath:      defaultDBPath,
		AuthTimeout: defaultAuthTimeout,
		HTTPTimeout: defaultHTTPTimeout,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			if fc.Listen != "" {
				cfg.Listen = fc.Listen
			}
			if fc.DBPath != "" {
				cfg.DBPath = fc.DBPath
			}
			if fc.AuthTimeoutSeconds > 0 {
				cfg.AuthTimeout = time.Duration(fc.AuthTimeoutSeconds) * time.Second
			}
			if fc.HTTPTimeoutSeconds > 0 {
				cfg.HTTPTimeout = time.Duration(fc.HTTPTimeoutSeconds) * time.Second
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("WORKBENCH_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("WORKBENCH_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WORKBENCH_AUTH_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.AuthTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("WORKBENCH_HTTP_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.HTTPTimeout = time.Duration(secs) * time.Second
		}
	}

	return cfg, nil
}
