package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Backend names accepted for Config.Backend.
const (
	BackendLlamaCpp    = "llamacpp"
	BackendLlamaServer = "llamaserver"
)

// Config holds runtime parameters for the service.
// Precedence is Default < file < environment < explicit flags; Load and
// FromEnv each overlay onto the value they are given.
type Config struct {
	Addr           string   `json:"addr" yaml:"addr" toml:"addr"`
	ModelPath      string   `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelID        string   `json:"model_id" yaml:"model_id" toml:"model_id"`
	Backend        string   `json:"backend" yaml:"backend" toml:"backend"`
	Workers        int      `json:"workers" yaml:"workers" toml:"workers"`
	Threads        int      `json:"threads" yaml:"threads" toml:"threads"`
	CtxSize        int      `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	MaxQueue       int      `json:"max_queue" yaml:"max_queue" toml:"max_queue"`
	GateWait       Duration `json:"gate_wait" yaml:"gate_wait" toml:"gate_wait"`
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	DrainTimeout   Duration `json:"drain_timeout" yaml:"drain_timeout" toml:"drain_timeout"`
	MaxBodyBytes   int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	ServerBin      string   `json:"server_bin" yaml:"server_bin" toml:"server_bin"`
	ServerURL      string   `json:"server_url" yaml:"server_url" toml:"server_url"`
	CORSOrigins    []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Default returns the built-in configuration. ModelPath stays empty; it has
// no sensible default and Validate rejects it when unset.
func Default() Config {
	return Config{
		Addr:           ":8080",
		Backend:        BackendLlamaCpp,
		Workers:        runtime.NumCPU(),
		CtxSize:        4096,
		MaxQueue:       32,
		GateWait:       Duration(30 * time.Second),
		RequestTimeout: Duration(120 * time.Second),
		DrainTimeout:   Duration(30 * time.Second),
		MaxBodyBytes:   1 << 20,
		LogLevel:       "info",
		ServerBin:      "llama-server",
	}
}

// Load reads a configuration file based on its extension and overlays it
// onto base. Supports: .yaml/.yml, .json, .toml
func Load(path string, base Config) (Config, error) {
	cfg := base
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Environment variable names recognized by FromEnv.
const (
	EnvAddr           = "INFERD_ADDR"
	EnvModelPath      = "INFERD_MODEL_PATH"
	EnvModelID        = "INFERD_MODEL_ID"
	EnvBackend        = "INFERD_BACKEND"
	EnvWorkers        = "INFERD_WORKERS"
	EnvThreads        = "INFERD_THREADS"
	EnvCtxSize        = "INFERD_CTX_SIZE"
	EnvMaxQueue       = "INFERD_MAX_QUEUE"
	EnvGateWait       = "INFERD_GATE_WAIT"
	EnvRequestTimeout = "INFERD_REQUEST_TIMEOUT"
	EnvDrainTimeout   = "INFERD_DRAIN_TIMEOUT"
	EnvMaxBodyBytes   = "INFERD_MAX_BODY_BYTES"
	EnvLogLevel       = "INFERD_LOG_LEVEL"
	EnvServerBin      = "INFERD_SERVER_BIN"
	EnvServerURL      = "INFERD_SERVER_URL"
	EnvCORSOrigins    = "INFERD_CORS_ORIGINS"
)

// FromEnv overlays INFERD_* environment variables onto base. Unset variables
// leave base untouched; malformed values are reported rather than ignored.
func FromEnv(base Config) (Config, error) {
	cfg := base
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvModelPath); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv(EnvModelID); v != "" {
		cfg.ModelID = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	intVars := []struct {
		name string
		dst  *int
	}{
		{EnvWorkers, &cfg.Workers},
		{EnvThreads, &cfg.Threads},
		{EnvCtxSize, &cfg.CtxSize},
		{EnvMaxQueue, &cfg.MaxQueue},
	}
	for _, iv := range intVars {
		v := os.Getenv(iv.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", iv.name, err)
		}
		*iv.dst = n
	}
	durVars := []struct {
		name string
		dst  *Duration
	}{
		{EnvGateWait, &cfg.GateWait},
		{EnvRequestTimeout, &cfg.RequestTimeout},
		{EnvDrainTimeout, &cfg.DrainTimeout},
	}
	for _, dv := range durVars {
		v := os.Getenv(dv.name)
		if v == "" {
			continue
		}
		d, err := parseDurationEnv(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", dv.name, err)
		}
		*dv.dst = d
	}
	if v := os.Getenv(EnvMaxBodyBytes); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxBodyBytes, err)
		}
		cfg.MaxBodyBytes = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvServerBin); v != "" {
		cfg.ServerBin = v
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		cfg.CORSOrigins = SplitCSV(v)
	}
	return cfg, nil
}

// parseDurationEnv accepts Go duration syntax ("90s", "2m") or a bare
// integer, which is read as seconds. Container schedulers tend to hand
// timeouts around as plain integers.
func parseDurationEnv(v string) (Duration, error) {
	s := strings.TrimSpace(v)
	if n, err := strconv.Atoi(s); err == nil {
		return Duration(time.Duration(n) * time.Second), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model_path is required (set %s)", EnvModelPath)
	}
	switch c.Backend {
	case BackendLlamaCpp, BackendLlamaServer:
	default:
		return fmt.Errorf("backend must be %s or %s, got %q", BackendLlamaCpp, BackendLlamaServer, c.Backend)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	if c.CtxSize <= 0 {
		return fmt.Errorf("ctx_size must be positive, got %d", c.CtxSize)
	}
	if c.MaxQueue < 0 {
		return fmt.Errorf("max_queue must not be negative, got %d", c.MaxQueue)
	}
	if c.GateWait < 0 {
		return fmt.Errorf("gate_wait must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.DrainTimeout < 0 {
		return fmt.Errorf("drain_timeout must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empty
// entries. Returns nil for an empty input.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
