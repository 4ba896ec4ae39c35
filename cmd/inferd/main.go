package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"inferd/internal/config"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Chat-completion endpoint for a single quantized GGUF model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file (.yaml/.yml/.json/.toml); overridden by INFERD_* env and flags")
	addConfigFlags(root.PersistentFlags())

	root.AddCommand(buildServeCmd(), buildCheckCmd(), buildVersionCmd())
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the inferd version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "inferd", version)
			return nil
		},
	}
}

// addConfigFlags declares the flags that overlay config.Config. Defaults come
// from config.Default so --help shows the effective baseline.
func addConfigFlags(fs *pflag.FlagSet) {
	def := config.Default()
	fs.String("addr", def.Addr, "HTTP listen address, e.g. :8080")
	fs.String("model-path", "", "Path to the GGUF model artifact (required)")
	fs.String("model-id", "", "Model identifier for status reports (defaults to file name)")
	fs.String("backend", def.Backend, "Engine backend: llamacpp or llamaserver")
	fs.Int("workers", def.Workers, "Worker slots bounding concurrent engine calls")
	fs.Int("threads", 0, "Threads per engine call (0 = cores divided across workers)")
	fs.Int("ctx-size", def.CtxSize, "Context window in tokens")
	fs.Int("max-queue", def.MaxQueue, "Callers allowed to wait at the gate before fast rejection")
	fs.Duration("gate-wait", def.GateWait.Std(), "Maximum wait for a worker slot")
	fs.Duration("request-timeout", def.RequestTimeout.Std(), "Wall-clock bound for one engine call")
	fs.Duration("drain-timeout", def.DrainTimeout.Std(), "Grace period for in-flight work on shutdown")
	fs.Int64("max-body-bytes", def.MaxBodyBytes, "Maximum request body size in bytes")
	fs.String("log-level", def.LogLevel, "Log level: debug|info|warn|error|off")
	fs.String("server-bin", def.ServerBin, "llama-server executable (llamaserver backend)")
	fs.String("server-url", "", "Attach to a running llama-server instead of spawning")
	fs.String("cors-origins", "", "Comma-separated CORS origins (empty disables CORS)")
}

// loadConfig assembles the effective configuration with the documented
// precedence: defaults < file < environment < explicitly-set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	fs := cmd.Flags()
	if path, _ := fs.GetString("config"); path != "" {
		var err error
		cfg, err = config.Load(path, cfg)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	cfg, err := config.FromEnv(cfg)
	if err != nil {
		return cfg, err
	}

	if fs.Changed("addr") {
		cfg.Addr, _ = fs.GetString("addr")
	}
	if fs.Changed("model-path") {
		cfg.ModelPath, _ = fs.GetString("model-path")
	}
	if fs.Changed("model-id") {
		cfg.ModelID, _ = fs.GetString("model-id")
	}
	if fs.Changed("backend") {
		cfg.Backend, _ = fs.GetString("backend")
	}
	if fs.Changed("workers") {
		cfg.Workers, _ = fs.GetInt("workers")
	}
	if fs.Changed("threads") {
		cfg.Threads, _ = fs.GetInt("threads")
	}
	if fs.Changed("ctx-size") {
		cfg.CtxSize, _ = fs.GetInt("ctx-size")
	}
	if fs.Changed("max-queue") {
		cfg.MaxQueue, _ = fs.GetInt("max-queue")
	}
	if fs.Changed("gate-wait") {
		d, _ := fs.GetDuration("gate-wait")
		cfg.GateWait = config.Duration(d)
	}
	if fs.Changed("request-timeout") {
		d, _ := fs.GetDuration("request-timeout")
		cfg.RequestTimeout = config.Duration(d)
	}
	if fs.Changed("drain-timeout") {
		d, _ := fs.GetDuration("drain-timeout")
		cfg.DrainTimeout = config.Duration(d)
	}
	if fs.Changed("max-body-bytes") {
		cfg.MaxBodyBytes, _ = fs.GetInt64("max-body-bytes")
	}
	if fs.Changed("log-level") {
		cfg.LogLevel, _ = fs.GetString("log-level")
	}
	if fs.Changed("server-bin") {
		cfg.ServerBin, _ = fs.GetString("server-bin")
	}
	if fs.Changed("server-url") {
		cfg.ServerURL, _ = fs.GetString("server-url")
	}
	if fs.Changed("cors-origins") {
		v, _ := fs.GetString("cors-origins")
		cfg.CORSOrigins = config.SplitCSV(v)
	}

	return cfg, cfg.Validate()
}
