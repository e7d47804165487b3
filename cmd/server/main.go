// Command server runs the omotenashi chat gateway.
//
// Configuration is read from a YAML file, a .env file and the environment
// (see pkg/config). The serving endpoint is bound by:
//
//	DATABRICKS_HOST  - Workspace URL
//	DATABRICKS_TOKEN - Access token
//	ENDPOINT_NAME    - Serving endpoint name
//
// Without all three the server still starts and answers every chat
// request with the not-configured reply.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rhuss/omotenashi/pkg/config"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/engine"
	"github.com/rhuss/omotenashi/pkg/provider"
	"github.com/rhuss/omotenashi/pkg/provider/databricks"
	transporthttp "github.com/rhuss/omotenashi/pkg/transport/http"
)

func main() {
	var (
		configPath string
		envFile    string
		port       int
	)

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the omotenashi chat API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config.Options{ConfigPath: configPath, EnvFile: envFile}, port)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: ./.env if present)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(opts config.Options, port int) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	prov, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	engineCfg := engine.Config{
		Model:         cfg.Databricks.Endpoint,
		Temperature:   &cfg.Chat.Temperature,
		FallbackDelay: cfg.Chat.FallbackDelay,
	}
	if engineCfg.FallbackDelay == 0 {
		engineCfg.FallbackDelay = engine.NoDelay
	}

	gw := engine.NewGateway(prov, engineCfg)
	defer gw.Close()

	eng := engine.New(gw, engineCfg)

	serverOpts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithStaticDir(cfg.Server.StaticDir),
		transporthttp.WithLogger(slog.Default()),
	}
	if cfg.Observability.Metrics.Enabled {
		serverOpts = append(serverOpts, transporthttp.WithMetricsPath(cfg.Observability.Metrics.Path))
	} else {
		serverOpts = append(serverOpts, transporthttp.WithMetricsPath(""))
	}

	slog.Info("gateway ready",
		"configured", eng.Configured(),
		"endpoint", cfg.Databricks.Endpoint,
		"port", cfg.Server.Port,
		"static_dir", cfg.Server.StaticDir,
		"debug", debug.Categories(),
	)

	return transporthttp.NewServer(eng, serverOpts...).ListenAndServe()
}

// newProvider returns the Databricks provider, or nil when the endpoint
// binding is incomplete.
func newProvider(cfg *config.Config) (provider.Provider, error) {
	if !cfg.Databricks.Configured() {
		slog.Warn("databricks is not configured; chat requests will be answered with the setup notice",
			"host_set", strings.TrimSpace(cfg.Databricks.Host) != "",
			"token_set", strings.TrimSpace(cfg.Databricks.Token) != "",
			"endpoint_set", strings.TrimSpace(cfg.Databricks.Endpoint) != "",
		)
		return nil, nil
	}

	p, err := databricks.New(cfg.Databricks.Provider())
	if err != nil {
		return nil, err
	}
	slog.Info("databricks provider ready", "url", p.URL(), "endpoint", p.Endpoint())
	return p, nil
}
