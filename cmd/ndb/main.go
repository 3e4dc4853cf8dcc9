// Command ndb talks to an NDB document-search server from the shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ndb "github.com/ThirdAILabs/ndb-client"
	"github.com/ThirdAILabs/ndb-client/internal/config"
	logpkg "github.com/ThirdAILabs/ndb-client/internal/logger"
	"github.com/ThirdAILabs/ndb-client/internal/version"
)

const usageText = `ndb is a command-line client for an NDB document-search server.

Usage:
  ndb [global flags] <command> [flags]

Commands:
  search       -q text [-k n] [-where field=Kind:dtype:value]...
  insert       -file path [-meta meta.yaml] [-source-id id] [-text-columns a,b]
  delete       source_id...
  upvote       -pair query_id:reference_id...
  sources
  checkpoint
  fake-server  [-addr :8000]
  version

Global flags:
`

// app carries what every command needs.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	client   *ndb.Client
	stdout   io.Writer
	stderr   io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"search":      searchCmd,
	"insert":      insertCmd,
	"delete":      deleteCmd,
	"upvote":      upvoteCmd,
	"sources":     sourcesCmd,
	"checkpoint":  checkpointCmd,
	"fake-server": fakeServerCmd,
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code:
// 0 on success, 1 when the command failed, 2 on bad usage.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("ndb", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "yaml config file (default config/$ENV.yaml)")
	envFile := global.String("env-file", ".env", "dotenv file loaded before the config")
	baseURL := global.String("base-url", "", "NDB server address, overrides client.base_url")
	metricsAddr := global.String("metrics-addr", "", "serve prometheus metrics here, overrides metrics.addr")
	global.Usage = func() {
		fmt.Fprint(stderr, usageText)
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	name, cmdArgs := global.Arg(0), global.Args()[1:]
	if name == "version" {
		fmt.Fprintln(stdout, version.String())
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "ndb: unknown command %q\n\n", name)
		global.Usage()
		return 2
	}

	if err := loadEnvFile(*envFile); err != nil {
		fmt.Fprintf(stderr, "ndb: %v\n", err)
		return 1
	}
	cfg, err := config.Load(*configPath, config.GetEnv())
	if err != nil {
		fmt.Fprintf(stderr, "ndb: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "ndb: invalid flags: %v\n", err)
		return 2
	}

	logger, err := logpkg.New(logpkg.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(stderr, "ndb: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ndb: %v\n", err)
		return 1
	}
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, a.registry, logger)
		defer stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Client.TimeoutSec > 0 && name != "fake-server" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Client.TimeoutSec)*time.Second)
		defer cancel()
	}

	logger.Debug("running command",
		zap.String("command", name),
		zap.String("base_url", a.client.BaseURL()),
		zap.String("version", version.Version),
	)
	if err := cmd(ctx, a, cmdArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "ndb %s: %v\n", name, err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

func newApp(cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	client, err := ndb.New(cfg.Client.BaseURL,
		ndb.WithLogger(logger),
		ndb.WithPrometheus(reg),
	)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, registry: reg, client: client, stdout: stdout, stderr: stderr}, nil
}

// loadEnvFile loads a dotenv file. A missing file is not an error.
// Variables already set in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// serveMetrics exposes reg on addr/metrics until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (stop func()) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
}
