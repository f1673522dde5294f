// Command aad drives Specs through the orchestrator: registration,
// wave-ordered starts, the task loop engine, quality gates, and backup
// persistence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/aad-go/aad/internal/aadconfig"
	"github.com/aad-go/aad/internal/obs"
	"github.com/aad-go/aad/internal/shared"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v0.1-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [-home dir] <command> [args]

COMMANDS:
  orchestrate <spec-id>...    Register, start, and monitor specs to completion
                              Flags: -resume, -dry-run
  loop <spec-id>              Drive a single spec's task loop
                              Flags: -resume
  gate <phase>                Evaluate the quality gate for a phase
  persist save <name>         Back up a persisted file under .aad/
  persist restore <name> <ts> Restore a backup by timestamp
  persist list <name>         List backups newest-first
  doctor [-json]              Run environment diagnostics

FLAGS:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	home := flag.String("home", ".", "project home directory (contains .aad/)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	quiet := flag.Bool("quiet", false, "suppress log output to stdout")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	homeDir, err := filepath.Abs(*home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve home dir: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = shared.WithTraceID(ctx, shared.NewTraceID())

	logger, closer, err := obs.NewLogger(ctx, homeDir, *logLevel, *quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	cfg, err := aadconfig.Load(filepath.Join(homeDir, ".aad", "config.toml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	provider, err := obs.InitTelemetry(ctx, cfg.ToTelemetryConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init telemetry: %v\n", err)
		os.Exit(1)
	}
	defer provider.Shutdown(ctx)

	env := &cliEnv{
		ctx:       ctx,
		homeDir:   homeDir,
		cfg:       cfg,
		logger:    logger,
		telemetry: provider,
	}

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	rest := args[1:]

	// orchestrate and loop can run for a long time; pick up config.toml edits
	// without requiring a restart.
	if cmd == "orchestrate" || cmd == "loop" {
		watcher := aadconfig.NewWatcher(filepath.Join(homeDir, ".aad"), logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config watcher: failed to start, continuing without live reload", "error", err)
		} else {
			go env.watchConfig(watcher)
		}
	}

	var code int
	switch cmd {
	case "help", "-h", "--help":
		printUsage()
		code = 0
	case "orchestrate":
		code = runOrchestrateCommand(env, rest)
	case "loop":
		code = runLoopCommand(env, rest)
	case "gate":
		code = runGateCommand(env, rest)
	case "persist":
		code = runPersistCommand(env, rest)
	case "doctor":
		code = runDoctorCommand(env, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		printUsage()
		code = 1
	}
	os.Exit(code)
}

// cliEnv bundles the dependencies every subcommand needs. cfg is reloaded
// in place by watchConfig, so reads go through the accessor methods rather
// than touching the field directly.
type cliEnv struct {
	ctx       context.Context
	homeDir   string
	logger    *slog.Logger
	telemetry *obs.Provider

	cfgMu sync.RWMutex
	cfg   aadconfig.Config
}

func (e *cliEnv) config() aadconfig.Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

func (e *cliEnv) dataDir() string       { return e.resolve(e.config().DataDir) }
func (e *cliEnv) escalationDir() string { return e.resolve(e.config().EscalationDir) }
func (e *cliEnv) backupDir() string     { return e.resolve(e.config().BackupDir) }

func (e *cliEnv) resolve(configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(e.homeDir, configured)
}

// watchConfig reloads config.toml in place whenever the watcher reports a
// change, until its channel is closed by context cancellation.
func (e *cliEnv) watchConfig(w *aadconfig.Watcher) {
	for name := range w.Changed() {
		if name != "config.toml" {
			continue
		}
		cfg, err := aadconfig.Load(filepath.Join(e.homeDir, ".aad", "config.toml"))
		if err != nil {
			e.logger.Warn("config watcher: reload failed, keeping previous config", "error", err)
			continue
		}
		e.cfgMu.Lock()
		e.cfg = cfg
		e.cfgMu.Unlock()
		e.logger.Info("config reloaded", "path", "config.toml")
	}
}

func logger(env *cliEnv) *slog.Logger { return env.logger }
