package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/audit"
	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/cmdline"
	"github.com/xdg/consolex/internal/config"
	"github.com/xdg/consolex/internal/daemon"
	"github.com/xdg/consolex/internal/dispatch"
	"github.com/xdg/consolex/internal/executor"
	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/server"
	"github.com/xdg/consolex/internal/term"
)

var (
	serveListen string
	serveDebug  bool
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the consolex daemon",
	Long: `Run the consolex HTTP API in the foreground.

Endpoints:
  GET  /                        liveness check
  POST /run                     {"action": "open"|"shell", "args": [...]}
  GET  /processes               processes started with "open"
  GET  /processes/{id}          one process
  POST /processes/{id}/signal   {"signal": "TERM"}

The daemon blocks until interrupted (SIGINT/SIGTERM), then shuts down
gracefully. Processes started with "open" keep running after shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (overrides server.listen)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "log at debug level")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "config file path (default $XDG_CONFIG_HOME/consolex/config.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func loadServeConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if serveConfig != "" {
		cfg, err = config.LoadFile(serveConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := clog.ParseLevel(cfg.Log.Level)
	if serveDebug {
		level = clog.LevelDebug
	}
	if err := clog.Configure(cfg.Log.File, level, false); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = clog.Close() }()

	if removed, err := daemon.CleanupStale(); err != nil {
		clog.Warn("failed to check daemon state: %v", err)
	} else if removed {
		clog.Info("removed stale daemon state")
	}
	if state, _ := daemon.LoadState(); daemon.IsRunning(state) {
		return fmt.Errorf("consolex is already running (PID %d, %s)", state.PID, state.Addr)
	}

	var auditLogger *audit.Logger
	if cfg.Audit.Enabled() {
		auditLogger, err = audit.OpenFile(cfg.Audit.File)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer func() { _ = auditLogger.Close() }()
	}

	registry := newRegistry(cfg.Processes, auditLogger)
	dispatcher := dispatch.New(executor.NewRealExecutor(), registry, auditLogger)

	srv := server.New(cfg.Server.Listen, dispatcher, registry, auditLogger)
	srv.ReadHeaderTimeout = cfg.Server.ReadHeaderTimeoutDuration()
	if err := srv.Start(); err != nil {
		return err
	}

	addr := srv.ListenAddr()
	if err := daemon.SaveState(&daemon.State{PID: os.Getpid(), Addr: addr, StartedAt: time.Now()}); err != nil {
		clog.Warn("failed to write daemon state: %v", err)
	}
	defer func() { _ = daemon.RemoveState() }()

	term.Printf("consolex listening on http://%s\n", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	signal.Stop(sigChan)

	clog.Info("received %v, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	if n := registry.Running(); n > 0 {
		clog.Info("%d detached process(es) left running", n)
	}
	clog.Debug("server stopped")
	return nil
}

// newRegistry builds the process registry for open children. With tracking
// disabled children are still reaped, just not listed.
func newRegistry(pc config.ProcessesConfig, auditLogger *audit.Logger) *procreg.Registry {
	opts := []procreg.Option{
		procreg.WithRetainExited(pc.RetainExited),
		procreg.WithOnExit(func(info procreg.Info, runtime time.Duration) {
			code := -1
			if info.ExitCode != nil {
				code = *info.ExitCode
			}
			cmdLine := cmdline.Format(info.Args)
			clog.Info("process pid %d %s exited %d after %s", info.PID, cmdLine, code, runtime.Round(time.Millisecond))
			_ = auditLogger.LogExit(cmdLine, info.ID, info.PID, code, runtime)
		}),
	}
	if !pc.TrackingEnabled() {
		opts = append(opts, procreg.Unlisted())
	}
	return procreg.New(opts...)
}
