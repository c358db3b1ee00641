package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/app"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/validation"
	"github.com/tair/storefront/pkg/logger"
	"github.com/tair/storefront/pkg/tracing"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{ctx: ctx, out: os.Stdout}
	defer c.close()

	registry := NewCommandRegistry(VersionInfo{Version: version, Commit: commit, Date: date})
	registerCommands(registry, c)

	root := flag.NewFlagSet("storefront", flag.ContinueOnError)
	root.StringVar(&c.configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "Path to a config file")
	root.Usage = func() { registry.PrintHelp(os.Stderr) }
	if err := root.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	err := registry.Execute(root.Args())
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", describe(err))
	c.close()
	os.Exit(1)
}

func registerCommands(r *CommandRegistry, c *cli) {
	registerAccountCommands(r, c)
	registerCatalogCommands(r, c)
	registerCartCommands(r, c)
	registerOrderCommands(r, c)
	registerEventCommands(r, c)
}

// cli is the state shared by every command. The storefront is wired on
// first use so help and flag errors never touch storage or the network.
type cli struct {
	configPath string
	ctx        context.Context
	out        io.Writer

	cfg     *config.Config
	sf      *app.Storefront
	tp      trace.TracerProvider
	cleanup func()
}

func (c *cli) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	// Logs go to stderr so command output stays pipeable.
	logger.InitWithWriter(cfg.Telemetry.ServiceName, cfg.App.IsDevelopment(), os.Stderr)
	logger.SetLevel(cfg.Log.Level)

	tp, err := tracing.InitTracer(cfg.Telemetry)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		c.tp = tp
	}

	c.cfg = cfg
	return cfg, nil
}

// storefront wires the client and restores the saved session
func (c *cli) storefront() (*app.Storefront, error) {
	if c.sf != nil {
		return c.sf, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	sf, cleanup, err := app.InitializeStorefront(cfg, prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storefront: %w", err)
	}
	if err := sf.Start(c.ctx); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	c.sf = sf
	c.cleanup = cleanup
	return sf, nil
}

func (c *cli) close() {
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
	if c.tp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, c.tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
		c.tp = nil
	}
}

func (c *cli) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// describe turns an error into the reason shown to the user
func describe(err error) string {
	if f, ok := api.AsFailure(err); ok {
		return f.Reason
	}
	var ve *validation.Error
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Fields))
		for _, fe := range ve.Fields {
			parts = append(parts, fmt.Sprintf("%s %s", fe.Field, fe.Message))
		}
		return strings.Join(parts, ", ")
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		return "not signed in, run 'storefront login' first"
	}
	if api.IsTransport(err) {
		return fmt.Sprintf("backend unreachable: %v", err)
	}
	return err.Error()
}
