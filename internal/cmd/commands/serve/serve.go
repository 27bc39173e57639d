package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/hashicorp-forge/notion-relay/internal/api"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
	"github.com/hashicorp-forge/notion-relay/internal/config"
	"github.com/hashicorp-forge/notion-relay/internal/server"
	"github.com/hashicorp-forge/notion-relay/internal/version"
)

// schemaCheckTimeout bounds the startup schema check.
const schemaCheckTimeout = 30 * time.Second

type Command struct {
	*base.Command

	configFlags base.ConfigFlags
	flagDev     bool

	// ShutdownCh stops the server when closed. Signals are used when nil.
	ShutdownCh <-chan struct{}

	// Listening receives the bound address once the server accepts
	// connections.
	Listening chan<- string
}

func (c *Command) Synopsis() string {
	return "Run the HTTP server"
}

func (c *Command) Help() string {
	return `Usage: notion-relay serve [options]

  Run the HTTP server that turns task commands into Notion database calls.

  With -dev, tasks are kept in memory and no Notion credentials are
  needed.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	c.configFlags.Register(f)
	f.BoolVar(
		&c.flagDev, "dev", false,
		"Keep tasks in memory instead of using Notion",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(c.configFlags, c.flagDev)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	log := c.Logger(cfg)

	svc, _, err := c.TaskService(cfg, log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	if cfg.SchemaValidationEnabled() {
		ctx, cancel := context.WithTimeout(c.Context, schemaCheckTimeout)
		err := svc.ValidateSchema(ctx)
		cancel()
		if err != nil {
			c.UI.Error(fmt.Sprintf("error validating task database: %v", err))
			return 1
		}
		log.Info("task database schema validated", "database_id", svc.DatabaseID())
	}

	srv := server.Server{
		Config: cfg,
		Tasks:  svc,
		Logger: log.Named("http"),
	}
	handler := api.NewHandler(srv)

	if cfg.Datadog.Enabled {
		opts := []tracer.StartOption{
			tracer.WithService(cfg.Datadog.Service),
			tracer.WithServiceVersion(version.Version),
		}
		if cfg.Datadog.Env != "" {
			opts = append(opts, tracer.WithEnv(cfg.Datadog.Env))
		}
		tracer.Start(opts...)
		defer tracer.Stop()

		handler = httptrace.WrapHandler(handler, cfg.Datadog.Service, "http.request")
		log.Info("datadog tracing enabled", "service", cfg.Datadog.Service)
	}

	return c.serve(cfg, handler)
}

// serve runs the HTTP server until a shutdown signal and then drains
// in-flight requests.
func (c *Command) serve(cfg *config.Config, handler http.Handler) int {
	log := c.Log

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listening on %s: %v", cfg.ListenAddr, err))
		return 1
	}

	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	addr := ln.Addr().String()
	log.Info("listening", "addr", addr, "version", version.Version)
	if c.Listening != nil {
		c.Listening <- addr
	}

	shutdownCh := c.ShutdownCh
	if shutdownCh == nil {
		shutdownCh = signalCh()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			c.UI.Error(fmt.Sprintf("error serving: %v", err))
			return 1
		}
		return 0
	case <-shutdownCh:
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		c.UI.Error(fmt.Sprintf("error shutting down server: %v", err))
		return 1
	}

	log.Info("server stopped")
	return 0
}

// signalCh is closed on the first SIGINT or SIGTERM.
func signalCh() <-chan struct{} {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		<-sigCh
		signal.Stop(sigCh)
		close(done)
	}()
	return done
}
