package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	pgmq "github.com/mutablelogic/go-pgmq/pkg/pgmq"
	httphandler "github.com/mutablelogic/go-pgmq/pkg/pgmq/httphandler"
	version "github.com/mutablelogic/go-pgmq/pkg/version"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	otel "go.opentelemetry.io/otel"
	zap "go.uber.org/zap"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	RunServer RunServer `cmd:"" name:"run" help:"Run server." group:"SERVER"`
}

type RunServer struct {
	URL         string `arg:"" name:"url" env:"PG_URL" help:"Database URL" default:""`
	Bootstrap   bool   `name:"bootstrap" negatable:"" help:"Create the pgmq extension if it does not exist" default:"true"`
	MaxPageSize uint64 `name:"max-page-size" help:"Largest page size when reading messages" default:"1000"`
	OTEL        bool   `name:"otel" env:"PGMQ_OTEL" help:"Emit OpenTelemetry spans for queries"`

	// Postgres options
	PG struct {
		// Database options
		User           string        `name:"user" env:"PG_USER" help:"Database user"`
		Password       string        `name:"password" env:"PG_PASSWORD" help:"Database password"`
		Database       string        `name:"database" env:"PG_DATABASE" help:"Database name"`
		SSLMode        string        `name:"sslmode" env:"PG_SSLMODE" help:"SSL mode"`
		Addr           string        `name:"addr" env:"PG_ADDR" help:"Database host or host:port"`
		Schema         []string      `name:"schema" env:"PG_SCHEMA" help:"Schema search path"`
		MaxConns       uint          `name:"max-conns" env:"PG_MAX_CONNS" help:"Maximum number of pooled connections"`
		ConnectTimeout time.Duration `name:"connect-timeout" env:"PG_CONNECT_TIMEOUT" help:"Timeout for opening a connection"`
	} `embed:"" prefix:"pg."`

	// Rate limit options
	RateLimit struct {
		Requests int           `name:"requests" help:"Requests per client in the window, or zero for no limit" default:"0"`
		Window   time.Duration `name:"window" help:"Rate limit window" default:"1m"`
	} `embed:"" prefix:"ratelimit."`

	// TLS server options
	TLS struct {
		ServerName string `name:"name" help:"TLS server name"`
		CertFile   string `name:"cert" help:"TLS certificate file"`
		KeyFile    string `name:"key" help:"TLS key file"`
	} `embed:"" prefix:"tls."`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServer) Run(ctx *Globals) error {
	log, err := ctx.Logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := cmd.poolOpts()
	if cmd.OTEL {
		opts = append(opts, pg.WithTracer(otel.Tracer(version.ExecName())))
	} else if ctx.Debug {
		opts = append(opts, pg.WithTrace(func(ctx context.Context, query string, args any, err error) {
			log.Debug("query", zap.String("sql", query), zap.Any("args", args), zap.Error(err))
		}))
	}

	// Create a pool connection
	conn, err := pg.NewPool(ctx.ctx, opts...)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Ping the database
	if err := conn.Ping(ctx.ctx); err != nil {
		return err
	}

	// Create the manager
	manageropts := []pgmq.Opt{
		pgmq.WithLogger(log),
		pgmq.WithMaxPageSize(cmd.MaxPageSize),
	}
	if cmd.Bootstrap {
		manageropts = append(manageropts, pgmq.WithBootstrap())
	}
	manager, err := pgmq.New(ctx.ctx, conn, manageropts...)
	if err != nil {
		return err
	}

	// Middleware, outermost first
	middleware := httphandler.HTTPMiddlewareFuncs{
		httphandler.LogMiddleware(log),
	}
	if cmd.RateLimit.Requests > 0 {
		middleware = append(middleware, httphandler.RateLimitMiddleware(cmd.RateLimit.Requests, cmd.RateLimit.Window))
	}

	// Register HTTP handlers
	router := http.NewServeMux()
	httphandler.RegisterBackendHandlers(router, ctx.HTTP.Prefix, manager, middleware)
	httphandler.RegisterFrontendHandler(router, "", middleware)

	// Create a TLS config
	var tlsconfig *tls.Config
	if cmd.TLS.CertFile != "" || cmd.TLS.KeyFile != "" {
		tlsconfig, err = httpserver.TLSConfig(cmd.TLS.ServerName, true, cmd.TLS.CertFile, cmd.TLS.KeyFile)
		if err != nil {
			return err
		}
	}

	// Create a HTTP server
	server, err := httpserver.New(ctx.HTTP.Addr, router, tlsconfig)
	if err != nil {
		return err
	}

	// Run the server until cancelled
	log.Info("listening", zap.String("name", version.ExecName()), zap.String("version", version.Version()), zap.String("addr", ctx.HTTP.Addr+ctx.HTTP.Prefix))
	if err := server.Run(ctx.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	// Terminated message
	log.Info("terminated", zap.String("name", version.ExecName()))
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// poolOpts returns the connection pool options from the flags, without
// tracing
func (cmd *RunServer) poolOpts() []pg.Opt {
	opts := []pg.Opt{
		pg.WithURL(cmd.URL),
		pg.WithApplicationName(version.ExecName()),
	}
	if cmd.PG.Addr != "" {
		opts = append(opts, pg.WithAddr(cmd.PG.Addr))
	}
	if cmd.PG.User != "" || cmd.PG.Password != "" {
		opts = append(opts, pg.WithCredentials(cmd.PG.User, cmd.PG.Password))
	}
	if cmd.PG.Database != "" {
		opts = append(opts, pg.WithDatabase(cmd.PG.Database))
	}
	if cmd.PG.SSLMode != "" {
		opts = append(opts, pg.WithSSLMode(cmd.PG.SSLMode))
	}
	if len(cmd.PG.Schema) > 0 {
		opts = append(opts, pg.WithSchemaSearchPath(cmd.PG.Schema...))
	}
	if cmd.PG.MaxConns > 0 {
		opts = append(opts, pg.WithMaxConns(cmd.PG.MaxConns))
	}
	if cmd.PG.ConnectTimeout > 0 {
		opts = append(opts, pg.WithConnectTimeout(cmd.PG.ConnectTimeout))
	}
	return opts
}
