package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"

	// Packages
	kong "github.com/alecthomas/kong"
	godotenv "github.com/joho/godotenv"
	client "github.com/mutablelogic/go-client"
	httpclient "github.com/mutablelogic/go-pgmq/pkg/pgmq/httpclient"
	version "github.com/mutablelogic/go-pgmq/pkg/version"
	otel "go.opentelemetry.io/otel"
	codes "go.opentelemetry.io/otel/codes"
	zap "go.uber.org/zap"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	// Debug option
	Debug   bool             `name:"debug" env:"PGMQ_DEBUG" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Print version and exit"`

	// HTTP server options
	HTTP struct {
		Prefix   string `name:"prefix" env:"PGMQ_PREFIX" help:"HTTP path prefix" default:"/api/v1"`
		Addr     string `name:"addr" env:"PGMQ_ADDR" help:"HTTP Listen address" default:":8080"`
		Endpoint string `name:"endpoint" env:"PGMQ_ENDPOINT" help:"Server endpoint for client commands, overrides the listen address and prefix"`
	} `embed:"" prefix:"http."`

	// Private fields
	ctx    context.Context
	cancel context.CancelFunc
}

type CLI struct {
	Globals
	QueueCommands
	MessageCommands
	ServerCommands
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	// Environment from .env, when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	cli := new(CLI)
	ctx := kong.Parse(cli,
		kong.Name("pgmqadmin"),
		kong.Description("pgmq administration server and command line interface"),
		kong.Vars{
			"version": VersionJSON(),
		},
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// Create the context and cancel function
	cli.Globals.ctx, cli.Globals.cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	defer cli.Globals.cancel()

	// Call the Run() method of the selected parsed command.
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (g *Globals) Client() (*httpclient.Client, error) {
	endpoint, err := g.endpoint()
	if err != nil {
		return nil, err
	}

	// Client options
	opts := []client.ClientOpt{}
	if g.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, true))
	}

	// Create a client with the calculated endpoint
	return httpclient.New(endpoint, opts...)
}

// Logger returns a development logger in debug mode, or a production logger
func (g *Globals) Logger() (*zap.Logger, error) {
	if g.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// StartSpan starts a span for a command, and returns a function which ends
// the span with the error from the command
func (g *Globals) StartSpan(name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(version.ExecName()).Start(g.ctx, name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (g *Globals) endpoint() (string, error) {
	if g.HTTP.Endpoint != "" {
		return g.HTTP.Endpoint, nil
	}

	scheme := "http"
	host, port, err := net.SplitHostPort(g.HTTP.Addr)
	if err != nil {
		return "", err
	}

	// Default host to localhost if empty (e.g., ":8080")
	if host == "" {
		host = "localhost"
	}

	// Parse port
	portn, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return "", err
	}
	if portn == 443 {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s:%v%s", scheme, host, portn, g.HTTP.Prefix), nil
}
