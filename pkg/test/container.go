package test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	testcontainers "github.com/testcontainers/testcontainers-go"
	postgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	wait "github.com/testcontainers/testcontainers-go/wait"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Container is a PostgreSQL container with the pgmq extension available
type Container struct {
	*postgres.PostgresContainer
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	pgmqContainer = "ghcr.io/pgmq/pg18-pgmq:v1.7.0"
	pgmqUser      = "postgres"
	pgmqPassword  = "password"
	startTimeout  = 2 * time.Minute

	// Use an existing database instead of starting a container
	envDatabaseUrl = "TEST_DB_URL"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPgxContainer creates a new PostgreSQL container with the pgmq
// extension and returns a connection pool to it. When the TEST_DB_URL
// environment variable is set, no container is started and the returned
// container is nil.
func NewPgxContainer(ctx context.Context, name string, tracer pg.TraceFn) (*Container, pg.PoolConn, error) {
	if url := os.Getenv(envDatabaseUrl); url != "" {
		pool, err := newPool(ctx, tracer, pg.WithURL(url))
		return nil, pool, err
	}

	// Check for a docker daemon
	if err := dockerPing(ctx); err != nil {
		return nil, nil, err
	}

	// Start the container
	var container *postgres.PostgresContainer
	if err := recoverErr(func() (err error) {
		container, err = postgres.RunContainer(ctx,
			testcontainers.WithImage(pgmqContainer),
			postgres.WithDatabase(name),
			postgres.WithUsername(pgmqUser),
			postgres.WithPassword(pgmqPassword),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(startTimeout),
			),
		)
		return err
	}); err != nil {
		return nil, nil, err
	}

	// Create a connection pool
	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, errors.Join(err, container.Terminate(ctx))
	}
	pool, err := newPool(ctx, tracer, pg.WithURL(url))
	if err != nil {
		return nil, nil, errors.Join(err, container.Terminate(ctx))
	}

	// Return success
	return &Container{container}, pool, nil
}

// Close terminates the container
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Terminate(ctx)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// dockerPing returns an error when there is no docker daemon to reach.
// The client panics when no docker host can be found.
func dockerPing(ctx context.Context) error {
	return recoverErr(func() error {
		client, err := testcontainers.NewDockerClientWithOpts(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		_, err = client.Ping(ctx)
		return err
	})
}

// recoverErr calls fn and returns a panic in fn as an error
func recoverErr(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker: %v", r)
		}
	}()
	return fn()
}

func newPool(ctx context.Context, tracer pg.TraceFn, opts ...pg.Opt) (pg.PoolConn, error) {
	opts = append(opts, pg.WithApplicationName("pgmq-test"))
	if tracer != nil {
		opts = append(opts, pg.WithTrace(tracer))
	}
	pool, err := pg.NewPool(ctx, opts...)
	if err != nil {
		return nil, err
	} else if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
