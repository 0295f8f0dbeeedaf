package test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conn is a connection pool shared by the tests in a package
type Conn struct {
	pg.PoolConn
	err error
}

// TestConn is a connection for a single test. Closing it does not close
// the shared pool.
type TestConn struct {
	pg.PoolConn
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Main starts a container, runs the tests in the package and then
// terminates the container. When the container cannot be started, tests
// which call Begin are skipped.
func Main(m *testing.M, conn *Conn) {
	flag.Parse()
	ctx := context.Background()

	// Trace queries in verbose mode
	var tracer pg.TraceFn
	if testing.Verbose() {
		tracer = func(ctx context.Context, sql string, args any, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %v\n  %s\n", err, sql)
			} else {
				fmt.Fprintf(os.Stderr, "%s\n", sql)
			}
		}
	}

	container, pool, err := NewPgxContainer(ctx, "pgmq", tracer)
	if err != nil {
		conn.err = err
		fmt.Fprintln(os.Stderr, "container not started:", err)
	} else {
		conn.PoolConn = pool
	}

	// Run the tests
	code := m.Run()

	// Release resources
	if pool != nil {
		pool.Close()
	}
	if err := container.Close(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Begin returns the connection for a test, or skips the test when there
// is no database
func (c *Conn) Begin(t *testing.T) *TestConn {
	t.Helper()
	if c.PoolConn == nil {
		t.Skip("no database:", c.err)
	}
	return &TestConn{c.PoolConn}
}

// Close does nothing, the pool is closed when the tests have finished
func (c *TestConn) Close() {}
