package ports

import (
	"context"
	"time"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

// Transport opens remote shell sessions against cluster nodes.
type Transport interface {
	// Connect establishes a session within timeout. A dial that exceeds the
	// timeout returns an error wrapping domain.ErrConnectTimeout.
	Connect(ctx context.Context, node domain.Node, timeout time.Duration) (Session, error)
}

// Session is one live remote execution against one node.
type Session interface {
	// Run executes command remotely, delivering each output line through emit
	// in the exact order the remote process wrote them, and returns the remote
	// exit code once the process terminates. A non-nil error from emit stops
	// delivery.
	Run(ctx context.Context, command string, emit func(line string) error) (int, error)

	// Close releases the transport connection. Safe to call more than once.
	Close() error
}
