package application

import (
	"errors"
	"strings"
	"time"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

const DefaultConnectTimeout = 5 * time.Second

// RunCommand describes one fan-out invocation: the command to execute, the
// nodes to execute it on, and the display options for the raw path.
type RunCommand struct {
	Nodes          []domain.Node
	Command        []string
	ConnectTimeout time.Duration
	Merge          bool
	Quiet          bool
	Indent         string
}

func (c RunCommand) Validate() error {
	if len(c.Nodes) == 0 {
		return domain.ErrNoNodes
	}
	if len(c.Command) == 0 {
		return errors.New("command is required")
	}
	return nil
}

// Remote returns the command line sent to the remote shell.
func (c RunCommand) Remote() string {
	return strings.Join(c.Command, " ")
}

// HeaderText returns the per-node banner emitted before any command output.
// Newlines are flattened so the banner stays a single line.
func (c RunCommand) HeaderText(node domain.NodeID) string {
	return "Running (" + strings.ReplaceAll(c.Remote(), "\n", "; ") + ") " + string(node)
}

func (c RunCommand) timeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}
