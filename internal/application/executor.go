package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/yaahc/scdoall-rewrite/internal/domain"
	"github.com/yaahc/scdoall-rewrite/internal/ports"
)

// sourceBufferLines bounds the per-session line buffer so one node that is far
// ahead of the merge blocks instead of growing memory without limit.
const sourceBufferLines = 8192

// SourceStream is one node's live output. The channel closes when the session
// reaches its terminal outcome.
type SourceStream struct {
	Node  domain.Node
	Lines <-chan domain.OutputLine
}

// Executor fans one command out to every node concurrently. Sessions are
// independent: no session waits on, observes, or cancels another.
type Executor struct {
	transport ports.Transport
	logger    *slog.Logger
}

func NewExecutor(transport ports.Transport, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Executor{
		transport: transport,
		logger:    logger,
	}
}

// Start dispatches one session per node and returns their output streams in
// node order, plus a wait function that blocks until every session is terminal
// and reports the per-node outcomes. Lines are forwarded as soon as produced;
// nothing waits for all sessions to complete.
func (e *Executor) Start(ctx context.Context, cmd RunCommand) ([]SourceStream, func() []domain.NodeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, nil, err
	}

	runID := uuid.NewString()
	e.logger.Debug("dispatching run",
		"run_id", runID,
		"command", cmd.Remote(),
		"nodes", len(cmd.Nodes),
	)

	streams := make([]SourceStream, len(cmd.Nodes))
	results := make([]domain.NodeResult, len(cmd.Nodes))
	var wg sync.WaitGroup

	for i, node := range cmd.Nodes {
		ch := make(chan domain.OutputLine, sourceBufferLines)
		streams[i] = SourceStream{Node: node, Lines: ch}

		wg.Add(1)
		go func(i int, node domain.Node, ch chan domain.OutputLine) {
			defer wg.Done()
			defer close(ch)

			outcome := e.runSession(ctx, runID, node, cmd, ch)
			results[i] = domain.NodeResult{Node: node.ID(), Outcome: outcome}
		}(i, node, ch)
	}

	wait := func() []domain.NodeResult {
		wg.Wait()
		return results
	}

	return streams, wait, nil
}

// runSession owns one remote execution from connect to terminal outcome. It
// never returns before the session's resources are released.
func (e *Executor) runSession(ctx context.Context, runID string, node domain.Node, cmd RunCommand, ch chan<- domain.OutputLine) domain.Outcome {
	logger := e.logger.With("run_id", runID, "node", node.ID())

	seq := 0
	send := func(text string, header bool) bool {
		line := domain.OutputLine{Node: node.ID(), Seq: seq, Text: text, Header: header}
		seq++
		select {
		case ch <- line:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !cmd.Quiet && !cmd.Merge {
		if !send(cmd.HeaderText(node.ID()), true) {
			return domain.TransportError(ctx.Err())
		}
	}

	sess, err := e.transport.Connect(ctx, node, cmd.timeout())
	if err != nil {
		if errors.Is(err, domain.ErrConnectTimeout) {
			logger.Debug("connect timed out", "timeout", cmd.timeout())
			return domain.ConnectTimeout(err)
		}
		logger.Debug("connect failed", "error", err)
		return domain.TransportError(err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Debug("close session", "error", closeErr)
		}
	}()

	exitCode, err := sess.Run(ctx, cmd.Remote(), func(text string) error {
		if !send(text, false) {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		logger.Debug("session failed", "error", err)
		return domain.TransportError(err)
	}
	if exitCode != 0 {
		logger.Debug("remote command failed", "exit_code", exitCode)
		return domain.RemoteNonZeroExit(exitCode)
	}

	return domain.Success()
}

// Multiplex fans the per-source streams into one channel, interleaving lines
// in arrival order. This is the raw display path; it gives no cross-source
// ordering guarantee.
func Multiplex(streams []SourceStream) <-chan domain.OutputLine {
	out := make(chan domain.OutputLine)

	var wg sync.WaitGroup
	for _, stream := range streams {
		wg.Add(1)
		go func(lines <-chan domain.OutputLine) {
			defer wg.Done()
			for line := range lines {
				out <- line
			}
		}(stream.Lines)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
