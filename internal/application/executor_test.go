package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaahc/scdoall-rewrite/internal/domain"
	"github.com/yaahc/scdoall-rewrite/internal/ports"
)

type fakeScript struct {
	connectErr error
	runErr     error
	exitCode   int
	lines      []string
	block      bool
}

type fakeTransport struct {
	mu      sync.Mutex
	scripts map[domain.NodeID]fakeScript
	closed  map[domain.NodeID]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		scripts: map[domain.NodeID]fakeScript{},
		closed:  map[domain.NodeID]int{},
	}
}

func (t *fakeTransport) script(node string, s fakeScript) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripts[domain.NodeID(node)] = s
}

func (t *fakeTransport) Connect(_ context.Context, node domain.Node, _ time.Duration) (ports.Session, error) {
	t.mu.Lock()
	script, ok := t.scripts[node.ID()]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no script for node %s", node.ID())
	}
	if script.connectErr != nil {
		return nil, script.connectErr
	}

	return &fakeSession{transport: t, node: node.ID(), script: script}, nil
}

type fakeSession struct {
	transport *fakeTransport
	node      domain.NodeID
	script    fakeScript
}

func (s *fakeSession) Run(ctx context.Context, _ string, emit func(line string) error) (int, error) {
	for _, line := range s.script.lines {
		if err := emit(line); err != nil {
			return 0, err
		}
	}
	if s.script.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if s.script.runErr != nil {
		return 0, s.script.runErr
	}
	return s.script.exitCode, nil
}

func (s *fakeSession) Close() error {
	s.transport.mu.Lock()
	defer s.transport.mu.Unlock()
	s.transport.closed[s.node]++
	return nil
}

func nodes(names ...string) []domain.Node {
	out := make([]domain.Node, 0, len(names))
	for _, name := range names {
		out = append(out, domain.Node{Name: name, Host: name})
	}
	return out
}

func drain(streams []SourceStream) map[domain.NodeID][]domain.OutputLine {
	got := map[domain.NodeID][]domain.OutputLine{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, stream := range streams {
		wg.Add(1)
		go func(stream SourceStream) {
			defer wg.Done()
			for line := range stream.Lines {
				mu.Lock()
				got[line.Node] = append(got[line.Node], line)
				mu.Unlock()
			}
		}(stream)
	}
	wg.Wait()
	return got
}

func TestStartRejectsEmptyNodeSet(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(newFakeTransport(), nil)
	_, _, err := executor.Start(context.Background(), RunCommand{Command: []string{"uptime"}})
	assert.ErrorIs(t, err, domain.ErrNoNodes)
}

func TestStartRejectsEmptyCommand(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(newFakeTransport(), nil)
	_, _, err := executor.Start(context.Background(), RunCommand{Nodes: nodes("a")})
	assert.ErrorContains(t, err, "command is required")
}

func TestRunEmitsHeaderBeforeOutput(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"one", "two"}})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a"),
		Command: []string{"tail", "-f", "log"},
	})
	require.NoError(t, err)

	lines := drain(streams)[domain.NodeID("a")]
	require.Len(t, lines, 3)
	assert.True(t, lines[0].Header)
	assert.Equal(t, "Running (tail -f log) a", lines[0].Text)
	assert.Equal(t, "one", lines[1].Text)
	assert.Equal(t, "two", lines[2].Text)

	results := wait()
	require.Len(t, results, 1)
	assert.Equal(t, domain.OutcomeSuccess, results[0].Outcome.Kind)
}

func TestRunQuietSuppressesHeader(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"one"}})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a"),
		Command: []string{"uptime"},
		Quiet:   true,
	})
	require.NoError(t, err)

	lines := drain(streams)[domain.NodeID("a")]
	require.Len(t, lines, 1)
	assert.False(t, lines[0].Header)
	wait()
}

func TestRunMergeModeNeverEmitsHeaders(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"2024-01-01 00:00:01 hello"}})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a"),
		Command: []string{"uptime"},
		Merge:   true,
	})
	require.NoError(t, err)

	for _, line := range drain(streams)[domain.NodeID("a")] {
		assert.False(t, line.Header)
	}
	wait()
}

func TestRunFailureIsolation(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"a ok"}})
	transport.script("b", fakeScript{connectErr: fmt.Errorf("dial b:22: %w", domain.ErrConnectTimeout)})
	transport.script("c", fakeScript{lines: []string{"c ok"}})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a", "b", "c"),
		Command: []string{"uptime"},
		Quiet:   true,
	})
	require.NoError(t, err)

	lines := drain(streams)
	assert.Len(t, lines[domain.NodeID("a")], 1)
	assert.Empty(t, lines[domain.NodeID("b")])
	assert.Len(t, lines[domain.NodeID("c")], 1)

	results := wait()
	require.Len(t, results, 3)

	byNode := map[domain.NodeID]domain.Outcome{}
	for _, result := range results {
		byNode[result.Node] = result.Outcome
	}
	assert.Equal(t, domain.OutcomeSuccess, byNode["a"].Kind)
	assert.Equal(t, domain.OutcomeConnectTimeout, byNode["b"].Kind)
	assert.Equal(t, domain.OutcomeSuccess, byNode["c"].Kind)
}

func TestRunDeliversPartialOutputFromFailedNode(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"partial"}, runErr: errors.New("connection reset")})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a"),
		Command: []string{"uptime"},
		Quiet:   true,
	})
	require.NoError(t, err)

	lines := drain(streams)[domain.NodeID("a")]
	require.Len(t, lines, 1)
	assert.Equal(t, "partial", lines[0].Text)

	results := wait()
	assert.Equal(t, domain.OutcomeTransportError, results[0].Outcome.Kind)
	assert.ErrorContains(t, results[0].Outcome.Err, "connection reset")
}

func TestRunNonZeroExitSurfacesCode(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{exitCode: 2})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a"),
		Command: []string{"false"},
		Quiet:   true,
	})
	require.NoError(t, err)

	drain(streams)
	results := wait()
	assert.Equal(t, domain.OutcomeRemoteNonZeroExit, results[0].Outcome.Kind)
	assert.Equal(t, 2, results[0].Outcome.ExitCode)
}

func TestRunReleasesSessionsOnAllPaths(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"ok"}})
	transport.script("b", fakeScript{exitCode: 1})
	transport.script("c", fakeScript{runErr: errors.New("broken pipe")})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a", "b", "c"),
		Command: []string{"uptime"},
		Quiet:   true,
	})
	require.NoError(t, err)

	drain(streams)
	wait()

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Equal(t, 1, transport.closed["a"])
	assert.Equal(t, 1, transport.closed["b"])
	assert.Equal(t, 1, transport.closed["c"])
}

func TestRunCancellationStopsBlockedSessions(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"before cancel"}, block: true})

	ctx, cancel := context.WithCancel(context.Background())
	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(ctx, RunCommand{
		Nodes:   nodes("a"),
		Command: []string{"tail", "-f", "log"},
		Quiet:   true,
	})
	require.NoError(t, err)

	first := <-streams[0].Lines
	assert.Equal(t, "before cancel", first.Text)

	cancel()

	results := wait()
	assert.Equal(t, domain.OutcomeTransportError, results[0].Outcome.Kind)

	_, open := <-streams[0].Lines
	assert.False(t, open)
}

func TestMultiplexInterleavesAndCloses(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	transport.script("a", fakeScript{lines: []string{"a1", "a2"}})
	transport.script("b", fakeScript{lines: []string{"b1"}})

	executor := NewExecutor(transport, nil)
	streams, wait, err := executor.Start(context.Background(), RunCommand{
		Nodes:   nodes("a", "b"),
		Command: []string{"uptime"},
		Quiet:   true,
	})
	require.NoError(t, err)

	perNode := map[domain.NodeID][]string{}
	for line := range Multiplex(streams) {
		perNode[line.Node] = append(perNode[line.Node], line.Text)
	}

	assert.Equal(t, []string{"a1", "a2"}, perNode["a"])
	assert.Equal(t, []string{"b1"}, perNode["b"])
	wait()
}
