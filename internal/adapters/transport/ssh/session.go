package ssh

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

// scanBufferSize caps a single remote line; anything longer fails the scan
// rather than growing without bound.
const scanBufferSize = 1 << 20

type session struct {
	client    *ssh.Client
	node      domain.NodeID
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Run executes command in one exec session and streams stdout and stderr
// lines through emit. Stdout line order is preserved; stderr interleaves at
// line granularity. Context cancellation tears the connection down, which
// unblocks both pipe readers.
func (s *session) Run(ctx context.Context, command string, emit func(line string) error) (int, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return 0, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	stdout, err := sess.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := sess.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := sess.Start(command); err != nil {
		return 0, fmt.Errorf("start remote command: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Debug("cancelling session", "node", s.node)
			_ = sess.Close()
			_ = s.Close()
		case <-done:
		}
	}()

	// Both pipes feed the same emit; serialize so line delivery stays whole.
	var emitMu sync.Mutex
	serialEmit := func(line string) error {
		emitMu.Lock()
		defer emitMu.Unlock()
		return emit(line)
	}

	var wg sync.WaitGroup
	var stderrErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		stderrErr = scanLines(stderr, serialEmit)
	}()

	stdoutErr := scanLines(stdout, serialEmit)
	wg.Wait()

	waitErr := sess.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := errors.Join(stdoutErr, stderrErr); err != nil {
		return 0, fmt.Errorf("read remote output: %w", err)
	}

	var exitErr *ssh.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	if waitErr != nil {
		return 0, fmt.Errorf("wait for remote command: %w", waitErr)
	}

	return 0, nil
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func scanLines(r io.Reader, emit func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)

	for scanner.Scan() {
		if err := emit(scanner.Text()); err != nil {
			return err
		}
	}

	return scanner.Err()
}
