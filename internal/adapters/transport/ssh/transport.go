// Package ssh implements the transport port on top of golang.org/x/crypto/ssh.
//
// The connect timeout is enforced at the TCP dial and again across the SSH
// handshake, so a node that accepts the connection but never completes key
// exchange still fails within the configured bound.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
	"github.com/yaahc/scdoall-rewrite/internal/ports"
)

// Config carries the cluster-wide SSH credentials. Key auth is tried first,
// password second. Per-node users override Config.User.
type Config struct {
	User          string
	KeyPath       string
	KeyPassphrase string
	Password      string
}

type Transport struct {
	config Config
	logger *slog.Logger
}

var _ ports.Transport = (*Transport)(nil)

func NewTransport(config Config, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Transport{
		config: config,
		logger: logger,
	}
}

func (t *Transport) Connect(ctx context.Context, node domain.Node, timeout time.Duration) (ports.Session, error) {
	clientConfig, err := t.clientConfig(node, timeout)
	if err != nil {
		return nil, err
	}

	addr := node.Addr()
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("dial %s: %w", addr, domain.ErrConnectTimeout)
		}
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	// Bound the handshake by the same timeout, then clear the deadline so it
	// does not interrupt the long-lived command stream.
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set handshake deadline for %s: %w", addr, err)
		}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		if isTimeout(err) {
			return nil, fmt.Errorf("ssh handshake with %s: %w", addr, domain.ErrConnectTimeout)
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = sshConn.Close()
		return nil, fmt.Errorf("clear handshake deadline for %s: %w", addr, err)
	}

	t.logger.Debug("connected", "node", node.ID(), "addr", addr)

	return &session{
		client: ssh.NewClient(sshConn, chans, reqs),
		node:   node.ID(),
		logger: t.logger,
	}, nil
}

func (t *Transport) clientConfig(node domain.Node, timeout time.Duration) (*ssh.ClientConfig, error) {
	user := node.User
	if user == "" {
		user = t.config.User
	}
	if user == "" {
		return nil, errors.New("no ssh user configured")
	}

	auth, err := t.authMethods()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User: user,
		Auth: auth,
		// Operator tool semantics, equivalent to StrictHostKeyChecking=no.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}, nil
}

func (t *Transport) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if t.config.KeyPath != "" {
		signer, err := loadPrivateKeyFromFile(t.config.KeyPath, t.config.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("load private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if t.config.Password != "" {
		methods = append(methods, ssh.Password(t.config.Password))
	}

	if len(methods) == 0 {
		return nil, errors.New("no authentication method configured (set ssh.key_path or ssh.password)")
	}

	return methods, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
