package domain

import (
	"errors"
	"fmt"
	"strconv"
)

const DefaultSSHPort = 22

type NodeID string

// Node is one member of the target cluster. Immutable once resolved.
type Node struct {
	Name    string
	Host    string
	Port    int
	User    string
	Cluster string
}

// ID returns the display identifier used to attribute output lines, falling
// back to the host when no name was configured.
func (n Node) ID() NodeID {
	if n.Name != "" {
		return NodeID(n.Name)
	}
	return NodeID(n.Host)
}

// Addr returns the dialable "host:port" address.
func (n Node) Addr() string {
	port := n.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return n.Host + ":" + strconv.Itoa(port)
}

func (n Node) Validate() error {
	if n.Host == "" {
		return errors.New("host is required")
	}
	if n.Port < 0 || n.Port > 65535 {
		return fmt.Errorf("invalid port %d", n.Port)
	}
	return nil
}
