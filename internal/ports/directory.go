package ports

import (
	"context"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

// NodeDirectory resolves cluster membership from the node inventory.
type NodeDirectory interface {
	// Resolve returns the nodes belonging to cluster, or every node when
	// cluster is empty. Returns domain.ErrNoNodes when nothing matches.
	Resolve(ctx context.Context, cluster string) ([]domain.Node, error)
	List(ctx context.Context) ([]domain.Node, error)
	Add(ctx context.Context, node domain.Node) error
	Remove(ctx context.Context, name string) error
}
