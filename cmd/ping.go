package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

type pingResult struct {
	node    domain.Node
	elapsed time.Duration
	err     error
}

func newPingCmd(app *app) *cobra.Command {
	var cluster string
	var timeoutSecs int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check SSH reachability of every node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			timeout := time.Duration(timeoutSecs) * time.Second

			nodes, err := app.directory.Resolve(ctx, cluster)
			if err != nil {
				return fmt.Errorf("resolve nodes: %w", err)
			}

			results := make([]pingResult, len(nodes))
			dial := func() {
				var wg sync.WaitGroup
				for i, node := range nodes {
					wg.Add(1)
					go func(i int, node domain.Node) {
						defer wg.Done()
						start := time.Now()
						sess, dialErr := app.transport.Connect(ctx, node, timeout)
						if dialErr == nil {
							_ = sess.Close()
						}
						results[i] = pingResult{node: node, elapsed: time.Since(start), err: dialErr}
					}(i, node)
				}
				wg.Wait()
			}

			if err := runPingSpinner(ctx, cmd.ErrOrStderr(), len(nodes), dial); err != nil {
				return err
			}

			failed := 0
			for _, result := range results {
				if result.err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s unreachable: %v\n", result.node.ID(), result.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s ok (%s)\n", result.node.ID(), result.elapsed.Round(time.Millisecond))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d nodes unreachable", failed, len(nodes))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&cluster, "cluster", "", "Cluster to ping (default: every inventory node)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 5, "SSH connect timeout in seconds")

	return cmd
}
