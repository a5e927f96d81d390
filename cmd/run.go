package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaahc/scdoall-rewrite/internal/adapters/render/stream"
	"github.com/yaahc/scdoall-rewrite/internal/application"
	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

const defaultIndent = "        "

func newRunCmd(app *app) *cobra.Command {
	var (
		cluster     string
		nodeFlags   []string
		timeoutSecs int
		merge       bool
		quiet       bool
		noIndent    bool
		indent      string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command on every node and stream the output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			nodes, err := app.directory.Resolve(ctx, cluster)
			if err != nil {
				if !errors.Is(err, domain.ErrNoNodes) || len(nodeFlags) == 0 {
					return fmt.Errorf("resolve nodes: %w", err)
				}
				nodes = nil
			}
			for _, raw := range nodeFlags {
				node, parseErr := parseNodeFlag(raw)
				if parseErr != nil {
					return parseErr
				}
				nodes = append(nodes, node)
			}

			if noIndent {
				indent = ""
			}

			runCmd := application.RunCommand{
				Nodes:          nodes,
				Command:        args,
				ConnectTimeout: time.Duration(timeoutSecs) * time.Second,
				Merge:          merge,
				Quiet:          quiet,
				Indent:         indent,
			}

			executor := application.NewExecutor(app.transport, app.logger)
			streams, wait, err := executor.Start(ctx, runCmd)
			if err != nil {
				return err
			}

			if merge {
				records := application.NewCollator(app.logger).Collate(streams)
				if err := stream.WriteMerged(cmd.OutOrStdout(), records); err != nil {
					return err
				}
			} else {
				lines := application.Multiplex(streams)
				if err := stream.WriteRaw(cmd.OutOrStdout(), lines, runCmd.Indent); err != nil {
					return err
				}
			}

			results := wait()
			failed, err := stream.WriteSummary(cmd.ErrOrStderr(), results)
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d nodes failed", failed, len(results))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&cluster, "cluster", "", "Cluster to run on (default: every inventory node)")
	cmd.Flags().StringArrayVar(&nodeFlags, "node", nil, "Extra node as [user@]host[:port] (repeatable)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 5, "SSH connect timeout in seconds")
	cmd.Flags().BoolVarP(&merge, "merge", "m", false, "Collate output into a single time-ordered stream")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Don't display a banner for each node")
	cmd.Flags().BoolVar(&noIndent, "no-indent", false, "Don't indent output")
	cmd.Flags().StringVar(&indent, "indent", defaultIndent, "Indentation prefix for each output line")

	return cmd
}

func parseNodeFlag(value string) (domain.Node, error) {
	rest := value
	var user string
	if at := strings.Index(rest, "@"); at >= 0 {
		user, rest = rest[:at], rest[at+1:]
	}

	host := rest
	port := 0
	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		parsed, err := strconv.Atoi(rest[colon+1:])
		if err != nil {
			return domain.Node{}, fmt.Errorf("invalid node %q: bad port", value)
		}
		host, port = rest[:colon], parsed
	}

	node := domain.Node{Host: host, Port: port, User: user}
	if err := node.Validate(); err != nil {
		return domain.Node{}, fmt.Errorf("invalid node %q: %w", value, err)
	}

	return node, nil
}
