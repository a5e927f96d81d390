package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

func newNodesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Manage the node inventory",
	}

	cmd.AddCommand(
		newNodesListCmd(app),
		newNodesAddCmd(app),
		newNodesRemoveCmd(app),
	)

	return cmd
}

func newNodesListCmd(app *app) *cobra.Command {
	var cluster string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nodes, err := app.directory.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list nodes: %w", err)
			}

			filtered := nodes[:0]
			for _, node := range nodes {
				if cluster != "" && node.Cluster != cluster {
					continue
				}
				filtered = append(filtered, node)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			if len(filtered) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no nodes in inventory")
				return err
			}

			for _, node := range filtered {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-25s %s\n", node.ID(), node.Addr(), node.Cluster); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&cluster, "cluster", "", "Only show nodes in this cluster")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newNodesAddCmd(app *app) *cobra.Command {
	var node domain.Node

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a node to the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.directory.Add(cmd.Context(), node); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", node.ID(), node.Addr())
			return err
		},
	}

	cmd.Flags().StringVar(&node.Name, "name", "", "Node name used to attribute output")
	cmd.Flags().StringVar(&node.Host, "host", "", "Node host or IP address")
	cmd.Flags().IntVar(&node.Port, "port", 0, "SSH port (default 22)")
	cmd.Flags().StringVar(&node.User, "user", "", "SSH user override for this node")
	cmd.Flags().StringVar(&node.Cluster, "cluster", "", "Cluster the node belongs to")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func newNodesRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a node from the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.directory.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return err
		},
	}
}
