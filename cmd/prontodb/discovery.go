package main

import (
	"encoding/json"
	"fmt"

	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects visible in the current meta context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		projects, err := eng.ListProjects(cmd.Context(), scope)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			return &perr.Miss{What: "projects"}
		}
		return printList(cmd, projects)
	},
}

var namespacesCmd = &cobra.Command{
	Use:   "namespaces <project>",
	Short: "List namespaces under a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		namespaces, err := eng.ListNamespaces(cmd.Context(), scope, args[0])
		if err != nil {
			return err
		}
		if len(namespaces) == 0 {
			return &perr.Miss{What: args[0]}
		}
		return printList(cmd, namespaces)
	},
}

var createTTLNamespaceCmd = &cobra.Command{
	Use:   "create-ttl-ns <project.namespace> <seconds>",
	Short: "Create (or validate) a namespace with a default TTL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, namespace, err := splitProjectNamespace(args[0])
		if err != nil {
			return err
		}
		var seconds int
		if _, err := fmt.Sscanf(args[1], "%d", &seconds); err != nil {
			return &perr.InvalidIdentifier{Field: "seconds", Reason: "must be an integer"}
		}
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		if err := eng.CreateTTLNamespace(cmd.Context(), scope, project, namespace, seconds); err != nil {
			return err
		}
		return printOK(cmd, map[string]string{"address": args[0], "status": "ttl namespace created"})
	},
}

func printList(cmd *cobra.Command, items []string) error {
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return enc.Encode(items)
	}
	for _, item := range items {
		fmt.Fprintln(cmd.OutOrStdout(), item)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(projectsCmd, namespacesCmd, createTTLNamespaceCmd)
}
