package main

import (
	"encoding/json"
	"fmt"

	"github.com/prontodb/prontodb/internal/cursor"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Manage per-user cursor sessions binding a name to a database and meta context",
}

var (
	cursorSetProject   string
	cursorSetNamespace string
	cursorBindMeta     string
)

var cursorSetCmd = &cobra.Command{
	Use:   "set <name> <database-path>",
	Short: "Create or replace a cursor for the current user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cursor.New(defaultCursorsDir)
		opts := cursor.SetOptions{
			DefaultProject:   cursorSetProject,
			DefaultNamespace: cursorSetNamespace,
			MetaContext:      cursorBindMeta,
		}
		if err := store.Set(args[0], flagUser, args[1], opts); err != nil {
			return err
		}
		return printOK(cmd, map[string]string{"address": args[0], "status": "cursor set"})
	},
}

var cursorGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a cursor's resolved database and meta context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cursor.New(defaultCursorsDir)
		rec, ok, err := store.Get(args[0], flagUser)
		if err != nil {
			return err
		}
		if !ok {
			return &perr.CursorNotFound{Name: args[0], User: flagUser}
		}
		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database_path: %s\n", rec.DatabasePath)
		fmt.Fprintf(cmd.OutOrStdout(), "meta_context: %s\n", rec.MetaContext)
		fmt.Fprintf(cmd.OutOrStdout(), "default_project: %s\n", rec.DefaultProject)
		fmt.Fprintf(cmd.OutOrStdout(), "default_namespace: %s\n", rec.DefaultNamespace)
		return nil
	},
}

var cursorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cursors owned by the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cursor.New(defaultCursorsDir)
		recs, err := store.List(flagUser, "")
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return &perr.Miss{What: "cursors"}
		}
		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(recs)
		}
		for _, rec := range recs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", rec.Name, rec.DatabasePath)
		}
		return nil
	},
}

var cursorDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a cursor owned by the current user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cursor.New(defaultCursorsDir)
		existed, err := store.Delete(args[0], flagUser)
		if err != nil {
			return err
		}
		if !existed {
			return &perr.Miss{What: args[0]}
		}
		return printOK(cmd, map[string]string{"address": args[0], "status": "cursor deleted"})
	},
}

func init() {
	cursorSetCmd.Flags().StringVar(&cursorSetProject, "default-project", "", "default project for addresses resolved through this cursor")
	cursorSetCmd.Flags().StringVar(&cursorSetNamespace, "default-namespace", "", "default namespace for addresses resolved through this cursor")
	cursorSetCmd.Flags().StringVar(&cursorBindMeta, "bind-meta", "", "meta context bound to this cursor")

	cursorCmd.AddCommand(cursorSetCmd, cursorGetCmd, cursorListCmd, cursorDeleteCmd)
	rootCmd.AddCommand(cursorCmd)
}
