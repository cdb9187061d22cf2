package main

import (
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <source-address> <dest-address>",
	Short: "Copy a value between addresses; deletes the source if it was a pipe-cache recovery key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		if err := eng.Copy(cmd.Context(), scope, args[0], args[1]); err != nil {
			return err
		}
		return printOK(cmd, map[string]string{"address": args[1], "status": "copied"})
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)
}
