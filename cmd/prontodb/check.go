package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/pathresolver"
	"github.com/spf13/cobra"
)

type checkItem struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

type checkResult struct {
	DatabasePath string      `json:"database_path"`
	Checks       []checkItem `json:"checks"`
	OverallOK    bool        `json:"overall_ok"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Sanity-check the resolved database file, storage engine, and cursors directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := checkResult{DatabasePath: resolvedCtx.DatabasePath, OverallOK: true}

		addCheck := func(name, status, message string) {
			result.Checks = append(result.Checks, checkItem{Name: name, Status: status, Message: message})
			if status == "error" {
				result.OverallOK = false
			}
		}

		if _, err := os.Stat(resolvedCtx.DatabasePath); err == nil {
			addCheck("database file", "ok", resolvedCtx.DatabasePath)
		} else {
			addCheck("database file", "warning", "not yet created: "+resolvedCtx.DatabasePath)
		}

		_, err := eng.ListKeys(cmd.Context(), meta.None, "__prontodb_check__", "__prontodb_check__", "")
		var missErr *perr.Miss
		if err == nil || errors.As(err, &missErr) {
			addCheck("storage engine", "ok", "query succeeded")
		} else {
			addCheck("storage engine", "error", err.Error())
		}

		layout := pathresolver.LayoutForPath(resolvedCtx.DatabasePath)
		if info, err := os.Stat(layout.CursorsDir); err == nil && info.IsDir() {
			addCheck("cursors directory", "ok", layout.CursorsDir)
		} else {
			addCheck("cursors directory", "warning", "not yet created: "+layout.CursorsDir)
		}

		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(result)
		}

		for _, c := range result.Checks {
			line := fmt.Sprintf("[%s] %s: %s", c.Status, c.Name, c.Message)
			switch c.Status {
			case "ok":
				fmt.Fprintln(cmd.OutOrStdout(), color.GreenString(line))
			case "warning":
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString(line))
			default:
				fmt.Fprintln(cmd.OutOrStdout(), color.RedString(line))
			}
		}
		if !result.OverallOK {
			return fmt.Errorf("one or more checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
