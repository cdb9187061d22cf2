package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prontodb/prontodb/internal/perr"
	"github.com/spf13/cobra"
)

// printOK writes a successful result either as JSON (--json) or as plain
// key: value lines, the way the teacher CLI distinguishes its two output
// modes.
func printOK(cmd *cobra.Command, fields map[string]string) error {
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return enc.Encode(fields)
	}
	for _, k := range []string{"address", "status", "recovery_key", "value"} {
		if v, ok := fields[k]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, v)
		}
	}
	return nil
}

// splitProjectNamespace parses a "project.namespace" discovery target using
// the effective delimiter, defaulting the project segment the same way a
// bare key address does.
func splitProjectNamespace(text string) (project, namespace string, err error) {
	delim := flagDelimiter
	if delim == "" {
		delim = "."
	}
	parts := strings.Split(text, delim)
	switch len(parts) {
	case 1:
		return "default", parts[0], nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", &perr.InvalidIdentifier{Field: "discovery target", Reason: "expected project" + delim + "namespace or namespace"}
	}
}
