package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/pipecache"
	"github.com/spf13/cobra"
)

var setTTLSeconds int

var setCmd = &cobra.Command{
	Use:   "set <address> [value]",
	Short: "Write a value at an address",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrText := args[0]

		var stdinBuf []byte
		stdinIsTTY := isatty.IsTerminal(os.Stdin.Fd())

		// Stdin is always drained up front when piped, independent of
		// whether a positional value was also given: the pipe-cache
		// fallback (spec.md §4.7) rescues the piped payload, not the
		// positional argument, when the address itself fails to parse.
		if !stdinIsTTY {
			buf, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			stdinBuf = buf
		}

		var value []byte
		switch {
		case len(args) == 2:
			value = []byte(args[1])
		case !stdinIsTTY:
			value = stdinBuf
		default:
			return &perr.InvalidIdentifier{Field: "value", Reason: "no value argument and stdin is a terminal"}
		}

		var ttl *int
		if cmd.Flags().Changed("ttl") {
			ttl = &setTTLSeconds
		}

		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		err := eng.Set(cmd.Context(), scope, addrText, value, ttl)
		if err == nil {
			return printOK(cmd, map[string]string{"address": addrText, "status": "ok"})
		}

		var invalidAddr *perr.InvalidAddress
		if asInvalidAddress(err, &invalidAddr) && pipecache.ShouldTrigger(true, stdinIsTTY, len(stdinBuf)) {
			key, rescueErr := eng.HandlePipeCacheFallback(cmd.Context(), scope, stdinBuf, addrText, time.Now().UTC())
			if rescueErr != nil {
				return rescueErr
			}
			fmt.Fprintf(os.Stderr, "warning: %q did not parse as an address; input rescued at %s (run 'prontodb copy %s <address>' to file it properly)\n", addrText, key, key)
			return printOK(cmd, map[string]string{"address": addrText, "status": "rescued", "recovery_key": key})
		}

		return err
	},
}

func asInvalidAddress(err error, target **perr.InvalidAddress) bool {
	if e, ok := err.(*perr.InvalidAddress); ok {
		*target = e
		return true
	}
	return false
}

var getCmd = &cobra.Command{
	Use:   "get <address>",
	Short: "Read the value at an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		value, err := eng.Get(cmd.Context(), scope, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printOK(cmd, map[string]string{"address": args[0], "value": string(value)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(value))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <address>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete the value at an address",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		existed, err := eng.Delete(cmd.Context(), scope, args[0])
		if err != nil {
			return err
		}
		if !existed {
			return &perr.Miss{What: args[0]}
		}
		return printOK(cmd, map[string]string{"address": args[0], "status": "deleted"})
	},
}

var keysPrefix string

var keysCmd = &cobra.Command{
	Use:   "keys <project.namespace>",
	Short: "List keys under a project.namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, namespace, err := splitProjectNamespace(args[0])
		if err != nil {
			return err
		}
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		keys, err := eng.ListKeys(cmd.Context(), scope, project, namespace, keysPrefix)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return &perr.Miss{What: args[0]}
		}
		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(keys)
		}
		for _, k := range keys {
			if k.Context != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s__%s\n", k.Key, k.Context)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), k.Key)
			}
		}
		return nil
	},
}

var scanPrefix string

var scanCmd = &cobra.Command{
	Use:   "scan <project.namespace>",
	Short: "List keys and values under a project.namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, namespace, err := splitProjectNamespace(args[0])
		if err != nil {
			return err
		}
		scope := meta.Scope{Context: resolvedCtx.MetaContext}
		pairs, err := eng.ScanPairs(cmd.Context(), scope, project, namespace, scanPrefix)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			return &perr.Miss{What: args[0]}
		}
		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(pairs)
		}
		for _, p := range pairs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Key.Key, string(p.Value))
		}
		return nil
	},
}

func init() {
	setCmd.Flags().IntVar(&setTTLSeconds, "ttl", 0, "explicit per-write TTL in seconds (namespace must be a TTL namespace)")
	keysCmd.Flags().StringVar(&keysPrefix, "prefix", "", "filter keys by prefix")
	scanCmd.Flags().StringVar(&scanPrefix, "prefix", "", "filter keys by prefix")

	rootCmd.AddCommand(setCmd, getCmd, deleteCmd, keysCmd, scanCmd)
}
