// Command prontodb is the CLI surface for the filesystem-resident,
// multi-agent key-value store: address-based set/get/delete, namespace
// and project discovery, TTL namespace creation, cursor session
// management, and pipe-cache recovery.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/prontodb/prontodb/internal/config"
	"github.com/prontodb/prontodb/internal/diaglog"
	"github.com/prontodb/prontodb/internal/engine"
	"github.com/prontodb/prontodb/internal/pathresolver"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	flagDatabase  string
	flagCursor    string
	flagMeta      string
	flagHasMeta   bool
	flagUser      string
	flagDelimiter string
	flagJSON      bool
	flagNoColor   bool

	resolvedCtx    resolve.Context
	eng            *engine.Engine
	diag           *diaglog.Logger
	defaultCursorsDir string
)

var rootCmd = &cobra.Command{
	Use:   "prontodb",
	Short: "prontodb - a filesystem-resident key-value store for agent workflows",
	Long:  `ProntoDB stores small, structured state (config, session cursors, task handoffs) under project.namespace.key addresses, with TTL namespaces and multi-agent isolation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flagHasMeta = cmd.Flags().Changed("meta")
		switch cmd.Name() {
		case "version", "help":
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if eng != nil {
			_ = eng.Close()
		}
		if diag != nil {
			_ = diag.Close()
		}
	},
}

func setup() error {
	if err := config.Initialize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if flagNoColor || config.GetBool("no-color") {
		color.NoColor = true
	}
	if !flagJSON {
		flagJSON = config.GetBool("json")
	}
	if flagDelimiter == "" {
		flagDelimiter = config.GetString("delimiter")
	}
	if flagUser == "" {
		flagUser = resolveDefaultUser()
	}

	r := pathresolver.New()
	defaultLayout := r.Layout(pathresolver.DefaultDatabaseName)
	if explicit := r.ExplicitDBPath(); explicit != "" {
		defaultLayout = pathresolver.LayoutForPath(explicit)
	}
	if err := pathresolver.EnsureDirs(defaultLayout); err != nil {
		return &perr.PermissionDenied{Path: defaultLayout.DatabaseDir, Err: err}
	}

	diag = diaglog.Open(defaultLayout.DatabaseDir + "/diagnostic.log")
	defaultCursorsDir = defaultLayout.CursorsDir

	req := resolve.Request{
		ExplicitDatabasePath: flagDatabase,
		ExplicitCursorName:   flagCursor,
		ExplicitMetaOverride: flagMeta,
		HasMetaOverride:      flagHasMeta,
		User:                 flagUser,
		DefaultDatabasePath:  defaultLayout.DBFile,
		LocalCursorEnabled:   config.GetBool("local-cursor"),
		LocalCursorsDir:      pathresolver.LocalCursorsDir(),
	}

	ctx, err := resolve.Resolve(req)
	if err != nil {
		return err
	}
	resolvedCtx = ctx

	layout := pathresolver.LayoutForPath(ctx.DatabasePath)
	if err := pathresolver.EnsureDirs(layout); err != nil {
		return &perr.PermissionDenied{Path: layout.DatabaseDir, Err: err}
	}

	store, err := openStorage(ctx.DatabasePath)
	if err != nil {
		return err
	}
	eng = engine.New(store, flagDelimiter)

	diag.Printf("invocation db=%s user=%s meta=%q", ctx.DatabasePath, ctx.User, ctx.MetaContext)
	return nil
}

func resolveDefaultUser() string {
	if u := os.Getenv("PRONTO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "explicit database file path, bypasses cursor resolution")
	rootCmd.PersistentFlags().StringVar(&flagCursor, "cursor", "", "named cursor to resolve database/meta context from")
	rootCmd.PersistentFlags().StringVar(&flagMeta, "meta", "", "ephemeral meta-context override (only with --cursor)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "acting user (default: $PRONTO_USER or $USER)")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "address delimiter override (default: \".\")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored diagnostic output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(perr.ExitCodeFor(err))
	}
}
