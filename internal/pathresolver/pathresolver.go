// Package pathresolver computes the per-database filesystem layout from
// XDG-like environment variables, the way internal/config walks XDG
// directories in the teacher repo.
package pathresolver

import (
	"os"
	"path/filepath"
)

// Env overrides, consumed once per invocation (spec.md §6, §5 "Environment-
// provided paths are read once at startup").
const (
	EnvDataHome   = "PRONTO_DATA_HOME"
	EnvConfigHome = "PRONTO_CONFIG_HOME"
	EnvCacheHome  = "PRONTO_CACHE_HOME"
	EnvDBPath     = "PRONTO_DB"
	EnvDelimiter  = "PRONTO_DELIMITER"
	EnvLocalCursor = "PRONTO_LOCAL_CURSOR"
)

// Layout is the resolved filesystem layout for one named database.
type Layout struct {
	Name       string // database name D
	DataRoot   string // {data_root}
	DatabaseDir string // {data_root}/{D}
	DBFile     string // {data_root}/{D}/{D}.db
	CursorsDir string // {data_root}/{D}/cursors
}

// Resolver reads environment overrides once and resolves layouts against
// them. Constructing it captures the environment at that instant.
type Resolver struct {
	dataRoot   string
	configRoot string
	cacheRoot  string
	explicitDB string
}

// New captures the current environment. Call once per invocation.
func New() *Resolver {
	return &Resolver{
		dataRoot:   firstNonEmpty(os.Getenv(EnvDataHome), defaultDataHome()),
		configRoot: firstNonEmpty(os.Getenv(EnvConfigHome), defaultConfigHome()),
		cacheRoot:  firstNonEmpty(os.Getenv(EnvCacheHome), defaultCacheHome()),
		explicitDB: os.Getenv(EnvDBPath),
	}
}

// DataRoot returns the resolved data root directory.
func (r *Resolver) DataRoot() string { return r.dataRoot }

// ConfigRoot returns the resolved config root directory.
func (r *Resolver) ConfigRoot() string { return r.configRoot }

// CacheRoot returns the resolved cache root directory.
func (r *Resolver) CacheRoot() string { return r.cacheRoot }

// ExplicitDBPath returns the PRONTO_DB override, or "" if unset.
func (r *Resolver) ExplicitDBPath() string { return r.explicitDB }

// Layout computes the filesystem layout for database name D.
func (r *Resolver) Layout(name string) Layout {
	dbDir := filepath.Join(r.dataRoot, name)
	return Layout{
		Name:        name,
		DataRoot:    r.dataRoot,
		DatabaseDir: dbDir,
		DBFile:      filepath.Join(dbDir, name+".db"),
		CursorsDir:  filepath.Join(dbDir, "cursors"),
	}
}

// LayoutForPath computes a Layout from an explicit database file path
// (e.g. from PRONTO_DB or a --database flag), deriving the cursors
// directory alongside it the way spec.md §4.4 requires ("cursor files are
// stored under the database directory they reference").
func LayoutForPath(dbPath string) Layout {
	dir := filepath.Dir(dbPath)
	name := filepath.Base(dbPath)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	return Layout{
		Name:        name,
		DatabaseDir: dir,
		DBFile:      dbPath,
		CursorsDir:  filepath.Join(dir, "cursors"),
	}
}

// EnsureDirs creates the database directory and cursors directory if absent.
func EnsureDirs(l Layout) error {
	if err := os.MkdirAll(l.DatabaseDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(l.CursorsDir, 0o755)
}

// LocalCursorsDir walks up from the current working directory looking for
// a .prontodb directory, the same way internal/config.Initialize finds a
// project-local config.yaml, and returns its cursors subdirectory. Returns
// "" if no .prontodb directory exists anywhere above the current
// directory, which callers treat as "no local cursors available" (spec.md
// §5's opt-in PRONTO_LOCAL_CURSOR flag).
func LocalCursorsDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; {
		prontoDir := filepath.Join(dir, ".prontodb")
		if info, err := os.Stat(prontoDir); err == nil && info.IsDir() {
			return filepath.Join(prontoDir, "cursors")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// DefaultDatabaseName is used when no database is named explicitly anywhere
// in the resolution chain.
const DefaultDatabaseName = "default"

func defaultDataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "prontodb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".prontodb", "data")
	}
	return filepath.Join(home, ".local", "share", "prontodb")
}

func defaultConfigHome() string {
	if cfgDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(cfgDir, "prontodb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".prontodb", "config")
	}
	return filepath.Join(home, ".config", "prontodb")
}

func defaultCacheHome() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "prontodb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".prontodb", "cache")
	}
	return filepath.Join(home, ".cache", "prontodb")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
