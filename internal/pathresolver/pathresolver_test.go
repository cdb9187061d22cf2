package pathresolver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLayout(t *testing.T) {
	r := &Resolver{dataRoot: "/tmp/pronto-test-root"}
	l := r.Layout("mydb")

	want := Layout{
		Name:        "mydb",
		DataRoot:    "/tmp/pronto-test-root",
		DatabaseDir: filepath.Join("/tmp/pronto-test-root", "mydb"),
		DBFile:      filepath.Join("/tmp/pronto-test-root", "mydb", "mydb.db"),
		CursorsDir:  filepath.Join("/tmp/pronto-test-root", "mydb", "cursors"),
	}
	if l != want {
		t.Fatalf("Layout() = %+v, want %+v", l, want)
	}
}

func TestLayoutForPath(t *testing.T) {
	l := LayoutForPath("/data/work/work.db")
	if l.Name != "work" {
		t.Errorf("Name = %q, want %q", l.Name, "work")
	}
	if l.DatabaseDir != "/data/work" {
		t.Errorf("DatabaseDir = %q, want %q", l.DatabaseDir, "/data/work")
	}
	if l.CursorsDir != filepath.Join("/data/work", "cursors") {
		t.Errorf("CursorsDir = %q", l.CursorsDir)
	}
}

func TestLocalCursorsDirFindsAncestorDotProntodb(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".prontodb"), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()
	if err := os.Chdir(sub); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(root, ".prontodb", "cursors")
	if got := LocalCursorsDir(); got != want {
		t.Errorf("LocalCursorsDir() = %q, want %q", got, want)
	}
}

func TestLocalCursorsDirEmptyWhenNoneFound(t *testing.T) {
	root := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}

	// root's own ancestry must not accidentally contain a .prontodb dir
	// from the real filesystem for this assertion to be meaningful; t.TempDir()
	// roots are freshly created so this holds in practice.
	if got := LocalCursorsDir(); got != "" {
		t.Errorf("LocalCursorsDir() = %q, want empty", got)
	}
}

func TestNewHonorsOverrides(t *testing.T) {
	t.Setenv(EnvDataHome, "/custom/data")
	t.Setenv(EnvConfigHome, "/custom/config")
	t.Setenv(EnvCacheHome, "/custom/cache")
	t.Setenv(EnvDBPath, "/custom/explicit.db")

	r := New()
	if r.DataRoot() != "/custom/data" {
		t.Errorf("DataRoot = %q", r.DataRoot())
	}
	if r.ConfigRoot() != "/custom/config" {
		t.Errorf("ConfigRoot = %q", r.ConfigRoot())
	}
	if r.CacheRoot() != "/custom/cache" {
		t.Errorf("CacheRoot = %q", r.CacheRoot())
	}
	if r.ExplicitDBPath() != "/custom/explicit.db" {
		t.Errorf("ExplicitDBPath = %q", r.ExplicitDBPath())
	}
}
