package phpfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryFileSystem(t *testing.T) {
	fsys := NewMemoryFileSystem()
	if fsys.Exists("a.php") || fsys.IsReadable("a.php") {
		t.Fatalf("expected missing file")
	}
	if !fsys.IsWritable("a.php") {
		t.Fatalf("expected new files to be writable")
	}
	if _, err := fsys.ReadFile("a.php"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	data := []byte("<?php return 1;")
	if err := fsys.WriteFile("./dir/../a.php", data); err != nil {
		t.Fatalf("write: %v", err)
	}
	data[0] = 'X'
	got, err := fsys.ReadFile("a.php")
	if err != nil || string(got) != "<?php return 1;" {
		t.Fatalf("expected stored copy, got %q (%v)", got, err)
	}

	fsys.SetReadable("a.php", false)
	if fsys.IsReadable("a.php") {
		t.Fatalf("expected read denied")
	}
	if _, err := fsys.ReadFile("a.php"); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
	fsys.SetReadable("a.php", true)

	fsys.SetWritable("a.php", false)
	if err := fsys.WriteFile("a.php", nil); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}

	_ = fsys.WriteFile("b.php", nil)
	if diff := cmp.Diff([]string{"a.php", "b.php"}, fsys.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
	if err := fsys.Remove("b.php"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := fsys.Remove("b.php"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist on second remove, got %v", err)
	}
}

func TestOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.php")
	fsys := OSFileSystem{Mode: 0o600}

	if fsys.Exists(path) {
		t.Fatalf("expected missing file")
	}
	if !fsys.IsWritable(path) {
		t.Fatalf("expected missing file in writable dir to be writable")
	}
	if fsys.IsWritable(dir) {
		t.Fatalf("expected directory not to be a writable file")
	}
	if err := fsys.WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !fsys.Exists(path) || !fsys.IsReadable(path) {
		t.Fatalf("expected readable file")
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
		}
	}
}

func TestOSFileSystemReadOnlyFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no POSIX permission bits")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores permission bits")
	}
	path := filepath.Join(t.TempDir(), "ro.php")
	if err := os.WriteFile(path, []byte("<?php return 1;"), 0o444); err != nil {
		t.Fatalf("write: %v", err)
	}
	if (OSFileSystem{}).IsWritable(path) {
		t.Fatalf("expected read-only file not to be writable")
	}
	err := New(path).Set(2).Save()
	if !errors.Is(err, ErrFileNotWritable) {
		t.Fatalf("expected ErrFileNotWritable, got %v", err)
	}
}
