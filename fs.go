package phpfile

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileMode is used by OSFileSystem when creating files.
const DefaultFileMode fs.FileMode = 0o644

// FileSystem is the storage collaborator used by File.
type FileSystem interface {
	// Exists reports whether path is an existing regular file.
	Exists(path string) bool
	// IsReadable reports whether the current process may read path.
	IsReadable(path string) bool
	// IsWritable reports whether path may be created or overwritten.
	IsWritable(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct {
	// Mode applies to newly created files. Zero means DefaultFileMode.
	Mode fs.FileMode
}

// Exists implements FileSystem.
func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsReadable implements FileSystem.
func (OSFileSystem) IsReadable(path string) bool {
	return canRead(path)
}

// IsWritable implements FileSystem. A missing file is writable when its
// parent directory exists and accepts new entries.
func (OSFileSystem) IsWritable(path string) bool {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false
		}
		return canWrite(path, false)
	}
	if !os.IsNotExist(err) {
		return false
	}
	dir := filepath.Dir(path)
	dirInfo, err := os.Stat(dir)
	if err != nil || !dirInfo.IsDir() {
		return false
	}
	return canWrite(dir, true)
}

// ReadFile implements FileSystem.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile implements FileSystem, truncating any existing content.
func (f OSFileSystem) WriteFile(path string, data []byte) error {
	mode := f.Mode
	if mode == 0 {
		mode = DefaultFileMode
	}
	return os.WriteFile(path, data, mode)
}
