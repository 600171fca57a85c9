package phpfile

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryFileSystem is an in-memory FileSystem intended for tests and
// examples. Permissions are toggled per path with SetReadable and
// SetWritable; paths are compared after filepath.Clean.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]memoryFile
	deny  map[string]permission
}

type memoryFile struct {
	data []byte
}

type permission struct {
	read  bool
	write bool
}

// NewMemoryFileSystem returns an empty MemoryFileSystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: map[string]memoryFile{},
		deny:  map[string]permission{},
	}
}

// Exists implements FileSystem.
func (m *MemoryFileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// IsReadable implements FileSystem.
func (m *MemoryFileSystem) IsReadable(path string) bool {
	key := filepath.Clean(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[key]
	return ok && !m.deny[key].read
}

// IsWritable implements FileSystem.
func (m *MemoryFileSystem) IsWritable(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.deny[filepath.Clean(path)].write
}

// ReadFile implements FileSystem. The returned slice is a copy.
func (m *MemoryFileSystem) ReadFile(path string) ([]byte, error) {
	key := filepath.Clean(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	file, ok := m.files[key]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if m.deny[key].read {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}
	return append([]byte(nil), file.data...), nil
}

// WriteFile implements FileSystem.
func (m *MemoryFileSystem) WriteFile(path string, data []byte) error {
	key := filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny[key].write {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}
	if m.files == nil {
		m.files = map[string]memoryFile{}
	}
	m.files[key] = memoryFile{data: append([]byte(nil), data...)}
	return nil
}

// SetReadable toggles read permission for path.
func (m *MemoryFileSystem) SetReadable(path string, readable bool) {
	m.setPermission(path, func(p *permission) { p.read = !readable })
}

// SetWritable toggles write permission for path.
func (m *MemoryFileSystem) SetWritable(path string, writable bool) {
	m.setPermission(path, func(p *permission) { p.write = !writable })
}

func (m *MemoryFileSystem) setPermission(path string, apply func(*permission)) {
	key := filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny == nil {
		m.deny = map[string]permission{}
	}
	p := m.deny[key]
	apply(&p)
	if p == (permission{}) {
		delete(m.deny, key)
		return
	}
	m.deny[key] = p
}

// Remove deletes path.
func (m *MemoryFileSystem) Remove(path string) error {
	key := filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[key]; !ok {
		return fmt.Errorf("remove %s: %w", path, fs.ErrNotExist)
	}
	delete(m.files, key)
	return nil
}

// Paths returns the stored paths sorted alphabetically.
func (m *MemoryFileSystem) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for path := range m.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
