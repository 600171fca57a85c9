package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	phpfile "github.com/goliatone/go-phpfile"
)

const (
	fileExt     = ".php"
	metaFileExt = ".meta.php"
)

// FileStore persists every Ref as a PHP literal file below Root, at
// `<identifier>.php`, with its Meta in a `<identifier>.meta.php` sidecar.
//
// ETag is the sha256 of the canonical rendering of the stored value, so
// hand edits that change the value change the ETag. Options are passed to
// every phpfile.File the store opens.
type FileStore struct {
	Root string

	opts []phpfile.Option
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore returns a FileStore rooted at root.
func NewFileStore(root string, opts ...phpfile.Option) *FileStore {
	return &FileStore{
		Root: root,
		opts: append([]phpfile.Option(nil), opts...),
		now:  time.Now,
	}
}

// Path returns the value file used for ref.
func (s *FileStore) Path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(key)+fileExt), nil
}

func (s *FileStore) Load(ctx context.Context, ref Ref) (phpfile.Value, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, false, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := phpfile.New(path, s.opts...)
	if !file.Exists() {
		return nil, Meta{}, false, nil
	}
	if err := file.Load(); err != nil {
		return nil, Meta{}, false, err
	}
	value, err := file.Get()
	if err != nil {
		return nil, Meta{}, false, err
	}

	meta, err := s.loadMeta(metaPath(path))
	if err != nil {
		return nil, Meta{}, false, err
	}
	etag, err := contentETag(value)
	if err != nil {
		return nil, Meta{}, false, err
	}
	meta.ETag = etag
	return value, meta, true, nil
}

// Save writes value and its sidecar. A missing SnapshotID is filled with a
// fresh ULID and a zero UpdatedAt with the current time; ETag is always
// recomputed from the written content.
func (s *FileStore) Save(ctx context.Context, ref Ref, value phpfile.Value, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}
	out, err := stamp(meta, value, s.now())
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Meta{}, fmt.Errorf("state: create directory: %w", err)
	}
	if err := phpfile.New(path, s.opts...).Set(value).Save(); err != nil {
		return Meta{}, err
	}
	if err := phpfile.New(metaPath(path), s.opts...).Set(metaValue(out)).Save(); err != nil {
		return Meta{}, err
	}
	return out, nil
}

// Delete removes the value file and sidecar for ref. It reports whether
// the value file existed.
func (s *FileStore) Delete(ctx context.Context, ref Ref) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existed := true
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("state: delete %s: %w", path, err)
		}
		existed = false
	}
	if err := os.Remove(metaPath(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return existed, fmt.Errorf("state: delete %s: %w", metaPath(path), err)
	}
	return existed, nil
}

func (s *FileStore) loadMeta(path string) (Meta, error) {
	file := phpfile.New(path, s.opts...)
	if !file.Exists() {
		return Meta{}, nil
	}
	if err := file.Load(); err != nil {
		return Meta{}, err
	}
	value, err := file.Get()
	if err != nil {
		return Meta{}, err
	}
	return parseMeta(value)
}

func metaPath(path string) string {
	return path[:len(path)-len(fileExt)] + metaFileExt
}

func metaValue(meta Meta) *phpfile.Map {
	out := phpfile.NewMap(4)
	out.SetString("snapshot_id", meta.SnapshotID)
	out.SetString("etag", meta.ETag)
	out.SetString("updated_at", meta.UpdatedAt.Format(time.RFC3339Nano))
	if len(meta.Extra) > 0 {
		extra := make(map[string]any, len(meta.Extra))
		for k, v := range meta.Extra {
			extra[k] = v
		}
		normalized, err := phpfile.Normalize(extra)
		if err == nil {
			out.SetString("extra", normalized)
		}
	}
	return out
}

func parseMeta(value phpfile.Value) (Meta, error) {
	m, ok := value.(*phpfile.Map)
	if !ok {
		return Meta{}, fmt.Errorf("state: meta sidecar holds %s, want map", phpfile.Kind(value))
	}
	var meta Meta
	meta.SnapshotID = metaString(m, "snapshot_id")
	meta.ETag = metaString(m, "etag")
	if raw := metaString(m, "updated_at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Meta{}, fmt.Errorf("state: meta updated_at: %w", err)
		}
		meta.UpdatedAt = at
	}
	if raw, ok := m.Lookup("extra"); ok {
		if extra, ok := raw.(*phpfile.Map); ok {
			meta.Extra = make(map[string]string, extra.Len())
			extra.Range(func(key phpfile.Key, v phpfile.Value) bool {
				if s, ok := v.(string); ok {
					meta.Extra[key.String()] = s
				}
				return true
			})
		}
	}
	return meta, nil
}

func metaString(m *phpfile.Map, name string) string {
	v, ok := m.Lookup(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
