package phpfile

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/goliatone/go-phpfile/pkg/activity"
)

// State reports where a File is in its lifecycle.
type State int

const (
	// StateUnbound means the File has no path.
	StateUnbound State = iota
	// StateNotLoaded means the File has a path but holds no data yet.
	StateNotLoaded
	// StateLoaded means the held data matches the last load or save.
	StateLoaded
	// StateDirty means the held data was replaced by Set and not saved.
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateNotLoaded:
		return "not_loaded"
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// File binds a path to a single value persisted as an executable PHP file
// of the form "<?php\n\nreturn <literal>;".
//
// A File is not safe for concurrent use.
type File struct {
	path     string
	value    Value
	hasValue bool
	dirty    bool
	setErr   error

	cfg     fileConfig
	parser  *Parser
	emitter *activity.Emitter
}

// New returns a File bound to path. An empty path yields an unbound File
// whose Load and Save fail with ErrEmptyPath.
func New(path string, opts ...Option) *File {
	cfg := applyOptions(opts)
	for _, err := range cfg.configErrs {
		cfg.logger.Log(LogEvent{Op: "configure", Path: path, Err: err})
	}
	return &File{
		path:    path,
		cfg:     cfg,
		parser:  NewParser(cfg.factories),
		emitter: activity.NewEmitter(cfg.activityChannel, cfg.activityHooks),
	}
}

// Path returns the bound path.
func (f *File) Path() string {
	return f.path
}

// State reports the current lifecycle state.
func (f *File) State() State {
	switch {
	case f.path == "":
		return StateUnbound
	case !f.hasValue:
		return StateNotLoaded
	case f.dirty:
		return StateDirty
	default:
		return StateLoaded
	}
}

// IsDirty reports whether Set was called since the last load or save.
func (f *File) IsDirty() bool {
	return f.dirty
}

// Exists reports whether the bound path names an existing file.
func (f *File) Exists() bool {
	return f.path != "" && f.cfg.fs.Exists(f.path)
}

// Load reads and parses the bound file, replacing the held data. On
// failure the File is left unchanged.
func (f *File) Load() error {
	start := time.Now()
	value, size, err := f.load()
	f.cfg.logger.Log(LogEvent{
		Op:       "load",
		Path:     f.path,
		Engine:   literalEngine,
		Bytes:    size,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return err
	}

	f.value = value
	f.hasValue = true
	f.dirty = false
	f.setErr = nil
	f.emit(activity.VerbFileLoaded, size, nil)
	return nil
}

func (f *File) load() (Value, int, error) {
	if f.path == "" {
		return nil, 0, &PathError{Op: "load", Err: ErrEmptyPath}
	}
	if !f.cfg.fs.Exists(f.path) {
		return nil, 0, &PathError{Op: "load", Path: f.path, Err: ErrFileNotExists}
	}
	if !f.cfg.fs.IsReadable(f.path) {
		return nil, 0, &PathError{Op: "load", Path: f.path, Err: ErrFileNotReadable}
	}

	data, err := f.cfg.fs.ReadFile(f.path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			err = fmt.Errorf("%w: %v", ErrFileNotExists, err)
		case errors.Is(err, fs.ErrPermission):
			err = fmt.Errorf("%w: %v", ErrFileNotReadable, err)
		}
		return nil, 0, &PathError{Op: "read", Path: f.path, Err: err}
	}

	value, err := f.parser.ParseFile(data)
	if err != nil {
		return nil, len(data), &EvaluationError{Engine: literalEngine, Source: f.path, Err: err}
	}
	held, err := detach(value)
	if err != nil {
		return nil, len(data), &PathError{Op: "load", Path: f.path, Err: err}
	}
	return held, len(data), nil
}

// Get returns a copy of the held data. Objects whose type has a registered
// factory are built again on every call, so host types come back as fresh
// instances the caller owns. Get fails with ErrInvalidOperation before any
// Load or Set, and with the normalization error of the last rejected Set.
func (f *File) Get() (Value, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	if !f.hasValue {
		return nil, fmt.Errorf("%w: get before load or set", ErrInvalidOperation)
	}
	value, err := copyObjects(f.value, f.rebuild)
	if err != nil {
		return nil, &PathError{Op: "get", Path: f.path, Err: err}
	}
	return value, nil
}

func (f *File) rebuild(o *Object) (Value, error) {
	factory, ok := f.cfg.factories.Lookup(o.Type)
	if !ok {
		return o, nil
	}
	return factory(o.Fields)
}

// Set replaces the held data with a normalized copy of v and returns f so
// calls can be chained:
//
//	err := phpfile.New(path).Set(cfg).Save()
//
// Host types are held as the Object they export at the time of the call;
// later changes to them are not seen by Save.
//
// Values that cannot be expressed as literals leave the held data
// untouched; the error surfaces from the next Get or Save.
func (f *File) Set(v any) *File {
	value, err := Normalize(v)
	if err == nil {
		value, err = detach(value)
	}
	if err != nil {
		f.setErr = &PathError{Op: "set", Path: f.path, Err: err}
		return f
	}
	f.value = value
	f.hasValue = true
	f.dirty = true
	f.setErr = nil
	return f
}

// Save renders the held data and overwrites the bound file. The held data
// is not modified.
func (f *File) Save() error {
	start := time.Now()
	size, err := f.save()
	f.cfg.logger.Log(LogEvent{
		Op:       "save",
		Path:     f.path,
		Engine:   literalEngine,
		Bytes:    size,
		Duration: time.Since(start),
		Err:      err,
	})
	if errors.Is(err, ErrInvalidValue) {
		f.emit(activity.VerbFileRejected, 0, err)
	}
	if err != nil {
		return err
	}

	f.dirty = false
	f.emit(activity.VerbFileSaved, size, nil)
	return nil
}

func (f *File) save() (int, error) {
	if f.path == "" {
		return 0, &PathError{Op: "save", Err: ErrEmptyPath}
	}
	if f.setErr != nil {
		return 0, f.setErr
	}
	if !f.hasValue {
		return 0, &PathError{Op: "save", Path: f.path, Err: fmt.Errorf("%w: save before load or set", ErrInvalidOperation)}
	}

	if err := f.validate(f.value); err != nil {
		return 0, err
	}
	content, err := RenderFile(f.value)
	if err != nil {
		return 0, &PathError{Op: "save", Path: f.path, Err: err}
	}
	if !f.cfg.fs.IsWritable(f.path) {
		return 0, &PathError{Op: "save", Path: f.path, Err: ErrFileNotWritable}
	}
	if err := f.cfg.fs.WriteFile(f.path, content); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			err = fmt.Errorf("%w: %v", ErrFileNotWritable, err)
		}
		return 0, &PathError{Op: "write", Path: f.path, Err: err}
	}
	return len(content), nil
}

const literalEngine = "literal"
