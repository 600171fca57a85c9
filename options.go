package phpfile

import (
	"io/fs"

	"github.com/goliatone/go-phpfile/pkg/activity"
)

// Option configures a File.
type Option func(*fileConfig)

type fileConfig struct {
	fs              FileSystem
	factories       *FactoryRegistry
	logger          Logger
	activityHooks   activity.Hooks
	activityChannel string
	actor           activity.Actor
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	validators      []Validator
	// configErrs collects option errors; New reports them to the logger.
	configErrs []error
}

func applyOptions(opts []Option) fileConfig {
	cfg := fileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.fs == nil {
		cfg.fs = OSFileSystem{}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	return cfg
}

// WithFileSystem replaces the local disk with fsys.
func WithFileSystem(fsys FileSystem) Option {
	return func(cfg *fileConfig) {
		cfg.fs = fsys
	}
}

// WithFileMode stores files on the local disk using mode for new files.
func WithFileMode(mode fs.FileMode) Option {
	return func(cfg *fileConfig) {
		cfg.fs = OSFileSystem{Mode: mode}
	}
}

// WithFactoryRegistry resolves object literals through a copy of registry.
func WithFactoryRegistry(registry *FactoryRegistry) Option {
	return func(cfg *fileConfig) {
		if registry == nil {
			return
		}
		cfg.factories = registry.Clone()
	}
}

// WithFactory registers factory under typeName for the File. The first
// registration of a name wins. Rejected registrations (duplicates, nil
// factories) are logged with Op "configure" when the File is created;
// callers that need them as errors should build a FactoryRegistry and pass
// it to WithFactoryRegistry.
func WithFactory(typeName string, factory Factory) Option {
	return func(cfg *fileConfig) {
		if cfg.factories == nil {
			cfg.factories = NewFactoryRegistry()
		}
		if err := cfg.factories.Register(typeName, factory); err != nil {
			cfg.configErrs = append(cfg.configErrs, err)
		}
	}
}

// WithEvaluator configures the expression engine used by Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *fileConfig) {
		cfg.evaluator = e
	}
}
