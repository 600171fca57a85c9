package phpfile

import (
	"fmt"
	"strings"
)

// Factory rebuilds a value from the field map stored in an object literal.
type Factory func(fields *Map) (Value, error)

// FactoryRegistry stores object factories keyed by type name. Names are
// matched case-insensitively and without a leading namespace separator,
// so `\Runn\Core\Std` and `runn\core\std` resolve to the same factory.
type FactoryRegistry struct {
	entries *registry[Factory]
}

// NewFactoryRegistry constructs an empty registry.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{entries: newRegistry[Factory]("factory")}
}

// Register stores factory under name guarding against duplicates.
func (r *FactoryRegistry) Register(name string, factory Factory) error {
	name = strings.TrimPrefix(strings.TrimSpace(name), `\`)
	if r.entries == nil {
		r.entries = newRegistry[Factory]("factory")
	}
	return r.entries.register(factoryKey(name), name, factory, factory == nil)
}

// MustRegister is like Register but panics on error.
func (r *FactoryRegistry) MustRegister(name string, factory Factory) *FactoryRegistry {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
	return r
}

// RegisterObject registers ObjectFactory(name) under name.
func (r *FactoryRegistry) RegisterObject(name string) error {
	return r.Register(name, ObjectFactory(name))
}

// Lookup returns the factory registered for name.
func (r *FactoryRegistry) Lookup(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	return r.entries.lookup(factoryKey(name))
}

// Build executes the factory registered for name.
func (r *FactoryRegistry) Build(name string, fields *Map) (Value, error) {
	factory, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredFactory, name)
	}
	return factory(fields)
}

// Clone returns a shallow copy of the registry.
func (r *FactoryRegistry) Clone() *FactoryRegistry {
	if r == nil {
		return nil
	}
	return &FactoryRegistry{entries: r.entries.clone()}
}

// Names returns the registered type names sorted alphabetically.
func (r *FactoryRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return r.entries.names()
}

// ObjectFactory returns a Factory producing a generic *Object of typeName.
func ObjectFactory(typeName string) Factory {
	typeName = strings.TrimPrefix(typeName, `\`)
	return func(fields *Map) (Value, error) {
		return NewObject(typeName, fields), nil
	}
}

func factoryKey(name string) string {
	return registryKey(strings.TrimPrefix(strings.TrimSpace(name), `\`))
}
