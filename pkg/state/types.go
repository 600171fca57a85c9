package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/goliatone/go-phpfile/layering"
	"golang.org/x/sync/errgroup"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Scope names understood by Ref.Identifier.
const (
	ScopeSystem = "system"
	ScopeTenant = "tenant"
	ScopeOrg    = "org"
	ScopeTeam   = "team"
	ScopeUser   = "user"

	// ScopeDefaults is reserved for the layer ResolveWithDefaults appends.
	ScopeDefaults = "defaults"
)

// Scope names one layer of stored values. ID is required for every scope
// except system.
type Scope struct {
	Name string
	ID   string
}

// NewScope returns a Scope for name and id.
func NewScope(name, id string) Scope {
	return Scope{Name: name, ID: id}
}

// SystemScope returns the single system-wide scope.
func SystemScope() Scope {
	return Scope{Name: ScopeSystem}
}

// Ref identifies one persisted value for one domain.
type Ref struct {
	Domain string
	Scope  Scope
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one value for a single scope reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (value phpfile.Value, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, value phpfile.Value, meta Meta) (Meta, error)
}

// Deleter is implemented by stores that can drop a stored value.
// MemoryStore and FileStore both are.
type Deleter interface {
	Delete(ctx context.Context, ref Ref) (bool, error)
}

// Layer records which scope contributed to a resolved value.
type Layer struct {
	Scope Scope
	Meta  Meta
}

// Resolved is the merged value for a domain plus the layers that were
// found, strongest first.
type Resolved struct {
	Domain string
	Value  phpfile.Value
	Layers []Layer
}

// SnapshotIDs returns the snapshot id of every contributing layer.
func (r *Resolved) SnapshotIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Layers))
	for _, layer := range r.Layers {
		ids = append(ids, layer.Meta.SnapshotID)
	}
	return ids
}

// Resolver loads scoped values and merges them into one.
type Resolver struct {
	Store Store
}

// Mutator receives a copy of the stored value (nil when nothing is stored)
// and returns the value to save.
type Mutator func(phpfile.Value) (phpfile.Value, error)

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	switch r.Scope.Name {
	case ScopeSystem:
		return fmt.Sprintf("system/%s", r.Domain), nil
	case ScopeTenant, ScopeOrg, ScopeTeam, ScopeUser:
		if r.Scope.ID == "" {
			return "", fmt.Errorf("missing id for scope %q", r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, r.Scope.ID, r.Domain), nil
	default:
		return "", fmt.Errorf("unsupported scope name %q", r.Scope.Name)
	}
}

// Resolve loads domain for every scope, strongest first, and merges the
// values that exist with layering.Merge.
func (r Resolver) Resolve(ctx context.Context, domain string, scopes ...Scope) (*Resolved, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}

	values, layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("state: no layers found for domain %q", domain)
	}
	return &Resolved{Domain: domain, Value: layering.Merge(values...), Layers: layers}, nil
}

// ResolveWithDefaults is like Resolve but appends defaults as the weakest
// layer, so a domain with no stored layers still resolves.
func (r Resolver) ResolveWithDefaults(ctx context.Context, domain string, defaults phpfile.Value, scopes ...Scope) (*Resolved, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}
	for _, scope := range scopes {
		if scope.Name == ScopeDefaults {
			return nil, fmt.Errorf("state: scope name %q is reserved", ScopeDefaults)
		}
	}

	normalized, err := phpfile.Normalize(defaults)
	if err != nil {
		return nil, fmt.Errorf("state: defaults: %w", err)
	}

	values, layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	values = append(values, normalized)
	layers = append(layers, Layer{Scope: Scope{Name: ScopeDefaults}})
	return &Resolved{Domain: domain, Value: layering.Merge(values...), Layers: layers}, nil
}

// loadLayers loads every scope concurrently and keeps the found layers in
// the requested order.
func (r Resolver) loadLayers(ctx context.Context, domain string, scopes []Scope) ([]phpfile.Value, []Layer, error) {
	type result struct {
		value phpfile.Value
		meta  Meta
		ok    bool
	}
	results := make([]result, len(scopes))

	g, gctx := errgroup.WithContext(ctx)
	for i, scope := range scopes {
		g.Go(func() error {
			value, meta, ok, err := r.Store.Load(gctx, Ref{Domain: domain, Scope: scope})
			if err != nil {
				return fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
			}
			results[i] = result{value: value, meta: meta, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	values := make([]phpfile.Value, 0, len(scopes)+1)
	layers := make([]Layer, 0, len(scopes)+1)
	for i, res := range results {
		if !res.ok {
			continue
		}
		values = append(values, res.value)
		layers = append(layers, Layer{Scope: scopes[i], Meta: res.meta})
	}
	return values, layers, nil
}

// Mutate loads one value, applies fn, checks the result can be stored,
// then saves it. A non-empty meta.ETag must match the stored ETag.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (phpfile.Value, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if ref.Domain == "" {
		return nil, Meta{}, fmt.Errorf("state: domain is required")
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	value, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	if !ok {
		value = nil
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	next, err := fn(phpfile.Clone(value))
	if err != nil {
		return nil, loadedMeta, err
	}

	next, err = phpfile.Normalize(next)
	if err != nil {
		return nil, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	savedMeta, err := r.Store.Save(ctx, ref, next, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	return next, savedMeta, nil
}

// Delete removes the value stored for ref when the store is a Deleter. A
// non-empty meta.ETag must match the stored ETag. Deleting a missing
// value is not an error.
func (r Resolver) Delete(ctx context.Context, ref Ref, meta Meta) error {
	deleter, ok := r.Store.(Deleter)
	if !ok {
		return fmt.Errorf("state: store %T cannot delete", r.Store)
	}
	if meta.ETag != "" {
		_, loaded, found, err := r.Store.Load(ctx, ref)
		if err != nil {
			return fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
		}
		if found && loaded.ETag != meta.ETag {
			return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
		}
	}
	if _, err := deleter.Delete(ctx, ref); err != nil {
		return fmt.Errorf("state: delete %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	return nil
}

// mergeMeta builds the meta handed to Store.Save. Only Extra carries over
// from the loaded meta; the snapshot id and timestamp belong to the
// previous save and are left for the store to stamp afresh unless the
// caller sets them. The ETag is the caller's precondition, not a value to
// store.
func mergeMeta(loaded, override Meta) Meta {
	out := Meta{
		SnapshotID: override.SnapshotID,
		UpdatedAt:  override.UpdatedAt,
		Extra:      loaded.Extra,
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
