// Package state stores one PHP literal value per domain and scope, and
// resolves a domain across scopes into a single merged value.
//
// Responsibilities:
//   - Store only loads/saves a single value for a single Ref.
//   - Resolver loads the value of every requested scope, strongest first,
//     and merges them with layering.Merge.
//   - Resolver.Mutate applies read-modify-write updates guarded by ETag.
//
// Data flow:
//
//	Store -> Resolver -> layering.Merge(...) -> *Resolved
//
// Deterministic keys:
//
//	Ref.Identifier() returns `system/<domain>` or `<scope>/<id>/<domain>`
//	for the tenant, org, team and user scopes. FileStore maps the key to
//	`<root>/<key>.php` plus a `<key>.meta.php` sidecar holding Meta.
package state
