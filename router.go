package duckserver

import (
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Node is a member of a router tree: either a *Procedure[C] leaf or a nested
// *Router[C]. It stands in for the source's dynamically tagged
// Procedure/Router union.
type Node[C any] interface {
	isNode()
}

// Router is an immutable tree of procedures and nested routers, keyed by
// non-empty, dot-free names. Its path index is built lazily on first lookup
// and memoized for the lifetime of the Router value; a frozen Router's
// entries never change afterward.
type Router[C any] struct {
	entries map[string]Node[C]

	indexOnce singleflight.Group
	index     atomic.Pointer[routerIndex[C]]
}

type routerIndex[C any] struct {
	procedures map[string]*Procedure[C]
	routers    map[string]*Router[C]
}

// NewRouter freezes entries into a Router. The supplied map is copied, so
// mutating the caller's map after NewRouter returns has no effect on the
// router.
func NewRouter[C any](entries map[string]Node[C]) *Router[C] {
	frozen := make(map[string]Node[C], len(entries))
	for name, node := range entries {
		frozen[name] = node
	}
	return &Router[C]{entries: frozen}
}

// isNode marks Router as a Node implementation, so router trees can nest.
func (r *Router[C]) isNode() {}

// buildIndexFor performs the depth-first traversal described in the router
// index spec: every procedure contributes its dotted path, every
// sub-router contributes its own dotted path and is then recursed into.
// It does not mutate r; the caller installs the result.
func buildIndexFor[C any](r *Router[C]) *routerIndex[C] {
	idx := &routerIndex[C]{
		procedures: make(map[string]*Procedure[C]),
		routers:    make(map[string]*Router[C]),
	}
	walkRouter(r, nil, idx)
	return idx
}

// walkRouter records a level's sub-routers (recursing into each) before its
// own procedures, so a procedure whose name spells out a dotted path
// overwrites one reached through nested routers under the same key.
func walkRouter[C any](r *Router[C], prefix []string, idx *routerIndex[C]) {
	for name, node := range r.entries {
		if n, ok := node.(*Router[C]); ok {
			path := append(append([]string(nil), prefix...), name)
			idx.routers[strings.Join(path, ".")] = n
			walkRouter(n, path, idx)
		}
	}
	for name, node := range r.entries {
		if n, ok := node.(*Procedure[C]); ok {
			path := append(append([]string(nil), prefix...), name)
			idx.procedures[strings.Join(path, ".")] = n
		}
	}
}

// ensureIndex builds the router's index on first call and memoizes it.
// Concurrent first access is safe: singleflight collapses concurrent
// builders into one computation, so every caller observes the same
// (equivalent) result.
func (r *Router[C]) ensureIndex() *routerIndex[C] {
	if idx := r.index.Load(); idx != nil {
		return idx
	}
	result, _, _ := r.indexOnce.Do("index", func() (any, error) {
		if idx := r.index.Load(); idx != nil {
			return idx, nil
		}
		idx := buildIndexFor(r)
		r.index.Store(idx)
		return idx, nil
	})
	return result.(*routerIndex[C])
}

// GetProcedureAtPath looks up the procedure registered at the dotted path
// formed by joining segments with ".". A leaf registered under the full
// joined path takes precedence over any sub-router sharing a prefix, since
// lookup is exact-key against the flat index rather than a re-walk of the
// tree.
func (r *Router[C]) GetProcedureAtPath(segments []string) (*Procedure[C], bool) {
	idx := r.ensureIndex()
	key := strings.Join(segments, ".")
	proc, ok := idx.procedures[key]
	return proc, ok
}

// DescribeProcedureName is the reserved path segment used by the built-in
// introspection endpoint (see the httprpc package). Routers may not
// register a top-level entry under this name.
const DescribeProcedureName = "__describe__"

// ProcedureDescriptor summarizes one registered procedure for the
// introspection endpoint.
type ProcedureDescriptor struct {
	Path      string `json:"path" cbor:"path"`
	Type      string `json:"type" cbor:"type"`
	HasInput  bool   `json:"hasInput" cbor:"hasInput"`
	HasOutput bool   `json:"hasOutput" cbor:"hasOutput"`
}

// Describe lists every procedure reachable from r, sorted by path, for use
// by the __describe__ introspection endpoint.
func (r *Router[C]) Describe() []ProcedureDescriptor {
	idx := r.ensureIndex()
	out := make([]ProcedureDescriptor, 0, len(idx.procedures))
	for path, proc := range idx.procedures {
		out = append(out, ProcedureDescriptor{
			Path:      path,
			Type:      proc.Type(),
			HasInput:  proc.input != nil,
			HasOutput: proc.output != nil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
