package contract

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// OverridePolicy controls how discovery treats an operation declared at
// more than one level of a type chain.
type OverridePolicy string

const (
	// OverrideMostDerived keeps only the first declaration of each operation
	// name in discovery order, which is the most-derived one.
	OverrideMostDerived OverridePolicy = "most_derived"
	// OverrideKeepAll keeps every declaration reached by the walk, including
	// a capability listed at more than one level.
	OverrideKeepAll OverridePolicy = "keep_all"
)

// ParseOverridePolicy converts a configuration value to an OverridePolicy.
// The empty string selects OverrideMostDerived.
func ParseOverridePolicy(s string) (OverridePolicy, error) {
	switch OverridePolicy(s) {
	case "", OverrideMostDerived:
		return OverrideMostDerived, nil
	case OverrideKeepAll:
		return OverrideKeepAll, nil
	default:
		return "", fmt.Errorf("unknown override policy %q (valid: %s, %s)", s, OverrideMostDerived, OverrideKeepAll)
	}
}

// TypeDecl declares one level of a model type chain.
type TypeDecl struct {
	ID           TypeID
	Parent       TypeID   // empty when the type has no ancestor
	Capabilities []TypeID // capability IDs implemented at this level, in order
	Contracts    []Contract
}

type typeEntry struct {
	parent       TypeID
	capabilities []TypeID
	contracts    []Contract
}

// Option configures a Registry.
type Option func(*Registry)

// WithOverridePolicy sets the override policy (default OverrideMostDerived).
func WithOverridePolicy(p OverridePolicy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// WithLogger sets the logger used for discovery diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Registry maps type IDs to their declared field contracts.
// Discovery walks a type's declared parent chain up to and including the
// root type. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	root         TypeID
	policy       OverridePolicy
	logger       *slog.Logger
	types        map[TypeID]*typeEntry
	capabilities map[TypeID][]Contract
	discovered   map[TypeID][]Contract // memoised Discover results
}

// NewRegistry creates an empty registry whose walks stop at root.
func NewRegistry(root TypeID, opts ...Option) *Registry {
	r := &Registry{
		root:         root,
		policy:       OverrideMostDerived,
		logger:       slog.Default(),
		types:        make(map[TypeID]*typeEntry),
		capabilities: make(map[TypeID][]Contract),
		discovered:   make(map[TypeID][]Contract),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the type at which discovery stops.
func (r *Registry) Root() TypeID {
	return r.root
}

// Policy returns the configured override policy.
func (r *Registry) Policy() OverridePolicy {
	return r.policy
}

// RegisterType adds a type declaration. Each contract's Owner is set to decl.ID.
func (r *Registry) RegisterType(decl TypeDecl) error {
	if decl.ID == "" {
		return fmt.Errorf("type ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[decl.ID]; exists {
		return fmt.Errorf("type %s already registered", decl.ID)
	}

	r.types[decl.ID] = &typeEntry{
		parent:       decl.Parent,
		capabilities: append([]TypeID(nil), decl.Capabilities...),
		contracts:    stamp(decl.ID, decl.Contracts),
	}
	clear(r.discovered)
	return nil
}

// RegisterCapability adds a capability whose contracts are shared by every
// type that lists it. Each contract's Owner is set to id.
func (r *Registry) RegisterCapability(id TypeID, contracts ...Contract) error {
	if id == "" {
		return fmt.Errorf("capability ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.capabilities[id]; exists {
		return fmt.Errorf("capability %s already registered", id)
	}

	r.capabilities[id] = stamp(id, contracts)
	clear(r.discovered)
	return nil
}

// Types returns the registered type IDs, sorted.
func (r *Registry) Types() []TypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]TypeID, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Discover returns the contracts applicable to instances of id, in order:
// the type's own contracts, then its capabilities' contracts, then the same
// for each ancestor up to and including the root. An unknown type yields nil.
// The returned slice must not be modified.
func (r *Registry) Discover(id TypeID) []Contract {
	r.mu.RLock()
	cached, ok := r.discovered[id]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.discovered[id]; ok {
		return cached
	}
	contracts := r.walk(id)
	r.discovered[id] = contracts
	return contracts
}

// walk must be called with r.mu held.
func (r *Registry) walk(id TypeID) []Contract {
	var out []Contract
	seenOps := make(map[string]bool)
	visited := make(map[TypeID]bool)

	add := func(cs []Contract) {
		for _, c := range cs {
			if r.policy != OverrideKeepAll {
				if seenOps[c.Operation] {
					continue
				}
				seenOps[c.Operation] = true
			}
			out = append(out, c)
		}
	}

	for current := id; current != ""; {
		if visited[current] {
			r.logger.Warn("contract discovery found a cycle", "type", id, "at", current)
			break
		}
		visited[current] = true

		entry, ok := r.types[current]
		if !ok {
			if current != id {
				r.logger.Debug("contract discovery reached unregistered ancestor", "type", id, "ancestor", current)
			}
			break
		}

		add(entry.contracts)
		for _, capID := range entry.capabilities {
			capContracts, ok := r.capabilities[capID]
			if !ok {
				r.logger.Debug("skipping unregistered capability", "type", current, "capability", capID)
				continue
			}
			add(capContracts)
		}

		if current == r.root {
			break
		}
		current = entry.parent
	}

	return out
}

func stamp(owner TypeID, contracts []Contract) []Contract {
	out := make([]Contract, len(contracts))
	for i, c := range contracts {
		c.Owner = owner
		out[i] = c
	}
	return out
}
