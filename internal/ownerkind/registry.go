// Package ownerkind holds the static registry of entity kinds that can own
// legal documents. The source system discovered these at runtime by scanning
// loaded types; here they are registered explicitly at startup and injected
// into whatever needs to validate an owner reference.
package ownerkind

import (
	"sort"

	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
)

// Kind describes one registered owner kind.
type Kind struct {
	// Name is the identifier stored on documents ("member", "company", ...).
	Name string
}

// Registry maps owner kind names to their configuration. It is immutable
// after construction, so concurrent reads need no locking.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry builds a registry from the given kinds. Duplicate or empty
// names are rejected: the "exactly one owner" invariant depends on kind names
// being unambiguous.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	m := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		if k.Name == "" {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner kind name cannot be empty")
		}
		if _, dup := m[k.Name]; dup {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner kind registered twice: "+k.Name)
		}
		m[k.Name] = k
	}
	return &Registry{kinds: m}, nil
}

// IsRegistered reports whether the kind name is known.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.kinds[name]
	return ok
}

// Kinds returns all registered kind names in stable order.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateRef checks an owner reference against the registry.
func (r *Registry) ValidateRef(ref id.OwnerRef) error {
	if ref.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "document must have an owner")
	}
	if !r.IsRegistered(ref.Kind) {
		return dErrors.New(dErrors.CodeValidation, "unknown owner kind: "+ref.Kind)
	}
	return nil
}

// Applies reports whether a document type restricted to applicableKinds can
// be attached to owners of the given kind. An empty restriction applies to
// every registered kind.
func (r *Registry) Applies(applicableKinds []string, kind string) bool {
	if !r.IsRegistered(kind) {
		return false
	}
	if len(applicableKinds) == 0 {
		return true
	}
	for _, k := range applicableKinds {
		if k == kind {
			return true
		}
	}
	return false
}
