// Package validate checks indicator definitions for internal consistency:
// formulas against descriptions, descriptions against indicator types,
// and every referenced variable against the registry. Problems become
// typed findings, never aborts; one broken indicator cannot take down a
// group scan.
package validate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
	"github.com/ArnholdInstitute/dhis2ingestion/pkg/formula"
)

// Registry is the subset of registry lookups the validation core needs.
// *registry.Client satisfies it; tests supply an in-memory fake.
type Registry interface {
	Indicator(ctx context.Context, id string) (*registry.Indicator, error)
	KnownTypeRecord(ctx context.Context, collection, id string) (*registry.NamedObject, error)
	IdentifiableObject(ctx context.Context, id string) (*registry.NamedObject, error)
	GroupMembers(ctx context.Context, groupID string) (*registry.Group, error)
}

// Resolver resolves variable ids to display metadata, memoizing results
// for the lifetime of one group scan. Group member ids are fetched from
// the group's own collection; anything else goes through the generic
// identifiableObjects lookup first to discover its collection.
//
// The cache is shared by every worker in the scan. Entries are computed
// in full before publication, and concurrent first-writers for the same
// id produce equivalent values, so LoadOrStore is all the coordination
// needed.
type Resolver struct {
	reg         Registry
	elementType string
	known       map[string]struct{}
	cache       sync.Map // variable id -> formula.ResolvedVariable
}

// NewResolver creates a Resolver scoped to one group scan. elementType
// is the group's member collection (e.g. "indicators") and knownIDs its
// member ids.
func NewResolver(reg Registry, elementType string, knownIDs []string) *Resolver {
	known := make(map[string]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = struct{}{}
	}
	return &Resolver{reg: reg, elementType: elementType, known: known}
}

// Resolve implements formula.Resolver. Repeat calls for the same id hit
// the cache and perform no registry I/O. Only transport failures return
// an error; registry absence is an outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, id string) (formula.ResolvedVariable, error) {
	if v, ok := r.cache.Load(id); ok {
		return v.(formula.ResolvedVariable), nil
	}
	rv, err := r.lookup(ctx, id)
	if err != nil {
		return formula.ResolvedVariable{}, err
	}
	v, _ := r.cache.LoadOrStore(id, rv)
	return v.(formula.ResolvedVariable), nil
}

func (r *Resolver) lookup(ctx context.Context, id string) (formula.ResolvedVariable, error) {
	collection := r.elementType
	if _, ok := r.known[id]; !ok {
		idObj, err := r.reg.IdentifiableObject(ctx, id)
		if errors.Is(err, registry.ErrNotFound) {
			return formula.ResolvedVariable{Outcome: formula.NotInRegistry}, nil
		}
		if err != nil {
			return formula.ResolvedVariable{}, err
		}
		collection = idObj.Collection
	}

	elementType := deplural(collection)
	obj, err := r.reg.KnownTypeRecord(ctx, collection, id)
	if errors.Is(err, registry.ErrNotFound) {
		return formula.ResolvedVariable{Outcome: formula.NoMetadata, ElementType: elementType}, nil
	}
	if err != nil {
		return formula.ResolvedVariable{}, err
	}
	if obj.DisplayName == nil || *obj.DisplayName == "" {
		return formula.ResolvedVariable{Outcome: formula.NoMetadata, ElementType: elementType}, nil
	}
	return formula.ResolvedVariable{
		DisplayName: *obj.DisplayName,
		Outcome:     formula.Resolved,
		ElementType: elementType,
	}, nil
}

// deplural singularizes an English collection name: "dataElements"
// becomes "dataElement". Names ending in a double s are left alone.
func deplural(s string) string {
	if len(s) >= 2 && strings.HasSuffix(s, "s") && s[len(s)-2] != 's' {
		return s[:len(s)-1]
	}
	return s
}
