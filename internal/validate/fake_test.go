package validate

import (
	"context"
	"fmt"
	"sync"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
)

// fakeRegistry is an in-memory Registry for tests. Objects are keyed by
// id and carry the collection they live in; lookups against the wrong
// collection miss, like the real API.
type fakeRegistry struct {
	mu         sync.Mutex
	indicators map[string]*registry.Indicator
	objects    map[string]fakeObject
	groups     map[string]*registry.Group
	calls      map[string]int
}

type fakeObject struct {
	collection  string
	displayName *string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		indicators: make(map[string]*registry.Indicator),
		objects:    make(map[string]fakeObject),
		groups:     make(map[string]*registry.Group),
		calls:      make(map[string]int),
	}
}

func (f *fakeRegistry) addObject(collection, id, displayName string) {
	f.objects[id] = fakeObject{collection: collection, displayName: &displayName}
}

func (f *fakeRegistry) addBareObject(collection, id string) {
	f.objects[id] = fakeObject{collection: collection}
}

func (f *fakeRegistry) count(method, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method+":"+id]++
}

func (f *fakeRegistry) callCount(method, id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+":"+id]
}

func (f *fakeRegistry) Indicator(_ context.Context, id string) (*registry.Indicator, error) {
	f.count("Indicator", id)
	ind, ok := f.indicators[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return ind, nil
}

func (f *fakeRegistry) KnownTypeRecord(_ context.Context, collection, id string) (*registry.NamedObject, error) {
	f.count("KnownTypeRecord", id)
	obj, ok := f.objects[id]
	if !ok || obj.collection != collection {
		return nil, registry.ErrNotFound
	}
	return &registry.NamedObject{ID: id, DisplayName: obj.displayName}, nil
}

func (f *fakeRegistry) IdentifiableObject(_ context.Context, id string) (*registry.NamedObject, error) {
	f.count("IdentifiableObject", id)
	obj, ok := f.objects[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return &registry.NamedObject{
		ID:          id,
		DisplayName: obj.displayName,
		Href:        fmt.Sprintf("https://example.org/api/%s/%s", obj.collection, id),
		Collection:  obj.collection,
	}, nil
}

func (f *fakeRegistry) GroupMembers(_ context.Context, groupID string) (*registry.Group, error) {
	f.count("GroupMembers", groupID)
	g, ok := f.groups[groupID]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return g, nil
}

func strp(s string) *string { return &s }
