package template

import (
	"iter"
	"sync"

	"fjacquet/ledger-import/internal/importerror"
)

// Registry stores validated format descriptors per institution.
// Descriptors are immutable once registered; the registry hands out copies.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]Descriptor
	order []string
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Descriptor)}
}

// Register validates and stores a descriptor. It fails with
// *importerror.ValidationError when the descriptor is invalid or when the id
// is already taken.
func (r *Registry) Register(desc Descriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[desc.ID]; exists {
		return &importerror.ValidationError{
			TemplateID: desc.ID, Field: "id",
			Reason: "template id already registered",
		}
	}

	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	return nil
}

// Get returns the descriptor for id, or *importerror.NotFoundError.
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.byID[id]
	if !ok {
		return Descriptor{}, &importerror.NotFoundError{TemplateID: id}
	}
	return desc, nil
}

// List returns a lazy, restartable sequence of registered descriptors in
// insertion order.
func (r *Registry) List() iter.Seq[Descriptor] {
	return func(yield func(Descriptor) bool) {
		r.mu.RLock()
		ids := make([]string, len(r.order))
		copy(ids, r.order)
		r.mu.RUnlock()

		for _, id := range ids {
			r.mu.RLock()
			desc, ok := r.byID[id]
			r.mu.RUnlock()
			if !ok {
				continue
			}
			if !yield(desc) {
				return
			}
		}
	}
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
