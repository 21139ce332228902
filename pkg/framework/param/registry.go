package param

import (
	"sync"
)

// Registry manages a plugin's parameters. Lookup is lock-guarded but the
// values themselves are atomic, so the audio thread reads them through
// pointers it resolved outside the callback.
type Registry struct {
	params map[uint32]*Parameter
	order  []uint32 // registration order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		order:  make([]uint32, 0),
	}
}

// Add registers parameters, ignoring IDs that are already present.
func (r *Registry) Add(params ...*Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			continue
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
}

// Get retrieves a parameter by ID, or nil.
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// GetByIndex retrieves a parameter by registration index, or nil.
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}
	return r.params[r.order[index]]
}

// Count returns the number of registered parameters.
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}

// SetPlain sets a parameter's value from the plain range, reporting whether
// the ID exists. Preset loading goes through here.
func (r *Registry) SetPlain(id uint32, plain float64) bool {
	if p := r.Get(id); p != nil {
		p.SetPlainValue(plain)
		return true
	}
	return false
}
