package checks

import (
	"context"
	"sync"

	"github.com/jonathan/markup-checker/internal/types"
)

// CheckFunc inspects a page and returns zero or more violation messages.
// An empty result means the check passed. A returned error means the check
// itself failed; *UnverifiedError marks a partial result.
type CheckFunc func(ctx context.Context, page *Page, in Input) ([]string, error)

// Variant restricts a check to one channel.
type Variant string

const (
	// VariantAny checks run for both channels.
	VariantAny Variant = "any"
	// VariantEmail checks run only for the email variant.
	VariantEmail Variant = "email"
	// VariantWeb checks run only for the web variant.
	VariantWeb Variant = "web"
)

// Applies reports whether the variant is active for the given flags.
func (v Variant) Applies(flags types.ChannelFlags) bool {
	switch v {
	case VariantEmail:
		return flags.Email
	case VariantWeb:
		return !flags.Email
	default:
		return true
	}
}

// Descriptor binds a check id and display label to its function.
type Descriptor struct {
	ID      string
	Label   string
	Variant Variant

	// SortMessages requests lexicographic ordering of the messages before
	// they are joined, for checks whose findings arrive in completion order.
	SortMessages bool

	Fn CheckFunc
}

// Registry is an ordered set of check descriptors
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Descriptor
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]Descriptor),
	}
}

// Register adds a descriptor. Registration order defines report order.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return &InvalidDescriptorError{ID: d.ID, Message: "id is required"}
	}
	if d.Fn == nil {
		return &InvalidDescriptorError{ID: d.ID, Message: "check function is required"}
	}
	if d.Variant == "" {
		d.Variant = VariantAny
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; exists {
		return &DuplicateIDError{ID: d.ID}
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

// MustRegister adds a descriptor, panicking if it fails
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get retrieves a descriptor by id
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, &NotFoundError{ID: id}
	}
	return d, nil
}

// List returns every descriptor in registration order
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Select resolves ids in the order given. The first unknown id fails the call.
func (r *Registry) Select(ids []string) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		d, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ForFlags returns the descriptors that apply to the active channel.
func (r *Registry) ForFlags(flags types.ChannelFlags) []Descriptor {
	all := r.List()
	out := make([]Descriptor, 0, len(all))
	for _, d := range all {
		if d.Variant.Applies(flags) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered checks
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
