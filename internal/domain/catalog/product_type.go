package catalog

// ProductType is a storefront product type shared by every category that
// resolves to the same name
type ProductType struct {
	Name     string
	RemoteID string
}

// Slug returns the product type slug, built the same way as category and
// product slugs
func (t *ProductType) Slug() string {
	return Slugify(t.Name)
}

// IsUploaded reports whether the type has a remote identifier
func (t *ProductType) IsUploaded() bool {
	return t.RemoteID != ""
}

// ProductTypeRegistry deduplicates ProductType instances by exact name for
// the duration of one run. It is append-only and not safe for concurrent use.
type ProductTypeRegistry struct {
	types  []*ProductType
	byName map[string]*ProductType
}

// NewProductTypeRegistry creates an empty registry
func NewProductTypeRegistry() *ProductTypeRegistry {
	return &ProductTypeRegistry{
		byName: make(map[string]*ProductType),
	}
}

// Obtain returns the registered type with the given name, registering a new
// one on first use
func (r *ProductTypeRegistry) Obtain(name string) *ProductType {
	if t, ok := r.byName[name]; ok {
		return t
	}
	t := &ProductType{Name: name}
	r.byName[name] = t
	r.types = append(r.types, t)
	return t
}

// Lookup returns the registered type with the given name, if any
func (r *ProductTypeRegistry) Lookup(name string) (*ProductType, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// All returns the registered types in registration order
func (r *ProductTypeRegistry) All() []*ProductType {
	out := make([]*ProductType, len(r.types))
	copy(out, r.types)
	return out
}

// Len returns the number of registered types
func (r *ProductTypeRegistry) Len() int {
	return len(r.types)
}
