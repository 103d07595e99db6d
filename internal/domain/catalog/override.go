package catalog

import "math"

// SkeletonRootID is the id of the synthetic root of an override tree
const SkeletonRootID uint32 = math.MaxUint32

// SkeletonRootName is the name of the synthetic root of an override tree
const SkeletonRootName = "root"

// OverrideNode is one node of the human-curated category override tree.
// An empty TypeName means the category inherits its nearest ancestor's type.
type OverrideNode struct {
	ID       uint32
	Name     string
	TypeName string
	Children []*OverrideNode
}

// ResolutionKind tells how a category id was resolved against the tree
type ResolutionKind int

const (
	// ResolutionAbsent means the id does not appear in the tree
	ResolutionAbsent ResolutionKind = iota
	// ResolutionInherit means the id was found but no ancestor seen so far names a type
	ResolutionInherit
	// ResolutionFound means a type name was determined
	ResolutionFound
)

// String returns the kind name
func (k ResolutionKind) String() string {
	switch k {
	case ResolutionFound:
		return "found"
	case ResolutionInherit:
		return "inherit"
	default:
		return "absent"
	}
}

// Resolution is the result of resolving a category id against the tree
type Resolution struct {
	Kind ResolutionKind
	Name string
}

// Found builds a resolution carrying a type name
func Found(name string) Resolution {
	return Resolution{Kind: ResolutionFound, Name: name}
}

// Inherit builds a resolution asking the caller to use its own type name
func Inherit() Resolution {
	return Resolution{Kind: ResolutionInherit}
}

// Absent builds a resolution for an id missing from the tree
func Absent() Resolution {
	return Resolution{Kind: ResolutionAbsent}
}

// Resolve searches the subtree rooted at n for categoryID. The deepest exact
// match wins; an empty match inherits the nearest non-empty ancestor.
func (n *OverrideNode) Resolve(categoryID uint32) Resolution {
	if n == nil {
		return Absent()
	}
	if n.ID == categoryID {
		if n.TypeName == "" {
			return Inherit()
		}
		return Found(n.TypeName)
	}

	for _, child := range n.Children {
		res := child.Resolve(categoryID)
		switch res.Kind {
		case ResolutionFound:
			return res
		case ResolutionInherit:
			if n.TypeName == "" {
				return Inherit()
			}
			return Found(n.TypeName)
		}
	}
	return Absent()
}

// TypeNameFor returns the effective type name of categoryID, if one exists
func (n *OverrideNode) TypeNameFor(categoryID uint32) (string, bool) {
	res := n.Resolve(categoryID)
	if res.Kind != ResolutionFound {
		return "", false
	}
	return res.Name, true
}

// ResolveProductType returns the shared ProductType for categoryID, creating
// and registering it on first use. Nil means the category has no type.
func ResolveProductType(overrides *OverrideNode, registry *ProductTypeRegistry, categoryID uint32) *ProductType {
	name, ok := overrides.TypeNameFor(categoryID)
	if !ok {
		return nil
	}
	return registry.Obtain(name)
}

// Walk visits n and all its descendants depth-first
func (n *OverrideNode) Walk(fn func(node *OverrideNode, depth int)) {
	n.walk(fn, 0)
}

func (n *OverrideNode) walk(fn func(node *OverrideNode, depth int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}
