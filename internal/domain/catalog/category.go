package catalog

import (
	"fmt"
	"slices"

	"github.com/erp/catalog-migrator/internal/domain/shared"
	"github.com/erp/catalog-migrator/internal/domain/shared/richtext"
)

// NodeIndex addresses a CategoryNode inside a CategoryTree
type NodeIndex int

// NoNode is the NodeIndex of an absent node
const NoNode NodeIndex = -1

// Valid reports whether i refers to a node
func (i NodeIndex) Valid() bool {
	return i >= 0
}

// CategoryNode is a category rebuilt from a RawCategory
type CategoryNode struct {
	ID          uint32
	Name        string
	Slug        string
	Description richtext.Document
	// ParentID is the parent id declared by the source row
	ParentID *uint32
	// Parent is the resolved parent; NoNode for roots
	Parent      NodeIndex
	Image       string
	ProductType *ProductType
	RemoteID    string
}

// IsRoot reports whether the node has no resolved parent
func (n *CategoryNode) IsRoot() bool {
	return n.Parent == NoNode
}

// IsUploaded reports whether the node has a remote identifier
func (n *CategoryNode) IsUploaded() bool {
	return n.RemoteID != ""
}

// HasImage reports whether an image file was assigned
func (n *CategoryNode) HasImage() bool {
	return n.Image != ""
}

// CategoryTree is an arena of CategoryNodes linked by parent index.
// The parent relation is kept acyclic by SetParent.
type CategoryTree struct {
	nodes []CategoryNode
	byID  map[uint32]NodeIndex
}

// NewCategoryTree creates an empty tree
func NewCategoryTree() *CategoryTree {
	return &CategoryTree{
		byID: make(map[uint32]NodeIndex),
	}
}

// Add appends a node as a root and returns its index. Pointers returned by
// Node are invalidated by Add.
func (t *CategoryTree) Add(node CategoryNode) NodeIndex {
	node.Parent = NoNode
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, node)
	if _, exists := t.byID[node.ID]; !exists {
		t.byID[node.ID] = idx
	}
	return idx
}

// Len returns the number of nodes
func (t *CategoryTree) Len() int {
	return len(t.nodes)
}

// Node returns the node at i
func (t *CategoryTree) Node(i NodeIndex) *CategoryNode {
	return &t.nodes[i]
}

// IndexOf returns the index of the first node with the given source id
func (t *CategoryTree) IndexOf(id uint32) (NodeIndex, bool) {
	idx, ok := t.byID[id]
	return idx, ok
}

// ByID returns the first node with the given source id
func (t *CategoryTree) ByID(id uint32) (*CategoryNode, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.nodes[idx], true
}

// SetParent links child under parent. Linking a node under itself or under
// one of its descendants is rejected.
func (t *CategoryTree) SetParent(child, parent NodeIndex) error {
	if !t.contains(child) || !t.contains(parent) {
		return shared.NewDomainError("INVALID_NODE", fmt.Sprintf("node index out of range: %d -> %d", child, parent))
	}
	for cur := parent; cur != NoNode; cur = t.nodes[cur].Parent {
		if cur == child {
			return shared.NewDomainError(shared.ErrCycle.Code, fmt.Sprintf("category %d cannot be its own ancestor", t.nodes[child].ID))
		}
	}
	t.nodes[child].Parent = parent
	return nil
}

// Parent returns the parent index of i
func (t *CategoryTree) Parent(i NodeIndex) NodeIndex {
	return t.nodes[i].Parent
}

// ParentNode returns the parent of i, if any
func (t *CategoryTree) ParentNode(i NodeIndex) (*CategoryNode, bool) {
	p := t.nodes[i].Parent
	if p == NoNode {
		return nil, false
	}
	return &t.nodes[p], true
}

// Children returns the direct children of i in arena order
func (t *CategoryTree) Children(i NodeIndex) []NodeIndex {
	var out []NodeIndex
	for idx := range t.nodes {
		if t.nodes[idx].Parent == i {
			out = append(out, NodeIndex(idx))
		}
	}
	return out
}

// Roots returns every node without a parent in arena order
func (t *CategoryTree) Roots() []NodeIndex {
	return t.Children(NoNode)
}

// Ancestors returns the parent chain of i, nearest first
func (t *CategoryTree) Ancestors(i NodeIndex) []NodeIndex {
	var out []NodeIndex
	for cur := t.nodes[i].Parent; cur != NoNode; cur = t.nodes[cur].Parent {
		out = append(out, cur)
	}
	return out
}

// Depth returns the number of hops from i to its root. Roots have depth 0.
func (t *CategoryTree) Depth(i NodeIndex) int {
	return len(t.Ancestors(i))
}

// DepthOrder returns all node indices sorted by ascending depth. Nodes of
// equal depth keep arena order, so every parent precedes its children.
func (t *CategoryTree) DepthOrder() []NodeIndex {
	depths := make([]int, len(t.nodes))
	order := make([]NodeIndex, len(t.nodes))
	for i := range t.nodes {
		order[i] = NodeIndex(i)
		depths[i] = t.Depth(NodeIndex(i))
	}
	slices.SortStableFunc(order, func(a, b NodeIndex) int {
		return depths[a] - depths[b]
	})
	return order
}

// ProductTypes returns the distinct product types assigned to nodes, in
// depth order of first use
func (t *CategoryTree) ProductTypes() []*ProductType {
	seen := make(map[*ProductType]struct{})
	var out []*ProductType
	for _, idx := range t.DepthOrder() {
		pt := t.nodes[idx].ProductType
		if pt == nil {
			continue
		}
		if _, ok := seen[pt]; ok {
			continue
		}
		seen[pt] = struct{}{}
		out = append(out, pt)
	}
	return out
}

func (t *CategoryTree) contains(i NodeIndex) bool {
	return i >= 0 && int(i) < len(t.nodes)
}
