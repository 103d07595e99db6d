package migration

import (
	"strings"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
)

// BuildSkeleton mirrors tree as an override document with empty type names,
// rooted at the synthetic skeleton root. Children keep tree order.
func BuildSkeleton(tree *catalog.CategoryTree) *catalog.OverrideNode {
	children := make(map[catalog.NodeIndex][]catalog.NodeIndex, tree.Len())
	for i := 0; i < tree.Len(); i++ {
		idx := catalog.NodeIndex(i)
		parent := tree.Parent(idx)
		children[parent] = append(children[parent], idx)
	}

	var subtree func(idx catalog.NodeIndex) *catalog.OverrideNode
	subtree = func(idx catalog.NodeIndex) *catalog.OverrideNode {
		node := tree.Node(idx)
		out := &catalog.OverrideNode{
			ID:   node.ID,
			Name: strings.TrimSpace(node.Name),
		}
		for _, c := range children[idx] {
			out.Children = append(out.Children, subtree(c))
		}
		return out
	}

	root := &catalog.OverrideNode{
		ID:   catalog.SkeletonRootID,
		Name: catalog.SkeletonRootName,
	}
	for _, r := range children[catalog.NoNode] {
		root.Children = append(root.Children, subtree(r))
	}
	return root
}
