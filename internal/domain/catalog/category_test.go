package catalog

import (
	"math/rand/v2"
	"testing"

	"github.com/erp/catalog-migrator/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain returns a tree 1 <- 2 <- 3 plus an unrelated root 4
func buildChain(t *testing.T) *CategoryTree {
	t.Helper()
	tree := NewCategoryTree()
	a := tree.Add(CategoryNode{ID: 1, Name: "A"})
	b := tree.Add(CategoryNode{ID: 2, Name: "B"})
	c := tree.Add(CategoryNode{ID: 3, Name: "C"})
	tree.Add(CategoryNode{ID: 4, Name: "D"})
	require.NoError(t, tree.SetParent(b, a))
	require.NoError(t, tree.SetParent(c, b))
	return tree
}

// randomForest links every node to a random earlier node or leaves it a root,
// then shuffles arena order by adding nodes in a random permutation
func randomForest(t *testing.T, r *rand.Rand, n int) *CategoryTree {
	t.Helper()
	parents := make([]int, n)
	for i := range parents {
		parents[i] = -1
		if i > 0 && r.IntN(4) != 0 {
			parents[i] = r.IntN(i)
		}
	}

	perm := r.Perm(n)
	tree := NewCategoryTree()
	indexOf := make(map[int]NodeIndex, n)
	for _, p := range perm {
		indexOf[p] = tree.Add(CategoryNode{ID: uint32(p + 1)})
	}
	for i, p := range parents {
		if p < 0 {
			continue
		}
		require.NoError(t, tree.SetParent(indexOf[i], indexOf[p]))
	}
	return tree
}

func TestCategoryTree_Add(t *testing.T) {
	tree := NewCategoryTree()
	idx := tree.Add(CategoryNode{ID: 7, Name: "Lamps", Parent: 3})

	assert.Equal(t, NodeIndex(0), idx)
	assert.Equal(t, 1, tree.Len())
	assert.True(t, tree.Node(idx).IsRoot(), "Add always inserts a root")

	found, ok := tree.IndexOf(7)
	require.True(t, ok)
	assert.Equal(t, idx, found)

	_, ok = tree.IndexOf(8)
	assert.False(t, ok)
}

func TestCategoryTree_SetParent(t *testing.T) {
	t.Run("links child to parent", func(t *testing.T) {
		tree := buildChain(t)
		parent, ok := tree.ParentNode(1)
		require.True(t, ok)
		assert.Equal(t, uint32(1), parent.ID)
	})

	t.Run("rejects self parent", func(t *testing.T) {
		tree := buildChain(t)
		err := tree.SetParent(0, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrCycle)
		assert.True(t, tree.Node(0).IsRoot())
	})

	t.Run("rejects descendant as parent", func(t *testing.T) {
		tree := buildChain(t)
		err := tree.SetParent(0, 2)
		require.Error(t, err)
		assert.True(t, tree.Node(0).IsRoot())
	})

	t.Run("rejects out of range", func(t *testing.T) {
		tree := buildChain(t)
		assert.Error(t, tree.SetParent(0, 10))
		assert.Error(t, tree.SetParent(NoNode, 0))
	})
}

func TestCategoryTree_Navigation(t *testing.T) {
	tree := buildChain(t)

	assert.Equal(t, []NodeIndex{0, 3}, tree.Roots())
	assert.Equal(t, []NodeIndex{1}, tree.Children(0))
	assert.Empty(t, tree.Children(2))
	assert.Equal(t, []NodeIndex{1, 0}, tree.Ancestors(2))
	assert.Equal(t, 0, tree.Depth(0))
	assert.Equal(t, 1, tree.Depth(1))
	assert.Equal(t, 2, tree.Depth(2))
	assert.Equal(t, 0, tree.Depth(3))
}

func TestCategoryTree_DepthOrder(t *testing.T) {
	t.Run("stable within a depth level", func(t *testing.T) {
		tree := NewCategoryTree()
		child := tree.Add(CategoryNode{ID: 10})
		root1 := tree.Add(CategoryNode{ID: 20})
		root2 := tree.Add(CategoryNode{ID: 30})
		require.NoError(t, tree.SetParent(child, root2))

		assert.Equal(t, []NodeIndex{root1, root2, child}, tree.DepthOrder())
	})

	t.Run("empty tree", func(t *testing.T) {
		assert.Empty(t, NewCategoryTree().DepthOrder())
	})
}

func TestCategoryTree_ForestProperties(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*7))
		tree := randomForest(t, r, 1+r.IntN(60))

		t.Run("no node is its own ancestor", func(t *testing.T) {
			for i := 0; i < tree.Len(); i++ {
				assert.NotContains(t, tree.Ancestors(NodeIndex(i)), NodeIndex(i))
			}
		})

		t.Run("depth is parent depth plus one", func(t *testing.T) {
			for i := 0; i < tree.Len(); i++ {
				idx := NodeIndex(i)
				parent := tree.Parent(idx)
				if parent == NoNode {
					assert.Equal(t, 0, tree.Depth(idx))
					continue
				}
				assert.Equal(t, tree.Depth(parent)+1, tree.Depth(idx))
			}
		})

		t.Run("depth order places parents first", func(t *testing.T) {
			order := tree.DepthOrder()
			require.Len(t, order, tree.Len())
			position := make(map[NodeIndex]int, len(order))
			for pos, idx := range order {
				position[idx] = pos
			}
			for i := 0; i < tree.Len(); i++ {
				idx := NodeIndex(i)
				if parent := tree.Parent(idx); parent != NoNode {
					assert.Less(t, position[parent], position[idx])
				}
			}
		})
	}
}

func TestCategoryTree_ProductTypes(t *testing.T) {
	registry := NewProductTypeRegistry()
	lamp := registry.Obtain("Lamp")
	vase := registry.Obtain("Vase")

	tree := NewCategoryTree()
	a := tree.Add(CategoryNode{ID: 1, ProductType: lamp})
	b := tree.Add(CategoryNode{ID: 2, ProductType: lamp})
	tree.Add(CategoryNode{ID: 3})
	d := tree.Add(CategoryNode{ID: 4, ProductType: vase})
	require.NoError(t, tree.SetParent(b, a))
	require.NoError(t, tree.SetParent(d, b))

	types := tree.ProductTypes()
	require.Len(t, types, 2)
	assert.Same(t, lamp, types[0])
	assert.Same(t, vase, types[1])
}
