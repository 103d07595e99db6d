package migration

import (
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/domain/catalog"
	"github.com/erp/catalog-migrator/internal/domain/shared/richtext"
)

// TreeBuilder rebuilds the category hierarchy from the flat legacy rows
type TreeBuilder struct {
	excluded   catalog.ExclusionList
	overrides  *catalog.OverrideNode
	registry   *catalog.ProductTypeRegistry
	normalizer *richtext.Normalizer
	logger     *zap.Logger
}

// TreeBuilderOption configures a TreeBuilder
type TreeBuilderOption func(*TreeBuilder)

// WithOverrides assigns product types from the override tree into registry
func WithOverrides(overrides *catalog.OverrideNode, registry *catalog.ProductTypeRegistry) TreeBuilderOption {
	return func(b *TreeBuilder) {
		b.overrides = overrides
		b.registry = registry
	}
}

// WithTreeNormalizer replaces the rich-text normalizer
func WithTreeNormalizer(n *richtext.Normalizer) TreeBuilderOption {
	return func(b *TreeBuilder) {
		b.normalizer = n
	}
}

// NewTreeBuilder creates a TreeBuilder dropping the excluded category names.
// Without WithOverrides no product types are assigned.
func NewTreeBuilder(excluded []string, logger *zap.Logger, opts ...TreeBuilderOption) *TreeBuilder {
	b := &TreeBuilder{
		excluded:   catalog.NewExclusionList(excluded),
		normalizer: richtext.NewNormalizer(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build turns the snapshot's category rows into a CategoryTree
func (b *TreeBuilder) Build(snapshot *Snapshot) *catalog.CategoryTree {
	// candidates survive the row filter; backfill runs on them before the
	// empty-name pass
	candidates := make([]catalog.RawCategory, 0, len(snapshot.Categories))
	for _, raw := range snapshot.Categories {
		if !b.keep(raw) {
			continue
		}
		candidates = append(candidates, b.backfill(snapshot, raw))
	}

	known := make(map[uint32]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	tree := catalog.NewCategoryTree()
	for _, c := range candidates {
		if c.Name == "" {
			b.logger.Debug("Dropping category without a name", zap.Uint32("category_id", c.ID))
			continue
		}
		tree.Add(b.instantiate(snapshot, c))
	}

	b.link(tree, known)

	if b.registry != nil {
		for i := 0; i < tree.Len(); i++ {
			node := tree.Node(catalog.NodeIndex(i))
			node.ProductType = catalog.ResolveProductType(b.overrides, b.registry, node.ID)
		}
	}

	b.logger.Info("Category tree built",
		zap.Int("rows", len(snapshot.Categories)),
		zap.Int("categories", tree.Len()),
		zap.Int("roots", len(tree.Roots())),
		zap.Int("product_types", len(tree.ProductTypes())),
	)
	return tree
}

// keep applies the row filter. Empty names are kept for backfill.
func (b *TreeBuilder) keep(raw catalog.RawCategory) bool {
	switch {
	case raw.IsDeleted():
		return false
	case catalog.IsTestName(raw.Name):
		return false
	case b.excluded.Contains(raw.Name):
		return false
	}
	return true
}

// backfill fills an empty name from the latest text override and always
// takes the latest override description when one exists
func (b *TreeBuilder) backfill(snapshot *Snapshot, raw catalog.RawCategory) catalog.RawCategory {
	text, ok := snapshot.LatestCategoryText(raw.ID)
	if !ok {
		return raw
	}
	if raw.Name == "" {
		raw.Name = text.Name
	}
	raw.Description = text.Description
	return raw
}

func (b *TreeBuilder) instantiate(snapshot *Snapshot, raw catalog.RawCategory) catalog.CategoryNode {
	node := catalog.CategoryNode{
		ID:          raw.ID,
		Name:        raw.Name,
		Slug:        raw.Slug,
		Description: b.normalizer.Normalize(raw.Description),
		ParentID:    raw.ParentID,
	}
	if node.Slug == "" {
		node.Slug = catalog.Slugify(raw.Name)
	}
	if raw.ImageID != nil {
		if file, ok := snapshot.File(*raw.ImageID); ok {
			node.Image = file.Name
		}
	}
	return node
}

// link resolves declared parents. A parent that passed the row filter but
// was dropped for an empty name leaves its children as roots, the same as
// a parent that never existed.
func (b *TreeBuilder) link(tree *catalog.CategoryTree, known map[uint32]struct{}) {
	for i := 0; i < tree.Len(); i++ {
		idx := catalog.NodeIndex(i)
		node := tree.Node(idx)
		if node.ParentID == nil {
			continue
		}

		parentID := *node.ParentID
		if _, ok := known[parentID]; !ok {
			b.logger.Debug("Promoting orphan category to root",
				zap.Uint32("category_id", node.ID),
				zap.Uint32("parent_id", parentID),
			)
			continue
		}
		parent, ok := tree.IndexOf(parentID)
		if !ok {
			continue
		}
		if err := tree.SetParent(idx, parent); err != nil {
			b.logger.Warn("Ignoring category parent link",
				zap.Uint32("category_id", node.ID),
				zap.Uint32("parent_id", parentID),
				zap.Error(err),
			)
		}
	}
}
