package catalog

import "strings"

// testMarker flags rows created for testing in the legacy shop
const testMarker = "test"

// DefaultExcludedCategories lists legacy category names that are never migrated
func DefaultExcludedCategories() []string {
	return []string{
		"Root",
		"Vianočné dekorácie",
		"Veľkonočné dekorácie",
		"Roľničky kovové",
		"Dekorácia zápich",
		"Aplikácie so zapínaním",
		"Ozdoby sisalové",
		"Girlandy",
		"Ozdoby na zavesenie",
		"Dekoračné predmety",
		"Aplikácie s magnetom",
		"Aplikácie na drôtiku",
		"Kategórie",
	}
}

// ExclusionList matches category names exactly
type ExclusionList map[string]struct{}

// NewExclusionList builds an ExclusionList from names
func NewExclusionList(names []string) ExclusionList {
	list := make(ExclusionList, len(names))
	for _, n := range names {
		list[n] = struct{}{}
	}
	return list
}

// Contains reports whether name is excluded
func (l ExclusionList) Contains(name string) bool {
	_, ok := l[name]
	return ok
}

// IsTestName reports whether name contains the test marker, ignoring case
func IsTestName(name string) bool {
	return containsFold(name, testMarker)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
