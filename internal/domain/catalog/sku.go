package catalog

import "fmt"

// SKUDeduplicator makes SKUs unique within one run by appending a
// zero-padded running counter per base SKU: "A" becomes "A 001", "A 002"...
type SKUDeduplicator struct {
	counters map[string]int
}

// NewSKUDeduplicator creates an empty deduplicator
func NewSKUDeduplicator() *SKUDeduplicator {
	return &SKUDeduplicator{
		counters: make(map[string]int),
	}
}

// Assign returns the next unique SKU for base
func (d *SKUDeduplicator) Assign(base string) string {
	d.counters[base]++
	return fmt.Sprintf("%s %03d", base, d.counters[base])
}

// Seen returns how many times base has been assigned
func (d *SKUDeduplicator) Seen(base string) int {
	return d.counters[base]
}
