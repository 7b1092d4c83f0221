// Package variant provides the reference variant table model and the
// lineage/mutation matching rules used to classify surveillance records.
package variant

import (
	"fmt"
	"slices"
)

// Wildcard is the rule key meaning "applies regardless of lineage".
const Wildcard = "any_pango_lineage"

// wildcardAliases are rule keys accepted in source tables as the wildcard.
var wildcardAliases = []string{Wildcard, "any_lineage"}

// IsWildcard reports whether a rule key from source data denotes the wildcard.
func IsWildcard(key string) bool {
	return slices.Contains(wildcardAliases, key)
}

// Rule requires a lineage (or the wildcard) to carry a set of mutations.
type Rule struct {
	Lineage   string
	Mutations MutationSet
}

// Rules holds an entry's lineage/mutation rules in source order.
type Rules struct {
	order []Rule
	index map[string]int
}

// Add appends a rule. A later rule for the same lineage replaces the earlier one.
func (r *Rules) Add(lineage string, m MutationSet) {
	if IsWildcard(lineage) {
		lineage = Wildcard
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[lineage]; ok {
		r.order[i].Mutations = m
		return
	}
	r.index[lineage] = len(r.order)
	r.order = append(r.order, Rule{Lineage: lineage, Mutations: m})
}

// Get returns the required mutations for a lineage key.
func (r *Rules) Get(lineage string) (MutationSet, bool) {
	i, ok := r.index[lineage]
	if !ok {
		return MutationSet{}, false
	}
	return r.order[i].Mutations, true
}

// All returns the rules in source order.
func (r *Rules) All() []Rule {
	return r.order
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	return len(r.order)
}

// Entry is one row of a reference table.
type Entry struct {
	Name           string
	Classification string // e.g. "VOC", "VOI", "VUM"; not a closed set
	Sublineages    []string
	Rules          Rules
}

// HasSublineage reports whether lineage is listed unconditionally under this entry.
func (e *Entry) HasSublineage(lineage string) bool {
	return slices.Contains(e.Sublineages, lineage)
}

// Table maps variant names to entries and keeps source row order.
type Table struct {
	entries []*Entry
	index   map[string]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add appends an entry. Names must be unique within a table.
func (t *Table) Add(e *Entry) error {
	if e.Name == "" {
		return fmt.Errorf("variant entry has empty name")
	}
	if _, ok := t.index[e.Name]; ok {
		return fmt.Errorf("duplicate variant %q", e.Name)
	}
	t.index[e.Name] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Get returns the entry with the given name.
func (t *Table) Get(name string) (*Entry, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.entries[i], true
}

// Entries returns all entries in source order.
func (t *Table) Entries() []*Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
