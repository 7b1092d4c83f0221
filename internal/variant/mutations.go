package variant

import (
	"slices"
	"strings"
)

// MutationSet is a normalized set of amino-acid substitutions.
// The zero value is "not provided".
type MutationSet struct {
	provided bool
	set      map[string]struct{}
	order    []string
}

// NewMutationSet builds a provided set from already split mutation names.
// Blank names are dropped.
func NewMutationSet(names ...string) MutationSet {
	m := MutationSet{provided: true, set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := normalizeMutation(n)
		if key == "" {
			continue
		}
		if _, dup := m.set[key]; dup {
			continue
		}
		m.set[key] = struct{}{}
		m.order = append(m.order, n)
	}
	return m
}

// ParseMutations parses an observed substitution list such as
// "(Spike_F486P,Spike_F490S)" or "Spike_F486P, Spike_F490S".
// Commas and plus signs both delimit. An empty string is "not provided";
// a non-empty string of blanks is provided but empty.
func ParseMutations(s string) MutationSet {
	if s == "" {
		return MutationSet{}
	}
	s = strings.Trim(strings.TrimSpace(s), "()")
	return NewMutationSet(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+'
	})...)
}

// ParseRuleMutations parses a "+"-delimited rule value.
func ParseRuleMutations(s string) MutationSet {
	return NewMutationSet(strings.Split(s, "+")...)
}

func normalizeMutation(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Provided reports whether the query supplied mutations at all.
func (m MutationSet) Provided() bool {
	return m.provided
}

// Len returns the number of distinct mutations.
func (m MutationSet) Len() int {
	return len(m.set)
}

// Contains reports whether the set holds the mutation.
func (m MutationSet) Contains(name string) bool {
	_, ok := m.set[normalizeMutation(name)]
	return ok
}

// SubsetOf reports whether every mutation in m is in other.
func (m MutationSet) SubsetOf(other MutationSet) bool {
	for k := range m.set {
		if _, ok := other.set[k]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the normalized mutations in lexical order.
func (m MutationSet) Sorted() []string {
	out := make([]string, 0, len(m.set))
	for k := range m.set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// List returns the mutations in the order they were first given.
func (m MutationSet) List() []string {
	return m.order
}

// String joins the mutations with "+" in the order they were given.
func (m MutationSet) String() string {
	return strings.Join(m.order, "+")
}
