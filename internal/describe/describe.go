// Package describe renders human-readable summaries of reference variant entries.
package describe

import (
	"fmt"
	"strings"

	"github.com/inodb/vibe-voc/internal/variant"
)

// DefaultLimit is the number of mutation-rule examples shown per variant.
const DefaultLimit = 3

// lineageLabel renders a rule key for display.
func lineageLabel(key string) string {
	if variant.IsWildcard(key) {
		return "any pango lineage"
	}
	return key
}

// Sublineages returns the sentence listing an entry's unconditional sublineages.
func Sublineages(e *variant.Entry) string {
	if len(e.Sublineages) == 0 {
		return fmt.Sprintf("%s (%s) has no listed sub-lineages", e.Name, e.Classification)
	}
	return fmt.Sprintf("%s (%s) includes %s", e.Name, e.Classification, strings.Join(e.Sublineages, ", "))
}

// RuleExamples returns the mutation-rule clause for an entry, listing at most
// limit examples in source order. It is empty when the entry has no rules.
func RuleExamples(e *variant.Entry, limit int) string {
	rules := e.Rules.All()
	if len(rules) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	examples := make([]string, 0, min(limit, len(rules)))
	for _, r := range rules[:min(limit, len(rules))] {
		examples = append(examples, lineageLabel(r.Lineage)+" with "+r.Mutations.String())
	}
	return fmt.Sprintf(" and additional %d sub-lineages that fulfil the mutation criterion, e.g. %s",
		len(rules), strings.Join(examples, ", "))
}

// Describe renders a one-sentence description of an entry.
func Describe(e *variant.Entry, limit int) string {
	return Sublineages(e) + RuleExamples(e, limit) + "."
}

// DescribeTable describes every entry of t in table order.
func DescribeTable(t *variant.Table, limit int) []string {
	out := make([]string, 0, t.Len())
	for _, e := range t.Entries() {
		out = append(out, Describe(e, limit))
	}
	return out
}
