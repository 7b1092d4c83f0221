package variant

import "strings"

// Query is a single classification request.
type Query struct {
	Lineage   string // empty means not provided
	Mutations MutationSet
	RecordID  string // optional external record identifier
}

// NewQuery builds a query from raw lineage and substitution strings.
func NewQuery(lineage, mutations, recordID string) Query {
	return Query{
		Lineage:   strings.TrimSpace(lineage),
		Mutations: ParseMutations(mutations),
		RecordID:  strings.TrimSpace(recordID),
	}
}

// ruleKey returns the rule key a query resolves to.
func (q Query) ruleKey() string {
	if q.Lineage != "" {
		return q.Lineage
	}
	return Wildcard
}

// Match identifies a matched variant.
type Match struct {
	Name           string
	Classification string
}

// String formats the match as "name (classification)".
func (m Match) String() string {
	return m.Name + " (" + m.Classification + ")"
}

// matches reports whether e satisfies q by sublineage or mutation rule.
func (e *Entry) matches(q Query) bool {
	hit := false
	if q.Lineage != "" && e.HasSublineage(q.Lineage) {
		hit = true
	}
	if q.Mutations.Len() > 0 && e.Rules.Len() > 0 {
		if required, ok := e.Rules.Get(q.ruleKey()); ok && required.Len() > 0 && required.SubsetOf(q.Mutations) {
			hit = true
		}
	}
	return hit
}

// Match scans the whole table and returns the last entry in table order
// that q matches. Later entries override earlier ones; the scan never
// stops early. ok is false when nothing matched.
func (t *Table) Match(q Query) (m Match, ok bool) {
	if t == nil {
		return Match{}, false
	}
	for _, e := range t.entries {
		if e.matches(q) {
			m = Match{Name: e.Name, Classification: e.Classification}
			ok = true
		}
	}
	return m, ok
}

// MatchMonitoring collects every entry of a monitoring table that q matches,
// in table order. A nil table yields a result that was never evaluated.
func MatchMonitoring(t *Table, q Query) MonitoringResult {
	if t == nil {
		return MonitoringResult{}
	}
	res := MonitoringResult{Evaluated: true}
	for _, e := range t.entries {
		if e.matches(q) {
			res.Matches = append(res.Matches, Match{Name: e.Name, Classification: e.Classification})
		}
	}
	return res
}
