package variant

import "strings"

// Presentation sentinels.
const (
	NotClassified           = "Not classified"
	NotEvaluated            = "Not evaluated"
	NotClassifiedMonitoring = "Not classified under monitoring"
)

// MonitoringStatus distinguishes an unchecked monitoring table from one
// that was checked without a match.
type MonitoringStatus int

const (
	MonitoringNotEvaluated MonitoringStatus = iota
	MonitoringNoMatch
	MonitoringMatched
)

// MonitoringResult holds the matches from a monitoring table.
type MonitoringResult struct {
	Evaluated bool
	Matches   []Match
}

// Status returns the result state.
func (r MonitoringResult) Status() MonitoringStatus {
	switch {
	case !r.Evaluated:
		return MonitoringNotEvaluated
	case len(r.Matches) == 0:
		return MonitoringNoMatch
	default:
		return MonitoringMatched
	}
}

// Label renders the result for reports.
func (r MonitoringResult) Label() string {
	switch r.Status() {
	case MonitoringNotEvaluated:
		return NotEvaluated
	case MonitoringNoMatch:
		return NotClassifiedMonitoring
	}
	parts := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// MatchResult is the outcome of one query against both tables.
type MatchResult struct {
	Primary    *Match // nil when not classified
	Monitoring MonitoringResult
}

// Classified reports whether the primary table matched.
func (r MatchResult) Classified() bool {
	return r.Primary != nil
}

// PrimaryLabel renders the primary match as "name (classification)" or NotClassified.
func (r MatchResult) PrimaryLabel() string {
	if r.Primary == nil {
		return NotClassified
	}
	return r.Primary.String()
}

// MonitoringLabel renders the monitoring matches.
func (r MatchResult) MonitoringLabel() string {
	return r.Monitoring.Label()
}
