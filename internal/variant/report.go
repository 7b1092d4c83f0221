package variant

import "sync"

// Reporting template field names.
const (
	FieldVirusVariant      = "VirusVariant"
	FieldVirusVariantOther = "VirusVariantOther"
)

// ReportRow holds the reporting-template fields for one external record.
type ReportRow struct {
	RecordID          string
	VirusVariant      string
	VirusVariantOther string
}

// ReportTemplate accumulates record-attachment results across queries.
// It is passed explicitly to each classification call and is safe for
// concurrent use.
type ReportTemplate struct {
	mu    sync.Mutex
	rows  []*ReportRow
	index map[string]int
}

// NewReportTemplate creates an empty reporting template.
func NewReportTemplate() *ReportTemplate {
	return &ReportTemplate{index: make(map[string]int)}
}

// Attach records the outcome of q. A primary match sets VirusVariant;
// otherwise a queried lineage is kept verbatim in VirusVariantOther.
// Queries without a record ID are ignored.
func (r *ReportTemplate) Attach(q Query, primary *Match) {
	if r == nil || q.RecordID == "" {
		return
	}
	switch {
	case primary != nil:
		r.set(q.RecordID, func(row *ReportRow) { row.VirusVariant = primary.Name })
	case q.Lineage != "":
		r.set(q.RecordID, func(row *ReportRow) { row.VirusVariantOther = q.Lineage })
	}
}

func (r *ReportTemplate) set(id string, fn func(*ReportRow)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		i = len(r.rows)
		r.index[id] = i
		r.rows = append(r.rows, &ReportRow{RecordID: id})
	}
	fn(r.rows[i])
}

// Get returns a copy of the row for a record.
func (r *ReportTemplate) Get(id string) (ReportRow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return ReportRow{}, false
	}
	return *r.rows[i], true
}

// Rows returns copies of all rows in first-attached order.
func (r *ReportTemplate) Rows() []ReportRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ReportRow, len(r.rows))
	for i, row := range r.rows {
		out[i] = *row
	}
	return out
}

// Len returns the number of records.
func (r *ReportTemplate) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}
