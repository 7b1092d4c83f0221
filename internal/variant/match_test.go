package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(name, class string, sublineages ...string) *Entry {
	return &Entry{Name: name, Classification: class, Sublineages: sublineages}
}

func buildTable(t *testing.T, entries ...*Entry) *Table {
	t.Helper()
	tbl := NewTable()
	for _, e := range entries {
		require.NoError(t, tbl.Add(e))
	}
	return tbl
}

func TestMatch_SingleSublineage(t *testing.T) {
	tbl := buildTable(t, newEntry("Q.7_desc", "VOI", "Q.7"))

	m, ok := tbl.Match(NewQuery("Q.7", "", ""))
	require.True(t, ok)
	assert.Equal(t, Match{Name: "Q.7_desc", Classification: "VOI"}, m)
}

func TestMatch_LastMatchWins(t *testing.T) {
	tbl := buildTable(t,
		newEntry("BA.2.86", "VOI", "BA.2.86", "JN.1", "JN.1.7"),
		newEntry("JN.1", "VOI", "JN.1"),
		newEntry("XBB.1.5-like", "VUM", "XBB.1.5"),
	)

	m, ok := tbl.Match(NewQuery("JN.1", "", ""))
	require.True(t, ok)
	assert.Equal(t, "JN.1", m.Name)

	// The broader, earlier entry still wins when it is the only hit.
	m, ok = tbl.Match(NewQuery("JN.1.7", "", ""))
	require.True(t, ok)
	assert.Equal(t, "BA.2.86", m.Name)
}

func TestMatch_LastMatchWinsAcrossCriteria(t *testing.T) {
	rule := newEntry("BA.2.86+F456L", "VOI")
	rule.Rules.Add("JN.1", ParseRuleMutations("Spike_F456L"))
	tbl := buildTable(t,
		rule,
		newEntry("JN.1", "VOI", "JN.1"),
	)

	m, ok := tbl.Match(NewQuery("JN.1", "Spike_F456L", ""))
	require.True(t, ok)
	assert.Equal(t, "JN.1", m.Name)

	// Reverse the order and the rule entry wins.
	tbl = buildTable(t,
		newEntry("JN.1", "VOI", "JN.1"),
		rule,
	)
	m, ok = tbl.Match(NewQuery("JN.1", "Spike_F456L", ""))
	require.True(t, ok)
	assert.Equal(t, "BA.2.86+F456L", m.Name)
}

func TestMatch_WildcardRule(t *testing.T) {
	e := newEntry("FLiRT", "VUM")
	e.Rules.Add("any_lineage", ParseRuleMutations("Spike_F486P+Spike_F456L+Spike_F490S"))
	tbl := buildTable(t, e)

	tests := []struct {
		name      string
		mutations string
		want      bool
	}{
		{"missing one", "Spike_F486P, Spike_F490S", false},
		{"exact set", "Spike_F486P, Spike_F456L, Spike_F490S", true},
		{"superset", "Spike_F486P, Spike_F456L, Spike_F490S, NSP3_T24I", true},
		{"case and spacing", " spike_f486p ,SPIKE_F456L,Spike_F490S ", true},
		{"parenthesized", "(Spike_F486P,Spike_F456L,Spike_F490S)", true},
		{"plus delimited", "Spike_F486P+Spike_F456L+Spike_F490S", true},
		{"not provided", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := tbl.Match(NewQuery("", tt.mutations, ""))
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "FLiRT", m.Name)
			}
		})
	}
}

func TestMatch_RuleKeyUsesLineageWhenGiven(t *testing.T) {
	e := newEntry("KP.2-like", "VUM")
	e.Rules.Add("JN.1", ParseRuleMutations("Spike_R346T+Spike_F456L"))
	tbl := buildTable(t, e)

	_, ok := tbl.Match(NewQuery("JN.1", "Spike_R346T,Spike_F456L", ""))
	assert.True(t, ok)

	// A different lineage resolves to a key the entry does not have.
	_, ok = tbl.Match(NewQuery("BA.2", "Spike_R346T,Spike_F456L", ""))
	assert.False(t, ok)

	// No lineage resolves to the wildcard, which this entry lacks.
	_, ok = tbl.Match(NewQuery("", "Spike_R346T,Spike_F456L", ""))
	assert.False(t, ok)
}

func TestMatch_WildcardNotUsedWhenLineageGiven(t *testing.T) {
	e := newEntry("FLiRT", "VUM")
	e.Rules.Add(Wildcard, ParseRuleMutations("Spike_F456L"))
	tbl := buildTable(t, e)

	_, ok := tbl.Match(NewQuery("JN.1", "Spike_F456L", ""))
	assert.False(t, ok)
}

func TestMatch_NotClassified(t *testing.T) {
	tbl := buildTable(t,
		newEntry("BA.2.86", "VOI", "BA.2.86", "JN.1"),
		newEntry("KP.3", "VUM", "KP.3"),
	)

	m, ok := tbl.Match(NewQuery("HK.22", "", ""))
	assert.False(t, ok)
	assert.Equal(t, Match{}, m)

	res := MatchResult{}
	assert.Equal(t, NotClassified, res.PrimaryLabel())
	assert.NotEmpty(t, res.PrimaryLabel())
}

func TestMatch_BlankMutationsProvidedButEmpty(t *testing.T) {
	e := newEntry("FLiRT", "VUM")
	e.Rules.Add(Wildcard, ParseRuleMutations("Spike_F456L"))
	tbl := buildTable(t, e)

	q := NewQuery("", " , ", "")
	assert.True(t, q.Mutations.Provided())
	assert.Equal(t, 0, q.Mutations.Len())

	_, ok := tbl.Match(q)
	assert.False(t, ok)
}

func TestMatch_NilTable(t *testing.T) {
	var tbl *Table
	_, ok := tbl.Match(NewQuery("JN.1", "", ""))
	assert.False(t, ok)
}

func TestMatchMonitoring(t *testing.T) {
	q := NewQuery("JN.1", "", "")

	t.Run("not evaluated", func(t *testing.T) {
		res := MatchMonitoring(nil, q)
		assert.False(t, res.Evaluated)
		assert.Nil(t, res.Matches)
		assert.Equal(t, MonitoringNotEvaluated, res.Status())
		assert.Equal(t, NotEvaluated, res.Label())
	})

	t.Run("evaluated without match", func(t *testing.T) {
		res := MatchMonitoring(buildTable(t, newEntry("KP.3", "VUM", "KP.3")), q)
		assert.True(t, res.Evaluated)
		assert.Empty(t, res.Matches)
		assert.Equal(t, MonitoringNoMatch, res.Status())
		assert.Equal(t, NotClassifiedMonitoring, res.Label())
		assert.NotEqual(t, NotEvaluated, res.Label())
	})

	t.Run("collects every match in order", func(t *testing.T) {
		tbl := buildTable(t,
			newEntry("BA.2.86", "De-escalated VOI", "BA.2.86", "JN.1"),
			newEntry("KP.3", "VUM", "KP.3"),
			newEntry("JN.1", "VUM", "JN.1"),
		)
		res := MatchMonitoring(tbl, q)
		assert.Equal(t, MonitoringMatched, res.Status())
		assert.Equal(t, []Match{
			{Name: "BA.2.86", Classification: "De-escalated VOI"},
			{Name: "JN.1", Classification: "VUM"},
		}, res.Matches)
		assert.Equal(t, "BA.2.86 (De-escalated VOI), JN.1 (VUM)", res.Label())
	})
}

func TestMatchResult_Labels(t *testing.T) {
	res := MatchResult{
		Primary:    &Match{Name: "BA.2.86", Classification: "VOI"},
		Monitoring: MonitoringResult{Evaluated: true},
	}
	assert.True(t, res.Classified())
	assert.Equal(t, "BA.2.86 (VOI)", res.PrimaryLabel())
	assert.Equal(t, NotClassifiedMonitoring, res.MonitoringLabel())
}
