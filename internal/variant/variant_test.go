package variant

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AddKeepsOrder(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add(newEntry("B", "VOI")))
	require.NoError(t, tbl.Add(newEntry("A", "VOC")))
	require.NoError(t, tbl.Add(newEntry("C", "VUM")))

	var names []string
	for _, e := range tbl.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"B", "A", "C"}, names)
	assert.Equal(t, 3, tbl.Len())

	e, ok := tbl.Get("A")
	require.True(t, ok)
	assert.Equal(t, "VOC", e.Classification)
}

func TestTable_RejectsDuplicateAndEmptyNames(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add(newEntry("BA.2.86", "VOI")))
	assert.Error(t, tbl.Add(newEntry("BA.2.86", "VUM")))
	assert.Error(t, tbl.Add(newEntry("", "VUM")))
	assert.Equal(t, 1, tbl.Len())
}

func TestRules_WildcardAliasesAndOrder(t *testing.T) {
	var r Rules
	r.Add("JN.1", ParseRuleMutations("Spike_F456L"))
	r.Add("any_lineage", ParseRuleMutations("Spike_F486P"))
	r.Add("KP.2", ParseRuleMutations("Spike_R346T"))

	_, ok := r.Get(Wildcard)
	assert.True(t, ok)
	_, ok = r.Get("any_lineage")
	assert.False(t, ok)

	var keys []string
	for _, rule := range r.All() {
		keys = append(keys, rule.Lineage)
	}
	assert.Equal(t, []string{"JN.1", Wildcard, "KP.2"}, keys)

	r.Add("JN.1", ParseRuleMutations("Spike_R346T"))
	assert.Equal(t, 3, r.Len())
	m, _ := r.Get("JN.1")
	assert.True(t, m.Contains("Spike_R346T"))
	assert.False(t, m.Contains("Spike_F456L"))
}

func TestParseMutations(t *testing.T) {
	tests := []struct {
		in       string
		provided bool
		want     []string
	}{
		{"", false, nil},
		{"   ", true, nil},
		{"()", true, nil},
		{"(Spike_F486P,NSP3_T24I)", true, []string{"NSP3_T24I", "SPIKE_F486P"}},
		{"Spike_F486P, Spike_F486P ,", true, []string{"SPIKE_F486P"}},
		{"a+b,c", true, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			m := ParseMutations(tt.in)
			assert.Equal(t, tt.provided, m.Provided())
			if tt.want == nil {
				assert.Equal(t, 0, m.Len())
				return
			}
			assert.Equal(t, tt.want, m.Sorted())
		})
	}
}

func TestMutationSet_SubsetOf(t *testing.T) {
	required := ParseRuleMutations("Spike_F486P+Spike_F456L")
	assert.True(t, required.SubsetOf(ParseMutations("spike_f456l,Spike_F486P,ORF1a_K47R")))
	assert.False(t, required.SubsetOf(ParseMutations("Spike_F486P")))
	assert.Equal(t, "Spike_F486P+Spike_F456L", required.String())
}

func TestReportTemplate_Attach(t *testing.T) {
	r := NewReportTemplate()

	r.Attach(NewQuery("JN.1", "", "hCoV-19/Sweden/1/2024"), &Match{Name: "BA.2.86", Classification: "VOI"})
	r.Attach(NewQuery("HK.22", "", "hCoV-19/Sweden/2/2024"), nil)
	r.Attach(NewQuery("", "Spike_F456L", "hCoV-19/Sweden/3/2024"), nil)
	r.Attach(NewQuery("JN.1", "", ""), &Match{Name: "BA.2.86"})

	rows := r.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, ReportRow{RecordID: "hCoV-19/Sweden/1/2024", VirusVariant: "BA.2.86"}, rows[0])
	assert.Equal(t, ReportRow{RecordID: "hCoV-19/Sweden/2/2024", VirusVariantOther: "HK.22"}, rows[1])

	_, ok := r.Get("hCoV-19/Sweden/3/2024")
	assert.False(t, ok)
}

func TestReportTemplate_ConcurrentAttach(t *testing.T) {
	r := NewReportTemplate()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Attach(NewQuery("JN.1", "", fmt.Sprintf("rec-%d", i)), &Match{Name: "BA.2.86"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, r.Len())
}

func TestReportTemplate_Nil(t *testing.T) {
	var r *ReportTemplate
	assert.NotPanics(t, func() {
		r.Attach(NewQuery("JN.1", "", "rec"), nil)
	})
}
