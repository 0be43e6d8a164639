package explore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/metaclean-cli/internal/cleaner"
	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

const raw = `sample_id,title,brain region,braak stage,mmse,apoe genotype,age (yrs),gender
GSM1,HC_AD_1,hippocampus,V-VI,24,E3/E4,85,female
GSM2,EC_AD_2,entorhinal cortex,no info,no info,E3/E3,79,male
GSM3,HC_3,hippocampus,,,,70,male
GSM4,SFG_AD_4,superior frontal gyrus,IV,24,E4/E4,81,female
GSM5,ctrl_5,hippocampus,,,,90,female
GSM6,ctrl_6,post-central gyrus,,,,64,male
GSM7,ctrl_7,hippocampus,,,,66,male
GSM8,ctrl_8,hippocampus,,,,67,male
GSM9,ctrl_9,hippocampus,,,,68,male
`

func load(t *testing.T, content string) dataframe.DataFrame {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sample_metadata.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	df, err := table.ReadCSV(p, table.Options{})
	require.NoError(t, err)
	return df
}

func TestQuick(t *testing.T) {
	ov, err := Quick(load(t, raw))
	require.NoError(t, err)

	assert.Equal(t, 9, ov.Samples)
	want := []table.CategoryCount{{Value: "IV", Count: 1}, {Value: "V-VI", Count: 1}, {Value: "no info", Count: 1}}
	if diff := cmp.Diff(want, ov.Braak); diff != "" {
		t.Fatalf("braak mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, table.CategoryCount{Value: "hippocampus", Count: 6}, ov.BrainRegions[0])
	assert.Len(t, ov.APOE, 3)
	assert.Equal(t, TextSummary{Count: 3, Unique: 2, Top: "24", Freq: 2}, ov.MMSE)

	missing := map[string]int{}
	for _, m := range ov.Missing {
		missing[m.Column] = m.Missing
	}
	assert.Equal(t, 6, missing["braak stage"])
	assert.Equal(t, 6, missing["mmse"])
	assert.Equal(t, 0, missing["sample_id"])
	assert.Len(t, ov.Missing, 8)

	text := ov.Text()
	assert.Contains(t, text, "Sample size: 9")
	assert.Contains(t, text, "Missing values:")
	assert.Less(t, strings.Index(text, "IV"), strings.Index(text, "V-VI"))
}

func TestQuickHeaderOnly(t *testing.T) {
	ov, err := Quick(load(t, strings.SplitN(raw, "\n", 2)[0]+"\n"))
	require.NoError(t, err)
	assert.Zero(t, ov.Samples)
	assert.Empty(t, ov.Braak)
	assert.Equal(t, TextSummary{}, ov.MMSE)
	assert.Contains(t, ov.Text(), "(none)")
}

func TestQuickMissingColumns(t *testing.T) {
	_, err := Quick(load(t, "sample_id,title\nGSM1,x\n"))
	var merr *cleaner.MissingColumnsError
	require.ErrorAs(t, err, &merr)
	assert.Contains(t, merr.Missing, "braak stage")
}

func TestByBraak(t *testing.T) {
	split, err := ByBraak(load(t, raw))
	require.NoError(t, err)

	assert.Equal(t, 3, split.With.Count)
	assert.Equal(t, []string{"HC_AD_1", "EC_AD_2", "SFG_AD_4"}, split.With.Titles)
	assert.Equal(t, 6, split.Without.Count)
	assert.Equal(t, []string{"HC_3", "ctrl_5", "ctrl_6", "ctrl_7", "ctrl_8"}, split.Without.Titles)
	assert.Equal(t, []table.CategoryCount{
		{Value: "hippocampus", Count: 5},
		{Value: "post-central gyrus", Count: 1},
	}, split.Without.BrainRegions)

	text := split.Text()
	assert.Contains(t, text, "Samples WITH Braak stage info:\nCount: 3")
	assert.Contains(t, text, "Samples WITHOUT Braak stage info:\nCount: 6")
}

func TestDescribeText(t *testing.T) {
	assert.Equal(t, TextSummary{Count: 4, Unique: 2, Top: "b", Freq: 3}, DescribeText([]string{"a", "b", "", "b", "NA", "b"}))
	assert.Equal(t, TextSummary{}, DescribeText(nil))
}
