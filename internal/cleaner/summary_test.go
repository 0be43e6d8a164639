package cleaner

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

func cleanFixture(t *testing.T) *Result {
	t.Helper()
	in := writeRaw(t, rawRows...)
	res, err := Run(in, filepath.Join(t.TempDir(), "out.csv"), DefaultOptions())
	require.NoError(t, err)
	return res
}

func TestSummarize(t *testing.T) {
	s := Summarize(cleanFixture(t))

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 3, s.AD)
	assert.Equal(t, 3, s.Control)
	assert.Equal(t, "V", s.BraakComposite)

	wantRegions := []table.CategoryCount{
		{Value: "post-central gyrus", Count: 2},
		{Value: "Cerebellum", Count: 1},
		{Value: "entorhinal cortex", Count: 1},
		{Value: "hippocampus", Count: 1},
		{Value: "superior frontal gyrus", Count: 1},
	}
	if diff := cmp.Diff(wantRegions, s.BrainRegions); diff != "" {
		t.Fatalf("regions (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, s.Braak.Valid)
	assert.Equal(t, []table.CategoryCount{{Value: "II", Count: 1}, {Value: "IV", Count: 1}, {Value: "V", Count: 1}}, s.Braak.Distribution)

	assert.Equal(t, NumericSummary{Valid: 2, Missing: 4, Coerced: 1, Min: 18.5, Max: 24, Mean: 21.25}, s.MMSE)
	assert.Equal(t, 5, s.Age.Valid)
	assert.Equal(t, 1, s.Age.Missing)
	assert.Equal(t, 1, s.Age.Coerced)
	assert.Equal(t, 64.0, s.Age.Min)
	assert.Equal(t, 90.0, s.Age.Max)

	assert.Equal(t, 3, s.APOE.Valid)
	assert.Equal(t, SubsetCounts{BinaryClassification: 6, SeverityPrediction: 2, MMSERegression: 1, Clustering: 3}, s.Subsets)
	assert.Equal(t, MissingCounts{BraakStageClean: 3, MMSEClean: 4, APOEGenotype: 3, AgeNumeric: 1}, s.Missing)
	assert.Equal(t, []table.CategoryCount{{Value: "female", Count: 3}, {Value: "male", Count: 3}}, s.Gender)
}

func TestSummaryText(t *testing.T) {
	txt := Summarize(cleanFixture(t)).Text()
	for _, want := range []string{
		"Initial samples: 6",
		"AD samples: 3",
		"Samples with valid Braak stage: 3 (V-VI counted as V)",
		"Samples with valid MMSE: 2 (missing 4, unparseable 1)",
		"MMSE range: 18.5 - 24",
		"MMSE mean: 21.25",
		"Severity prediction: 2 samples",
		"SUMMARY STATISTICS",
		"mmse_clean: 4",
	} {
		assert.Contains(t, txt, want)
	}
}

func TestSummaryLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Summarize(cleanFixture(t)).Log(zap.New(core))

	entries := logs.FilterMessage("mmse cleaned").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 2, fields["valid"])
	assert.EqualValues(t, 1, fields["coerced"])
	assert.Equal(t, 7, logs.Len())
}
