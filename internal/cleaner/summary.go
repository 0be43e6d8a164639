package cleaner

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

// Summary holds the counts and distributions reported after a cleaning run.
// It is computed from a Result and never feeds back into the cleaned table.
type Summary struct {
	RunID          string                `yaml:"run_id,omitempty"`
	Input          string                `yaml:"input,omitempty"`
	Output         string                `yaml:"output,omitempty"`
	BraakComposite string                `yaml:"braak_composite"`
	Total          int                   `yaml:"total_samples"`
	AD             int                   `yaml:"ad_samples"`
	Control        int                   `yaml:"control_samples"`
	BrainRegions   []table.CategoryCount `yaml:"brain_regions"`
	Braak          CategorySummary       `yaml:"braak_stage"`
	MMSE           NumericSummary        `yaml:"mmse"`
	APOE           CategorySummary       `yaml:"apoe_genotype"`
	Age            NumericSummary        `yaml:"age"`
	Subsets        SubsetCounts          `yaml:"subsets"`
	Gender         []table.CategoryCount `yaml:"gender"`
	Missing        MissingCounts         `yaml:"missing"`
}

// CategorySummary counts present values and their distribution.
type CategorySummary struct {
	Valid        int                   `yaml:"valid"`
	Distribution []table.CategoryCount `yaml:"distribution"`
}

// NumericSummary counts parsed values. Coerced counts present-but-unparseable text.
type NumericSummary struct {
	Valid   int     `yaml:"valid"`
	Missing int     `yaml:"missing"`
	Coerced int     `yaml:"coerced"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Mean    float64 `yaml:"mean"`
}

// SubsetCounts is the number of samples in each analysis subset.
type SubsetCounts struct {
	BinaryClassification int `yaml:"binary_classification"`
	SeverityPrediction   int `yaml:"severity_prediction"`
	MMSERegression       int `yaml:"mmse_regression"`
	Clustering           int `yaml:"clustering"`
}

// MissingCounts is the number of missing values in the key columns.
type MissingCounts struct {
	BraakStageClean int `yaml:"braak_stage_clean"`
	MMSEClean       int `yaml:"mmse_clean"`
	APOEGenotype    int `yaml:"apoe_genotype"`
	AgeNumeric      int `yaml:"age_numeric"`
}

// Summarize computes the report for a cleaning result.
func Summarize(res *Result) *Summary {
	s := &Summary{BraakComposite: res.Options.BraakComposite, Total: len(res.Records)}
	n := len(res.Records)
	regions := make([]string, 0, n)
	braak := make([]string, 0, n)
	apoe := make([]string, n)
	gender := make([]string, n)
	var mmse, age []float64
	for i := range res.Records {
		r := &res.Records[i]
		if r.IsAD() {
			s.AD++
		} else {
			s.Control++
		}
		if r.BrainRegionClean.Valid {
			regions = append(regions, r.BrainRegionClean.String)
		}
		if r.BraakStageClean.Valid {
			braak = append(braak, r.BraakStageClean.String)
		} else {
			s.Missing.BraakStageClean++
		}
		if r.MMSEClean.Valid {
			mmse = append(mmse, r.MMSEClean.Float64)
		} else {
			s.Missing.MMSEClean++
		}
		if r.MMSECoerced {
			s.MMSE.Coerced++
		}
		if r.AgeNumeric.Valid {
			age = append(age, r.AgeNumeric.Float64)
		} else {
			s.Missing.AgeNumeric++
		}
		if r.AgeCoerced {
			s.Age.Coerced++
		}
		apoe[i] = r.APOEGenotype
		gender[i] = r.Gender

		if r.Flags.BinaryClassification {
			s.Subsets.BinaryClassification++
		}
		if r.Flags.SeverityPrediction {
			s.Subsets.SeverityPrediction++
		}
		if r.Flags.MMSERegression {
			s.Subsets.MMSERegression++
		}
		if r.Flags.Clustering {
			s.Subsets.Clustering++
		}
	}
	s.BrainRegions = table.ValueCounts(regions)
	s.Braak = CategorySummary{
		Valid:        len(braak),
		Distribution: table.SortByValue(table.ValueCounts(braak), func(a, b string) bool { return a < b }),
	}
	s.Missing.APOEGenotype = table.CountNulls(apoe)
	s.APOE = CategorySummary{Valid: n - s.Missing.APOEGenotype, Distribution: table.ValueCounts(apoe)}
	s.Gender = table.ValueCounts(gender)
	s.MMSE = numeric(mmse, s.Missing.MMSEClean, s.MMSE.Coerced)
	s.Age = numeric(age, s.Missing.AgeNumeric, s.Age.Coerced)
	return s
}

func numeric(vals []float64, missing, coerced int) NumericSummary {
	d := table.Describe(vals)
	return NumericSummary{Valid: d.Count, Missing: missing, Coerced: coerced, Min: d.Min, Max: d.Max, Mean: d.Mean}
}

// Log emits one structured line per cleaning step.
func (s *Summary) Log(log *zap.Logger) {
	log.Info("disease status labeled", zap.Int("ad", s.AD), zap.Int("control", s.Control))
	log.Info("brain regions normalized", zap.Int("distinct", len(s.BrainRegions)))
	log.Info("braak stage cleaned", zap.Int("valid", s.Braak.Valid), zap.String("composite_as", s.BraakComposite))
	log.Info("mmse cleaned",
		zap.Int("valid", s.MMSE.Valid),
		zap.Int("missing", s.MMSE.Missing),
		zap.Int("coerced", s.MMSE.Coerced))
	log.Info("apoe genotype counted", zap.Int("present", s.APOE.Valid), zap.Int("missing", s.Missing.APOEGenotype))
	log.Info("age converted",
		zap.Int("valid", s.Age.Valid),
		zap.Int("missing", s.Age.Missing),
		zap.Int("coerced", s.Age.Coerced))
	log.Info("subset flags derived",
		zap.Int("binary_classification", s.Subsets.BinaryClassification),
		zap.Int("severity_prediction", s.Subsets.SeverityPrediction),
		zap.Int("mmse_regression", s.Subsets.MMSERegression),
		zap.Int("clustering", s.Subsets.Clustering))
}

const rule = "============================================================"

// Text renders the step-by-step report followed by the summary statistics block.
func (s *Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initial samples: %d\n", s.Total)

	b.WriteString("\n1. Disease status labels\n")
	fmt.Fprintf(&b, "   AD samples: %d\n", s.AD)
	fmt.Fprintf(&b, "   Control samples: %d\n", s.Control)

	b.WriteString("\n2. Brain regions after cleaning\n")
	writeCounts(&b, s.BrainRegions, "   ")

	b.WriteString("\n3. Braak stage\n")
	fmt.Fprintf(&b, "   Samples with valid Braak stage: %d (V-VI counted as %s)\n", s.Braak.Valid, s.BraakComposite)
	writeCounts(&b, s.Braak.Distribution, "   ")

	b.WriteString("\n4. MMSE scores\n")
	fmt.Fprintf(&b, "   Samples with valid MMSE: %d (missing %d, unparseable %d)\n", s.MMSE.Valid, s.MMSE.Missing, s.MMSE.Coerced)
	if s.MMSE.Valid > 0 {
		fmt.Fprintf(&b, "   MMSE range: %g - %g\n", s.MMSE.Min, s.MMSE.Max)
		fmt.Fprintf(&b, "   MMSE mean: %.2f\n", s.MMSE.Mean)
	}

	b.WriteString("\n5. APOE genotype\n")
	fmt.Fprintf(&b, "   Samples with APOE data: %d\n", s.APOE.Valid)
	writeCounts(&b, s.APOE.Distribution, "   ")

	b.WriteString("\n6. Age\n")
	fmt.Fprintf(&b, "   Samples with numeric age: %d (missing %d, unparseable %d)\n", s.Age.Valid, s.Age.Missing, s.Age.Coerced)
	if s.Age.Valid > 0 {
		fmt.Fprintf(&b, "   Age range: %g - %g\n", s.Age.Min, s.Age.Max)
	}

	b.WriteString("\n7. Analysis subsets\n")
	fmt.Fprintf(&b, "   Binary classification: %d samples\n", s.Subsets.BinaryClassification)
	fmt.Fprintf(&b, "   Severity prediction: %d samples\n", s.Subsets.SeverityPrediction)
	fmt.Fprintf(&b, "   MMSE regression: %d samples\n", s.Subsets.MMSERegression)
	fmt.Fprintf(&b, "   Clustering: %d samples\n", s.Subsets.Clustering)

	b.WriteString("\n" + rule + "\nSUMMARY STATISTICS\n" + rule + "\n")
	fmt.Fprintf(&b, "Total samples: %d\n", s.Total)
	b.WriteString("\nDisease status:\n")
	writeCounts(&b, diseaseCounts(s), "  ")
	b.WriteString("\nBrain regions:\n")
	writeCounts(&b, s.BrainRegions, "  ")
	b.WriteString("\nGender distribution:\n")
	writeCounts(&b, s.Gender, "  ")
	b.WriteString("\nMissing values in key columns:\n")
	fmt.Fprintf(&b, "  %s: %d\n", ColBraakStageClean, s.Missing.BraakStageClean)
	fmt.Fprintf(&b, "  %s: %d\n", ColMMSEClean, s.Missing.MMSEClean)
	fmt.Fprintf(&b, "  %s: %d\n", ColAPOEGenotype, s.Missing.APOEGenotype)
	fmt.Fprintf(&b, "  %s: %d\n", ColAgeNumeric, s.Missing.AgeNumeric)
	return b.String()
}

func diseaseCounts(s *Summary) []table.CategoryCount {
	out := []table.CategoryCount{{Value: string(StatusAD), Count: s.AD}, {Value: string(StatusControl), Count: s.Control}}
	if out[1].Count > out[0].Count {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

func writeCounts(b *strings.Builder, counts []table.CategoryCount, indent string) {
	if len(counts) == 0 {
		b.WriteString(indent + "(none)\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(b, "%s%s: %d\n", indent, c.Value, c.Count)
	}
}
