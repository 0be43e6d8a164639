// Package cleaner turns the raw GEO sample metadata table into the cleaned table used
// for downstream analysis: disease labels, normalized brain regions, parsed Braak/MMSE/
// age values and analysis subset flags.
package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/metaclean-cli/internal/table"
	"github.com/KaramelBytes/metaclean-cli/internal/utils"
)

// Raw columns.
const (
	ColSampleID     = "sample_id"
	ColTitle        = "title"
	ColBrainRegion  = "brain region"
	ColBraakStage   = "braak stage"
	ColMMSE         = "mmse"
	ColAPOEGenotype = "apoe genotype"
	ColAge          = "age (yrs)"
	ColGender       = "gender"
)

// Derived columns, in output order.
const (
	ColDiseaseStatus     = "disease_status"
	ColBrainRegionClean  = "brain_region_clean"
	ColBraakStageClean   = "braak_stage_clean"
	ColMMSEClean         = "mmse_clean"
	ColAgeNumeric        = "age_numeric"
	ColIncludeBinary     = "include_binary_classification"
	ColIncludeSeverity   = "include_severity_prediction"
	ColIncludeMMSE       = "include_mmse_regression"
	ColIncludeClustering = "include_clustering"
)

// RequiredColumns must all be present in the raw table.
var RequiredColumns = []string{
	ColTitle, ColBrainRegion, ColBraakStage, ColMMSE, ColAPOEGenotype, ColAge, ColGender,
}

// DerivedColumns lists the columns the cleaner appends, in order.
var DerivedColumns = []string{
	ColDiseaseStatus, ColBrainRegionClean, ColBraakStageClean, ColMMSEClean, ColAgeNumeric,
	ColIncludeBinary, ColIncludeSeverity, ColIncludeMMSE, ColIncludeClustering,
}

// Options controls the few policy decisions the cleaning makes.
type Options struct {
	// BraakComposite is the stage the composite value "V-VI" collapses to: "V" or "VI".
	BraakComposite string
}

// DefaultOptions keeps the conservative reading of "V-VI".
func DefaultOptions() Options {
	return Options{BraakComposite: "V"}
}

// Validate rejects composite policies other than V and VI.
func (o Options) Validate() error {
	switch o.BraakComposite {
	case "V", "VI":
		return nil
	default:
		return fmt.Errorf("invalid braak composite policy %q (use V or VI)", o.BraakComposite)
	}
}

// MissingInputError reports that the raw metadata file has not been produced yet.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s not found", e.Path)
}

func (e *MissingInputError) Unwrap() error { return fs.ErrNotExist }

// MissingColumnsError reports required raw columns absent from the input.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("raw table is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Result is the cleaned table plus the typed per-sample view it was built from.
type Result struct {
	Frame   dataframe.DataFrame
	Records []Record
	Options Options
}

// RequireInput returns a *MissingInputError when path does not exist.
func RequireInput(path string) error {
	ok, err := utils.FileExists(path)
	if err != nil {
		return fmt.Errorf("check input: %w", err)
	}
	if !ok {
		return &MissingInputError{Path: path}
	}
	return nil
}

// Run reads the raw table at inputPath, cleans it and writes the result to outputPath.
// Nothing is written unless every step succeeds.
func Run(inputPath, outputPath string, opt Options) (*Result, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if err := RequireInput(inputPath); err != nil {
		return nil, err
	}
	df, err := table.ReadCSV(inputPath, table.Options{})
	if err != nil {
		return nil, fmt.Errorf("load raw metadata: %w", err)
	}
	res, err := Transform(df, opt)
	if err != nil {
		return nil, err
	}
	if err := table.WriteCSV(outputPath, res.Frame); err != nil {
		return nil, fmt.Errorf("save cleaned metadata: %w", err)
	}
	return res, nil
}

// Transform applies the cleaning steps to df and returns a new frame with the derived
// columns appended. Row count and order are preserved. It performs no I/O.
func Transform(df dataframe.DataFrame, opt Options) (*Result, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if df.Err != nil {
		return nil, fmt.Errorf("transform: %w", df.Err)
	}
	if missing := table.MissingColumns(df, RequiredColumns...); len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	recs, err := loadRecords(df)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		for _, apply := range steps {
			apply(&recs[i], opt)
		}
	}
	out := df
	for _, s := range derivedSeries(recs) {
		out = out.Mutate(s)
	}
	if out.Err != nil {
		return nil, fmt.Errorf("append derived columns: %w", out.Err)
	}
	if out.Nrow() != df.Nrow() {
		return nil, errors.New("append derived columns: row count changed")
	}
	return &Result{Frame: out, Records: recs, Options: opt}, nil
}

func loadRecords(df dataframe.DataFrame) ([]Record, error) {
	get := func(name string) ([]string, error) {
		if !table.HasColumn(df, name) {
			return make([]string, df.Nrow()), nil
		}
		return table.Strings(df, name)
	}
	cols := make(map[string][]string, len(RequiredColumns)+1)
	for _, name := range append([]string{ColSampleID}, RequiredColumns...) {
		vals, err := get(name)
		if err != nil {
			return nil, fmt.Errorf("read column: %w", err)
		}
		cols[name] = vals
	}
	recs := make([]Record, df.Nrow())
	for i := range recs {
		recs[i] = Record{
			SampleID:     cols[ColSampleID][i],
			Title:        cols[ColTitle][i],
			BrainRegion:  cols[ColBrainRegion][i],
			BraakStage:   cols[ColBraakStage][i],
			MMSE:         cols[ColMMSE][i],
			APOEGenotype: cols[ColAPOEGenotype][i],
			Age:          cols[ColAge][i],
			Gender:       cols[ColGender][i],
		}
	}
	return recs, nil
}

func derivedSeries(recs []Record) []series.Series {
	n := len(recs)
	status := make([]string, n)
	region := make([]string, n)
	braak := make([]string, n)
	mmse := make([]string, n)
	age := make([]string, n)
	binary := make([]bool, n)
	severity := make([]bool, n)
	mmseReg := make([]bool, n)
	clustering := make([]bool, n)
	for i, r := range recs {
		status[i] = string(r.DiseaseStatus)
		region[i] = r.BrainRegionClean.Cell()
		braak[i] = r.BraakStageClean.Cell()
		mmse[i] = r.MMSEClean.Cell()
		age[i] = r.AgeNumeric.Cell()
		binary[i] = r.Flags.BinaryClassification
		severity[i] = r.Flags.SeverityPrediction
		mmseReg[i] = r.Flags.MMSERegression
		clustering[i] = r.Flags.Clustering
	}
	return []series.Series{
		series.New(status, series.String, ColDiseaseStatus),
		series.New(region, series.String, ColBrainRegionClean),
		series.New(braak, series.String, ColBraakStageClean),
		series.New(mmse, series.String, ColMMSEClean),
		series.New(age, series.String, ColAgeNumeric),
		series.New(binary, series.Bool, ColIncludeBinary),
		series.New(severity, series.Bool, ColIncludeSeverity),
		series.New(mmseReg, series.Bool, ColIncludeMMSE),
		series.New(clustering, series.Bool, ColIncludeClustering),
	}
}
