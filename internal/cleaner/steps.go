package cleaner

import (
	"strings"

	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

// DiseaseStatus is the disease-group label of a sample.
type DiseaseStatus string

const (
	StatusAD      DiseaseStatus = "AD"
	StatusControl DiseaseStatus = "Control"
)

// adMarker in a sample title marks the disease group.
const adMarker = "_AD_"

// Raw sentinels used by the GEO submitters.
const (
	noInfo         = "no info"
	braakComposite = "V-VI"
)

// RegionSynonyms maps raw brain region spellings to one canonical spelling.
// Matching is exact and case-sensitive.
var RegionSynonyms = map[string]string{
	"PostcentralGyrus":     "post-central gyrus",
	"postcentral gyrus":    "post-central gyrus",
	"SuperiorFrontalGyrus": "superior frontal gyrus",
	"Hippocampus":          "hippocampus",
	"EntorhinalCortex":     "entorhinal cortex",
}

// Record is one sample: the raw fields the cleaner reads and everything it derives.
type Record struct {
	SampleID     string
	Title        string
	BrainRegion  string
	BraakStage   string
	MMSE         string
	APOEGenotype string
	Age          string
	Gender       string

	DiseaseStatus    DiseaseStatus
	BrainRegionClean NullString
	BraakStageClean  NullString
	MMSEClean        NullFloat
	AgeNumeric       NullFloat
	// MMSECoerced and AgeCoerced mark values that were present but not numeric.
	MMSECoerced bool
	AgeCoerced  bool
	Flags       Flags
}

// Flags marks the downstream analysis subsets a sample belongs to.
type Flags struct {
	BinaryClassification bool
	SeverityPrediction   bool
	MMSERegression       bool
	Clustering           bool
}

// IsAD reports whether the record was labeled as disease group.
func (r *Record) IsAD() bool { return r.DiseaseStatus == StatusAD }

type step func(*Record, Options)

// steps run in order; flags come last because they read earlier outputs.
var steps = []step{
	func(r *Record, _ Options) { r.DiseaseStatus = LabelDisease(r.Title) },
	func(r *Record, _ Options) { r.BrainRegionClean = NormalizeRegion(r.BrainRegion) },
	func(r *Record, o Options) { r.BraakStageClean = CleanBraak(r.BraakStage, o.BraakComposite) },
	func(r *Record, _ Options) {
		r.MMSEClean = CleanMMSE(r.MMSE)
		r.MMSECoerced = !r.MMSEClean.Valid && !table.IsNull(r.MMSE) && r.MMSE != noInfo
	},
	func(r *Record, _ Options) {
		r.AgeNumeric = ParseFloat(r.Age)
		r.AgeCoerced = !r.AgeNumeric.Valid && !table.IsNull(r.Age)
	},
	func(r *Record, _ Options) { r.Flags = DeriveFlags(r) },
}

// LabelDisease returns AD iff title contains "_AD_". A missing title is Control.
func LabelDisease(title string) DiseaseStatus {
	if table.IsNull(title) {
		return StatusControl
	}
	if strings.Contains(title, adMarker) {
		return StatusAD
	}
	return StatusControl
}

// NormalizeRegion maps a raw region through RegionSynonyms. Unlisted values pass
// through unchanged and a missing value stays missing.
func NormalizeRegion(raw string) NullString {
	if table.IsNull(raw) {
		return NullString{}
	}
	if canon, ok := RegionSynonyms[raw]; ok {
		return Str(canon)
	}
	return Str(raw)
}

// CleanBraak collapses "V-VI" to composite and turns "no info" into missing.
// Other values are kept verbatim.
func CleanBraak(raw, composite string) NullString {
	switch {
	case table.IsNull(raw), raw == noInfo:
		return NullString{}
	case raw == braakComposite:
		return Str(composite)
	default:
		return Str(raw)
	}
}

// CleanMMSE turns "no info" into missing and parses the rest permissively.
func CleanMMSE(raw string) NullFloat {
	if raw == noInfo {
		return NullFloat{}
	}
	return ParseFloat(raw)
}

// DeriveFlags computes subset membership from the labeled and cleaned fields.
func DeriveFlags(r *Record) Flags {
	ad := r.IsAD()
	return Flags{
		BinaryClassification: true,
		SeverityPrediction:   ad && r.BraakStageClean.Valid,
		MMSERegression:       ad && r.MMSEClean.Valid,
		Clustering:           ad,
	}
}
