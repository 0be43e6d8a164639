// Package explore prints quick profiles of the raw sample table so the cleaning
// rules can be checked against the data they run on.
package explore

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/metaclean-cli/internal/cleaner"
	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

// titlePreview is how many titles ByBraak keeps per group.
const titlePreview = 5

// TextSummary is pandas' describe() of a text column.
type TextSummary struct {
	Count  int    `yaml:"count"`
	Unique int    `yaml:"unique"`
	Top    string `yaml:"top,omitempty"`
	Freq   int    `yaml:"freq"`
}

// DescribeText counts non-null values, distinct values and the most frequent one.
func DescribeText(values []string) TextSummary {
	counts := table.ValueCounts(values)
	s := TextSummary{Unique: len(counts)}
	for _, c := range counts {
		s.Count += c.Count
	}
	if len(counts) > 0 {
		s.Top, s.Freq = counts[0].Value, counts[0].Count
	}
	return s
}

// ColumnMissing is the null count of one column.
type ColumnMissing struct {
	Column  string `yaml:"column"`
	Missing int    `yaml:"missing"`
}

// Overview is the quick profile of the raw table.
type Overview struct {
	Samples      int                   `yaml:"samples"`
	Braak        []table.CategoryCount `yaml:"braak_stage"`
	BrainRegions []table.CategoryCount `yaml:"brain_regions"`
	APOE         []table.CategoryCount `yaml:"apoe_genotypes"`
	MMSE         TextSummary           `yaml:"mmse"`
	Missing      []ColumnMissing       `yaml:"missing"`
}

// Quick profiles the columns the cleaner depends on. Braak labels are listed in
// label order, the other distributions by frequency.
func Quick(df dataframe.DataFrame) (*Overview, error) {
	if err := requireColumns(df, cleaner.ColBraakStage, cleaner.ColBrainRegion, cleaner.ColAPOEGenotype, cleaner.ColMMSE); err != nil {
		return nil, err
	}
	col := func(name string) []string {
		v, _ := table.Strings(df, name)
		return v
	}
	ov := &Overview{
		Samples:      df.Nrow(),
		Braak:        table.SortByValue(table.ValueCounts(col(cleaner.ColBraakStage)), func(a, b string) bool { return a < b }),
		BrainRegions: table.ValueCounts(col(cleaner.ColBrainRegion)),
		APOE:         table.ValueCounts(col(cleaner.ColAPOEGenotype)),
		MMSE:         DescribeText(col(cleaner.ColMMSE)),
	}
	for _, name := range df.Names() {
		ov.Missing = append(ov.Missing, ColumnMissing{Column: name, Missing: table.CountNulls(col(name))})
	}
	return ov, nil
}

// Text renders the overview for the terminal.
func (o *Overview) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sample size: %d\n", o.Samples)
	writeCounts(&b, "Braak stage distribution", o.Braak)
	writeCounts(&b, "Brain regions", o.BrainRegions)
	writeCounts(&b, "APOE genotypes", o.APOE)
	b.WriteString("\nMMSE summary:\n")
	fmt.Fprintf(&b, "  count   %d\n  unique  %d\n", o.MMSE.Count, o.MMSE.Unique)
	if o.MMSE.Count > 0 {
		fmt.Fprintf(&b, "  top     %s\n  freq    %d\n", o.MMSE.Top, o.MMSE.Freq)
	}
	b.WriteString("\nMissing values:\n")
	width := 0
	for _, m := range o.Missing {
		width = max(width, len(m.Column))
	}
	for _, m := range o.Missing {
		fmt.Fprintf(&b, "  %-*s  %d\n", width, m.Column, m.Missing)
	}
	return b.String()
}

// BraakGroup is one side of the split.
type BraakGroup struct {
	Count        int                   `yaml:"count"`
	Titles       []string              `yaml:"titles"`
	BrainRegions []table.CategoryCount `yaml:"brain_regions"`
}

// BraakSplit separates samples that carry a raw Braak stage from those that don't.
type BraakSplit struct {
	With    BraakGroup `yaml:"with_braak"`
	Without BraakGroup `yaml:"without_braak"`
}

// ByBraak splits rows on whether "braak stage" is present. "no info" counts as
// present here; only empty and null-token cells are missing.
func ByBraak(df dataframe.DataFrame) (*BraakSplit, error) {
	if err := requireColumns(df, cleaner.ColBraakStage, cleaner.ColTitle, cleaner.ColBrainRegion); err != nil {
		return nil, err
	}
	braak, _ := table.Strings(df, cleaner.ColBraakStage)
	titles, _ := table.Strings(df, cleaner.ColTitle)
	regions, _ := table.Strings(df, cleaner.ColBrainRegion)

	var withRegions, withoutRegions []string
	split := &BraakSplit{}
	for i, v := range braak {
		g, rs := &split.With, &withRegions
		if table.IsNull(v) {
			g, rs = &split.Without, &withoutRegions
		}
		g.Count++
		if len(g.Titles) < titlePreview {
			g.Titles = append(g.Titles, titles[i])
		}
		*rs = append(*rs, regions[i])
	}
	split.With.BrainRegions = table.ValueCounts(withRegions)
	split.Without.BrainRegions = table.ValueCounts(withoutRegions)
	return split, nil
}

// Text renders both groups for the terminal.
func (s *BraakSplit) Text() string {
	var b strings.Builder
	writeGroup(&b, "Samples WITH Braak stage info", s.With)
	b.WriteString("\n")
	writeGroup(&b, "Samples WITHOUT Braak stage info", s.Without)
	writeCounts(&b, "Brain regions in samples WITH Braak", s.With.BrainRegions)
	writeCounts(&b, "Brain regions in samples WITHOUT Braak", s.Without.BrainRegions)
	return b.String()
}

func writeGroup(b *strings.Builder, heading string, g BraakGroup) {
	fmt.Fprintf(b, "%s:\nCount: %d\n", heading, g.Count)
	fmt.Fprintf(b, "Sample titles (first %d):\n", titlePreview)
	for i, t := range g.Titles {
		fmt.Fprintf(b, "  %d  %s\n", i, t)
	}
}

func writeCounts(b *strings.Builder, heading string, counts []table.CategoryCount) {
	fmt.Fprintf(b, "\n%s:\n", heading)
	if len(counts) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	width := 0
	for _, c := range counts {
		width = max(width, len(c.Value))
	}
	for _, c := range counts {
		fmt.Fprintf(b, "  %-*s  %d\n", width, c.Value, c.Count)
	}
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	if df.Err != nil {
		return fmt.Errorf("read table: %w", df.Err)
	}
	if missing := table.MissingColumns(df, names...); len(missing) > 0 {
		return &cleaner.MissingColumnsError{Missing: missing}
	}
	return nil
}
