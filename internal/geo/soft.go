// Package geo fetches series metadata from NCBI GEO and flattens the per-sample
// characteristics of a family SOFT file into the raw sample table.
package geo

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Sample is one GSM entry of a family SOFT file.
type Sample struct {
	ID              string
	Title           string
	Characteristics []Characteristic
}

// Characteristic is one "key: value" entry of !Sample_characteristics_ch1.
type Characteristic struct {
	Key   string
	Value string
}

// Set adds or replaces a characteristic, keeping the position of the first occurrence.
func (s *Sample) Set(key, value string) {
	for i := range s.Characteristics {
		if s.Characteristics[i].Key == key {
			s.Characteristics[i].Value = value
			return
		}
	}
	s.Characteristics = append(s.Characteristics, Characteristic{Key: key, Value: value})
}

var accessionRe = regexp.MustCompile(`^GSE(\d+)$`)

// SeriesURL returns the location of the gzipped family SOFT file for a GSE accession,
// e.g. {base}/geo/series/GSE48nnn/GSE48350/soft/GSE48350_family.soft.gz.
func SeriesURL(base, accession string) (string, error) {
	acc := strings.ToUpper(strings.TrimSpace(accession))
	m := accessionRe.FindStringSubmatch(acc)
	if m == nil {
		return "", fmt.Errorf("invalid series accession %q (want GSE followed by digits)", accession)
	}
	digits := m[1]
	stub := "GSEnnn"
	if len(digits) > 3 {
		stub = "GSE" + digits[:len(digits)-3] + "nnn"
	}
	return fmt.Sprintf("%s/geo/series/%s/%s/soft/%s_family.soft.gz", strings.TrimRight(base, "/"), stub, acc, acc), nil
}

const (
	sampleEntity    = "^SAMPLE"
	titleAttr       = "!Sample_title"
	characteristics = "!Sample_characteristics_ch1"
	tableBegin      = "!sample_table_begin"
	tableEnd        = "!sample_table_end"
)

// ParseSOFT reads a family SOFT file, plain or gzip-compressed, and returns its
// samples in file order. Expression tables are skipped.
func ParseSOFT(r io.Reader) ([]Sample, error) {
	br := bufio.NewReader(r)
	src := io.Reader(br)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64<<10), 16<<20)
	var (
		out     []Sample
		cur     *Sample
		inTable bool
		line    int
	)
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if inTable {
			if strings.EqualFold(strings.TrimSpace(text), tableEnd) {
				inTable = false
			}
			continue
		}
		if strings.EqualFold(strings.TrimSpace(text), tableBegin) {
			inTable = true
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(key, "^"):
			flush()
			if ok && strings.EqualFold(key, sampleEntity) {
				cur = &Sample{ID: value}
			}
		case cur == nil || !ok:
			// series/platform attributes and stray lines
		case strings.EqualFold(key, titleAttr):
			cur.Title = value
		case strings.EqualFold(key, characteristics):
			ck, cv, found := strings.Cut(value, ":")
			ck = strings.TrimSpace(ck)
			if !found || ck == "" {
				continue
			}
			cur.Set(ck, strings.TrimSpace(cv))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read soft line %d: %w", line+1, err)
	}
	flush()
	return out, nil
}

// Base columns of the raw sample table.
const (
	ColSampleID = "sample_id"
	ColTitle    = "title"
)

// Records flattens samples into a header row plus one row per sample. The header is
// sample_id, title, then every characteristic key in first-seen order; keys a sample
// lacks are left empty.
func Records(samples []Sample) [][]string {
	header := []string{ColSampleID, ColTitle}
	index := map[string]int{ColSampleID: 0, ColTitle: 1}
	for _, s := range samples {
		for _, c := range s.Characteristics {
			if _, ok := index[c.Key]; !ok {
				index[c.Key] = len(header)
				header = append(header, c.Key)
			}
		}
	}
	out := make([][]string, 0, len(samples)+1)
	out = append(out, header)
	for _, s := range samples {
		row := make([]string, len(header))
		row[0] = s.ID
		row[1] = s.Title
		for _, c := range s.Characteristics {
			row[index[c.Key]] = c.Value
		}
		out = append(out, row)
	}
	return out
}
