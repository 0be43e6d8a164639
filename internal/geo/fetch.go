package geo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/metaclean-cli/internal/table"
	"github.com/KaramelBytes/metaclean-cli/internal/utils"
)

// MetadataFile is the name of the raw sample table written next to the SOFT file.
const MetadataFile = "sample_metadata.csv"

// ErrNoSamples is returned when a SOFT file contains no ^SAMPLE entries.
var ErrNoSamples = errors.New("no samples in series")

// FetchResult describes what Fetch produced.
type FetchResult struct {
	Accession  string
	SOFTPath   string
	CSVPath    string
	Samples    int
	Columns    []string
	Downloaded bool
}

// Fetch makes sure the family SOFT file for accession is in destDir, downloading it
// unless a cached copy exists (or force is set), then writes the flattened sample
// table to destDir/sample_metadata.csv.
func Fetch(ctx context.Context, c *Client, accession, destDir string, force bool) (*FetchResult, error) {
	url, err := SeriesURL(c.BaseURL(), accession)
	if err != nil {
		return nil, err
	}
	acc := strings.ToUpper(strings.TrimSpace(accession))
	res := &FetchResult{
		Accession: acc,
		SOFTPath:  filepath.Join(destDir, acc+"_family.soft.gz"),
		CSVPath:   filepath.Join(destDir, MetadataFile),
	}
	cached, err := utils.FileExists(res.SOFTPath)
	if err != nil {
		return nil, fmt.Errorf("check cache: %w", err)
	}
	if !cached || force {
		if err := download(ctx, c, url, res.SOFTPath); err != nil {
			return nil, err
		}
		res.Downloaded = true
	} else {
		c.log.Info("using cached series file", zap.String("path", res.SOFTPath))
	}

	f, err := os.Open(res.SOFTPath)
	if err != nil {
		return nil, fmt.Errorf("open soft: %w", err)
	}
	defer f.Close()
	samples, err := ParseSOFT(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(res.SOFTPath), err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", acc, ErrNoSamples)
	}
	recs := Records(samples)
	df, err := table.FromRecords(recs)
	if err != nil {
		return nil, err
	}
	if err := table.WriteCSV(res.CSVPath, df); err != nil {
		return nil, err
	}
	res.Samples = len(samples)
	res.Columns = recs[0]
	c.log.Info("sample metadata written",
		zap.String("accession", acc),
		zap.Int("samples", res.Samples),
		zap.Int("columns", len(res.Columns)),
		zap.String("path", res.CSVPath))
	return res, nil
}

// download streams url into a temp file beside dest and renames it into place.
func download(ctx context.Context, c *Client, url, dest string) error {
	if err := utils.EnsureParentDir(dest); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	c.log.Info("downloading series file", zap.String("url", url))
	n, err := c.Get(ctx, url, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	c.log.Info("download complete", zap.String("path", dest), zap.Int64("bytes", n))
	return nil
}
