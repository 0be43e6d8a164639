package cmd

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/metaclean-cli/internal/cleaner"
)

func TestMain(m *testing.M) {
	cobra.OnInitialize(loadConfig)
	os.Exit(m.Run())
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args in an isolated HOME and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const rawCSV = `sample_id,title,brain region,braak stage,mmse,apoe genotype,age (yrs),gender
GSM1,HC_AD_1,Hippocampus,V-VI,24,E3/E4,85,female
GSM2,EC_AD_2,EntorhinalCortex,no info,no info,E3/E3,79,male
GSM3,AD_hippocampus_01,PostcentralGyrus,,,,70,male
GSM4,SFG_ctrl_4,Cerebellum,,,,90,female
`

func writeRawCSV(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sample_metadata.csv")
	require.NoError(t, os.WriteFile(p, []byte(rawCSV), 0o644))
	return p
}

func TestCleanCommand(t *testing.T) {
	in := writeRawCSV(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "clean.csv")
	sumPath := filepath.Join(dir, "summary.yaml")

	out, err := execute(t, "clean", "-i", in, "-o", outPath, "--summary", sumPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SUMMARY STATISTICS")
	assert.Contains(t, out, "✓ Cleaned metadata saved to: "+outPath)
	assert.Contains(t, out, "Final dataset: 4 samples, 17 columns")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "sample_id,title,brain region"))
	assert.True(t, strings.HasSuffix(lines[0], strings.Join(cleaner.DerivedColumns, ",")))

	var sum cleaner.Summary
	sb, err := os.ReadFile(sumPath)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(sb, &sum))
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.AD)
	assert.Equal(t, "V", sum.BraakComposite)
}

func TestCleanCommandQuietAndComposite(t *testing.T) {
	in := writeRawCSV(t)
	outPath := filepath.Join(t.TempDir(), "clean.csv")

	out, err := execute(t, "clean", "-i", in, "-o", outPath, "--quiet", "--braak-composite", "VI")
	require.NoError(t, err)
	assert.NotContains(t, out, "SUMMARY STATISTICS")

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "V-VI,24,E3/E4,85,female,AD,hippocampus,VI,24.0")
}

func TestCleanCommandRejectsUnknownComposite(t *testing.T) {
	in := writeRawCSV(t)
	outPath := filepath.Join(t.TempDir(), "clean.csv")
	_, err := execute(t, "clean", "-i", in, "-o", outPath, "--braak-composite", "IV")
	require.Error(t, err)
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanCommandMissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	_, err := execute(t, "clean", "-i", missing, "-o", filepath.Join(t.TempDir(), "out.csv"))
	var merr *cleaner.MissingInputError
	require.ErrorAs(t, err, &merr)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Equal(t, "✗ Error: "+missing+" not found!\nPlease run 'metaclean fetch' first.\n", buf.String())
}

func TestCleanCommandUsesConfigPaths(t *testing.T) {
	in := writeRawCSV(t)
	outPath := filepath.Join(t.TempDir(), "from-config.csv")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("input_path: "+in+"\noutput_path: "+outPath+"\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "clean", "--quiet")
	require.NoError(t, err)
	_, err = os.Stat(outPath)
	require.NoError(t, err)
}

func TestExploreCommand(t *testing.T) {
	in := writeRawCSV(t)

	out, err := execute(t, "explore", "-i", in)
	require.NoError(t, err)
	assert.Contains(t, out, "Sample size: 4")
	assert.Contains(t, out, "Missing values:")

	out, err = execute(t, "explore", "-i", in, "--by-braak")
	require.NoError(t, err)
	assert.Contains(t, out, "Samples WITH Braak stage info:\nCount: 2")
	assert.Contains(t, out, "Samples WITHOUT Braak stage info:\nCount: 2")
}

func TestExploreCommandMissingInput(t *testing.T) {
	_, err := execute(t, "explore", "-i", filepath.Join(t.TempDir(), "nope.csv"))
	var merr *cleaner.MissingInputError
	require.ErrorAs(t, err, &merr)
}

func TestConfigSetAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := execute(t, "--config", cfgPath, "config", "set", "braak_composite", "vi")
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "config", "set", "accession", "gse1234")
	require.NoError(t, err)

	out, err := execute(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "braak_composite: VI\n")
	assert.Contains(t, out, "accession: GSE1234\n")
	assert.Contains(t, out, "input_path: ./data/sample_metadata.csv\n")

	_, err = execute(t, "--config", cfgPath, "config", "set", "braak_composite", "III")
	assert.Error(t, err)
	_, err = execute(t, "--config", cfgPath, "config", "set", "retry_max_attempts", "zero")
	assert.Error(t, err)
	_, err = execute(t, "--config", cfgPath, "config", "set", "nope", "1")
	assert.Error(t, err)
}

const soft = `^SERIES = GSE48350
^SAMPLE = GSM1
!Sample_title = HC_AD_1
!Sample_characteristics_ch1 = brain region: hippocampus
!Sample_characteristics_ch1 = braak stage: V-VI
^SAMPLE = GSM2
!Sample_title = SFG_ctrl_2
!Sample_characteristics_ch1 = brain region: superior frontal gyrus
`

func TestFetchCommand(t *testing.T) {
	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	_, err := zw.Write([]byte(soft))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/GSE48350_family.soft.gz") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body.Bytes())
	}))
	defer srv.Close()
	t.Setenv("METACLEAN_GEO_BASE_URL", srv.URL)
	dest := t.TempDir()

	out, err := execute(t, "fetch", "--dest", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Downloaded GSE48350")
	assert.Contains(t, out, "✓ Extracted 2 samples, 4 columns")

	b, err := os.ReadFile(filepath.Join(dest, "sample_metadata.csv"))
	require.NoError(t, err)
	assert.Equal(t, "sample_id,title,brain region,braak stage\nGSM1,HC_AD_1,hippocampus,V-VI\nGSM2,SFG_ctrl_2,superior frontal gyrus,\n", string(b))

	out, err = execute(t, "fetch", "--dest", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Using cached")
}
