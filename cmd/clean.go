package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/metaclean-cli/internal/cleaner"
	"github.com/KaramelBytes/metaclean-cli/internal/utils"
)

var (
	cleanInput          string
	cleanOutput         string
	cleanBraakComposite string
	cleanSummaryPath    string
	cleanQuiet          bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the raw sample table into an analysis-ready one",
	Long: `Reads the raw sample table, labels disease status from the sample title, harmonizes
brain region names, cleans Braak stage, MMSE and age, derives subset flags and writes
the result. Raw columns are kept; derived columns are appended.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		in := pick(cleanInput, c.InputPath)
		out := pick(cleanOutput, c.OutputPath)
		opt := cleaner.Options{BraakComposite: pick(cleanBraakComposite, c.BraakComposite)}

		runID := uuid.NewString()
		l := log().With(zap.String("run_id", runID))
		l.Debug("cleaning sample metadata",
			zap.String("input", in),
			zap.String("output", out),
			zap.String("braak_composite", opt.BraakComposite))

		res, err := cleaner.Run(in, out, opt)
		if err != nil {
			return err
		}
		sum := cleaner.Summarize(res)
		sum.RunID, sum.Input, sum.Output = runID, in, out
		sum.Log(l)

		w := cmd.OutOrStdout()
		if !cleanQuiet {
			fmt.Fprint(w, sum.Text())
			fmt.Fprintln(w)
		}
		if cleanSummaryPath != "" {
			b, err := yaml.Marshal(sum)
			if err != nil {
				return fmt.Errorf("marshal summary: %w", err)
			}
			if err := utils.SafeWriteFile(cleanSummaryPath, b); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			fmt.Fprintf(w, "✓ Summary written to: %s\n", cleanSummaryPath)
		}
		fmt.Fprintf(w, "✓ Cleaned metadata saved to: %s\n", out)
		fmt.Fprintf(w, "  Final dataset: %d samples, %d columns\n", res.Frame.Nrow(), res.Frame.Ncol())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", "", "raw sample table (default from config input_path)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "cleaned table to write (default from config output_path)")
	cleanCmd.Flags().StringVar(&cleanBraakComposite, "braak-composite", "", "stage the V-VI label collapses to: V or VI")
	cleanCmd.Flags().StringVar(&cleanSummaryPath, "summary", "", "also write the run summary as YAML to this file")
	cleanCmd.Flags().BoolVar(&cleanQuiet, "quiet", false, "suppress the step-by-step report")
}
