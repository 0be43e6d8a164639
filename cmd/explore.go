package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/metaclean-cli/internal/cleaner"
	"github.com/KaramelBytes/metaclean-cli/internal/explore"
	"github.com/KaramelBytes/metaclean-cli/internal/table"
)

var (
	exploreInput   string
	exploreByBraak bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Profile the raw sample table",
	Long: `Prints the sample size, raw Braak, brain region and APOE distributions, an MMSE
description and missing values per column. With --by-braak, compares samples that
carry a Braak stage with those that don't.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := pick(exploreInput, currentConfig().InputPath)
		if err := cleaner.RequireInput(in); err != nil {
			return err
		}
		df, err := table.ReadCSV(in, table.Options{})
		if err != nil {
			return fmt.Errorf("load raw metadata: %w", err)
		}
		w := cmd.OutOrStdout()
		if exploreByBraak {
			split, err := explore.ByBraak(df)
			if err != nil {
				return err
			}
			fmt.Fprint(w, split.Text())
			return nil
		}
		ov, err := explore.Quick(df)
		if err != nil {
			return err
		}
		fmt.Fprint(w, ov.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringVarP(&exploreInput, "input", "i", "", "raw sample table (default from config input_path)")
	exploreCmd.Flags().BoolVar(&exploreByBraak, "by-braak", false, "split samples by presence of a Braak stage")
}
