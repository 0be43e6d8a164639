package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/metaclean-cli/internal/cleaner"
	cfgpkg "github.com/KaramelBytes/metaclean-cli/internal/config"
	"github.com/KaramelBytes/metaclean-cli/internal/geo"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set metaclean configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(w, "No config loaded, showing defaults")
		}
		c := currentConfig()
		fmt.Fprintf(w, "input_path: %s\n", c.InputPath)
		fmt.Fprintf(w, "output_path: %s\n", c.OutputPath)
		fmt.Fprintf(w, "data_dir: %s\n", c.DataDir)
		fmt.Fprintf(w, "accession: %s\n", c.Accession)
		fmt.Fprintf(w, "geo_base_url: %s\n", c.GEOBaseURL)
		fmt.Fprintf(w, "braak_composite: %s\n", c.BraakComposite)
		fmt.Fprintf(w, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(w, "retry_max_attempts: %d\n", c.RetryMaxAttempts)
		fmt.Fprintf(w, "retry_base_delay_ms: %d\n", c.RetryBaseDelayMs)
		fmt.Fprintf(w, "retry_max_delay_ms: %d\n", c.RetryMaxDelayMs)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "input_path":
			cfg.InputPath = val
		case "output_path":
			cfg.OutputPath = val
		case "data_dir":
			cfg.DataDir = val
		case "accession":
			if _, err := geo.SeriesURL("", val); err != nil {
				return err
			}
			cfg.Accession = strings.ToUpper(val)
		case "geo_base_url":
			cfg.GEOBaseURL = strings.TrimRight(val, "/")
		case "braak_composite":
			opt := cleaner.Options{BraakComposite: strings.ToUpper(val)}
			if err := opt.Validate(); err != nil {
				return err
			}
			cfg.BraakComposite = opt.BraakComposite
		case "http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for %s: %v", key, val)
			}
			switch key {
			case "http_timeout_sec":
				cfg.HTTPTimeoutSec = i
			case "retry_max_attempts":
				cfg.RetryMaxAttempts = i
			case "retry_base_delay_ms":
				cfg.RetryBaseDelayMs = i
			case "retry_max_delay_ms":
				cfg.RetryMaxDelayMs = i
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
