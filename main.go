// Command facility-export converts the health facility master sheet into the
// JSON document read by the facility map.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"facility-export/internal/convert"
	"facility-export/internal/env"
)

// version is set at build time via ldflags.
var version = "dev"

var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "facility-export",
	Short: "Convert the health facility workbook to JSON",
	Long: `facility-export reads the "Master Data" sheet of the health facility
workbook, keeps the facility name, coordinates, type, country and icon
columns, drops rows without coordinates and writes the result to
health_facilities.json for the map viewer.

Run without flags to convert the default workbook in the working directory.
Use the serve subcommand to run conversions over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := env.Load(logger); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
		l, err := newLogger(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := convert.Config{
		Input:             viper.GetString("input"),
		Sheet:             viper.GetString("sheet"),
		Output:            viper.GetString("output"),
		YAMLOutput:        viper.GetString("yaml-out"),
		XLSXOutput:        viper.GetString("xlsx-out"),
		StrictCoordinates: viper.GetBool("strict-coordinates"),
	}

	summary, err := convert.Run(cfg, nil, func(msg string) { logger.Info(msg) })
	if err != nil {
		return err
	}
	if summary.Dropped > 0 {
		logger.Debug("rows dropped", "count", summary.Dropped)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Converted %d health facilities\n", summary.Converted)
	// Types are quoted since they contain spaces; null types are not listed.
	fmt.Fprintf(out, "Facility types: %q\n", summary.FacilityTypes)
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./facility-export.yaml or ~/.config/facility-export/facility-export.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("sheet", convert.DefaultSheet, "sheet holding the facility table")
	pf.Bool("strict-coordinates", false, "also drop rows whose coordinates are not numbers in range")

	f := rootCmd.Flags()
	f.String("input", convert.DefaultInput, "workbook to read")
	f.String("output", convert.DefaultOutput, "JSON file to write")
	f.String("yaml-out", "", "also write the envelope as YAML to this path")
	f.String("xlsx-out", "", "also write the filtered facilities as a workbook to this path")

	_ = viper.BindPFlags(pf)
	_ = viper.BindPFlags(f)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("facility-export")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "facility-export"))
		}
	}

	viper.SetEnvPrefix("FACILITY_EXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
