package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zipstamp/zipstamp/merge"
)

var (
	flagOutputTimestamp   string
	flagBuildReproducible bool
	flagRequireLastBuild  bool
	flagTimeZone          string
	flagLogLevel          string
	flagConfigFile        string
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "zipstamp",
	Short: "Merge per-entry timestamps between reproducible build archives",
	Long: `zipstamp post-processes AAR/JAR/WAR/ZIP archives from a reproducible
build so that entries whose content did not change keep the timestamp of
the previous build. Archives are patched in place; they are never
rewritten.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfigFile != "" {
			fileCfg, err := loadConfigFile(flagConfigFile)
			if err != nil {
				return err
			}
			applyConfigFile(cmd, fileCfg)
		}

		level, err := logrus.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("log level %q: %w", flagLogLevel, err)
		}
		log.SetLevel(level)

		return nil
	},
}

// applyConfigFile fills in config-file values for flags the user did not
// set explicitly.
func applyConfigFile(cmd *cobra.Command, cfg *fileConfig) {
	flags := cmd.Flags()
	if cfg.OutputTimestamp != "" && !flags.Changed("output-timestamp") {
		flagOutputTimestamp = cfg.OutputTimestamp
	}
	if cfg.BuildReproducible != nil && !flags.Changed("build-reproducible") {
		flagBuildReproducible = *cfg.BuildReproducible
	}
	if cfg.RequireLastBuild != nil && !flags.Changed("require-last-build") {
		flagRequireLastBuild = *cfg.RequireLastBuild
	}
	if cfg.TimeZone != "" && !flags.Changed("time-zone") {
		flagTimeZone = cfg.TimeZone
	}
	if cfg.LogLevel != "" && !flags.Changed("log-level") {
		flagLogLevel = cfg.LogLevel
	}
}

// mergeOptions translates the flag surface into merge options.
func mergeOptions() ([]merge.Option, time.Time, error) {
	if flagOutputTimestamp == "" {
		return nil, time.Time{}, fmt.Errorf("--output-timestamp is required")
	}
	outputTs, err := time.Parse(time.RFC3339, flagOutputTimestamp)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("output timestamp %q: %w", flagOutputTimestamp, err)
	}

	opts := []merge.Option{
		merge.WithBuildReproducible(flagBuildReproducible),
		merge.WithRequireLastBuild(flagRequireLastBuild),
		merge.WithLogger(log),
	}

	if flagTimeZone != "" {
		loc, err := time.LoadLocation(flagTimeZone)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("time zone %q: %w", flagTimeZone, err)
		}
		opts = append(opts, merge.WithLocation(loc))
	}

	return opts, outputTs, nil
}

var mergeFileCmd = &cobra.Command{
	Use:   "merge-file <last-build-archive> <build-archive>",
	Short: "Merge timestamps from one last-build archive into one build archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, outputTs, err := mergeOptions()
		if err != nil {
			return err
		}

		result, err := merge.MergeFile(outputTs, args[0], args[1], opts...)
		if err != nil {
			return err
		}
		logFileResult(result)

		return nil
	},
}

var mergeDirCmd = &cobra.Command{
	Use:   "merge-dir <last-build-dir> <build-dir>",
	Short: "Merge timestamps for every archive pair of two build directories",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, outputTs, err := mergeOptions()
		if err != nil {
			return err
		}

		result, err := merge.MergeDirectory(outputTs, args[0], args[1], opts...)
		if err != nil {
			return err
		}
		for _, fileResult := range result.Archives {
			logFileResult(fileResult)
		}
		log.Infof("merged %d archive pairs, %d without last build", len(result.Archives), len(result.Unmatched))

		return nil
	},
}

func logFileResult(r *merge.FileResult) {
	log.WithFields(logrus.Fields{
		"entries":   r.Entries,
		"new":       r.NewEntries,
		"updated":   r.UpdatedEntries,
		"preserved": r.PreservedEntries,
		"patches":   r.ReproduciblePatches + r.MergePatches,
	}).Infof("merged %s", r.Archive)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagOutputTimestamp, "output-timestamp", "", "reference instant for reproducible entries (RFC 3339)")
	flags.BoolVar(&flagBuildReproducible, "build-reproducible", true, "verify (true) or patch (false) the build archive's reproducibility")
	flags.BoolVar(&flagRequireLastBuild, "require-last-build", true, "require a one-to-one archive pairing across the two directories")
	flags.StringVar(&flagTimeZone, "time-zone", "", "IANA time zone for the DOS local-clock convention (default: process local zone)")
	flags.StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&flagConfigFile, "config", "", "TOML config file mirroring the flag surface")

	rootCmd.AddCommand(mergeFileCmd)
	rootCmd.AddCommand(mergeDirCmd)
}
