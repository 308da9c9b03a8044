package cmd

import (
	"github.com/spf13/cobra"

	"kmpkg/internal/bundle"
	"kmpkg/internal/config"
	"kmpkg/internal/logger"
	"kmpkg/internal/pipeline"
)

// outputDir overrides where the archive is written, via --output/-o.
var outputDir string

// packageCmd validates an action bundle and creates its distribution ZIP.
var packageCmd = &cobra.Command{
	Use:   "package [dir]",
	Short: "Validate an action bundle and package it into a ZIP",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(args)
		if err != nil {
			return err
		}
		if outputDir != "" {
			p.OutDir = outputDir
		}

		archivePath, err := p.Run()
		if err != nil {
			return err
		}
		logger.Info("[INFO] Created %s\n", archivePath)
		return nil
	},
}

// validateCmd runs every validation stage without producing an archive.
var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate an action bundle without packaging it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(args)
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		logger.Info("[INFO] Bundle %s is valid\n", p.Loc.Name())
		return nil
	},
}

// newPipeline loads the config and resolves the bundle location from the
// optional positional directory argument (default: working directory).
func newPipeline(args []string) (*pipeline.Pipeline, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := bundle.Locate(dir)
	if err != nil {
		return nil, err
	}
	return pipeline.New(loc, cfg), nil
}

func init() {
	packageCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write the archive to (default: bundle's parent)")

	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(validateCmd)
}
