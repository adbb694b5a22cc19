package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Jeyveen7/40-avocados/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build CONFIG OUTPUT_DIR",
	Short: "Generate the site (same as running avocados with two arguments)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), args[0], args[1])
	},
}

func runBuild(ctx context.Context, configPath, outDir string) error {
	slog.Debug("starting build",
		"config", configPath,
		"output", outDir,
		"template", settings.Template,
		"grid_mode", settings.GridMode)

	_, err := site.New(settings, nil).Generate(ctx, configPath, outDir)
	return err
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
