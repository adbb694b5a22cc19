package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Jeyveen7/40-avocados/internal/config"
	"github.com/Jeyveen7/40-avocados/internal/errors"
)

var settingsFile string
var settings config.Settings

var rootCmd = &cobra.Command{
	Use:   "avocados CONFIG OUTPUT_DIR",
	Short: "Generate a page of image tiles for every configured thing",
	Long: `avocados reads a YAML file describing things, each with an image, a link
and a repeat count, checks that every image exists and writes one page per
thing plus an index page into OUTPUT_DIR, using a fixed HTML template.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), args[0], args[1])
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func init() {
	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "settings", "", "settings file (YAML)")
	flags.String("template", defaults.Template, "HTML template file")
	flags.String("grid-mode", defaults.GridMode, "grid repetition: exact or doubling")
	flags.Duration("timeout", defaults.CheckTimeout, "timeout of each image check")
	flags.String("link-base", "", "prefix of index page links (default: the output directory)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
}

// settingFlags maps settings keys to the flags that override them.
var settingFlags = map[string]string{
	"template":      "template",
	"grid_mode":     "grid-mode",
	"check_timeout": "timeout",
	"link_base":     "link-base",
	"verbose":       "verbose",
}

func initializeConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	defaults := config.Default()
	v.SetDefault("template", defaults.Template)
	v.SetDefault("fallback_url", defaults.FallbackURL)
	v.SetDefault("default_number", defaults.DefaultNumber)
	v.SetDefault("grid_mode", defaults.GridMode)
	v.SetDefault("check_timeout", defaults.CheckTimeout)
	v.SetDefault("link_base", "")
	v.SetDefault("verbose", false)

	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.IO(err, "read settings file %s", settingsFile)
		}
	}

	v.SetEnvPrefix("AVOCADOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, name := range settingFlags {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var s config.Settings
	if err := v.Unmarshal(&s); err != nil {
		return errors.Configuration("unable to decode settings: %v", err)
	}
	if err := s.Validate(); err != nil {
		return errors.Configuration("%v", err)
	}
	settings = s

	setupLogging(settings.Verbose)
	if v.ConfigFileUsed() != "" {
		slog.Debug("using settings file", "path", v.ConfigFileUsed())
	}
	return nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
