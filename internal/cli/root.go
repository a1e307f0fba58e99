package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"cmakesmoke/internal/config"
	"cmakesmoke/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "cmakesmoke",
	Short: "Mirror real-world CMake files from GitHub and smoke-test a formatter against them",
	Long: `cmakesmoke builds a corpus of real-world CMake files from GitHub code search
and runs a formatter over every file, reporting which files it rejects and which
runs are slow.

Examples:
	# Show available commands and global flags
	cmakesmoke --help

	# Mirror the corpus into ./tests (skips files already present)
	cmakesmoke fetch

	# Run the formatter over ./tests
	cmakesmoke test --formatter ./target/release/cmakefmt

	# Print build info
	cmakesmoke version

Output:
	By default, commands write human-readable output to stdout.
	The test command supports structured output via emitter flags (see test --help).`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every HTTP call and per-file mirror decisions)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.ConfigFile, flags.FlagConfig, "", "YAML config file with defaults; flags given on the command line take precedence")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.EnvFile, flags.FlagEnvFile, config.DefaultEnvFile, "Load environment variables (e.g. GITHUB_TOKEN) from this file if it exists")
}

// loadConfig applies the env file and the optional config file on top of the
// parsed flags. A missing env file is only an error when --env-file was given.
func loadConfig(cmd *cobra.Command) error {
	envRequired := cmd.Flags().Changed(flags.FlagEnvFile)
	if err := config.LoadEnvFile(cfg.Runtime.EnvFile, envRequired); err != nil {
		return err
	}
	if cfg.Runtime.ConfigFile == "" {
		return nil
	}
	f, err := config.LoadFile(cfg.Runtime.ConfigFile)
	if err != nil {
		return err
	}
	cfg.ApplyFile(f, cmd.Flags().Changed)
	return nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
