package flags

// Package flags defines canonical CLI flag names shared by the cobra wiring and
// the config file loader, which must know which flags the user set explicitly.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Fetch.Query, flags.FlagQuery, "", "...")
//	arg := "--" + flags.FlagQuery
const (
	// Global
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagEnvFile = "env-file"

	// Fetch
	FlagQuery      = "query"
	FlagCorpusRoot = "corpus-root"
	FlagRawBaseURL = "raw-base-url"
	FlagAPIBaseURL = "api-base-url"
	FlagMaxPages   = "max-pages"
	FlagDryRun     = "dry-run"

	// Test
	FlagTestRoot      = "test-root"
	FlagFormatter     = "formatter"
	FlagFormatterArg  = "formatter-arg"
	FlagSlowThreshold = "slow-threshold"
	FlagShowOutput    = "show-output"
	FlagProgress      = "progress"

	// Output
	FlagConsoleFormat = "console-format"
	FlagReport        = "report"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"
)
