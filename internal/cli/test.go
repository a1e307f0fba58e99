package cli

import (
	"fmt"
	"os"

	"cmakesmoke/internal/engine"
	"cmakesmoke/internal/flags"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the formatter over every file in the corpus",
	Long: `Run the formatter once per regular file under --test-root (recursively,
in a deterministic order) and report which files it rejects and which runs are
slow.

A file fails when the formatter cannot be started or exits non-zero. A run is
slow when it takes longer than --slow-threshold, whether or not it succeeded.
Failures never stop the run.

Output:
	Console text output (stdout):
		<failed path>        one line per failing file, in encounter order
		slow <path> <N>ms    one line per slow run
		total <N>
		failures <N>

	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write the JSON summary or an NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, file.result, run.finished). Per-file outcomes are
	represented as an Event with type "file.result" and a nested "result" object.

Exit codes:
	0 = every file formatted successfully
	1 = at least one file failed
	3 = fatal error (invalid flags, missing test root, output error, interrupted)

Examples:
	# Smoke-test a local build
	cmakesmoke test --formatter ./target/release/cmakefmt

	# Pass formatter options before the file argument
	cmakesmoke test --formatter-arg=--max-width=100

	# AI Agent: stream machine-readable events to stdout
	cmakesmoke test --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadConfig(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := cfg.ValidateTest(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		os.Exit(engine.Run(cmd.Context(), cfg))
	},
}

func init() {
	rootCmd.AddCommand(testCmd)

	// Smoke run
	testCmd.Flags().StringVar(&cfg.Smoke.TestRoot, flags.FlagTestRoot, cfg.Smoke.TestRoot, "Corpus directory to run the formatter over")
	testCmd.Flags().StringVar(&cfg.Smoke.Formatter, flags.FlagFormatter, cfg.Smoke.Formatter, "Formatter executable (name on PATH or path)")
	testCmd.Flags().StringArrayVar(&cfg.Smoke.FormatterArgs, flags.FlagFormatterArg, nil, "Argument passed to the formatter before the file path (repeatable)")
	testCmd.Flags().DurationVar(&cfg.Smoke.SlowThreshold, flags.FlagSlowThreshold, cfg.Smoke.SlowThreshold, "Runs taking longer than this are reported as slow")
	testCmd.Flags().BoolVar(&cfg.Smoke.ShowOutput, flags.FlagShowOutput, false, "Forward formatter stdout/stderr to stderr")
	testCmd.Flags().StringVar(&cfg.Smoke.Progress, flags.FlagProgress, cfg.Smoke.Progress, "Progress bar on stderr: auto|always|never (auto = only on a terminal)")

	// Output
	testCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	testCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	testCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	testCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	testCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	testCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
}
