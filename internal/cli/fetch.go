package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"cmakesmoke/internal/fetcher"
	"cmakesmoke/internal/flags"
	gh "cmakesmoke/internal/github"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const fetchHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	GitHub code search requires an access token.

	Sources (in order):
	1) GITHUB_TOKEN environment variable (also read from --env-file, default .env)
	2) GH_TOKEN environment variable
	3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

	Any token works for public code search; no extra scopes are needed.

	Examples:
		# macOS/Linux
		export GITHUB_TOKEN="<your_token>"
		cmakesmoke fetch

		# GitHub CLI auth
		gh auth login
		cmakesmoke fetch
`

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror CMake files found by GitHub code search into the corpus",
	Long: `Page through GitHub code search (100 hits per page) and mirror every hit to
<corpus-root>/<owner>/<repo>/<path>, downloading the file at the exact commit
the search indexed.

Files already present in the corpus are skipped without any network access, so
the command is safe to re-run to resume an interrupted fetch. Existing files are
not re-verified.

After each page a progress line "<seen> / <total>" is printed to stdout.

Any error (search request, malformed hit, download, write) aborts the run and
exits with status 1. Files written before the error are kept.

Examples:
	# Full corpus into ./tests
	cmakesmoke fetch

	# GitHub serves at most 1000 search results; stop after 10 pages
	cmakesmoke fetch --max-pages 10

	# Show which files would be written
	cmakesmoke fetch --dry-run --max-pages 1
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		if err := cfg.ValidateFetch(); err != nil {
			return err
		}

		ctx := cmd.Context()
		token, source, err := gh.ResolveAuthToken(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to resolve GitHub auth token: %w", err)
		}
		if strings.TrimSpace(token) == "" {
			return errors.New("GitHub auth token is required (set GITHUB_TOKEN or run 'gh auth login')")
		}

		var verbose io.Writer
		if cfg.Runtime.Verbose {
			verbose = cmd.ErrOrStderr()
			fmt.Fprintf(verbose, "[verbose] auth: token from %s\n", source)
		}

		opts := []gh.Option{gh.WithVerbose(cfg.Runtime.Verbose, cmd.ErrOrStderr())}
		if cfg.Fetch.APIBaseURL != "" {
			opts = append(opts, gh.WithBaseURL(cfg.Fetch.APIBaseURL))
		}
		client, err := gh.NewClient(ctx, token, opts...)
		if err != nil {
			return fmt.Errorf("failed to create GitHub client: %w", err)
		}

		f := fetcher.NewFetcher(client, client.HTTP, fetcher.NewRequestBudget(), fetcher.Options{
			Query:      cfg.Fetch.Query,
			CorpusRoot: cfg.Fetch.CorpusRoot,
			RawBaseURL: cfg.Fetch.RawBaseURL,
			MaxPages:   cfg.Fetch.MaxPages,
			DryRun:     cfg.Fetch.DryRun,
			Progress:   cmd.OutOrStdout(),
			Verbose:    verbose,
		})

		stats, err := f.Sync(ctx)
		printFetchSummary(cmd.ErrOrStderr(), stats, cfg.Fetch.DryRun)
		return err
	},
}

func printFetchSummary(w io.Writer, stats fetcher.SyncStats, dryRun bool) {
	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s %d of %d pages, %d hits: ",
		bold.Sprint("Fetched"), stats.Pages, pageCount(stats.TotalCount), stats.Hits)
	if dryRun {
		fmt.Fprintf(w, "%s, %s\n",
			color.CyanString("%d would be written", stats.Pending),
			color.YellowString("%d already present", stats.Skipped))
		return
	}
	fmt.Fprintf(w, "%s, %s\n",
		color.GreenString("%d written", stats.Written),
		color.YellowString("%d already present", stats.Skipped))
}

// pageCount is the number of search requests a full sync issues for total hits.
func pageCount(total int) int {
	if total <= fetcher.PageSize {
		return 1
	}
	return (total + fetcher.PageSize - 1) / fetcher.PageSize
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.SetHelpTemplate(fetchHelpTemplate)

	fetchCmd.Flags().StringVar(&cfg.Fetch.Query, flags.FlagQuery, cfg.Fetch.Query, "GitHub code search query")
	fetchCmd.Flags().StringVar(&cfg.Fetch.CorpusRoot, flags.FlagCorpusRoot, cfg.Fetch.CorpusRoot, "Directory the corpus is mirrored into")
	fetchCmd.Flags().StringVar(&cfg.Fetch.RawBaseURL, flags.FlagRawBaseURL, cfg.Fetch.RawBaseURL, "Base URL for raw file downloads")
	fetchCmd.Flags().StringVar(&cfg.Fetch.APIBaseURL, flags.FlagAPIBaseURL, "", "GitHub REST API base URL (default: https://api.github.com/)")
	fetchCmd.Flags().IntVar(&cfg.Fetch.MaxPages, flags.FlagMaxPages, 0, "Maximum number of search pages to fetch (0 = unlimited)")
	fetchCmd.Flags().BoolVar(&cfg.Fetch.DryRun, flags.FlagDryRun, false, "Search and print target paths without downloading (still requires auth token)")
}
