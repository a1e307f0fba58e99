package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cmakesmoke/internal/fetcher"
	"cmakesmoke/internal/output"
	"cmakesmoke/internal/smoke"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove fields here, keep these in sync:
	// - CLI flags in internal/cli (fetch.go, test.go, root.go)
	// - File and ApplyFile in file.go
	Fetch   Fetch
	Smoke   Smoke
	Output  Output
	Runtime Runtime
}

type Fetch struct {
	// Query is the code search query (see --query).
	Query string

	// CorpusRoot is where hits are mirrored as <root>/<owner>/<repo>/<path> (see --corpus-root).
	CorpusRoot string

	// RawBaseURL is the raw-content host the download URL is built on (see --raw-base-url).
	RawBaseURL string

	// APIBaseURL overrides the REST API root, e.g. for GHES (see --api-base-url).
	// Empty means api.github.com.
	APIBaseURL string

	// MaxPages caps the number of search pages (see --max-pages). 0 means no cap.
	MaxPages int

	// DryRun prints targets that would be written without downloading (see --dry-run).
	DryRun bool
}

type Smoke struct {
	// TestRoot is the corpus directory the formatter is run over (see --test-root).
	TestRoot string

	// Formatter is the executable under test (see --formatter).
	Formatter string

	// FormatterArgs are inserted before the file argument (see --formatter-arg, repeatable).
	FormatterArgs []string

	// SlowThreshold marks invocations taking longer as slow (see --slow-threshold).
	SlowThreshold time.Duration

	// ShowOutput forwards formatter stdout/stderr to stderr (see --show-output).
	ShowOutput bool

	// Progress controls the stderr progress bar (see --progress).
	// Allowed values: auto, always, never.
	Progress string
}

type Output struct {
	// ConsoleFormat controls the console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Verbose logs every HTTP call and per-file mirror decision to stderr.
	Verbose bool

	// ConfigFile is an optional YAML file with defaults (see --config).
	ConfigFile string

	// EnvFile is loaded into the environment before token resolution (see --env-file).
	// A missing default .env is ignored.
	EnvFile string
}

const (
	DefaultCorpusRoot = "tests"
	DefaultEnvFile    = ".env"
)

func New() *Config {
	return &Config{
		Fetch: Fetch{
			Query:      fetcher.DefaultQuery,
			CorpusRoot: DefaultCorpusRoot,
			RawBaseURL: fetcher.DefaultRawBaseURL,
		},
		Smoke: Smoke{
			TestRoot:      DefaultCorpusRoot,
			Formatter:     smoke.DefaultFormatter,
			SlowThreshold: smoke.DefaultSlowThreshold,
			Progress:      "auto",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			EnvFile: DefaultEnvFile,
		},
	}
}

// ValidateFetch normalizes and checks the settings used by `fetch`.
func (c *Config) ValidateFetch() error {
	c.Fetch.Query = strings.TrimSpace(c.Fetch.Query)
	if c.Fetch.Query == "" {
		return errors.New("--query must not be empty")
	}
	c.Fetch.CorpusRoot = strings.TrimSpace(c.Fetch.CorpusRoot)
	if c.Fetch.CorpusRoot == "" {
		return errors.New("--corpus-root must not be empty")
	}
	if c.Fetch.MaxPages < 0 {
		return errors.New("--max-pages must be >= 0")
	}
	if err := validateHTTPURL(c.Fetch.RawBaseURL); err != nil {
		return fmt.Errorf("invalid --raw-base-url: %w", err)
	}
	if c.Fetch.APIBaseURL != "" {
		if err := validateHTTPURL(c.Fetch.APIBaseURL); err != nil {
			return fmt.Errorf("invalid --api-base-url: %w", err)
		}
	}
	return nil
}

// ValidateTest normalizes and checks the settings used by `test`.
func (c *Config) ValidateTest() error {
	c.Smoke.TestRoot = strings.TrimSpace(c.Smoke.TestRoot)
	if c.Smoke.TestRoot == "" {
		return errors.New("--test-root must not be empty")
	}
	c.Smoke.Formatter = strings.TrimSpace(c.Smoke.Formatter)
	if c.Smoke.Formatter == "" {
		return errors.New("--formatter must not be empty")
	}
	if c.Smoke.SlowThreshold <= 0 {
		return errors.New("--slow-threshold must be > 0")
	}

	c.Smoke.Progress = normalizeEnumValue(c.Smoke.Progress)
	if c.Smoke.Progress == "" {
		c.Smoke.Progress = "auto"
	}
	if c.Smoke.Progress != "auto" && c.Smoke.Progress != "always" && c.Smoke.Progress != "never" {
		return fmt.Errorf("unsupported --progress: %s (must be one of: auto, always, never)", c.Smoke.Progress)
	}

	return c.validateOutput()
}

func (c *Config) validateOutput() error {
	c.Output.Emit = splitCommaList(c.Output.Emit)

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			format, err := output.InferFormat(c.Output.Out)
			if err != nil {
				return fmt.Errorf("%w; use --out-format", err)
			}
			c.Output.OutFormat = format
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
