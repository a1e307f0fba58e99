package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cmakesmoke/internal/flags"
)

// File is the YAML shape of --config. Pointer fields distinguish "unset" from
// zero values so only keys present in the file override defaults.
type File struct {
	Fetch *struct {
		Query      *string `yaml:"query"`
		CorpusRoot *string `yaml:"corpus_root"`
		RawBaseURL *string `yaml:"raw_base_url"`
		APIBaseURL *string `yaml:"api_base_url"`
		MaxPages   *int    `yaml:"max_pages"`
	} `yaml:"fetch"`

	Test *struct {
		TestRoot      *string        `yaml:"test_root"`
		Formatter     *string        `yaml:"formatter"`
		FormatterArgs []string       `yaml:"formatter_args"`
		SlowThreshold *time.Duration `yaml:"slow_threshold"`
		ShowOutput    *bool          `yaml:"show_output"`
		Progress      *string        `yaml:"progress"`
	} `yaml:"test"`

	Output *struct {
		ConsoleFormat *string  `yaml:"console_format"`
		Report        *string  `yaml:"report"`
		Out           *string  `yaml:"out"`
		OutFormat     *string  `yaml:"out_format"`
		Emit          []string `yaml:"emit"`
	} `yaml:"output"`
}

// LoadFile reads a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// ApplyFile copies values from f into c. Settings whose flag was explicitly set
// (isSet returns true) are left alone so the command line wins.
func (c *Config) ApplyFile(f *File, isSet func(flag string) bool) {
	if f == nil {
		return
	}
	if isSet == nil {
		isSet = func(string) bool { return false }
	}

	if fe := f.Fetch; fe != nil {
		setString(&c.Fetch.Query, fe.Query, isSet(flags.FlagQuery))
		setString(&c.Fetch.CorpusRoot, fe.CorpusRoot, isSet(flags.FlagCorpusRoot))
		setString(&c.Fetch.RawBaseURL, fe.RawBaseURL, isSet(flags.FlagRawBaseURL))
		setString(&c.Fetch.APIBaseURL, fe.APIBaseURL, isSet(flags.FlagAPIBaseURL))
		if fe.MaxPages != nil && !isSet(flags.FlagMaxPages) {
			c.Fetch.MaxPages = *fe.MaxPages
		}
	}

	if t := f.Test; t != nil {
		setString(&c.Smoke.TestRoot, t.TestRoot, isSet(flags.FlagTestRoot))
		setString(&c.Smoke.Formatter, t.Formatter, isSet(flags.FlagFormatter))
		setString(&c.Smoke.Progress, t.Progress, isSet(flags.FlagProgress))
		if t.FormatterArgs != nil && !isSet(flags.FlagFormatterArg) {
			c.Smoke.FormatterArgs = append([]string(nil), t.FormatterArgs...)
		}
		if t.SlowThreshold != nil && !isSet(flags.FlagSlowThreshold) {
			c.Smoke.SlowThreshold = *t.SlowThreshold
		}
		if t.ShowOutput != nil && !isSet(flags.FlagShowOutput) {
			c.Smoke.ShowOutput = *t.ShowOutput
		}
	}

	if o := f.Output; o != nil {
		setString(&c.Output.ConsoleFormat, o.ConsoleFormat, isSet(flags.FlagConsoleFormat))
		setString(&c.Output.Report, o.Report, isSet(flags.FlagReport))
		setString(&c.Output.Out, o.Out, isSet(flags.FlagOut))
		setString(&c.Output.OutFormat, o.OutFormat, isSet(flags.FlagOutFormat))
		if o.Emit != nil && !isSet(flags.FlagEmit) {
			c.Output.Emit = append([]string(nil), o.Emit...)
		}
	}
}

func setString(dst *string, v *string, flagSet bool) {
	if v == nil || flagSet {
		return
	}
	*dst = *v
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing file is only an error
// when required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
