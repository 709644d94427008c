package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// EnvPrefix is prepended to every environment override, e.g.
// PROXYCHECK_THREADS=200.
const EnvPrefix = "PROXYCHECK"

// NoSources disables every remote provider when given as the only entry
// of Sources.
const NoSources = "none"

// Options holds all configuration for a proxycheck run.
type Options struct {
	// Sources
	Sources []string `yaml:"sources" mapstructure:"sources"`
	Input   string   `yaml:"input,omitempty" mapstructure:"input"`
	CIDR    string   `yaml:"cidr,omitempty" mapstructure:"cidr"`
	Ports   string   `yaml:"ports" mapstructure:"ports"`

	// Probe
	Targets         []probe.Target `yaml:"targets" mapstructure:"targets"`
	Timeout         time.Duration  `yaml:"timeout" mapstructure:"timeout"`
	Threads         int            `yaml:"threads" mapstructure:"threads"` // 0 = one goroutine per candidate
	UserAgent       string         `yaml:"user_agent,omitempty" mapstructure:"user_agent"`
	FollowRedirects bool           `yaml:"follow_redirects" mapstructure:"follow_redirects"`

	// Filters, off by default
	MinSuccess  int           `yaml:"min_success" mapstructure:"min_success"`
	MaxLatency  time.Duration `yaml:"max_latency" mapstructure:"max_latency"`
	MatchStatus []int         `yaml:"match_status,omitempty" mapstructure:"match_status"`

	// Output
	OutputFile   string `yaml:"output,omitempty" mapstructure:"output"`
	OutputFormat string `yaml:"format" mapstructure:"format"` // "json", "text", "csv"
	Quiet        bool   `yaml:"quiet" mapstructure:"quiet"`
	NoColor      bool   `yaml:"no_color" mapstructure:"no_color"`
	OnResult     string `yaml:"on_result,omitempty" mapstructure:"on_result"`

	// Storage
	DatabaseURL string `yaml:"database_url,omitempty" mapstructure:"database_url"`

	// Run state
	ResumeFile string `yaml:"resume_file,omitempty" mapstructure:"resume_file"`
	Debug      bool   `yaml:"debug" mapstructure:"debug"`
}

// Defaults returns the built-in configuration.
func Defaults() Options {
	return Options{
		Sources:      []string{"spys", "freeproxylist", "proxydaily"},
		Ports:        "3128,8080",
		Targets:      probe.DefaultTargets(),
		Timeout:      probe.DefaultTimeout,
		OutputFormat: "json",
	}
}

// SetDefaults registers Defaults with v so that environment variables and
// config file keys are recognised for every field.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("sources", d.Sources)
	v.SetDefault("input", d.Input)
	v.SetDefault("cidr", d.CIDR)
	v.SetDefault("ports", d.Ports)
	v.SetDefault("targets", d.Targets)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("threads", d.Threads)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("follow_redirects", d.FollowRedirects)
	v.SetDefault("min_success", d.MinSuccess)
	v.SetDefault("max_latency", d.MaxLatency)
	v.SetDefault("match_status", d.MatchStatus)
	v.SetDefault("output", d.OutputFile)
	v.SetDefault("format", d.OutputFormat)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("no_color", d.NoColor)
	v.SetDefault("on_result", d.OnResult)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("resume_file", d.ResumeFile)
	v.SetDefault("debug", d.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// FromViper decodes the merged view of v into Options and validates it.
// Defaults come from v itself (see SetDefaults), so a configured list
// replaces the default list instead of being merged into it.
func FromViper(v *viper.Viper) (*Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	opts.Sources = cleanSources(opts.Sources)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// cleanSources trims entries, drops empties and resolves NoSources.
func cleanSources(in []string) []string {
	var out []string
	for _, s := range in {
		// env values arrive as one comma-separated string
		for _, part := range strings.Split(s, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if part == NoSources {
				return nil
			}
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first configuration error found.
func (o *Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if o.Threads < 0 {
		return errors.New("threads must not be negative")
	}
	if o.MinSuccess < 0 {
		return errors.New("min-success must not be negative")
	}
	if o.MaxLatency < 0 {
		return errors.New("max-latency must not be negative")
	}
	for _, code := range o.MatchStatus {
		if code < 100 || code > 599 {
			return fmt.Errorf("match-status %d is not an HTTP status code", code)
		}
	}
	if len(o.Targets) == 0 {
		return errors.New("at least one target is required")
	}
	seen := make(map[string]bool, len(o.Targets))
	for _, t := range o.Targets {
		if t.Name == "" {
			return fmt.Errorf("target %q has no name", t.URL)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
		u, err := url.Parse(t.URL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("target %s: %q is not an absolute http(s) URL", t.Name, t.URL)
		}
	}
	switch o.OutputFormat {
	case "json", "text", "csv":
	default:
		return fmt.Errorf("unknown output format %q (want json, text or csv)", o.OutputFormat)
	}
	return nil
}

// LogLevel maps Debug and Quiet onto a slog level.
func (o *Options) LogLevel() slog.Level {
	switch {
	case o.Debug:
		return slog.LevelDebug
	case o.Quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// WriteYAML dumps the options in config file form.
func (o *Options) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return enc.Close()
}
