// Package cli provides command-line configuration and flag parsing functionality.
package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/api"
	"github.com/Ch00k/mullvad-speed/internal/logging"
	"github.com/Ch00k/mullvad-speed/internal/probe"
	"github.com/Ch00k/mullvad-speed/internal/report"
	"github.com/spf13/pflag"
)

// Flag defaults and bounds
const (
	DefaultTimeoutMs = 2000
	MinTimeoutMs     = 100
	MaxTimeoutMs     = 10000
	MaxWorkers       = 200
	MaxSamples       = 10
)

// Config holds the validated configuration for a run.
type Config struct {
	Count               int
	Timeout             time.Duration
	Workers             int
	Port                int
	Samples             int
	Method              probe.Method
	Format              report.Format
	APIURL              string
	LogLevel            logging.LogLevel
	DeterministicOutput bool

	// Warnings are non-fatal problems found while parsing, e.g. an invalid count
	Warnings []string
}

// ProbeOptions returns the prober settings carried by the config
func (c *Config) ProbeOptions() probe.Options {
	return probe.Options{
		Method:  c.Method,
		Port:    c.Port,
		Timeout: c.Timeout,
		Workers: c.Workers,
		Samples: c.Samples,
	}
}

// Flags holds raw flag values as given on the command line
type Flags struct {
	TimeoutMs           int
	Workers             int
	Port                int
	Samples             int
	Method              string
	Format              string
	APIURL              string
	LogLevel            string
	DeterministicOutput bool
}

// Register binds the flags to fs with their defaults
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.TimeoutMs, "timeout", "t", DefaultTimeoutMs,
		fmt.Sprintf("probe timeout in milliseconds (%d-%d)", MinTimeoutMs, MaxTimeoutMs))
	fs.IntVarP(&f.Workers, "workers", "w", probe.DefaultWorkers,
		fmt.Sprintf("number of concurrent probe workers (1-%d)", MaxWorkers))
	fs.IntVarP(&f.Port, "port", "p", probe.DefaultPort, "TCP port to connect to when using the tcp method")
	fs.IntVarP(&f.Samples, "samples", "s", probe.DefaultSamples,
		fmt.Sprintf("measurements per server, averaged (1-%d)", MaxSamples))
	fs.StringVarP(&f.Method, "method", "m", probe.MethodTCP.String(), "probe method (tcp, icmp)")
	fs.StringVarP(&f.Format, "format", "f", report.FormatTableOutput.String(), "output format (table, json, yaml)")
	fs.StringVarP(&f.APIURL, "api-url", "u", api.DefaultRelaysURL, "relay list URL")
	fs.StringVarP(&f.LogLevel, "log-level", "l", logging.LogLevelError.String(),
		"log level (debug, info, warning, error)")
	fs.BoolVar(&f.DeterministicOutput, "deterministic-output", false, "print a fixed result set (dev builds only)")
	_ = fs.MarkHidden("deterministic-output")
}

// Config validates the raw flags and positional arguments
func (f *Flags) Config(args []string, version string) (*Config, error) {
	cfg := &Config{
		Count:   report.DefaultCount,
		Workers: f.Workers,
		Port:    f.Port,
		Samples: f.Samples,
		APIURL:  f.APIURL,
	}

	if f.TimeoutMs < MinTimeoutMs || f.TimeoutMs > MaxTimeoutMs {
		return nil, fmt.Errorf("timeout must be between %d and %d", MinTimeoutMs, MaxTimeoutMs)
	}
	cfg.Timeout = time.Duration(f.TimeoutMs) * time.Millisecond

	if f.Workers < 1 || f.Workers > MaxWorkers {
		return nil, fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
	}
	if f.Port < 1 || f.Port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535")
	}
	if f.Samples < 1 || f.Samples > MaxSamples {
		return nil, fmt.Errorf("samples must be between 1 and %d", MaxSamples)
	}

	method, err := probe.ParseMethod(f.Method)
	if err != nil {
		return nil, err
	}
	cfg.Method = method

	format, err := report.ParseFormat(f.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	level, err := logging.ParseLogLevel(f.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if err := validateURL(f.APIURL); err != nil {
		return nil, err
	}

	// Only enable in dev builds, silently ignore otherwise
	if f.DeterministicOutput && version == "dev" {
		cfg.DeterministicOutput = true
	}

	if len(args) > 1 {
		return nil, fmt.Errorf("unexpected argument: %s", args[1])
	}
	if len(args) == 1 {
		count, err := ParseCount(args[0])
		if err != nil {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("%v, using default: %d", err, report.DefaultCount))
		} else {
			cfg.Count = count
		}
	}

	return cfg, nil
}

// ParseCount parses the number of servers to show
func ParseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number of servers: %q", s)
	}
	return n, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api-url: %q (must be an http or https URL)", raw)
	}
	return nil
}

// ParseFlags parses command-line arguments into a Config using a standalone flag set
func ParseFlags(args []string, version string) (*Config, error) {
	fs := pflag.NewFlagSet("mullvad-speed", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var flags Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return flags.Config(fs.Args(), version)
}
