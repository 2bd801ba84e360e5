package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/api"
	"github.com/Ch00k/mullvad-speed/internal/logging"
	"github.com/Ch00k/mullvad-speed/internal/probe"
	"github.com/Ch00k/mullvad-speed/internal/report"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := ParseFlags([]string{}, "dev")
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	if cfg.Count != 10 {
		t.Errorf("Expected count to be 10, got %d", cfg.Count)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Expected timeout to be 2s, got %v", cfg.Timeout)
	}
	if cfg.Workers != 10 {
		t.Errorf("Expected workers to be 10, got %d", cfg.Workers)
	}
	if cfg.Port != 443 {
		t.Errorf("Expected port to be 443, got %d", cfg.Port)
	}
	if cfg.Samples != 3 {
		t.Errorf("Expected samples to be 3, got %d", cfg.Samples)
	}
	if cfg.Method != probe.MethodTCP {
		t.Errorf("Expected method to be tcp, got %v", cfg.Method)
	}
	if cfg.Format != report.FormatTableOutput {
		t.Errorf("Expected format to be table, got %v", cfg.Format)
	}
	if cfg.APIURL != api.DefaultRelaysURL {
		t.Errorf("Expected default API URL, got %s", cfg.APIURL)
	}
	if cfg.LogLevel != logging.LogLevelError {
		t.Errorf("Expected log level to be error, got %v", cfg.LogLevel)
	}
	if cfg.DeterministicOutput {
		t.Error("Expected deterministic output to be off")
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", cfg.Warnings)
	}
}

func TestParseFlagsCount(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		want        int
		wantWarning bool
	}{
		{"Explicit count", []string{"5"}, 5, false},
		{"Large count", []string{"500"}, 500, false},
		{"Count after flags", []string{"-t", "500", "3"}, 3, false},
		{"Count before flags", []string{"3", "-t", "500"}, 3, false},
		{"Zero falls back to default", []string{"0"}, 10, true},
		{"Not a number falls back to default", []string{"abc"}, 10, true},
		{"Float falls back to default", []string{"2.5"}, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args, "dev")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg.Count != tt.want {
				t.Errorf("Expected count %d, got %d", tt.want, cfg.Count)
			}
			if (len(cfg.Warnings) > 0) != tt.wantWarning {
				t.Errorf("Unexpected warnings: %v", cfg.Warnings)
			}
			if tt.wantWarning && !strings.Contains(cfg.Warnings[0], "using default: 10") {
				t.Errorf("Warning should mention the default, got %q", cfg.Warnings[0])
			}
		})
	}
}

func TestParseFlagsTooManyArguments(t *testing.T) {
	_, err := ParseFlags([]string{"5", "6"}, "dev")
	if err == nil {
		t.Fatal("Expected error for two positional arguments")
	}
	if !strings.Contains(err.Error(), "unexpected argument: 6") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestParseFlagsTimeout(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    time.Duration
		wantErr bool
	}{
		{"Short flag", []string{"-t", "1000"}, time.Second, false},
		{"Long flag", []string{"--timeout", "250"}, 250 * time.Millisecond, false},
		{"Equals form", []string{"--timeout=750"}, 750 * time.Millisecond, false},
		{"Minimum", []string{"-t", "100"}, 100 * time.Millisecond, false},
		{"Maximum", []string{"-t", "10000"}, 10 * time.Second, false},
		{"Below minimum", []string{"-t", "99"}, 0, true},
		{"Above maximum", []string{"-t", "10001"}, 0, true},
		{"Not a number", []string{"-t", "fast"}, 0, true},
		{"Missing value", []string{"-t"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args, "dev")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Timeout != tt.want {
				t.Errorf("Expected timeout %v, got %v", tt.want, cfg.Timeout)
			}
		})
	}
}

func TestParseFlagsBounds(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"Workers zero", []string{"-w", "0"}, "workers must be between 1 and 200"},
		{"Workers too many", []string{"--workers", "201"}, "workers must be between 1 and 200"},
		{"Port zero", []string{"-p", "0"}, "port must be between 1 and 65535"},
		{"Port too high", []string{"--port", "65536"}, "port must be between 1 and 65535"},
		{"Samples zero", []string{"-s", "0"}, "samples must be between 1 and 10"},
		{"Samples too many", []string{"--samples", "11"}, "samples must be between 1 and 10"},
		{"Invalid method", []string{"-m", "udp"}, "invalid probe method"},
		{"Invalid format", []string{"-f", "csv"}, "invalid output format"},
		{"Invalid log level", []string{"-l", "verbose"}, "invalid log level"},
		{"Invalid URL scheme", []string{"-u", "ftp://example.com/relays"}, "invalid api-url"},
		{"URL without host", []string{"--api-url", "https://"}, "invalid api-url"},
		{"Unknown flag", []string{"--distance", "5"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlags(tt.args, "dev")
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestParseFlagsValues(t *testing.T) {
	cfg, err := ParseFlags([]string{
		"-w", "50",
		"-p", "51820",
		"-s", "1",
		"-m", "icmp",
		"-f", "yaml",
		"-u", "http://127.0.0.1:8080/relays",
		"-l", "debug",
		"20",
	}, "dev")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Workers != 50 || cfg.Port != 51820 || cfg.Samples != 1 {
		t.Errorf("Unexpected numeric values: %+v", cfg)
	}
	if cfg.Method != probe.MethodICMP {
		t.Errorf("Expected icmp method, got %v", cfg.Method)
	}
	if cfg.Format != report.FormatYAMLOutput {
		t.Errorf("Expected yaml format, got %v", cfg.Format)
	}
	if cfg.APIURL != "http://127.0.0.1:8080/relays" {
		t.Errorf("Unexpected API URL %s", cfg.APIURL)
	}
	if cfg.LogLevel != logging.LogLevelDebug {
		t.Errorf("Expected debug log level, got %v", cfg.LogLevel)
	}
	if cfg.Count != 20 {
		t.Errorf("Expected count 20, got %d", cfg.Count)
	}
}

func TestParseFlagsDeterministicOutput(t *testing.T) {
	t.Run("Enabled in dev builds", func(t *testing.T) {
		cfg, err := ParseFlags([]string{"--deterministic-output"}, "dev")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !cfg.DeterministicOutput {
			t.Error("Expected deterministic output in dev build")
		}
	})

	t.Run("Ignored in release builds", func(t *testing.T) {
		cfg, err := ParseFlags([]string{"--deterministic-output"}, "1.0.0")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.DeterministicOutput {
			t.Error("Deterministic output must be ignored outside dev builds")
		}
	})
}

func TestConfigProbeOptions(t *testing.T) {
	cfg, err := ParseFlags([]string{"-t", "300", "-w", "4", "-p", "8443", "-s", "2", "-m", "icmp"}, "dev")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	opts := cfg.ProbeOptions()
	want := probe.Options{
		Method:  probe.MethodICMP,
		Port:    8443,
		Timeout: 300 * time.Millisecond,
		Workers: 4,
		Samples: 2,
	}
	if opts != want {
		t.Errorf("ProbeOptions() = %+v, want %+v", opts, want)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"10", 10, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"", 0, true},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
