// Package report ranks probed servers and renders them for display.
package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ch00k/mullvad-speed/internal/relays"
	"gopkg.in/yaml.v3"
)

// DefaultCount is the number of servers shown when none is requested
const DefaultCount = 10

// NoResultsMessage is printed in table mode when no server answered
const NoResultsMessage = "No reachable servers found"

// Format selects the output representation
type Format int

// Output format constants
const (
	FormatTableOutput Format = iota // Aligned text table
	FormatJSONOutput                // JSON array
	FormatYAMLOutput                // YAML sequence
)

func (f Format) String() string {
	switch f {
	case FormatTableOutput:
		return "table"
	case FormatJSONOutput:
		return "json"
	case FormatYAMLOutput:
		return "yaml"
	default:
		return "table"
	}
}

// ParseFormat parses an output format string
func ParseFormat(s string) (Format, error) {
	switch s {
	case "table":
		return FormatTableOutput, nil
	case "json":
		return FormatJSONOutput, nil
	case "yaml":
		return FormatYAMLOutput, nil
	default:
		return FormatTableOutput, fmt.Errorf("invalid output format: %s (must be 'table', 'json', or 'yaml')", s)
	}
}

// Rank drops servers without a latency, sorts the rest by latency ascending
// and returns at most n of them. Equal latencies keep their input order.
func Rank(servers []relays.Server, n int) []relays.Server {
	reachable := make([]relays.Server, 0, len(servers))
	for _, server := range servers {
		if server.Latency != nil {
			reachable = append(reachable, server)
		}
	}

	slices.SortStableFunc(reachable, func(a, b relays.Server) int {
		return cmp.Compare(*a.Latency, *b.Latency)
	})

	if n >= 0 && n < len(reachable) {
		reachable = reachable[:n]
	}
	return reachable
}

// Render formats ranked servers in the requested format
func Render(servers []relays.Server, format Format) (string, error) {
	switch format {
	case FormatJSONOutput:
		return FormatJSON(servers)
	case FormatYAMLOutput:
		return FormatYAML(servers)
	default:
		if len(servers) == 0 {
			return NoResultsMessage + "\n", nil
		}
		return FormatTable(servers) + "\n" + FormatRecommendation(servers[0]), nil
	}
}

// FormatTable formats servers as a table string
func FormatTable(servers []relays.Server) string {
	if len(servers) == 0 {
		return ""
	}

	headers := []string{"Hostname", "Location", "IPv4", "Latency", "Speed", "Owned", "Features"}
	rows := make([][]string, len(servers))

	for i, server := range servers {
		rows[i] = []string{
			server.Hostname,
			server.Location(),
			server.IPv4Address,
			formatLatency(server.Latency),
			formatPortSpeed(server.PortSpeed),
			formatOwned(server.Owned),
			server.Features.String(),
		}
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	var output strings.Builder
	writeRow(&output, headers, widths)

	separators := make([]string, len(headers))
	for i, width := range widths {
		separators[i] = strings.Repeat("-", width)
	}
	writeRow(&output, separators, widths)

	for _, row := range rows {
		writeRow(&output, row, widths)
	}

	return output.String()
}

// writeRow writes padded cells; the last column is not padded to avoid trailing spaces
func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("   ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(padRight(cell, widths[i]))
	}
	b.WriteString("\n")
}

// padRight pads a string with spaces on the right to reach the specified width
func padRight(s string, width int) string {
	runeCount := utf8.RuneCountInString(s)
	if runeCount >= width {
		return s
	}
	return s + strings.Repeat(" ", width-runeCount)
}

// FormatRecommendation describes the fastest server
func FormatRecommendation(server relays.Server) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("Recommended server: %s in %s\n", server.Hostname, server.Location()))
	output.WriteString(fmt.Sprintf("IPv4:               %s\n", server.IPv4Address))
	output.WriteString(fmt.Sprintf("Latency:            %s\n", formatLatency(server.Latency)))
	output.WriteString(fmt.Sprintf("Port speed:         %s\n", formatPortSpeed(server.PortSpeed)))
	output.WriteString(fmt.Sprintf("Owned by Mullvad:   %s\n", formatOwned(server.Owned)))
	if server.Features != 0 {
		output.WriteString(fmt.Sprintf("Features:           %s\n", server.Features))
	}

	return output.String()
}

// record is the machine-readable form of a ranked server
type record struct {
	Rank          int      `json:"rank" yaml:"rank"`
	Hostname      string   `json:"hostname" yaml:"hostname"`
	Location      string   `json:"location" yaml:"location"`
	CountryCode   string   `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	CityCode      string   `json:"city_code,omitempty" yaml:"city_code,omitempty"`
	IPv4Address   string   `json:"ipv4_addr" yaml:"ipv4_addr"`
	IPv6Address   string   `json:"ipv6_addr,omitempty" yaml:"ipv6_addr,omitempty"`
	LatencyMs     float64  `json:"latency_ms" yaml:"latency_ms"`
	PortSpeedGbps *int     `json:"port_speed_gbps,omitempty" yaml:"port_speed_gbps,omitempty"`
	Owned         *bool    `json:"owned,omitempty" yaml:"owned,omitempty"`
	Provider      string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Features      []string `json:"features" yaml:"features"`
}

func toRecords(servers []relays.Server) []record {
	records := make([]record, 0, len(servers))
	for i, server := range servers {
		var latencyMs float64
		if server.Latency != nil {
			latencyMs = durationMs(*server.Latency)
		}
		records = append(records, record{
			Rank:          i + 1,
			Hostname:      server.Hostname,
			Location:      server.Location(),
			CountryCode:   server.CountryCode,
			CityCode:      server.CityCode,
			IPv4Address:   server.IPv4Address,
			IPv6Address:   server.IPv6Address,
			LatencyMs:     latencyMs,
			PortSpeedGbps: server.PortSpeed,
			Owned:         server.Owned,
			Provider:      server.Provider,
			Features:      server.Features.Names(),
		})
	}
	return records
}

// FormatJSON renders servers as an indented JSON array
func FormatJSON(servers []relays.Server) (string, error) {
	data, err := json.MarshalIndent(toRecords(servers), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatYAML renders servers as a YAML sequence
func FormatYAML(servers []relays.Server) (string, error) {
	data, err := yaml.Marshal(toRecords(servers))
	if err != nil {
		return "", fmt.Errorf("failed to encode YAML report: %w", err)
	}
	return string(data), nil
}

// durationMs converts d to fractional milliseconds rounded to two decimals
func durationMs(d time.Duration) float64 {
	return float64(d.Round(10*time.Microsecond).Microseconds()) / 1000.0
}

// formatLatency formats a latency value for display
func formatLatency(latency *time.Duration) string {
	if latency == nil {
		return "timeout"
	}
	return fmt.Sprintf("%.2f ms", durationMs(*latency))
}

// formatPortSpeed formats the advertised port speed for display
func formatPortSpeed(speed *int) string {
	if speed == nil || *speed == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d Gbps", *speed)
}

// formatOwned formats the ownership flag for display
func formatOwned(owned *bool) string {
	switch {
	case owned == nil:
		return "unknown"
	case *owned:
		return "yes"
	default:
		return "no"
	}
}
