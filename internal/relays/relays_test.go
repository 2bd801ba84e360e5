package relays

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/relays.json")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return data
}

func TestParseServers_Fixture(t *testing.T) {
	servers, err := ParseServers(loadFixture(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(servers) != 8 {
		t.Fatalf("Expected 8 servers, got %d", len(servers))
	}

	// Order follows the document
	wantOrder := []string{
		"al-tia-wg-001",
		"de-ber-wg-001",
		"de-ber-wg-002",
		"se-got-wg-101",
		"se-got-wg-102",
		"de-fra-ovpn-001",
		"se-sto-br-001",
		"us-nyc-xx-001",
	}
	for i, want := range wantOrder {
		if servers[i].Hostname != want {
			t.Errorf("servers[%d].Hostname = %q, want %q", i, servers[i].Hostname, want)
		}
	}

	tia := servers[0]
	if tia.Type != WireGuard {
		t.Errorf("Expected wireguard type, got %v", tia.Type)
	}
	if tia.Location() != "Tirana, Albania" {
		t.Errorf("Expected location 'Tirana, Albania', got %q", tia.Location())
	}
	if tia.IPv4Address != "31.171.153.66" {
		t.Errorf("Unexpected IPv4 address %q", tia.IPv4Address)
	}
	if tia.Owned == nil || *tia.Owned {
		t.Errorf("Expected owned=false, got %v", tia.Owned)
	}
	if tia.PortSpeed == nil || *tia.PortSpeed != 10 {
		t.Errorf("Expected port speed 10, got %v", tia.PortSpeed)
	}
	want := FeatureIPv6 | FeatureSecureBoot | FeatureSOCKS | FeatureMultiHop | FeatureDAITA
	if tia.Features != want {
		t.Errorf("Expected features %v, got %v", want, tia.Features)
	}
	if tia.Latency != nil {
		t.Error("Freshly parsed server should have no latency")
	}
}

func TestParseServers_OptionalFieldsStayAbsent(t *testing.T) {
	servers, err := ParseServers(loadFixture(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got101 := servers[3]
	if got101.Owned != nil {
		t.Errorf("Expected nil ownership when field is omitted, got %v", *got101.Owned)
	}
	if got101.PortSpeed != nil {
		t.Errorf("Expected nil port speed when field is omitted, got %v", *got101.PortSpeed)
	}
	if got101.Features != 0 {
		t.Errorf("Expected no features, got %v", got101.Features)
	}

	got102 := servers[4]
	if got102.Location() != "got, se" {
		t.Errorf("Expected code fallback 'got, se', got %q", got102.Location())
	}
	if got102.IPv4Address != "" {
		t.Errorf("Expected empty IPv4 address, got %q", got102.IPv4Address)
	}
}

func TestParseServers_UnknownTypeIsKept(t *testing.T) {
	servers, err := ParseServers(loadFixture(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	last := servers[len(servers)-1]
	if last.Type != ServerTypeNone {
		t.Errorf("Expected unknown type to map to ServerTypeNone, got %v", last.Type)
	}
}

func TestParseServers_SchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIndex int
		wantField string
	}{
		{
			name:      "Not JSON",
			input:     `<html>oops</html>`,
			wantIndex: -1,
		},
		{
			name:      "Object instead of array",
			input:     `{"countries": []}`,
			wantIndex: -1,
		},
		{
			name:      "Null document",
			input:     `null`,
			wantIndex: -1,
		},
		{
			name:      "Entry is not an object",
			input:     `[{"hostname": "a", "type": "wireguard", "active": true}, "b"]`,
			wantIndex: 1,
		},
		{
			name:      "Missing hostname",
			input:     `[{"type": "wireguard", "active": true}]`,
			wantIndex: 0,
			wantField: "hostname",
		},
		{
			name:      "Empty hostname",
			input:     `[{"hostname": "", "type": "wireguard", "active": true}]`,
			wantIndex: 0,
			wantField: "hostname",
		},
		{
			name:      "Missing type",
			input:     `[{"hostname": "a", "active": true}]`,
			wantIndex: 0,
			wantField: "type",
		},
		{
			name:      "Missing active",
			input:     `[{"hostname": "a", "type": "wireguard"}]`,
			wantIndex: 0,
			wantField: "active",
		},
		{
			name:      "Null entry",
			input:     `[null]`,
			wantIndex: 0,
			wantField: "hostname",
		},
		{
			name:      "Wrong type for optional field",
			input:     `[{"hostname": "a", "type": "wireguard", "active": true, "network_port_speed": "fast"}]`,
			wantIndex: 0,
			wantField: "network_port_speed",
		},
		{
			name:      "Wrong type for active",
			input:     `[{"hostname": "a", "type": "wireguard", "active": "yes"}]`,
			wantIndex: 0,
			wantField: "active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			servers, err := ParseServers([]byte(tt.input))
			if err == nil {
				t.Fatalf("Expected error, got %d servers", len(servers))
			}
			if servers != nil {
				t.Error("Expected no partial result on schema error")
			}

			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("Expected *SchemaError, got %T: %v", err, err)
			}
			if schemaErr.Index != tt.wantIndex {
				t.Errorf("Expected index %d, got %d", tt.wantIndex, schemaErr.Index)
			}
			if schemaErr.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, schemaErr.Field)
			}
		})
	}
}

func TestParseServers_NullOptionalFields(t *testing.T) {
	input := `[{"hostname": "a", "type": "wireguard", "active": true, "socks_name": null, "owned": null}]`
	servers, err := ParseServers([]byte(input))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if servers[0].Owned != nil {
		t.Error("Expected nil ownership for null field")
	}
	if servers[0].Features.Has(FeatureSOCKS) {
		t.Error("Null socks_name should not enable SOCKS")
	}
}

func TestParseServers_EmptyArray(t *testing.T) {
	servers, err := ParseServers([]byte(`[]`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(servers) != 0 {
		t.Errorf("Expected no servers, got %d", len(servers))
	}
}

func TestSchemaError_Message(t *testing.T) {
	err := &SchemaError{Index: 3, Field: "hostname", Err: errMissingField}
	if !strings.Contains(err.Error(), "#3") || !strings.Contains(err.Error(), "hostname") {
		t.Errorf("Unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, errMissingField) {
		t.Error("SchemaError should unwrap to the underlying error")
	}
}

func TestFilterWireGuard(t *testing.T) {
	servers, err := ParseServers(loadFixture(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	filtered, skipped := FilterWireGuard(servers)

	wantHosts := []string{"al-tia-wg-001", "de-ber-wg-001", "se-got-wg-101"}
	if len(filtered) != len(wantHosts) {
		t.Fatalf("Expected %d servers, got %d", len(wantHosts), len(filtered))
	}
	for i, host := range wantHosts {
		if filtered[i].Hostname != host {
			t.Errorf("filtered[%d] = %q, want %q", i, filtered[i].Hostname, host)
		}
	}
	if skipped != 1 {
		t.Errorf("Expected 1 server skipped for missing IPv4, got %d", skipped)
	}
}

func TestFilterWireGuard_Empty(t *testing.T) {
	filtered, skipped := FilterWireGuard(nil)
	if len(filtered) != 0 || skipped != 0 {
		t.Errorf("Expected empty result, got %d servers, %d skipped", len(filtered), skipped)
	}
}
