// Package relays provides functions for parsing and filtering Mullvad relay servers.
package relays

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Ch00k/mullvad-speed/internal/logging"
)

// SchemaError reports a relay entry that does not match the expected fields
type SchemaError struct {
	Index int // position of the entry in the relay list, -1 for the document itself
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("invalid relay list: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("invalid relay entry #%d: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("invalid relay entry #%d: field %q: %v", e.Index, e.Field, e.Err)
	}
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

var errMissingField = errors.New("missing required field")

// relayEntry mirrors one element of the relay list. Every field is a pointer so
// that an omitted field can be told apart from its zero value.
type relayEntry struct {
	Hostname         *string `json:"hostname"`
	Type             *string `json:"type"`
	Active           *bool   `json:"active"`
	CountryCode      *string `json:"country_code"`
	CountryName      *string `json:"country_name"`
	CityCode         *string `json:"city_code"`
	CityName         *string `json:"city_name"`
	IPv4AddrIn       *string `json:"ipv4_addr_in"`
	IPv6AddrIn       *string `json:"ipv6_addr_in"`
	Owned            *bool   `json:"owned"`
	Provider         *string `json:"provider"`
	NetworkPortSpeed *int    `json:"network_port_speed"`
	Stboot           *bool   `json:"stboot"`
	SocksName        *string `json:"socks_name"`
	MultihopPort     *int    `json:"multihop_port"`
	Daita            *bool   `json:"daita"`
}

// ParseServers decodes the relay list returned by the Mullvad API.
// The document must be a JSON array of objects, each carrying a non-empty
// hostname, a type and an active flag. Optional fields must have the right
// JSON type when present; when absent they stay absent on the Server.
func ParseServers(data []byte) ([]Server, error) {
	return ParseServersWithLogLevel(data, logging.LogLevelError)
}

// ParseServersWithLogLevel decodes the relay list with logging support
func ParseServersWithLogLevel(data []byte, logLevel logging.LogLevel) ([]Server, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		if logLevel <= logging.LogLevelError {
			log.Printf("Relay list is not a JSON array: %v", err)
		}
		return nil, &SchemaError{Index: -1, Err: fmt.Errorf("expected a JSON array: %w", err)}
	}
	if raw == nil {
		return nil, &SchemaError{Index: -1, Err: errors.New("expected a JSON array, got null")}
	}

	servers := make([]Server, 0, len(raw))
	var unknownTypes int
	for i, item := range raw {
		server, known, err := parseEntry(i, item)
		if err != nil {
			if logLevel <= logging.LogLevelError {
				log.Printf("Rejecting relay list: %v", err)
			}
			return nil, err
		}
		if !known {
			unknownTypes++
		}
		servers = append(servers, server)
	}

	if unknownTypes > 0 && logLevel <= logging.LogLevelWarning {
		log.Printf("Warning: %d relay(s) have an unknown server type", unknownTypes)
	}
	if logLevel <= logging.LogLevelInfo {
		log.Printf("Parsed relay list: %d relays", len(servers))
	}

	return servers, nil
}

// parseEntry validates a single relay entry. The returned bool is false when
// the entry's type is not one of the known server types.
func parseEntry(index int, item json.RawMessage) (Server, bool, error) {
	var entry relayEntry
	if err := json.Unmarshal(item, &entry); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return Server{}, false, &SchemaError{
					Index: index,
					Err:   fmt.Errorf("expected a JSON object, got %s", typeErr.Value),
				}
			}
			return Server{}, false, &SchemaError{
				Index: index,
				Field: typeErr.Field,
				Err:   fmt.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return Server{}, false, &SchemaError{Index: index, Err: err}
	}

	if entry.Hostname == nil || *entry.Hostname == "" {
		return Server{}, false, &SchemaError{Index: index, Field: "hostname", Err: errMissingField}
	}
	if entry.Type == nil {
		return Server{}, false, &SchemaError{Index: index, Field: "type", Err: errMissingField}
	}
	if entry.Active == nil {
		return Server{}, false, &SchemaError{Index: index, Field: "active", Err: errMissingField}
	}

	serverType, typeErr := ParseServerType(*entry.Type)

	server := Server{
		Hostname:    *entry.Hostname,
		Type:        serverType,
		Active:      *entry.Active,
		CountryCode: deref(entry.CountryCode),
		CountryName: deref(entry.CountryName),
		CityCode:    deref(entry.CityCode),
		CityName:    deref(entry.CityName),
		IPv4Address: deref(entry.IPv4AddrIn),
		IPv6Address: deref(entry.IPv6AddrIn),
		Owned:       entry.Owned,
		Provider:    deref(entry.Provider),
		PortSpeed:   entry.NetworkPortSpeed,
		Features:    entryFeatures(entry),
	}

	return server, typeErr == nil, nil
}

// entryFeatures derives the feature set from the optional capability fields
func entryFeatures(entry relayEntry) Features {
	var fs Features
	if deref(entry.IPv6AddrIn) != "" {
		fs |= FeatureIPv6
	}
	if entry.Stboot != nil && *entry.Stboot {
		fs |= FeatureSecureBoot
	}
	if deref(entry.SocksName) != "" {
		fs |= FeatureSOCKS
	}
	if entry.MultihopPort != nil && *entry.MultihopPort != 0 {
		fs |= FeatureMultiHop
	}
	if entry.Daita != nil && *entry.Daita {
		fs |= FeatureDAITA
	}
	return fs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FilterWireGuard keeps active WireGuard servers that have an IPv4 address, preserving order.
// Returns the kept servers and the number of active WireGuard servers skipped for lacking an IPv4 address.
func FilterWireGuard(servers []Server) ([]Server, int) {
	var filtered []Server
	var skippedNoIPv4 int

	for _, server := range servers {
		// Skip non-wireguard servers
		if server.Type != WireGuard {
			continue
		}

		// Skip inactive relays
		if !server.Active {
			continue
		}

		// Nothing to probe without an address
		if server.IPv4Address == "" {
			skippedNoIPv4++
			continue
		}

		filtered = append(filtered, server)
	}

	return filtered, skippedNoIPv4
}
