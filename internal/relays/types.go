package relays

import (
	"fmt"
	"strings"
	"time"
)

// ServerType represents the type of VPN server.
type ServerType int

// Server type constants
const (
	ServerTypeNone ServerType = iota // Unknown or missing server type
	WireGuard                        // WireGuard server
	OpenVPN                          // OpenVPN server
	Bridge                           // Bridge server
)

func (s ServerType) String() string {
	switch s {
	case WireGuard:
		return "wireguard"
	case OpenVPN:
		return "openvpn"
	case Bridge:
		return "bridge"
	case ServerTypeNone:
		return ""
	default:
		return ""
	}
}

// ParseServerType parses a server type string into its type.
func ParseServerType(s string) (ServerType, error) {
	switch s {
	case "wireguard":
		return WireGuard, nil
	case "openvpn":
		return OpenVPN, nil
	case "bridge":
		return Bridge, nil
	default:
		return ServerTypeNone, fmt.Errorf("unknown server type: %q", s)
	}
}

// Features is a set of optional relay capabilities.
type Features uint8

// Feature flags
const (
	FeatureIPv6       Features = 1 << iota // Relay accepts connections over IPv6
	FeatureSecureBoot                      // Relay runs stboot
	FeatureSOCKS                           // Relay exposes a SOCKS5 proxy
	FeatureMultiHop                        // Relay can be used as an entry for multihop
	FeatureDAITA                           // Relay supports DAITA
)

var featureNames = []struct {
	flag Features
	name string
}{
	{FeatureIPv6, "IPv6"},
	{FeatureSecureBoot, "SecureBoot"},
	{FeatureSOCKS, "SOCKS"},
	{FeatureMultiHop, "MultiHop"},
	{FeatureDAITA, "DAITA"},
}

// Has reports whether all flags in f are set.
func (fs Features) Has(f Features) bool {
	return fs&f == f
}

// Names returns the names of the set flags in display order.
func (fs Features) Names() []string {
	names := make([]string, 0, len(featureNames))
	for _, fn := range featureNames {
		if fs.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

func (fs Features) String() string {
	names := fs.Names()
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

// Server represents a single Mullvad relay and, after probing, its measured latency.
type Server struct {
	Hostname    string
	Type        ServerType
	Active      bool
	CountryCode string
	CountryName string
	CityCode    string
	CityName    string
	IPv4Address string
	IPv6Address string
	Owned       *bool // nil when the API omits ownership
	Provider    string
	PortSpeed   *int // advertised port speed in Gbps, nil when unknown
	Features    Features
	Latency     *time.Duration // nil indicates not probed, timeout or error
}

// Country returns the country name, falling back to the country code.
func (s Server) Country() string {
	if s.CountryName != "" {
		return s.CountryName
	}
	return s.CountryCode
}

// City returns the city name, falling back to the city code.
func (s Server) City() string {
	if s.CityName != "" {
		return s.CityName
	}
	return s.CityCode
}

// Location returns a human-readable "City, Country" string
func (s Server) Location() string {
	parts := make([]string, 0, 2)
	if city := s.City(); city != "" {
		parts = append(parts, city)
	}
	if country := s.Country(); country != "" {
		parts = append(parts, country)
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, ", ")
}

// Reachable reports whether the server has a measured latency.
func (s Server) Reachable() bool {
	return s.Latency != nil
}
