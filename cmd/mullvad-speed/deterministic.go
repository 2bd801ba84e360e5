package main

import (
	"time"

	"github.com/Ch00k/mullvad-speed/internal/relays"
)

// getDeterministicServers returns a fixed set of probed servers for testing/documentation
func getDeterministicServers() []relays.Server {
	owned := true
	rented := false
	speed10 := 10
	speed20 := 20

	latency := func(ms float64) *time.Duration {
		d := time.Duration(ms * float64(time.Millisecond))
		return &d
	}

	return []relays.Server{
		{
			Hostname:    "de-ber-wg-001",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "de",
			CountryName: "Germany",
			CityCode:    "ber",
			CityName:    "Berlin",
			IPv4Address: "193.32.248.66",
			IPv6Address: "2a03:1b20:3:f011::a01f",
			Owned:       &owned,
			Provider:    "31173",
			PortSpeed:   &speed10,
			Features:    relays.FeatureIPv6 | relays.FeatureDAITA,
			Latency:     latency(8.42),
		},
		{
			Hostname:    "de-ber-wg-002",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "de",
			CountryName: "Germany",
			CityCode:    "ber",
			CityName:    "Berlin",
			IPv4Address: "193.32.248.67",
			IPv6Address: "2a03:1b20:3:f011::a02f",
			Owned:       &owned,
			Provider:    "31173",
			PortSpeed:   &speed10,
			Features:    relays.FeatureIPv6,
			Latency:     latency(8.97),
		},
		{
			Hostname:    "cz-prg-wg-201",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "cz",
			CountryName: "Czech Republic",
			CityCode:    "prg",
			CityName:    "Prague",
			IPv4Address: "178.249.209.162",
			IPv6Address: "2a02:6ea0:c201:2::a01f",
			Owned:       &rented,
			Provider:    "DataPacket",
			PortSpeed:   &speed10,
			Features:    relays.FeatureIPv6 | relays.FeatureMultiHop,
			Latency:     latency(13.01),
		},
		{
			Hostname:    "pl-waw-wg-101",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "pl",
			CountryName: "Poland",
			CityCode:    "waw",
			CityName:    "Warsaw",
			IPv4Address: "45.128.38.226",
			Owned:       &rented,
			Provider:    "M247",
			PortSpeed:   &speed20,
			Features:    relays.FeatureSOCKS,
			Latency:     latency(15.86),
		},
		{
			Hostname:    "at-vie-wg-001",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "at",
			CountryName: "Austria",
			CityCode:    "vie",
			CityName:    "Vienna",
			IPv4Address: "146.70.116.98",
			Provider:    "M247",
			Latency:     latency(15.95),
		},
		{
			Hostname:    "se-sto-wg-005",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "se",
			CountryName: "Sweden",
			CityCode:    "sto",
			CityName:    "Stockholm",
			IPv4Address: "185.195.233.76",
			IPv6Address: "2a03:1b20:4:f011::a05f",
			Owned:       &owned,
			Provider:    "31173",
			PortSpeed:   &speed10,
			Features:    relays.FeatureIPv6 | relays.FeatureSecureBoot | relays.FeatureDAITA,
			Latency:     latency(27.30),
		},
		{
			Hostname:    "us-nyc-wg-301",
			Type:        relays.WireGuard,
			Active:      true,
			CountryCode: "us",
			CountryName: "USA",
			CityCode:    "nyc",
			CityName:    "New York, NY",
			IPv4Address: "143.244.47.65",
			Owned:       &rented,
			Provider:    "xtom",
			PortSpeed:   &speed10,
			Latency:     nil,
		},
	}
}
