package main

import (
	"context"
	"log"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/logging"
	"github.com/Ch00k/mullvad-speed/internal/probe"
	"github.com/Ch00k/mullvad-speed/internal/relays"
	"github.com/Ch00k/mullvad-speed/internal/report"
)

// fetchServers fetches the relay list with optional debug timing
func fetchServers(
	ctx context.Context,
	logLevel logging.LogLevel,
	url string,
	fetchServersFn func(context.Context, string, logging.LogLevel) ([]relays.Server, error),
) ([]relays.Server, error) {
	start := time.Now()
	defer func() {
		if logLevel <= logging.LogLevelDebug {
			log.Printf("Relay list fetch completed in %v", time.Since(start))
		}
	}()

	return fetchServersFn(ctx, url, logLevel)
}

// filterServers keeps probeable WireGuard servers with optional debug timing
func filterServers(logLevel logging.LogLevel, servers []relays.Server) []relays.Server {
	start := time.Now()
	defer func() {
		if logLevel <= logging.LogLevelDebug {
			log.Printf("Filter servers completed in %v", time.Since(start))
		}
	}()

	filtered, skipped := relays.FilterWireGuard(servers)
	if skipped > 0 && logLevel <= logging.LogLevelWarning {
		log.Printf("Warning: %d WireGuard relay(s) skipped due to missing IPv4 address", skipped)
	}

	return filtered
}

// probeServers probes servers with optional debug timing
func probeServers(
	ctx context.Context,
	logLevel logging.LogLevel,
	servers []relays.Server,
	opts probe.Options,
	probeServersFn func(context.Context, []relays.Server, probe.Options, logging.LogLevel) ([]relays.Server, error),
) ([]relays.Server, error) {
	start := time.Now()
	defer func() {
		if logLevel <= logging.LogLevelDebug {
			log.Printf("Probe servers completed in %v", time.Since(start))
		}
	}()

	return probeServersFn(ctx, servers, opts, logLevel)
}

// rankServers ranks servers by latency with optional debug timing
func rankServers(logLevel logging.LogLevel, servers []relays.Server, count int) []relays.Server {
	start := time.Now()
	defer func() {
		if logLevel <= logging.LogLevelDebug {
			log.Printf("Rank servers completed in %v", time.Since(start))
		}
	}()

	return report.Rank(servers, count)
}
