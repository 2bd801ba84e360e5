// Package probe measures reachability latency to relay servers using a bounded worker pool.
package probe

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/logging"
	"github.com/Ch00k/mullvad-speed/internal/relays"
)

// Default probe settings
const (
	DefaultTimeout = 2 * time.Second
	DefaultWorkers = 10
	DefaultSamples = 3
	DefaultPort    = 443
)

// Options controls a probe run
type Options struct {
	Method  Method
	Port    int
	Timeout time.Duration // per sample
	Workers int
	Samples int
}

// DefaultOptions returns the settings used when nothing is overridden
func DefaultOptions() Options {
	return Options{
		Method:  MethodTCP,
		Port:    DefaultPort,
		Timeout: DefaultTimeout,
		Workers: DefaultWorkers,
		Samples: DefaultSamples,
	}
}

// result carries the latency for the server at index
type result struct {
	index   int
	latency *time.Duration
}

// Servers probes all servers with the production prober factory
func Servers(ctx context.Context, servers []relays.Server, opts Options) ([]relays.Server, error) {
	return ServersWithFactory(ctx, servers, opts, NewDefaultProberFactory(), logging.LogLevelError)
}

// ServersWithFactory probes every server concurrently and returns a copy of
// servers, in the same order, with Latency set for each server that answered.
// It returns only after every worker has finished. A failed probe leaves the
// latency nil and is not an error; only prober creation failure or context
// cancellation is.
func ServersWithFactory(
	ctx context.Context,
	servers []relays.Server,
	opts Options,
	factory ProberFactory,
	logLevel logging.LogLevel,
) ([]relays.Server, error) {
	probed := make([]relays.Server, len(servers))
	copy(probed, servers)
	for i := range probed {
		probed[i].Latency = nil
	}

	if len(probed) == 0 {
		return probed, nil
	}

	workers := max(opts.Workers, 1)
	samples := max(opts.Samples, 1)

	if logLevel <= logging.LogLevelInfo {
		log.Printf(
			"Starting to probe %d servers with %d workers (method: %s, timeout: %v, samples: %d)",
			len(probed),
			workers,
			opts.Method,
			opts.Timeout,
			samples,
		)
	}

	start := time.Now()
	prober, err := factory.CreateProber(opts.Method, opts.Port)
	if err != nil {
		if logLevel <= logging.LogLevelError {
			log.Printf("Failed to create prober: %v", err)
		}
		return nil, err
	}
	defer func() { _ = prober.Close() }()
	if logLevel <= logging.LogLevelDebug {
		log.Printf("Prober creation completed in %v", time.Since(start))
	}

	addrs := make([]string, len(probed))
	for i, server := range probed {
		addrs[i] = server.IPv4Address
	}

	jobs := make(chan int, len(probed))
	results := make(chan result, len(probed))

	// Don't spin up more workers than servers
	numWorkers := min(workers, len(probed))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeWorker(ctx, addrs, jobs, results, prober, opts.Timeout, samples)
		}()
	}

	for i := range probed {
		jobs <- i
	}
	close(jobs)

	// Barrier: results is closed only once every worker has returned
	go func() {
		wg.Wait()
		close(results)
	}()

	var successCount, failCount int
	for r := range results {
		probed[r.index].Latency = r.latency
		if r.latency != nil {
			successCount++
		} else {
			failCount++
		}
	}

	if logLevel <= logging.LogLevelInfo {
		log.Printf("Probe completed: %d reachable, %d unreachable out of %d total", successCount, failCount, len(probed))
	}

	if ctx.Err() != nil {
		if logLevel <= logging.LogLevelWarning {
			log.Printf("Probe operation cancelled: %v", ctx.Err())
		}
		return probed, ctx.Err()
	}

	return probed, nil
}

// probeWorker measures addresses by index until jobs is drained or ctx is done
func probeWorker(
	ctx context.Context,
	addrs []string,
	jobs <-chan int,
	results chan<- result,
	prober Prober,
	timeout time.Duration,
	samples int,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case index, ok := <-jobs:
			if !ok {
				return
			}
			latency := measure(ctx, prober, addrs[index], timeout, samples)
			results <- result{index: index, latency: latency}
		}
	}
}

// measure takes samples consecutive measurements and returns their mean.
// Any failed sample fails the whole measurement.
func measure(ctx context.Context, prober Prober, ipAddr string, timeout time.Duration, samples int) *time.Duration {
	var total time.Duration
	for i := 0; i < samples; i++ {
		latency := prober.Probe(ctx, ipAddr, timeout)
		if latency == nil {
			return nil
		}
		total += *latency
	}
	mean := total / time.Duration(samples)
	return &mean
}
