// Package main provides the command-line interface for mullvad-speed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/api"
	"github.com/Ch00k/mullvad-speed/internal/cli"
	"github.com/Ch00k/mullvad-speed/internal/logging"
	"github.com/Ch00k/mullvad-speed/internal/probe"
	"github.com/Ch00k/mullvad-speed/internal/relays"
	"github.com/Ch00k/mullvad-speed/internal/report"
	"github.com/spf13/cobra"
)

var Version = "dev"

// Dependencies encapsulates external dependencies for testing
type Dependencies struct {
	FetchServers func(context.Context, string, logging.LogLevel) ([]relays.Server, error)
	ProbeServers func(context.Context, []relays.Server, probe.Options, logging.LogLevel) ([]relays.Server, error)
	Stdout       io.Writer
	Stderr       io.Writer
}

// DefaultDependencies returns production dependencies
func DefaultDependencies() Dependencies {
	return Dependencies{
		FetchServers: makeFetchServers(Version),
		ProbeServers: makeProbeServers(),
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
}

// makeFetchServers creates a FetchServers function with the given version
func makeFetchServers(version string) func(context.Context, string, logging.LogLevel) ([]relays.Server, error) {
	return func(ctx context.Context, url string, logLevel logging.LogLevel) ([]relays.Server, error) {
		client := api.NewClient(api.WithURL(url), api.WithVersion(version), api.WithLogLevel(logLevel))
		return client.FetchServers(ctx)
	}
}

// makeProbeServers creates a ProbeServers function backed by the real probers
func makeProbeServers() func(context.Context, []relays.Server, probe.Options, logging.LogLevel) ([]relays.Server, error) {
	return func(ctx context.Context, servers []relays.Server, opts probe.Options, logLevel logging.LogLevel) ([]relays.Server, error) {
		return probe.ServersWithFactory(ctx, servers, opts, probe.NewDefaultProberFactory(), logLevel)
	}
}

func main() {
	// Create a context that can be cancelled with SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := run(ctx, os.Args[1:], DefaultDependencies()); err != nil {
		// Don't print the error itself if user cancelled with Ctrl-C
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Operation cancelled")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
	cancel()
}

// newRootCommand builds the mullvad-speed command
func newRootCommand(deps Dependencies) *cobra.Command {
	var flags cli.Flags

	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}

	cmd := &cobra.Command{
		Use:   "mullvad-speed [N]",
		Short: "Find the Mullvad WireGuard servers with the lowest latency",
		Long: `Find the Mullvad WireGuard servers with the lowest latency from your current connection.

Fetches the public relay list, probes every active WireGuard server concurrently
and prints the N fastest (default 10).`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := flags.Config(args, Version)
			if err != nil {
				return err
			}
			return speedTest(cmd.Context(), config, deps)
		},
	}

	flags.Register(cmd.Flags())
	cmd.SetVersionTemplate("mullvad-speed {{.Version}}\n")
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	return cmd
}

func run(ctx context.Context, args []string, deps Dependencies) error {
	cmd := newRootCommand(deps)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// speedTest fetches, probes and ranks the servers, then prints the report
func speedTest(ctx context.Context, config *cli.Config, deps Dependencies) error {
	logging.Configure(deps.Stderr, config.LogLevel)

	for _, warning := range config.Warnings {
		_, _ = fmt.Fprintf(deps.Stderr, "Warning: %s\n", warning)
	}

	if config.LogLevel <= logging.LogLevelDebug {
		log.Printf("Config: %+v", *config)
	}

	// Start timing for the entire operation
	operationStart := time.Now()
	defer func() {
		if config.LogLevel <= logging.LogLevelDebug {
			log.Printf("Total operation completed in %v", time.Since(operationStart))
		}
	}()

	if config.LogLevel <= logging.LogLevelDebug {
		log.Println("Fetching relay list...")
	}
	servers, err := fetchServers(ctx, config.LogLevel, config.APIURL, deps.FetchServers)
	if err != nil {
		return err
	}

	servers = filterServers(config.LogLevel, servers)
	if config.LogLevel <= logging.LogLevelInfo {
		log.Printf("Found %d active WireGuard servers", len(servers))
	}

	if config.LogLevel <= logging.LogLevelDebug {
		log.Println("Probing servers...")
	}
	servers, err = probeServers(ctx, config.LogLevel, servers, config.ProbeOptions(), deps.ProbeServers)
	if err != nil {
		return err
	}

	// Replace with deterministic data if flag is set
	if config.DeterministicOutput {
		servers = getDeterministicServers()
	}

	ranked := rankServers(config.LogLevel, servers, config.Count)

	output, err := report.Render(ranked, config.Format)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(deps.Stdout, output)

	return nil
}
