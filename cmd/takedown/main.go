// Command `takedown` turns a DMCA notice export into CSV reports.
//
// It flattens every notice into one row per infringing URL, extracts and
// resolves the infringing domains over DNS-over-HTTPS, and writes the primary
// table together with three aggregate reports.
//
// Usage:
//
//	takedown [run] [flags]  - Process the notice document (default command)
//	takedown version        - Show version information
//
// Examples:
//
//	takedown --input response.json --output-dir out
//	takedown run --concurrency 128 --timeout 3s
//	takedown run --endpoint https://cloudflare-dns.com/dns-query --format wire
//
// Settings come from takedown.yaml in the working directory (or --config);
// flags override the file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lc/takedown/internal/buildinfo"
	"github.com/lc/takedown/internal/config"
	"github.com/lc/takedown/internal/dnsresolver"
	"github.com/lc/takedown/internal/filesys"
	"github.com/lc/takedown/internal/log"
	"github.com/lc/takedown/internal/pipeline"
)

func main() {
	defer log.Sync()

	if err := execute(newRootCmd()); err != nil {
		log.Sync()
		os.Exit(1)
	}
}

// execute runs root and reports any error on its stderr.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err != nil {
		color.New(color.FgHiRed, color.Bold).Fprintf(root.ErrOrStderr(), "✗ %v\n", err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	runE := func(cmd *cobra.Command, _ []string) error {
		cfg, err := flags.load(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, cmd.OutOrStdout())
	}

	root := &cobra.Command{
		Use:   "takedown",
		Short: "Flatten DMCA notices and resolve infringing domains",
		Long: `takedown reads a DMCA notice export, flattens it into one row per infringing URL,
resolves every distinct infringing domain once over DNS-over-HTTPS and writes
the enriched table plus top-domain, timeline and copyright-holder reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runE,
	}

	// ---- run command ----
	runCmd := &cobra.Command{
		Use:           "run",
		Short:         "Process the notice document (default)",
		Example:       "takedown run --input response.json --output-dir out",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runE,
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	flags.register(root)
	flags.register(runCmd)
	root.AddCommand(runCmd, versionCmd)
	return root
}

func run(parent context.Context, cfg *config.Config, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cfg.Resolver)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	sum, err := pipeline.New(cfg, filesys.OS(), client).Run(ctx)
	if sum != nil {
		printSummary(out, sum)
	}
	return err
}

func newClient(rc config.ResolverConfig) (*dnsresolver.Client, error) {
	format, err := dnsresolver.ParseFormat(rc.Format)
	if err != nil {
		return nil, err
	}
	qtype, err := rc.QType()
	if err != nil {
		return nil, err
	}
	return dnsresolver.New(rc.Endpoint, rc.Timeout,
		dnsresolver.WithFormat(format),
		dnsresolver.WithRecordType(qtype),
	), nil
}
