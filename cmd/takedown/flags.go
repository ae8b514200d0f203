package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/lc/takedown/internal/config"
	"github.com/lc/takedown/internal/filesys"
)

// runFlags are the command-line overrides for config values.
type runFlags struct {
	configPath  string
	input       string
	outputDir   string
	endpoint    string
	format      string
	textfile    string
	concurrency int
	timeout     time.Duration
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "path to the config file (default ./"+config.DefaultConfigPath+" if present)")
	fl.StringVarP(&f.input, "input", "i", config.DefaultInputPath, "notice document to read")
	fl.StringVarP(&f.outputDir, "output-dir", "o", config.DefaultOutputDir, "directory receiving the reports")
	fl.StringVar(&f.endpoint, "endpoint", "", "DNS-over-HTTPS endpoint")
	fl.StringVar(&f.format, "format", "", "DoH format: json or wire")
	fl.StringVar(&f.textfile, "metrics-textfile", "", "write run metrics to this Prometheus textfile")
	fl.IntVarP(&f.concurrency, "concurrency", "c", 0, "number of lookups in flight")
	fl.DurationVarP(&f.timeout, "timeout", "t", 0, "per-lookup timeout")
}

// load reads the config file and applies every flag set on cmd.
func (f *runFlags) load(cmd *cobra.Command) (*config.Config, error) {
	var p config.Provider
	if f.configPath != "" {
		p = config.NewWithPath(filesys.OS(), f.configPath, config.Required())
	} else {
		p = config.New()
	}
	cfg, err := p.Load()
	if err != nil {
		return nil, err
	}

	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input.Path = f.input
	}
	if changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if changed("endpoint") {
		cfg.Resolver.Endpoint = f.endpoint
	}
	if changed("format") {
		cfg.Resolver.Format = f.format
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.textfile
	}
	if changed("concurrency") {
		cfg.Resolver.Concurrency = f.concurrency
	}
	if changed("timeout") {
		cfg.Resolver.Timeout = f.timeout
	}
}
