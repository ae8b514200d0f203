// Package config loads and validates takedown's run configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/lc/takedown/internal/dnsresolver"
	"github.com/lc/takedown/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultConfigPath is where the config file is looked up when no path is given.
	DefaultConfigPath = "takedown.yaml"
	// DefaultInputPath is the notice document read when none is configured.
	DefaultInputPath = "response.json"
	// DefaultOutputDir receives the report files.
	DefaultOutputDir = "."
	// DefaultRecordType is the record type requested from the resolver.
	DefaultRecordType = "A"

	// MaxConcurrency caps the resolver worker count.
	MaxConcurrency = 1024
	// MaxTimeout caps the per-lookup timeout.
	MaxTimeout = time.Minute
)

// Config holds the application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Resolver ResolverConfig `yaml:"resolver"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig locates the notice document.
type InputConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig locates the report directory.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ResolverConfig tunes domain resolution.
type ResolverConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Format      string        `yaml:"format"`
	RecordType  string        `yaml:"record_type"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs       filesys.ReadFS
	path     string
	required bool
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// Opt configures an FSProvider.
type Opt func(p *FSProvider)

// Required makes a missing config file an error instead of a fall back to defaults.
func Required() Opt {
	return func(p *FSProvider) {
		p.required = true
	}
}

// New creates a provider reading DefaultConfigPath from the working directory.
func New(opts ...Opt) Provider {
	return NewWithPath(filesys.OS(), DefaultConfigPath, opts...)
}

// NewWithPath creates a provider reading path through fs.
func NewWithPath(fs filesys.ReadFS, path string, opts ...Opt) Provider {
	p := &FSProvider{
		fs:   fs,
		path: path,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path: DefaultInputPath,
		},
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
		Resolver: ResolverConfig{
			Endpoint:    dnsresolver.DefaultEndpoint,
			Format:      string(dnsresolver.FormatJSON),
			RecordType:  DefaultRecordType,
			Timeout:     dnsresolver.DefaultTimeout,
			Concurrency: dnsresolver.DefaultConcurrency,
		},
	}
}

// Load reads the file over the defaults and validates the result.
// Keys missing from the file keep their default values.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) && !p.required {
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return errors.New("input path cannot be empty")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.Resolver.Concurrency < 1 || c.Resolver.Concurrency > MaxConcurrency {
		return fmt.Errorf("resolver concurrency must be between 1 and %d", MaxConcurrency)
	}
	if c.Resolver.Timeout <= 0 || c.Resolver.Timeout > MaxTimeout {
		return fmt.Errorf("resolver timeout must be positive and at most %s", MaxTimeout)
	}
	u, err := url.Parse(c.Resolver.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("resolver endpoint %q must be an absolute http(s) URL", c.Resolver.Endpoint)
	}
	if _, err := dnsresolver.ParseFormat(c.Resolver.Format); err != nil {
		return err
	}
	if _, err := c.Resolver.QType(); err != nil {
		return err
	}
	return nil
}

// QType maps RecordType to its numeric DNS type.
func (r ResolverConfig) QType() (uint16, error) {
	name := strings.ToUpper(strings.TrimSpace(r.RecordType))
	if name == "" {
		return dns.TypeA, nil
	}
	qtype, ok := dns.StringToType[name]
	if !ok {
		return 0, fmt.Errorf("unknown record type %q", r.RecordType)
	}
	return qtype, nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, p.path)
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	// an empty file decodes to io.EOF and means "all defaults"
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return cfg, nil
}
