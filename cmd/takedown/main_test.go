package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"github.com/lc/takedown/internal/config"
	"github.com/lc/takedown/internal/dnsresolver"
	"github.com/lc/takedown/internal/pipeline"
	"github.com/lc/takedown/internal/report"
)

type CLITestSuite struct {
	suite.Suite
}

func (s *CLITestSuite) SetupSuite() {
	color.NoColor = true
}

func (s *CLITestSuite) TestFlagsOverrideConfigFile() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "takedown.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
input:
  path: from-file.json
resolver:
  concurrency: 8
  timeout: 2s
`), 0o644))

	f := &runFlags{}
	cmd := &cobra.Command{Use: "run"}
	f.register(cmd)
	s.Require().NoError(cmd.ParseFlags([]string{
		"--config", path,
		"--output-dir", dir,
		"--concurrency", "16",
		"--format", "wire",
	}))

	cfg, err := f.load(cmd)

	s.Require().NoError(err)
	s.Equal("from-file.json", cfg.Input.Path)
	s.Equal(dir, cfg.Output.Dir)
	s.Equal(16, cfg.Resolver.Concurrency)
	s.Equal(2*time.Second, cfg.Resolver.Timeout)
	s.Equal("wire", cfg.Resolver.Format)
}

func (s *CLITestSuite) TestExplicitConfigMustExist() {
	f := &runFlags{}
	cmd := &cobra.Command{Use: "run"}
	f.register(cmd)
	s.Require().NoError(cmd.ParseFlags([]string{"--config", filepath.Join(s.T().TempDir(), "nope.yaml")}))

	_, err := f.load(cmd)

	s.ErrorIs(err, config.ErrNoConfig)
}

func (s *CLITestSuite) TestInvalidFlagValue() {
	f := &runFlags{}
	cmd := &cobra.Command{Use: "run"}
	f.register(cmd)
	s.Require().NoError(cmd.ParseFlags([]string{
		"--config", s.emptyConfig(),
		"--concurrency", "0",
	}))

	_, err := f.load(cmd)

	s.ErrorIs(err, config.ErrInvalidConfig)
}

func (s *CLITestSuite) TestCommands() {
	root := newRootCmd()

	for _, name := range []string{"run", "version"} {
		cmd, _, err := root.Find([]string{name})
		s.Require().NoError(err)
		s.Equal(name, cmd.Name())
	}
	s.NotNil(root.Flags().Lookup("concurrency"))
	s.NotNil(root.RunE)
}

func (s *CLITestSuite) TestErrorsReachStderr() {
	testCases := []struct {
		name     string
		args     []string
		contains string
	}{
		{
			name:     "invalid flag value",
			args:     []string{"--config", s.emptyConfig(), "--concurrency", "0"},
			contains: "invalid configuration",
		},
		{
			name:     "unknown flag",
			args:     []string{"--bogus-flag"},
			contains: "unknown flag: --bogus-flag",
		},
		{
			name:     "missing config file",
			args:     []string{"run", "--config", filepath.Join(s.T().TempDir(), "nope.yaml")},
			contains: "configuration file not found",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			var stdout, stderr bytes.Buffer
			root := newRootCmd()
			root.SetArgs(tc.args)
			root.SetOut(&stdout)
			root.SetErr(&stderr)

			err := execute(root)

			s.Error(err)
			s.Contains(stderr.String(), tc.contains)
		})
	}
}

func (s *CLITestSuite) TestNewClient() {
	rc := config.Default().Resolver
	rc.Format = "wire"
	rc.RecordType = "AAAA"

	c, err := newClient(rc)

	s.Require().NoError(err)
	s.Equal(dnsresolver.FormatWire, c.Format)
	s.Equal(uint16(28), c.QType)

	rc.Format = "xml"
	_, err = newClient(rc)
	s.Error(err)
}

func (s *CLITestSuite) TestPrintSummary() {
	var buf bytes.Buffer
	printSummary(&buf, &pipeline.Summary{
		Notices:    1,
		Records:    2,
		Skipped:    1,
		Domains:    2,
		Resolved:   1,
		Unresolved: 1,
		Paths:      []string{"out/" + report.PrimaryFile},
		TopDomains: []report.DomainCount{{Domain: "example.com", NoticeCount: 2, UniqueCopyrightedURLs: 1}},
		Elapsed:    1234 * time.Millisecond,
	})

	out := buf.String()
	s.Contains(out, "1 resolved")
	s.Contains(out, "1 unresolved")
	s.Contains(out, "(1 urls skipped)")
	s.Contains(out, "wrote out/"+report.PrimaryFile)
	s.Contains(out, "example.com")
	s.Contains(out, "1.234s")
}

func (s *CLITestSuite) emptyConfig() string {
	path := filepath.Join(s.T().TempDir(), "takedown.yaml")
	s.Require().NoError(os.WriteFile(path, nil, 0o644))
	return path
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}
