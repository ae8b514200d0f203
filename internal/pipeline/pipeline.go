// Package pipeline runs one takedown batch end to end: decode the notice
// document, flatten it into records, resolve every distinct infringing domain
// once, join the addresses back onto the records and write the reports.
//
// A run is fatal only when the input cannot be read or decoded, or when the
// reports cannot be written. Resolution failures never fail a run; the
// affected rows simply carry no address.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lc/takedown/internal/buildinfo"
	"github.com/lc/takedown/internal/config"
	"github.com/lc/takedown/internal/dnsresolver"
	"github.com/lc/takedown/internal/filesys"
	"github.com/lc/takedown/internal/log"
	"github.com/lc/takedown/internal/metrics"
	"github.com/lc/takedown/internal/notice"
	"github.com/lc/takedown/internal/records"
	"github.com/lc/takedown/internal/report"
)

// Pipeline holds the collaborators of a run.
type Pipeline struct {
	cfg      *config.Config
	fs       filesys.FS
	resolver dnsresolver.Resolver
	now      func() time.Time
}

// Summary reports what a run did.
type Summary struct {
	RunID      string
	Notices    int
	Records    int
	Skipped    int
	Domains    int
	Resolved   int
	Unresolved int
	Paths      []string
	TopDomains []report.DomainCount
	Elapsed    time.Duration
}

// New creates a Pipeline. cfg is expected to be validated already.
func New(cfg *config.Config, fs filesys.FS, res dnsresolver.Resolver) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fs:       fs,
		resolver: res,
		now:      time.Now,
	}
}

// Run executes the batch. Cancelling ctx aborts lookups still in flight;
// their domains end up unresolved and the reports are still written.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := p.now()
	sum := &Summary{RunID: uuid.NewString()}
	logger := log.With("run_id", sum.RunID)

	logger.Infow("takedown: starting run",
		"version", buildinfo.String(),
		"input", p.cfg.Input.Path,
		"output_dir", p.cfg.Output.Dir,
	)

	doc, err := p.load()
	if err != nil {
		return nil, err
	}

	recs, stats := notice.Flatten(doc)
	sum.Notices, sum.Records, sum.Skipped = stats.Notices, stats.Records, stats.Skipped
	logger.Infow("takedown: flattened notices",
		"notices", stats.Notices,
		"works", stats.Works,
		"records", stats.Records,
		"skipped", stats.Skipped,
	)

	domains := records.Plan(recs)
	res := dnsresolver.NewPool(p.resolver, p.cfg.Resolver.Concurrency).ResolveAll(ctx, domains)
	sum.Domains, sum.Resolved, sum.Unresolved = res.Domains(), res.Resolved(), res.Unresolved()
	logger.Infow("takedown: resolved domains",
		"domains", sum.Domains,
		"resolved", sum.Resolved,
		"unresolved", sum.Unresolved,
		"elapsed", res.Elapsed().String(),
	)
	if ctx.Err() != nil {
		logger.Warnw("takedown: run cancelled during resolution, writing partial results", "error", ctx.Err())
	}

	enriched := records.Enrich(recs, res)
	set := report.Build(enriched)
	sum.TopDomains = set.TopDomains

	paths, errs := report.NewWriter(p.fs, p.cfg.Output.Dir).WriteAll(set)
	sum.Paths = paths
	sum.Elapsed = p.now().Sub(start)

	if path := p.cfg.Metrics.Textfile; path != "" {
		errs = multierr.Append(errs, metrics.WriteTextfile(path, metrics.Run{
			Records:    sum.Records,
			Domains:    sum.Domains,
			Resolved:   sum.Resolved,
			Unresolved: sum.Unresolved,
			Duration:   sum.Elapsed,
		}))
	}

	if errs != nil {
		for _, err := range multierr.Errors(errs) {
			logger.Errorw("takedown: output failed", zap.Error(err))
		}
		return sum, fmt.Errorf("writing outputs: %w", errs)
	}

	logger.Infow("takedown: run complete",
		"files", len(paths),
		"elapsed", sum.Elapsed.String(),
	)
	return sum, nil
}

func (p *Pipeline) load() (*notice.Document, error) {
	f, err := p.fs.Open(p.cfg.Input.Path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", p.cfg.Input.Path, err)
	}
	defer f.Close()

	doc, err := notice.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", p.cfg.Input.Path, err)
	}
	return doc, nil
}
