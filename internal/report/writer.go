package report

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/lc/takedown/internal/filesys"
	"github.com/lc/takedown/internal/records"
)

// Output file names, one per report.
const (
	PrimaryFile    = "flattened_response_domain_ip.csv"
	TopDomainsFile = "top_10_infringing_domains.csv"
	TimelineFile   = "dmca_notices_time_distribution.csv"
	HoldersFile    = "copyright_holders_rank_wise.csv"
)

const filePerm os.FileMode = 0o644

// Set is everything one run writes.
type Set struct {
	Primary    Table
	TopDomains []DomainCount
	Timeline   []DailyCount
	Holders    []HolderRank
}

// Build derives all reports from the enriched records.
func Build(recs []records.EnrichedRecord) Set {
	return Set{
		Primary:    Primary(recs),
		TopDomains: TopDomains(recs, TopDomainsLimit),
		Timeline:   TimeDistribution(recs),
		Holders:    TopHolders(recs, TopHoldersLimit),
	}
}

// Writer persists tables as CSV files under one directory.
type Writer struct {
	fs  filesys.FileOps
	dir string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(fs filesys.FileOps, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

// Write atomically replaces dir/name with t and returns the path written.
func (w *Writer) Write(name string, t Table) (string, error) {
	path := filepath.Join(w.dir, name)
	data, err := EncodeCSV(t)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := filesys.AtomicWrite(w.fs, path, data, filePerm); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// WriteAll writes the four report files. Every file is attempted; the
// failures are returned together.
func (w *Writer) WriteAll(s Set) ([]string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", w.dir, err)
	}

	outputs := []struct {
		name  string
		table Table
	}{
		{PrimaryFile, s.Primary},
		{TopDomainsFile, DomainsTable(s.TopDomains)},
		{TimelineFile, TimelineTable(s.Timeline)},
		{HoldersFile, HoldersTable(s.Holders)},
	}

	var (
		paths []string
		errs  error
	)
	for _, o := range outputs {
		path, err := w.Write(o.name, o.table)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errs
}
