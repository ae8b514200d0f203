package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/takedown/internal/filesys"
	"github.com/lc/takedown/internal/mocks"
	"github.com/lc/takedown/internal/records"
)

func enriched(id, domain, principal, copyrighted, sent, ip string) records.EnrichedRecord {
	return records.EnrichedRecord{
		InfringingRecord: records.InfringingRecord{
			ID:             id,
			Title:          "notice " + id,
			DateSent:       sent,
			PrincipalName:  principal,
			InfringingURL:  "https://" + domain + "/" + id,
			CopyrightedURL: copyrighted,
			Domain:         domain,
		},
		IP: ip,
	}
}

type ReportTestSuite struct {
	suite.Suite
}

func (s *ReportTestSuite) TestPrimaryDropsEmptyColumns() {
	recs := []records.EnrichedRecord{
		enriched("1", "a.com", "Studio", "https://studio/1", "2024-05-01T10:00:00Z", "192.0.2.1"),
		enriched("2", "b.com", "", "", "", ""),
	}

	t := Primary(recs)

	s.Equal([]string{"id", "title", "date_sent", "principal_name", "infringing_url", "copyrighted_url", "infringing_domain", "infringing_ip"}, t.Header)
	s.Require().Len(t.Rows, 2)
	s.Equal([]string{"2", "notice 2", "", "", "https://b.com/2", "", "b.com", ""}, t.Rows[1])
}

func (s *ReportTestSuite) TestPrimaryDropsIPColumnWhenNothingResolved() {
	t := Primary([]records.EnrichedRecord{enriched("1", "a.com", "", "", "", "")})
	s.NotContains(t.Header, "infringing_ip")
	s.Contains(t.Header, "infringing_domain")
}

func (s *ReportTestSuite) TestPrimaryWithoutRowsKeepsHeader() {
	t := Primary(nil)
	s.Len(t.Header, len(primaryColumns))
	s.Empty(t.Rows)
}

func (s *ReportTestSuite) TestTopDomains() {
	recs := []records.EnrichedRecord{
		enriched("1", "a.com", "", "https://c/1", "", ""),
		enriched("2", "b.com", "", "https://c/1", "", ""),
		enriched("3", "a.com", "", "https://c/2", "", ""),
	}

	got := TopDomains(recs, TopDomainsLimit)

	s.Equal([]DomainCount{
		{Domain: "a.com", NoticeCount: 2, UniqueCopyrightedURLs: 2},
		{Domain: "b.com", NoticeCount: 1, UniqueCopyrightedURLs: 1},
	}, got)
}

func (s *ReportTestSuite) TestTopDomainsLimitAndTies() {
	var recs []records.EnrichedRecord
	for _, d := range []string{"m.com", "c.com", "x.com", "c.com", "a.com"} {
		recs = append(recs, enriched("1", d, "", "", "", ""))
	}

	got := TopDomains(recs, 3)

	s.Require().Len(got, 3)
	s.Equal("c.com", got[0].Domain)
	s.Equal("a.com", got[1].Domain, "equal counts fall back to name order")
	s.Equal("m.com", got[2].Domain)
}

func (s *ReportTestSuite) TestTimeDistribution() {
	recs := []records.EnrichedRecord{
		enriched("1", "a.com", "", "", "2024-05-02T23:30:00Z", ""),
		enriched("2", "a.com", "", "", "2024-05-01T10:00:00.123Z", ""),
		enriched("3", "a.com", "", "", "2024-05-02T01:00:00+00:00", ""),
		enriched("4", "a.com", "", "", "2024-05-01", ""),
		enriched("5", "a.com", "", "", "", ""),
		enriched("6", "a.com", "", "", "last tuesday", ""),
	}

	s.Equal([]DailyCount{
		{Date: "2024-05-01", NoticeCount: 2},
		{Date: "2024-05-02", NoticeCount: 2},
	}, TimeDistribution(recs))
}

func (s *ReportTestSuite) TestTopHolders() {
	recs := []records.EnrichedRecord{
		enriched("1", "x.com", "Studio", "", "", ""),
		enriched("2", "y.com", "Studio", "", "", ""),
		enriched("3", "y.com", "Studio", "", "", ""),
		enriched("4", "z.com", "Label", "", "", ""),
		enriched("5", "w.com", "Label", "", "", ""),
		enriched("6", "q.com", "", "", "", ""),
	}

	s.Equal([]HolderRank{
		{PrincipalName: "Studio", NoticeCount: 3, TopInfringingDomain: "y.com", UniqueInfringingDomains: 2},
		// tie between z.com and w.com: first seen wins
		{PrincipalName: "Label", NoticeCount: 2, TopInfringingDomain: "z.com", UniqueInfringingDomains: 2},
	}, TopHolders(recs, TopHoldersLimit))
}

func (s *ReportTestSuite) TestEncodeCSV() {
	data, err := EncodeCSV(Table{
		Header: []string{"domain", "notice_count"},
		Rows:   [][]string{{"a.com", "2"}, {"needs, quoting", "1"}},
	})
	s.Require().NoError(err)
	s.Equal("domain,notice_count\na.com,2\n\"needs, quoting\",1\n", string(data))
}

func (s *ReportTestSuite) TestWriteAll() {
	dir := filepath.Join(s.T().TempDir(), "out")
	recs := []records.EnrichedRecord{
		enriched("1", "a.com", "Studio", "https://c/1", "2024-05-01T10:00:00Z", "192.0.2.1"),
		enriched("2", "a.com", "Studio", "https://c/1", "2024-05-01T11:00:00Z", "192.0.2.1"),
		enriched("3", "b.com", "Label", "https://c/2", "2024-05-03T11:00:00Z", ""),
	}

	paths, err := NewWriter(filesys.OS(), dir).WriteAll(Build(recs))

	s.Require().NoError(err)
	s.Len(paths, 4)

	top, err := os.ReadFile(filepath.Join(dir, TopDomainsFile))
	s.Require().NoError(err)
	s.Equal("domain,notice_count,unique_copyrighted_urls\na.com,2,1\nb.com,1,1\n", string(top))

	timeline, err := os.ReadFile(filepath.Join(dir, TimelineFile))
	s.Require().NoError(err)
	s.Equal("date_sent,notice_count\n2024-05-01,2\n2024-05-03,1\n", string(timeline))

	holders, err := os.ReadFile(filepath.Join(dir, HoldersFile))
	s.Require().NoError(err)
	s.Equal("principal_name,notice_count,top_infringing_domain,unique_infringing_domains\nStudio,2,a.com,1\nLabel,1,b.com,1\n", string(holders))

	primary, err := os.ReadFile(filepath.Join(dir, PrimaryFile))
	s.Require().NoError(err)
	lines := strings.Split(strings.TrimSpace(string(primary)), "\n")
	s.Len(lines, 4)
	s.True(strings.HasSuffix(lines[3], ",b.com,"), "unresolved IP is blank: %q", lines[3])
}

func (s *ReportTestSuite) TestWriteAllCollectsEveryFailure() {
	fsys := new(mocks.MockOsFS)
	fsys.On("MkdirAll", "out", os.FileMode(0o755)).Return(nil)
	fsys.On("CreateTemp", "out", mock.Anything).Return(nil, os.ErrPermission)

	paths, err := NewWriter(fsys, "out").WriteAll(Build(nil))

	s.Empty(paths)
	s.Require().Error(err)
	s.ErrorIs(err, os.ErrPermission)
	for _, name := range []string{PrimaryFile, TopDomainsFile, TimelineFile, HoldersFile} {
		s.Contains(err.Error(), name)
	}
	fsys.AssertNumberOfCalls(s.T(), "CreateTemp", 4)
}

func (s *ReportTestSuite) TestWriteAllOutputDirFailure() {
	fsys := new(mocks.MockOsFS)
	fsys.On("MkdirAll", "out", os.FileMode(0o755)).Return(errors.New("read-only file system"))

	_, err := NewWriter(fsys, "out").WriteAll(Build(nil))

	s.ErrorContains(err, "creating output directory")
	fsys.AssertNotCalled(s.T(), "CreateTemp", mock.Anything, mock.Anything)
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}
