package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lc/takedown/internal/records"
)

const (
	// TopDomainsLimit is the size of the top infringing domains report.
	TopDomainsLimit = 10
	// TopHoldersLimit is the size of the copyright holders report.
	TopHoldersLimit = 20
)

// DomainCount is one row of the top infringing domains report.
type DomainCount struct {
	Domain                string
	NoticeCount           int
	UniqueCopyrightedURLs int
}

// DailyCount is one row of the notices-over-time report.
type DailyCount struct {
	Date        string
	NoticeCount int
}

// HolderRank is one row of the copyright holders report.
type HolderRank struct {
	PrincipalName           string
	NoticeCount             int
	TopInfringingDomain     string
	UniqueInfringingDomains int
}

// TopDomains counts records per infringing domain, ranked by count and then
// by domain name, keeping at most limit rows. limit <= 0 keeps all.
func TopDomains(recs []records.EnrichedRecord, limit int) []DomainCount {
	type acc struct {
		count int
		urls  map[string]struct{}
	}
	byDomain := map[string]*acc{}
	for _, r := range recs {
		if r.Domain == "" {
			continue
		}
		a, ok := byDomain[r.Domain]
		if !ok {
			a = &acc{urls: map[string]struct{}{}}
			byDomain[r.Domain] = a
		}
		a.count++
		if r.CopyrightedURL != "" {
			a.urls[r.CopyrightedURL] = struct{}{}
		}
	}

	out := make([]DomainCount, 0, len(byDomain))
	for d, a := range byDomain {
		out = append(out, DomainCount{Domain: d, NoticeCount: a.count, UniqueCopyrightedURLs: len(a.urls)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NoticeCount != out[j].NoticeCount {
			return out[i].NoticeCount > out[j].NoticeCount
		}
		return out[i].Domain < out[j].Domain
	})
	return truncate(out, limit)
}

// dateLayouts are the date_sent formats seen in notice exports.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// sentDay normalises a date_sent value to its UTC calendar day.
func sentDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.DateOnly), true
		}
	}
	return "", false
}

// TimeDistribution counts records per day of date_sent in ascending date order.
// Records without a parseable date_sent are left out.
func TimeDistribution(recs []records.EnrichedRecord) []DailyCount {
	byDay := map[string]int{}
	for _, r := range recs {
		if day, ok := sentDay(r.DateSent); ok {
			byDay[day]++
		}
	}
	out := make([]DailyCount, 0, len(byDay))
	for d, n := range byDay {
		out = append(out, DailyCount{Date: d, NoticeCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// TopHolders ranks principals by record count. Each row carries the
// principal's most frequent infringing domain (ties go to the domain seen
// first) and how many distinct domains it reported. limit <= 0 keeps all.
func TopHolders(recs []records.EnrichedRecord, limit int) []HolderRank {
	type acc struct {
		count   int
		domains map[string]int
		order   []string
	}
	byHolder := map[string]*acc{}
	for _, r := range recs {
		if r.PrincipalName == "" {
			continue
		}
		a, ok := byHolder[r.PrincipalName]
		if !ok {
			a = &acc{domains: map[string]int{}}
			byHolder[r.PrincipalName] = a
		}
		a.count++
		if r.Domain == "" {
			continue
		}
		if _, seen := a.domains[r.Domain]; !seen {
			a.order = append(a.order, r.Domain)
		}
		a.domains[r.Domain]++
	}

	out := make([]HolderRank, 0, len(byHolder))
	for name, a := range byHolder {
		var top string
		best := 0
		for _, d := range a.order {
			if n := a.domains[d]; n > best {
				top, best = d, n
			}
		}
		out = append(out, HolderRank{
			PrincipalName:           name,
			NoticeCount:             a.count,
			TopInfringingDomain:     top,
			UniqueInfringingDomains: len(a.domains),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NoticeCount != out[j].NoticeCount {
			return out[i].NoticeCount > out[j].NoticeCount
		}
		return out[i].PrincipalName < out[j].PrincipalName
	})
	return truncate(out, limit)
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

// DomainsTable renders the top domains report.
func DomainsTable(rows []DomainCount) Table {
	t := Table{Header: []string{"domain", "notice_count", "unique_copyrighted_urls"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Domain, strconv.Itoa(r.NoticeCount), strconv.Itoa(r.UniqueCopyrightedURLs)})
	}
	return t
}

// TimelineTable renders the notices-over-time report.
func TimelineTable(rows []DailyCount) Table {
	t := Table{Header: []string{"date_sent", "notice_count"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Date, strconv.Itoa(r.NoticeCount)})
	}
	return t
}

// HoldersTable renders the copyright holders report.
func HoldersTable(rows []HolderRank) Table {
	t := Table{Header: []string{"principal_name", "notice_count", "top_infringing_domain", "unique_infringing_domains"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.PrincipalName,
			strconv.Itoa(r.NoticeCount),
			r.TopInfringingDomain,
			strconv.Itoa(r.UniqueInfringingDomains),
		})
	}
	return t
}
