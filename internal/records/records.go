// Package records defines the flattened takedown rows and the two pure stages
// around domain resolution: Plan, which reduces rows to the distinct set of
// domains worth resolving, and Enrich, which joins resolved addresses back
// onto every row by domain.
package records

// InfringingRecord is one row per (notice, work, infringing URL).
// Empty strings mean the attribute was absent in the source notice.
type InfringingRecord struct {
	ID              string
	Type            string
	Title           string
	DateSent        string
	DateReceived    string
	Topics          string
	SenderName      string
	PrincipalName   string
	RecipientName   string
	WorkDescription string
	InfringingURL   string
	// CopyrightedURL is the first copyrighted URL listed on the work.
	CopyrightedURL string
	// Domain is the canonical hostname of InfringingURL.
	Domain string
}

// EnrichedRecord is an InfringingRecord plus the address its domain resolved to.
type EnrichedRecord struct {
	InfringingRecord
	// IP is empty when the domain did not resolve.
	IP string
}

// HasIP reports whether the record's domain resolved.
func (r EnrichedRecord) HasIP() bool { return r.IP != "" }

// IPLookup is the read side of a domain -> address mapping.
type IPLookup interface {
	Lookup(domain string) (ip string, ok bool)
}

// IPMap is a plain map satisfying IPLookup.
type IPMap map[string]string

// Lookup implements IPLookup.
func (m IPMap) Lookup(domain string) (string, bool) {
	ip, ok := m[domain]
	return ip, ok
}

// Plan returns the distinct non-empty domains of recs in first-seen order.
func Plan(recs []InfringingRecord) []string {
	seen := make(map[string]struct{}, len(recs))
	domains := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Domain == "" {
			continue
		}
		if _, ok := seen[r.Domain]; ok {
			continue
		}
		seen[r.Domain] = struct{}{}
		domains = append(domains, r.Domain)
	}
	return domains
}

// Enrich attaches the resolved address of each record's domain, preserving
// length and order. Records whose domain is missing from ips keep an empty IP.
// The input slice is not modified.
func Enrich(recs []InfringingRecord, ips IPLookup) []EnrichedRecord {
	out := make([]EnrichedRecord, len(recs))
	for i, r := range recs {
		out[i] = EnrichedRecord{InfringingRecord: r}
		if ips == nil {
			continue
		}
		if ip, ok := ips.Lookup(r.Domain); ok {
			out[i].IP = ip
		}
	}
	return out
}
