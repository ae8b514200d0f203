// Package dnsresolver maps large sets of domains to IP addresses over
// DNS-over-HTTPS.
//
// The package has two layers:
//
//   - Client performs one lookup against a DNS-over-HTTPS endpoint and
//     returns the data of the first answer.
//   - Pool fans a batch of distinct domains out over a bounded number of
//     concurrent lookups and collects a domain -> address mapping.
//
// # Basic Usage
//
//	client := dnsresolver.New(dnsresolver.DefaultEndpoint, 5*time.Second)
//	pool := dnsresolver.NewPool(client, 64)
//
//	res := pool.ResolveAll(ctx, []string{"example.com", "example.org"})
//	if ip, ok := res.Lookup("example.com"); ok {
//		fmt.Println(ip)
//	}
//
// # Wire Formats
//
// FormatJSON (the default) sends
//
//	GET <endpoint>?name=example.com&type=A
//	Accept: application/dns-json
//
// and expects {"Status": 0, "Answer": [{"data": "93.184.216.34", ...}]}.
//
// FormatWire sends an RFC 8484 query, a packed DNS message base64url-encoded
// into the dns parameter, and unpacks the application/dns-message reply
// with github.com/miekg/dns.
//
// # Answer Selection
//
// The first answer wins. There is no preference between A records and the
// CNAME records a resolver places in front of them, so a CNAME target can be
// returned as the "address" of a domain. Remaining answers are discarded.
//
// # Failure Model
//
// Client.Lookup reports why a lookup failed (ErrBadStatus, ErrNoRecords,
// ErrMalformedResponse, transport errors, context deadline). Client.Resolve
// and Pool.ResolveAll swallow all of these: a domain that failed is simply
// absent from the result. Each lookup is attempted once and bounded by the
// client timeout. A lookup timing out cancels only its own request.
//
// # Concurrency
//
// ResolveAll runs at most the configured number of lookups at once using an
// errgroup with a limit. Each domain owns one result slot, so workers never
// contend on shared state; the slots are folded into the mapping once every
// lookup has returned. A panicking lookup is recovered and counted as
// unresolved. When ResolveAll returns, no goroutine it started is still
// running and idle connections of the client's transport are closed.
package dnsresolver
