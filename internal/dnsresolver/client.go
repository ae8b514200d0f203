package dnsresolver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/lc/takedown/internal/log"
)

var (
	// ErrEmptyHostname is returned when an empty hostname is provided.
	ErrEmptyHostname = errors.New("empty hostname")
	// ErrInvalidHostname is returned when the hostname is not a valid domain name.
	ErrInvalidHostname = errors.New("invalid hostname")
	// ErrNoRecords is returned when the answer section is empty.
	ErrNoRecords = errors.New("no records found")
	// ErrBadStatus is returned when the resolver answers with a non-200 status.
	ErrBadStatus = errors.New("unexpected resolver status")
	// ErrMalformedResponse is returned when the resolver's body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed resolver response")
)

const (
	// DefaultEndpoint is Google's JSON DNS-over-HTTPS API.
	DefaultEndpoint = "https://dns.google/resolve"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second

	mimeDNSJSON    = "application/dns-json"
	mimeDNSMessage = "application/dns-message"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 64 << 10
)

// Format selects the DNS-over-HTTPS encoding.
type Format string

const (
	// FormatJSON is the name=<domain>&type=<qtype> JSON API.
	FormatJSON Format = "json"
	// FormatWire is RFC 8484 GET with a base64url-encoded DNS message.
	FormatWire Format = "wire"
)

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatWire:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown resolver format %q", s)
	}
}

// Resolver maps a domain to a single address. ok is false when the domain
// did not resolve for any reason; the reason is not part of the contract.
type Resolver interface {
	Resolve(ctx context.Context, domain string) (ip string, ok bool)
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Resolver = (*Client)(nil)

// Client resolves domains against a DNS-over-HTTPS endpoint, one attempt per call.
type Client struct {
	HTTP     Doer
	Endpoint string
	Format   Format
	QType    uint16
	Timeout  time.Duration
}

// Opt is a function option for configuring the Client.
type Opt func(c *Client)

// New creates a Client querying endpoint for A records with the given per-lookup timeout.
func New(endpoint string, timeout time.Duration, opts ...Opt) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		HTTP:     &http.Client{Timeout: timeout},
		Endpoint: endpoint,
		Format:   FormatJSON,
		QType:    dns.TypeA,
		Timeout:  timeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithFormat selects the JSON or wire encoding.
func WithFormat(f Format) Opt {
	return func(c *Client) {
		c.Format = f
	}
}

// WithRecordType sets the queried record type, e.g. dns.TypeAAAA.
func WithRecordType(qtype uint16) Opt {
	return func(c *Client) {
		c.QType = qtype
	}
}

// WithHTTPClient replaces the HTTP transport.
func WithHTTPClient(d Doer) Opt {
	return func(c *Client) {
		c.HTTP = d
	}
}

// Resolve implements Resolver. Every failure is logged at debug level and
// reported as ok=false.
func (c *Client) Resolve(ctx context.Context, domain string) (string, bool) {
	ip, err := c.Lookup(ctx, domain)
	if err != nil {
		log.Debug("dnsresolver: lookup failed", "domain", domain, "error", err)
		return "", false
	}
	return ip, true
}

// Lookup performs one query and returns the data of the first answer.
// The first answer wins whatever its type, so a CNAME target can be returned.
func (c *Client) Lookup(ctx context.Context, domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", ErrEmptyHostname
	}
	// if domain is an IP, return it as is.
	if ip := net.ParseIP(domain); ip != nil {
		return ip.String(), nil
	}
	if _, ok := dns.IsDomainName(domain); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidHostname, domain)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	switch c.Format {
	case FormatWire:
		return c.lookupWire(ctx, domain)
	default:
		return c.lookupJSON(ctx, domain)
	}
}

// CloseIdleConnections releases pooled connections of the underlying transport.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.HTTP.(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
}

type jsonResponse struct {
	Status int          `json:"Status"`
	Answer []jsonAnswer `json:"Answer"`
}

type jsonAnswer struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

func (c *Client) lookupJSON(ctx context.Context, domain string) (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("name", domain)
	q.Set("type", dns.TypeToString[c.QType])
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), mimeDNSJSON)
	if err != nil {
		return "", err
	}

	var resp jsonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Answer) == 0 {
		return "", fmt.Errorf("%w: %s (rcode %s)", ErrNoRecords, domain, rcodeName(resp.Status))
	}

	first := resp.Answer[0]
	if first.Data == "" {
		return "", fmt.Errorf("%w: %s: empty answer data", ErrNoRecords, domain)
	}
	log.Debug("dnsresolver: resolved", "domain", domain, "type", dns.TypeToString[first.Type], "data", first.Data, "answers", len(resp.Answer))
	return first.Data, nil
}

func (c *Client) lookupWire(ctx context.Context, domain string) (string, error) {
	// RFC 8484 asks for ID 0 so GET responses stay cacheable.
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(domain), c.QType)
	req.Id = 0
	packed, err := req.Pack()
	if err != nil {
		return "", fmt.Errorf("packing query for %q: %w", domain, err)
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("dns", base64.RawURLEncoding.EncodeToString(packed))
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), mimeDNSMessage)
	if err != nil {
		return "", err
	}

	resp := new(dns.Msg)
	if err := resp.Unpack(body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Answer) == 0 {
		return "", fmt.Errorf("%w: %s (rcode %s)", ErrNoRecords, domain, rcodeName(resp.Rcode))
	}

	data := answerData(resp.Answer[0])
	if data == "" {
		return "", fmt.Errorf("%w: %s: empty answer data", ErrNoRecords, domain)
	}
	log.Debug("dnsresolver: resolved", "domain", domain, "type", dns.TypeToString[resp.Answer[0].Header().Rrtype], "data", data, "answers", len(resp.Answer))
	return data, nil
}

// get issues the request and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// answerData renders the RDATA of rr the way the JSON API reports it.
func answerData(rr dns.RR) string {
	switch r := rr.(type) {
	case *dns.A:
		return r.A.String()
	case *dns.AAAA:
		return r.AAAA.String()
	case *dns.CNAME:
		return r.Target
	default:
		return strings.TrimPrefix(rr.String(), rr.Header().String())
	}
}

func rcodeName(rcode int) string {
	if name, ok := dns.RcodeToString[rcode]; ok {
		return name
	}
	return fmt.Sprintf("%d", rcode)
}
