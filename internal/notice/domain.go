package notice

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// ErrNoDomain is returned when no hostname can be taken from a URL.
var ErrNoDomain = errors.New("no domain in url")

// urlHost captures everything between the scheme (plus an optional leading
// "www.") and the first slash.
var urlHost = regexp.MustCompile(`(?i)https?://(?:www\.)?([^/]+)`)

// ExtractDomain returns the canonical hostname of rawURL: lower-case ASCII,
// without userinfo, port, query or fragment, and without a leading "www.".
// IP literals are returned as-is.
func ExtractDomain(rawURL string) (string, error) {
	m := urlHost.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoDomain, rawURL)
	}
	host := m[1]

	if i := strings.IndexAny(host, "?#"); i >= 0 {
		host = host[:i]
	}
	if at := strings.LastIndexByte(host, '@'); at >= 0 {
		host = host[at+1:]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoDomain, rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	ascii, err := idna.Lookup.ToASCII(strings.ToLower(host))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrNoDomain, rawURL, err)
	}
	if strings.IndexFunc(ascii, badHostRune) >= 0 {
		return "", fmt.Errorf("%w: %q: invalid hostname %q", ErrNoDomain, rawURL, ascii)
	}
	if !strings.Contains(ascii, ".") {
		return "", fmt.Errorf("%w: %q: %q is not a qualified hostname", ErrNoDomain, rawURL, ascii)
	}
	return ascii, nil
}

func badHostRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
		return false
	}
	return true
}
