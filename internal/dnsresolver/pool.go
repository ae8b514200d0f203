package dnsresolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/lc/takedown/internal/log"
)

const (
	// DefaultConcurrency is the number of lookups in flight at once.
	DefaultConcurrency = 64

	// progressEvery controls how often pool progress is logged.
	progressEvery = 1000
)

// Pool fans a batch of domains out over a fixed number of concurrent lookups.
type Pool struct {
	resolver    Resolver
	concurrency int
}

// NewPool returns a Pool running at most concurrency lookups at a time.
// A non-positive concurrency falls back to DefaultConcurrency.
func NewPool(r Resolver, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pool{resolver: r, concurrency: concurrency}
}

// Resolutions is the immutable outcome of one ResolveAll call.
type Resolutions struct {
	ips      map[string]string
	domains  int
	panicked int
	elapsed  time.Duration
}

// Lookup returns the address a domain resolved to.
func (r *Resolutions) Lookup(domain string) (string, bool) {
	ip, ok := r.ips[domain]
	return ip, ok
}

// Domains is the number of distinct domains that were attempted.
func (r *Resolutions) Domains() int { return r.domains }

// Resolved is the number of domains with an address.
func (r *Resolutions) Resolved() int { return len(r.ips) }

// Unresolved is the number of domains without an address.
func (r *Resolutions) Unresolved() int { return r.domains - len(r.ips) }

// Elapsed is the wall time the batch took.
func (r *Resolutions) Elapsed() time.Duration { return r.elapsed }

// Map returns a copy of the domain -> address mapping.
func (r *Resolutions) Map() map[string]string {
	out := make(map[string]string, len(r.ips))
	for k, v := range r.ips {
		out[k] = v
	}
	return out
}

// outcome is the slot one task owns.
type outcome struct {
	ip string
	ok bool
}

// ResolveAll resolves every distinct domain once. Failed, timed-out and
// panicking lookups are left out of the result; they never fail the batch.
// All lookups have finished and idle connections are released when it returns.
func (p *Pool) ResolveAll(ctx context.Context, domains []string) *Resolutions {
	start := time.Now()
	uniq := distinct(domains)

	// each task writes only its own slot, so no locking is needed
	slots := make([]outcome, len(uniq))
	var (
		done     atomic.Int64
		panicked atomic.Int64
	)

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	defer p.release()

	log.Infof("dnsresolver: resolving %d domains with %d workers", len(uniq), p.concurrency)
	for i, domain := range uniq {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					panicked.Inc()
					slots[i] = outcome{}
					log.Warn("dnsresolver: lookup panicked", "domain", domain, "panic", fmt.Sprint(r))
				}
				if n := done.Inc(); n%progressEvery == 0 {
					log.Infof("dnsresolver: %d/%d domains done", n, len(uniq))
				}
			}()
			ip, ok := p.resolver.Resolve(ctx, domain)
			slots[i] = outcome{ip: ip, ok: ok && ip != ""}
			return nil
		})
	}
	// tasks never return errors; Wait is only the drain point
	_ = g.Wait()

	res := &Resolutions{
		ips:      make(map[string]string, len(uniq)),
		domains:  len(uniq),
		panicked: int(panicked.Load()),
		elapsed:  time.Since(start),
	}
	for i, o := range slots {
		if o.ok {
			res.ips[uniq[i]] = o.ip
		}
	}

	log.Info("dnsresolver: batch complete",
		"domains", res.domains,
		"resolved", res.Resolved(),
		"unresolved", res.Unresolved(),
		"panicked", res.panicked,
		"elapsed", res.elapsed.String(),
	)
	return res
}

// release closes idle transport connections once a batch is drained.
func (p *Pool) release() {
	if c, ok := p.resolver.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// distinct drops empty and repeated domains, keeping first-seen order.
func distinct(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
