// Package notice decodes a batch of DMCA takedown notices and flattens it
// into one records.InfringingRecord per (notice, work, infringing URL).
package notice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lc/takedown/internal/log"
	"github.com/lc/takedown/internal/records"
)

var (
	// ErrMissingNotices is returned when the document has no top-level notices array.
	ErrMissingNotices = errors.New("document has no notices array")
	// ErrMalformed is returned when the document or one of its notices cannot be used.
	ErrMalformed = errors.New("malformed notice document")
)

// Document is the decoded input batch.
type Document struct {
	Notices []Notice `json:"notices"`
}

// Notice is one DMCA takedown submission.
type Notice struct {
	ID            ID       `json:"id"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	DateSent      string   `json:"date_sent"`
	DateReceived  string   `json:"date_received"`
	Topics        []string `json:"topics"`
	SenderName    string   `json:"sender_name"`
	PrincipalName string   `json:"principal_name"`
	RecipientName string   `json:"recipient_name"`
	Works         []Work   `json:"works"`
}

// Work is a copyrighted item referenced by a notice.
type Work struct {
	Description     string `json:"description"`
	InfringingURLs  []URL  `json:"infringing_urls"`
	CopyrightedURLs []URL  `json:"copyrighted_urls"`
}

// URL is a {"url": ...} entry.
type URL struct {
	URL *string `json:"url"`
}

// ID accepts both JSON strings and numbers; notice ids come as either.
type ID struct {
	Value string
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		if err := json.Unmarshal(b, &id.Value); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		id.Value = n.String()
	}
	id.Set = strings.TrimSpace(id.Value) != ""
	return nil
}

// Decode reads and validates a notice document.
func Decode(r io.Reader) (*Document, error) {
	var raw struct {
		Notices *[]Notice `json:"notices"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	if raw.Notices == nil {
		return nil, ErrMissingNotices
	}

	doc := &Document{Notices: *raw.Notices}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the fields flattening cannot do without.
func (d *Document) Validate() error {
	for ni, n := range d.Notices {
		if !n.ID.Set {
			return fmt.Errorf("%w: notice[%d]: missing id", ErrMalformed, ni)
		}
		for wi, w := range n.Works {
			if err := checkURLs(w.InfringingURLs); err != nil {
				return fmt.Errorf("%w: notice %s work[%d]: infringing_urls%v", ErrMalformed, n.ID.Value, wi, err)
			}
			if err := checkURLs(w.CopyrightedURLs); err != nil {
				return fmt.Errorf("%w: notice %s work[%d]: copyrighted_urls%v", ErrMalformed, n.ID.Value, wi, err)
			}
		}
	}
	return nil
}

func checkURLs(urls []URL) error {
	for i, u := range urls {
		if u.URL == nil {
			return fmt.Errorf("[%d]: missing url", i)
		}
	}
	return nil
}

// Stats counts what Flatten saw.
type Stats struct {
	Notices int
	Works   int
	Records int
	// Skipped counts infringing URLs without a usable domain.
	Skipped int
}

// Flatten expands every notice into records, one per infringing URL.
// The work's first copyrighted URL is kept and the rest are discarded.
// Infringing URLs whose domain cannot be extracted are skipped and counted.
func Flatten(doc *Document) ([]records.InfringingRecord, Stats) {
	var (
		recs  []records.InfringingRecord
		stats = Stats{Notices: len(doc.Notices)}
	)
	for _, n := range doc.Notices {
		topics := strings.Join(n.Topics, ", ")
		for _, w := range n.Works {
			stats.Works++

			var copyrighted string
			if len(w.CopyrightedURLs) > 0 {
				copyrighted = *w.CopyrightedURLs[0].URL
			}
			desc := w.Description
			if desc == "" {
				desc = n.Description
			}

			for _, u := range w.InfringingURLs {
				domain, err := ExtractDomain(*u.URL)
				if err != nil {
					stats.Skipped++
					log.Debug("notice: skipping infringing url", "notice", n.ID.Value, "url", *u.URL, "error", err)
					continue
				}
				recs = append(recs, records.InfringingRecord{
					ID:              n.ID.Value,
					Type:            n.Type,
					Title:           n.Title,
					DateSent:        n.DateSent,
					DateReceived:    n.DateReceived,
					Topics:          topics,
					SenderName:      n.SenderName,
					PrincipalName:   n.PrincipalName,
					RecipientName:   n.RecipientName,
					WorkDescription: desc,
					InfringingURL:   *u.URL,
					CopyrightedURL:  copyrighted,
					Domain:          domain,
				})
			}
		}
	}
	stats.Records = len(recs)
	return recs, stats
}
