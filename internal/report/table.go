// Package report turns enriched takedown records into the tables takedown
// writes: the flattened primary table and three aggregate reports.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/lc/takedown/internal/records"
)

// Table is a header plus string rows, ready for CSV encoding.
type Table struct {
	Header []string
	Rows   [][]string
}

type column struct {
	name  string
	value func(r records.EnrichedRecord) string
}

// primaryColumns is the fixed column order of the primary table.
var primaryColumns = []column{
	{"id", func(r records.EnrichedRecord) string { return r.ID }},
	{"type", func(r records.EnrichedRecord) string { return r.Type }},
	{"title", func(r records.EnrichedRecord) string { return r.Title }},
	{"date_sent", func(r records.EnrichedRecord) string { return r.DateSent }},
	{"date_received", func(r records.EnrichedRecord) string { return r.DateReceived }},
	{"topics", func(r records.EnrichedRecord) string { return r.Topics }},
	{"sender_name", func(r records.EnrichedRecord) string { return r.SenderName }},
	{"principal_name", func(r records.EnrichedRecord) string { return r.PrincipalName }},
	{"recipient_name", func(r records.EnrichedRecord) string { return r.RecipientName }},
	{"work_description", func(r records.EnrichedRecord) string { return r.WorkDescription }},
	{"infringing_url", func(r records.EnrichedRecord) string { return r.InfringingURL }},
	{"copyrighted_url", func(r records.EnrichedRecord) string { return r.CopyrightedURL }},
	{"infringing_domain", func(r records.EnrichedRecord) string { return r.Domain }},
	{"infringing_ip", func(r records.EnrichedRecord) string { return r.IP }},
}

// Primary builds one row per record and then drops the columns no record
// has a value for.
func Primary(recs []records.EnrichedRecord) Table {
	t := Table{
		Header: make([]string, len(primaryColumns)),
		Rows:   make([][]string, len(recs)),
	}
	for i, c := range primaryColumns {
		t.Header[i] = c.name
	}
	for ri, r := range recs {
		row := make([]string, len(primaryColumns))
		for ci, c := range primaryColumns {
			row[ci] = c.value(r)
		}
		t.Rows[ri] = row
	}
	return DropEmptyColumns(t)
}

// DropEmptyColumns removes every column that is empty in all rows.
// A table without rows is returned unchanged so its header survives.
func DropEmptyColumns(t Table) Table {
	if len(t.Rows) == 0 {
		return t
	}
	keep := make([]int, 0, len(t.Header))
	for ci := range t.Header {
		for _, row := range t.Rows {
			if ci < len(row) && row[ci] != "" {
				keep = append(keep, ci)
				break
			}
		}
	}
	if len(keep) == len(t.Header) {
		return t
	}

	out := Table{
		Header: make([]string, len(keep)),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, ci := range keep {
		out.Header[i] = t.Header[ci]
	}
	for ri, row := range t.Rows {
		nr := make([]string, len(keep))
		for i, ci := range keep {
			nr[i] = row[ci]
		}
		out.Rows[ri] = nr
	}
	return out
}

// EncodeCSV renders t as RFC 4180 CSV with a header line.
func EncodeCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("writing rows: %w", err)
	}
	return buf.Bytes(), nil
}
