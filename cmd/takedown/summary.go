package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/lc/takedown/internal/pipeline"
)

func printSummary(w io.Writer, sum *pipeline.Summary) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "RUN SUMMARY:")

	fmt.Fprintf(w, "  notices:   %d\n", sum.Notices)
	fmt.Fprintf(w, "  records:   %d", sum.Records)
	if sum.Skipped > 0 {
		color.New(color.FgYellow).Fprintf(w, " (%d urls skipped)", sum.Skipped)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  domains:   %d (", sum.Domains)
	color.New(color.FgGreen, color.Bold).Fprintf(w, "%d resolved", sum.Resolved)
	fmt.Fprint(w, ", ")
	unresolved := color.New(color.FgHiWhite)
	if sum.Unresolved > 0 {
		unresolved = color.New(color.FgHiRed, color.Bold)
	}
	unresolved.Fprintf(w, "%d unresolved", sum.Unresolved)
	fmt.Fprintln(w, ")")
	fmt.Fprintf(w, "  elapsed:   %s\n", sum.Elapsed.Round(time.Millisecond))

	for _, p := range sum.Paths {
		color.New(color.FgGreen).Fprintf(w, "  ✓ wrote %s\n", p)
	}

	if len(sum.TopDomains) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Domain", "Notices", "Copyrighted URLs"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgGreenColor},
		tablewriter.Colors{tablewriter.FgYellowColor},
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
	)
	for _, d := range sum.TopDomains {
		table.Append([]string{d.Domain, strconv.Itoa(d.NoticeCount), strconv.Itoa(d.UniqueCopyrightedURLs)})
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "TOP INFRINGING DOMAINS:")
	table.Render()
}
