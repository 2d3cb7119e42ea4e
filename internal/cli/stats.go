package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/stats"
	"github.com/runnerr0/guestbook/internal/visit"
)

// Execute implements the go-flags Commander interface for StatsCommand.
func (c *StatsCommand) Execute(args []string) error {
	svc, _, err := openService(c.globals)
	if err != nil {
		return err
	}
	defer svc.Store().Close()

	return c.executeWithService(svc)
}

// executeWithService runs stats against a provided service (for testing).
func (c *StatsCommand) executeWithService(svc *guestbook.Service) error {
	switch c.Period {
	case "", "daily", "weekly", "monthly", "none":
	default:
		return fmt.Errorf("invalid --period %q (use daily, weekly, monthly or none)", c.Period)
	}

	spec, err := c.FilterFlags.spec(svc.Schema())
	if err != nil {
		return err
	}
	report, err := svc.Dashboard(context.Background(), operator(), spec)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(statsJSON{Version: c.version, Filter: spec, Report: report})
	}
	c.printHuman(svc.Schema(), spec, report)
	return nil
}

type statsJSON struct {
	Version string        `json:"version"`
	Filter  filter.Spec   `json:"filter"`
	Report  *stats.Report `json:"report"`
}

var fieldTitles = map[visit.Field]string{
	visit.FieldGender:     "Gender",
	visit.FieldAgeBracket: "Age bracket",
	visit.FieldPurpose:    "Purpose",
	visit.FieldLocation:   "Location",
}

func (c *StatsCommand) printHuman(schema visit.Schema, spec filter.Spec, r *stats.Report) {
	s := r.Summary
	fmt.Println("Visit Statistics")
	fmt.Println("================")
	fmt.Printf("Range:         %s\n", describe(spec))
	fmt.Printf("Visits:        %s\n", formatNumber(s.Total))
	if s.Invalid > 0 {
		fmt.Printf("Unreadable:    %s (excluded)\n", formatNumber(s.Invalid))
	}
	if s.Total == 0 {
		return
	}
	fmt.Printf("Active days:   %s\n", formatNumber(s.Days))
	fmt.Printf("Per day:       %.2f\n", s.AveragePerDay)
	fmt.Printf("Busiest day:   %s (%s)\n", s.PeakDate.Format(visit.DateLayout), formatNumber(s.PeakCount))
	if s.TopPurpose != "" {
		fmt.Printf("Top purpose:   %s (%s)\n", s.TopPurpose, formatNumber(s.TopPurposeCount))
	}

	switch c.Period {
	case "", "daily":
		fmt.Println()
		fmt.Println("Daily:")
		for _, d := range r.Daily {
			fmt.Printf("  %s  %s\n", d.Date.Format(visit.DateLayout), bar(d.Count, s.PeakCount))
		}
	case "weekly":
		fmt.Println()
		fmt.Println("Weekly:")
		for _, w := range r.Weekly {
			fmt.Printf("  %s (%s ~ %s)  %s\n", w.Label, w.Start.Format("01-02"), w.End.Format("01-02"), formatNumber(w.Count))
		}
	case "monthly":
		fmt.Println()
		fmt.Println("Monthly:")
		for _, m := range r.Monthly {
			fmt.Printf("  %s  %s\n", m.Label, formatNumber(m.Count))
		}
	}

	for _, b := range r.Categories(schema) {
		fmt.Println()
		fmt.Printf("%s:\n", fieldTitles[b.Field])
		for _, cc := range b.Counts {
			label := cc.Value
			if label == "" {
				label = "(blank)"
			}
			pct := float64(cc.Count) / float64(s.Total) * 100
			fmt.Printf("  %-16s %6s  %5.1f%%\n", label, formatNumber(cc.Count), pct)
		}
	}

	fmt.Println()
	fmt.Println("By hour:")
	for h, n := range r.Hourly {
		if n > 0 {
			fmt.Printf("  %02d:00  %s\n", h, formatNumber(n))
		}
	}
}

// bar renders n as a count followed by a proportional bar.
func bar(n, peak int) string {
	const width = 30
	w := 0
	if peak > 0 {
		w = n * width / peak
	}
	if n > 0 && w == 0 {
		w = 1
	}
	return fmt.Sprintf("%4d %s", n, strings.Repeat("#", w))
}
