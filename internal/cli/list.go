package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/visit"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	svc, _, err := openService(c.globals)
	if err != nil {
		return err
	}
	defer svc.Store().Close()

	return c.executeWithService(svc)
}

// executeWithService runs the listing against a provided service (for testing).
func (c *ListCommand) executeWithService(svc *guestbook.Service) error {
	spec, err := c.FilterFlags.spec(svc.Schema())
	if err != nil {
		return err
	}

	rows, err := svc.GetFiltered(context.Background(), operator(), spec)
	if err != nil {
		return fmt.Errorf("list visits: %w", err)
	}
	total := len(rows)
	rows = page(rows, c.Offset, c.Limit)

	if c.globals != nil && c.globals.JSON {
		return printJSON(jsonListOutput{Total: total, Offset: c.Offset, Count: len(rows), Visits: rows})
	}
	return c.printHuman(svc.Schema(), describe(spec), total, rows)
}

func page(rows []visit.Event, offset, limit int) []visit.Event {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []visit.Event{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (c *ListCommand) printHuman(schema visit.Schema, rangeText string, total int, rows []visit.Event) error {
	if total == 0 {
		fmt.Printf("No visits found (%s)\n", rangeText)
		return nil
	}

	visitWord := "visits"
	if total == 1 {
		visitWord = "visit"
	}
	fmt.Printf("Found %s %s (%s)", formatNumber(total), visitWord, rangeText)
	if len(rows) < total {
		fmt.Printf(", showing %d-%d", c.Offset+1, c.Offset+len(rows))
	}
	fmt.Print("\n\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "TIMESTAMP\tDAY\tGENDER\tAGE\t")
	if schema.Active(visit.FieldPurpose) {
		fmt.Fprint(w, "PURPOSE\t")
	}
	if schema.Active(visit.FieldLocation) {
		fmt.Fprint(w, "LOCATION\t")
	}
	fmt.Fprintln(w, "ID")

	for _, e := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t", e.RawTimestamp, e.Weekday, e.Gender, e.AgeBracket)
		if schema.Active(visit.FieldPurpose) {
			fmt.Fprintf(w, "%s\t", e.Purpose)
		}
		if schema.Active(visit.FieldLocation) {
			fmt.Fprintf(w, "%s\t", e.Location)
		}
		fmt.Fprintln(w, e.ID)
	}
	return w.Flush()
}

type jsonListOutput struct {
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Count  int           `json:"count"`
	Visits []visit.Event `json:"visits"`
}
