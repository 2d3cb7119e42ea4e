package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/visit"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for show command")
	}

	svc, _, err := openService(c.globals)
	if err != nil {
		return err
	}
	defer svc.Store().Close()

	return c.executeWithService(svc)
}

// executeWithService looks the visit up in the full log, invalid rows
// included.
func (c *ShowCommand) executeWithService(svc *guestbook.Service) error {
	rows, err := svc.Store().LoadAll(context.Background())
	if err != nil {
		return fmt.Errorf("load visits: %w", err)
	}

	var found *visit.Event
	for i := range rows {
		if rows[i].ID == c.ID {
			found = &rows[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("visit not found: %s", c.ID)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(found)
	}

	switch c.Format {
	case "json":
		return printJSON(found)
	case "csv":
		w := csv.NewWriter(os.Stdout)
		w.Write([]string{found.RawTimestamp, found.Weekday, found.Gender, found.AgeBracket, found.Purpose, found.Location, found.ID})
		w.Flush()
		return w.Error()
	default: // "full"
		c.outputFull(*found)
	}
	return nil
}

func (c *ShowCommand) outputFull(e visit.Event) {
	fmt.Println(e.ID)
	fmt.Printf("Timestamp:   %s\n", e.RawTimestamp)
	if !e.Valid() {
		fmt.Println("             (unreadable; excluded from filters and statistics)")
	}
	fmt.Printf("Weekday:     %s\n", e.Weekday)
	fmt.Printf("Gender:      %s\n", e.Gender)
	fmt.Printf("Age bracket: %s\n", e.AgeBracket)
	if e.Purpose != "" {
		fmt.Printf("Purpose:     %s\n", e.Purpose)
	}
	if e.Location != "" {
		fmt.Printf("Location:    %s\n", e.Location)
	}
}
