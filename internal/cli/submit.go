package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/visit"
)

// Execute implements the go-flags Commander interface for SubmitCommand.
func (c *SubmitCommand) Execute(args []string) error {
	if c.Gender == "" {
		return fmt.Errorf("--gender is required for submit command")
	}
	if c.AgeBracket == "" {
		return fmt.Errorf("--age-bracket is required for submit command")
	}

	svc, _, err := openService(c.globals)
	if err != nil {
		return err
	}
	defer svc.Store().Close()

	return c.executeWithService(svc)
}

// executeWithService runs the submit logic against a provided service (used by tests).
func (c *SubmitCommand) executeWithService(svc *guestbook.Service) error {
	e, err := svc.SubmitVisit(context.Background(), visit.Submission{
		Gender:     c.Gender,
		AgeBracket: c.AgeBracket,
		Purpose:    c.Purpose,
		Location:   c.Location,
	})
	if err != nil {
		return fmt.Errorf("submit visit: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(e)
	}

	fmt.Printf("Recorded visit %s (%s %s)\n", e.ID, e.RawTimestamp, e.Weekday)
	fmt.Printf("  Gender:      %s\n", e.Gender)
	fmt.Printf("  Age bracket: %s\n", e.AgeBracket)
	if e.Purpose != "" {
		fmt.Printf("  Purpose:     %s\n", e.Purpose)
	}
	if e.Location != "" {
		fmt.Printf("  Location:    %s\n", e.Location)
	}
	return nil
}
