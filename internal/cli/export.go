package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/guestbook"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	svc, _, err := openService(c.globals)
	if err != nil {
		return err
	}
	defer svc.Store().Close()

	return c.executeWithService(svc)
}

// executeWithService writes the workbook using a provided service (for testing).
func (c *ExportCommand) executeWithService(svc *guestbook.Service) error {
	var spec *filter.Spec
	if !c.All {
		s, err := c.FilterFlags.spec(svc.Schema())
		if err != nil {
			return err
		}
		spec = &s
	}

	data, err := svc.Export(context.Background(), operator(), spec)
	if err != nil {
		return err
	}

	out := c.Out
	if out == "" {
		out = fmt.Sprintf("visits-%s.xlsx", time.Now().Format("20060102"))
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"path":  out,
			"bytes": len(data),
			"all":   c.All,
		})
	}
	fmt.Printf("Wrote %s (%s bytes)\n", out, formatNumber(len(data)))
	return nil
}
