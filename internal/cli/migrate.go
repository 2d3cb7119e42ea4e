package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/runnerr0/guestbook/internal/config"
	"github.com/runnerr0/guestbook/internal/storage"
)

// Execute implements the go-flags Commander interface for MigrateCommand.
func (c *MigrateCommand) Execute(args []string) error {
	if c.To == "" {
		return fmt.Errorf("--to is required for migrate command")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dstCfg, err := c.destination(cfg.Storage)
	if err != nil {
		return err
	}
	if same, _ := sameStore(cfg.Storage, dstCfg); same {
		return fmt.Errorf("destination is the configured store")
	}

	schema := cfg.VisitSchema()
	src, err := storage.Open(cfg.Storage, schema)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := storage.Open(dstCfg, schema)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer dst.Close()

	return c.executeWithStores(src, dst)
}

// destination derives the target storage settings from the flags.
func (c *MigrateCommand) destination(base config.StorageConfig) (config.StorageConfig, error) {
	dst := base
	dst.Backend = c.To
	switch c.To {
	case config.BackendCSV, config.BackendSQLite:
		if c.Path != "" {
			dst.Path = filepath.Dir(c.Path)
			if c.To == config.BackendCSV {
				dst.CSVFile = filepath.Base(c.Path)
			} else {
				dst.SQLiteFile = filepath.Base(c.Path)
			}
		}
	case config.BackendPostgres:
		if c.DSN != "" {
			dst.PostgresDSN = c.DSN
		}
		if dst.PostgresDSN == "" {
			return dst, fmt.Errorf("--dsn is required to migrate to postgres")
		}
	default:
		return dst, fmt.Errorf("unknown backend %q (use csv, sqlite or postgres)", c.To)
	}
	return dst, nil
}

func sameStore(a, b config.StorageConfig) (bool, error) {
	if a.Backend != b.Backend {
		return false, nil
	}
	switch a.Backend {
	case config.BackendPostgres:
		return a.PostgresDSN == b.PostgresDSN, nil
	case config.BackendCSV:
		pa, err := a.DataPath(a.CSVFile)
		if err != nil {
			return false, err
		}
		pb, err := b.DataPath(b.CSVFile)
		return pa == pb, err
	default:
		pa, err := a.DataPath(a.SQLiteFile)
		if err != nil {
			return false, err
		}
		pb, err := b.DataPath(b.SQLiteFile)
		return pa == pb, err
	}
}

// executeWithStores copies src into dst (used by tests). A destination
// that already holds visits is only replaced after confirmation.
func (c *MigrateCommand) executeWithStores(src, dst storage.Store) error {
	ctx := context.Background()

	existing, err := dst.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("read destination: %w", err)
	}
	if len(existing) > 0 && !c.Force {
		fmt.Printf("⚠ WARNING: the destination already holds %s visits.\n", formatNumber(len(existing)))
		fmt.Println("They will be replaced by the contents of the configured store.")
		fmt.Println()
		fmt.Print(`Type "REPLACE" to confirm: `)

		var in io.Reader = os.Stdin
		if c.stdin != nil {
			in = c.stdin
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		if strings.TrimSpace(scanner.Text()) != "REPLACE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	start := time.Now()
	n, err := storage.Copy(ctx, src, dst)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"copied":   n,
			"replaced": len(existing),
			"to":       c.To,
		})
	}
	fmt.Printf("Copied %s visits to %s in %s.\n", formatNumber(n), c.To, time.Since(start).Round(time.Millisecond))
	return nil
}
