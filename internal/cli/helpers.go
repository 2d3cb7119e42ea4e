package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/config"
	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/logger"
	"github.com/runnerr0/guestbook/internal/storage"
	"github.com/runnerr0/guestbook/internal/visit"
)

// loadConfig resolves the config file and environment overrides and
// initialises logging from them.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	var path, envFile string
	if g != nil {
		path, envFile = g.Config, g.EnvFile
	}
	cfg, err := config.Resolve(path, envFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if g != nil && g.Verbose {
		level = "debug"
	}
	logger.Init(level, cfg.Logging.Format)
	return cfg, nil
}

// openService opens the configured store and wraps it in a Service. The
// caller closes the store.
func openService(g *GlobalFlags) (*guestbook.Service, *config.Config, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(cfg.Storage, cfg.VisitSchema())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	svc, err := guestbook.NewFromConfig(cfg, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}

// operator is the session of whoever runs the CLI on the host.
func operator() *auth.Session {
	name := os.Getenv("USER")
	if name == "" {
		name = "operator"
	}
	return auth.LocalSession(name)
}

// spec builds the filter described by the flags. Unset dates leave the
// range open, which selects the same rows as the full span of the log.
func (f FilterFlags) spec(schema visit.Schema) (filter.Spec, error) {
	var start, end time.Time
	var err error
	if f.Start != "" {
		if start, err = visit.ParseDate(f.Start); err != nil {
			return filter.Spec{}, fmt.Errorf("--start: %w", err)
		}
	}
	if f.End != "" {
		if end, err = visit.ParseDate(f.End); err != nil {
			return filter.Spec{}, fmt.Errorf("--end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return filter.Spec{}, fmt.Errorf("--end %s is before --start %s", f.End, f.Start)
	}

	spec := filter.All(schema, start, end)
	set := func(field visit.Field, values []string) {
		if values == nil {
			return
		}
		out := []string{}
		for _, v := range values {
			if v = schema.Normalize(v); v != "" {
				out = append(out, v)
			}
		}
		spec.SetValues(field, out)
	}
	set(visit.FieldGender, f.Gender)
	set(visit.FieldAgeBracket, f.AgeBracket)
	set(visit.FieldPurpose, f.Purpose)
	set(visit.FieldLocation, f.Location)
	return spec, nil
}

// describe renders a filter for the header of human output.
func describe(spec filter.Spec) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "…"
		}
		return t.Format(visit.DateLayout)
	}
	return bound(spec.Start) + " ~ " + bound(spec.End)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber formats an int with comma separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
