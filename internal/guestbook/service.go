// Package guestbook is the application layer shared by the HTTP server and
// the command-line tools. It owns the write lock around every
// load-modify-write of the visit log and checks the administrator session
// on every admin operation.
package guestbook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/config"
	"github.com/runnerr0/guestbook/internal/export"
	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/logger"
	"github.com/runnerr0/guestbook/internal/reconcile"
	"github.com/runnerr0/guestbook/internal/stats"
	"github.com/runnerr0/guestbook/internal/storage"
	"github.com/runnerr0/guestbook/internal/visit"
)

// ErrTryAgain is what a kiosk visitor sees when a submission could not be
// stored. The cause is logged, not shown.
var ErrTryAgain = errors.New("잠시 후 다시 시도해 주세요 (could not record the visit, please try again)")

// Options configures a Service.
type Options struct {
	Site     string
	Location *time.Location
	Retry    RetryPolicy
}

// Service implements the kiosk and admin operations over a Store.
type Service struct {
	store      storage.Store
	schema     visit.Schema
	site       string
	validator  *visit.Validator
	reconciler *reconcile.Reconciler
	retry      RetryPolicy
	now        func() time.Time

	mu sync.Mutex
}

// New returns a Service. A nil Location means UTC.
func New(store storage.Store, schema visit.Schema, opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := func() time.Time { return visit.NowIn(loc) }

	rec := reconcile.New(schema)
	rec.Now = now
	return &Service{
		store:      store,
		schema:     schema,
		site:       opts.Site,
		validator:  visit.NewValidator(schema),
		reconciler: rec,
		retry:      opts.Retry,
		now:        now,
	}
}

// NewFromConfig builds a Service with the site, timezone and retry policy
// from cfg.
func NewFromConfig(cfg *config.Config, store storage.Store) (*Service, error) {
	loc, err := visit.LoadLocation(cfg.Site.Timezone)
	if err != nil {
		return nil, err
	}
	return New(store, cfg.VisitSchema(), Options{
		Site:     cfg.Site.Name,
		Location: loc,
		Retry: RetryPolicy{
			Attempts: cfg.Kiosk.SubmitAttempts,
			Delay:    time.Duration(cfg.Kiosk.RetryDelayMS) * time.Millisecond,
		},
	}), nil
}

// Schema returns the schema the service validates and aggregates with.
func (s *Service) Schema() visit.Schema {
	return s.schema
}

// Store returns the underlying store.
func (s *Service) Store() storage.Store {
	return s.store
}

// SubmitVisit validates a kiosk submission and appends it to the log. An
// incomplete submission returns a *visit.ValidationError and writes
// nothing. A storage failure is retried, then reported as ErrTryAgain.
func (s *Service) SubmitVisit(ctx context.Context, sub visit.Submission) (visit.Event, error) {
	if err := s.validator.Validate(&sub); err != nil {
		return visit.Event{}, err
	}
	e := sub.Event(s.now(), s.schema.Locale)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.retry.Do(ctx, "append visit", func() error {
		return s.store.Append(ctx, e)
	})
	if err != nil {
		return visit.Event{}, ErrTryAgain
	}
	logger.FromContext(ctx).Info("visit recorded", "id", e.ID, "timestamp", e.RawTimestamp)
	return e, nil
}

func (s *Service) load(ctx context.Context) ([]visit.Event, error) {
	rows, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DefaultFilter is the filter an admin starts from: the full date span of
// the log and every category value.
func (s *Service) DefaultFilter(ctx context.Context, sess *auth.Session) (filter.Spec, error) {
	if err := auth.RequireSession(sess); err != nil {
		return filter.Spec{}, err
	}
	rows, err := s.load(ctx)
	if err != nil {
		return filter.Spec{}, err
	}
	return filter.Default(rows, s.schema), nil
}

// GetFiltered returns the rows matching spec in log order.
func (s *Service) GetFiltered(ctx context.Context, sess *auth.Session, spec filter.Spec) ([]visit.Event, error) {
	if err := auth.RequireSession(sess); err != nil {
		return nil, err
	}
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(rows, spec, s.schema), nil
}

// SaveEdits merges an edited view back into the log and rewrites it. The
// whole load-reconcile-write runs under the write lock, so a kiosk append
// cannot slip in between and be lost.
func (s *Service) SaveEdits(ctx context.Context, sess *auth.Session, req reconcile.Request) (*reconcile.Result, error) {
	if err := auth.RequireSession(sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.reconciler.Reconcile(rows, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.ReplaceAll(ctx, res.Rows); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("edits saved",
		"admin", sess.Username,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"issues", len(res.Issues),
	)
	for _, issue := range res.Issues {
		log.Debug("edit substituted", "issue", issue.String())
	}
	return res, nil
}

// Dashboard computes the report for the rows matching spec.
func (s *Service) Dashboard(ctx context.Context, sess *auth.Session, spec filter.Spec) (*stats.Report, error) {
	rows, err := s.GetFiltered(ctx, sess, spec)
	if err != nil {
		return nil, err
	}
	return stats.Generate(rows, s.schema), nil
}

// Export renders the rows matching spec as a workbook. A nil spec exports
// the full log, invalid rows included.
func (s *Service) Export(ctx context.Context, sess *auth.Session, spec *filter.Spec) ([]byte, error) {
	if err := auth.RequireSession(sess); err != nil {
		return nil, err
	}
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if spec != nil {
		rows = filter.Apply(rows, *spec, s.schema)
	}

	data, err := export.Workbook(rows, export.Meta{
		Site:        s.site,
		Filter:      spec,
		GeneratedAt: s.now(),
	}, s.schema)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	logger.FromContext(ctx).Info("export generated", "admin", sess.Username, "rows", len(rows), "bytes", len(data))
	return data, nil
}
