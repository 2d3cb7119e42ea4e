// Package reconcile merges an administrator's edits of a filtered view back
// into the full visit log.
//
// Rows are matched by ID, never by position. Rows outside the view are
// carried over untouched; rows of the view that the editor removed are
// dropped; new rows are appended at the end of the log.
package reconcile

import (
	"fmt"
	"time"

	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/visit"
)

// EditedRow is one row as returned by the editor. Date and hour cells are
// raw text so that bad input can be reported instead of rejected.
type EditedRow struct {
	ID         string `json:"id"`
	Year       string `json:"year"`
	Month      string `json:"month"`
	Day        string `json:"day"`
	Hour       string `json:"hour"`
	Gender     string `json:"gender"`
	AgeBracket string `json:"age_bracket"`
	Purpose    string `json:"purpose"`
	Location   string `json:"location,omitempty"`
}

// Request is one save from the editor. Baseline lists the IDs the editor
// was shown; view rows that are absent from both Rows and Baseline were
// added after the editor loaded and are kept. A nil Baseline means the
// editor saw the whole current view.
type Request struct {
	Filter   filter.Spec `json:"filter"`
	Rows     []EditedRow `json:"rows"`
	Baseline []string    `json:"baseline,omitempty"`
}

// Issue records one cell that could not be used as typed and the value
// that was substituted for it.
type Issue struct {
	RowID       string `json:"row_id"`
	Row         int    `json:"row"`
	Field       string `json:"field"`
	Value       string `json:"value"`
	Substituted string `json:"substituted"`
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d (%s): %s %q replaced with %q", i.Row+1, i.RowID, i.Field, i.Value, i.Substituted)
}

// Result is the new full log plus what happened to it.
type Result struct {
	Rows     []visit.Event `json:"-"`
	Issues   []Issue       `json:"issues"`
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Deleted  int           `json:"deleted"`
}

// ConflictError aborts a save whose edits no longer line up with the log.
type ConflictError struct {
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("edit conflict on row %s: %s", e.ID, e.Reason)
}

// Reconciler holds the schema and the hooks used for new rows.
type Reconciler struct {
	Schema visit.Schema
	Now    func() time.Time
	NewID  func() string
}

// New returns a Reconciler for schema using wall-clock time and random IDs.
func New(schema visit.Schema) *Reconciler {
	return &Reconciler{
		Schema: schema,
		Now:    func() time.Time { return visit.Wall(time.Now()) },
		NewID:  visit.NewID,
	}
}

// Reconcile applies req to full and returns the new full log. full is not
// modified. A *ConflictError is returned when an edited row refers to a
// row outside the current view or the same ID appears twice.
func (r *Reconciler) Reconcile(full []visit.Event, req Request) (*Result, error) {
	view, _ := filter.Partition(full, req.Filter, r.Schema)
	inView := make(map[string]bool, len(view))
	for _, e := range view {
		inView[e.ID] = true
	}

	edited := make(map[string]int, len(req.Rows))
	for i, row := range req.Rows {
		if row.ID == "" {
			continue
		}
		if _, dup := edited[row.ID]; dup {
			return nil, &ConflictError{ID: row.ID, Reason: "appears more than once"}
		}
		if !inView[row.ID] {
			return nil, &ConflictError{ID: row.ID, Reason: "no longer in the filtered view"}
		}
		edited[row.ID] = i
	}

	baseline := inView
	if req.Baseline != nil {
		baseline = make(map[string]bool, len(req.Baseline))
		for _, id := range req.Baseline {
			baseline[id] = true
		}
	}

	res := &Result{Rows: make([]visit.Event, 0, len(full)+len(req.Rows))}
	for _, e := range full {
		if !inView[e.ID] {
			res.Rows = append(res.Rows, e)
			continue
		}
		if i, ok := edited[e.ID]; ok {
			orig := e
			next := r.coerce(req.Rows[i], i, &orig, req.Filter, res)
			if !sameEvent(next, orig) {
				res.Updated++
			}
			res.Rows = append(res.Rows, next)
			continue
		}
		if baseline[e.ID] {
			res.Deleted++
			continue
		}
		res.Rows = append(res.Rows, e)
	}

	for i, row := range req.Rows {
		if row.ID != "" {
			continue
		}
		res.Rows = append(res.Rows, r.coerce(row, i, nil, req.Filter, res))
		res.Inserted++
	}

	return res, nil
}
