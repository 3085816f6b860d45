// Package reconcile tracks optimistic cart edits per line item.
//
// Every line carries a tagged state: Synced (matches the last server read),
// Pending (a local edit is in flight) or Failed (the last edit was rejected
// and the previous value restored). All functions are pure: they take a Line
// and return the next Line, so rollback is derived from the state alone.
//
// Each Begin* call bumps Seq. Commit and Rollback only apply when the caller's
// seq still matches, so a late response for an older edit cannot overwrite a
// newer one on the same line.
package reconcile

import "storefront/internal/model"

// Status is the sync state of one line.
type Status int

const (
	Synced Status = iota
	Pending
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	default:
		return "synced"
	}
}

// Line is the displayed state of one cart line.
type Line struct {
	Item    model.LineItem
	Status  Status
	Removed bool // hidden pending a delete call
	Seq     uint64
	Err     error

	prev *model.LineItem
}

// FromItems wraps server line items as Synced lines.
func FromItems(items []model.LineItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{Item: it})
	}
	return lines
}

// BeginQuantity shows qty immediately and remembers the value to restore.
func BeginQuantity(l Line, qty int) Line {
	prev := l.Item
	l.prev = &prev
	l.Item.Quantity = qty
	l.Status = Pending
	l.Err = nil
	l.Seq++
	return l
}

// BeginRemoval hides the line until the delete call settles.
func BeginRemoval(l Line) Line {
	prev := l.Item
	l.prev = &prev
	l.Removed = true
	l.Status = Pending
	l.Err = nil
	l.Seq++
	return l
}

// Commit marks the edit identified by seq as accepted. The second result is
// false when the line should be dropped (a confirmed removal).
func Commit(l Line, seq uint64) (Line, bool) {
	if l.Seq != seq {
		return l, true
	}
	if l.Removed {
		return l, false
	}
	l.Status = Synced
	l.prev = nil
	return l, true
}

// Rollback restores the value from before the edit identified by seq and
// records err.
func Rollback(l Line, seq uint64, err error) Line {
	if l.Seq != seq {
		return l
	}
	if l.prev != nil {
		l.Item = *l.prev
	}
	l.prev = nil
	l.Removed = false
	l.Status = Failed
	l.Err = err
	return l
}

// Settle merges a fresh server read into the local lines. Server lines win,
// in server order, except lines with an edit still in flight, which keep
// their optimistic value. Failed lines keep their error until the next edit
// so the caller can still surface it.
func Settle(local []Line, server []model.LineItem) []Line {
	byID := make(map[string]Line, len(local))
	for _, l := range local {
		byID[l.Item.ID] = l
	}

	out := make([]Line, 0, len(server))
	for _, it := range server {
		l, ok := byID[it.ID]
		switch {
		case !ok:
			out = append(out, Line{Item: it})
		case l.Status == Pending:
			out = append(out, l)
		case l.Status == Failed:
			out = append(out, Line{Item: it, Status: Failed, Err: l.Err, Seq: l.Seq})
		default:
			out = append(out, Line{Item: it, Seq: l.Seq})
		}
	}
	return out
}

// Visible returns the line items to display, skipping hidden removals.
func Visible(lines []Line) []model.LineItem {
	items := make([]model.LineItem, 0, len(lines))
	for _, l := range lines {
		if !l.Removed {
			items = append(items, l.Item)
		}
	}
	return items
}
