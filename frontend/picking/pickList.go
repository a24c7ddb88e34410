package picking

import (
	"strings"

	"pickstation/models"
)

// Status filters offered by the filter buttons.
const (
	FilterAll = "all"
	// FilterDefault is the filter a screen opens with.
	FilterDefault = models.StatusPending
)

// Relocation describes how Update moved a row between groupings.
type Relocation int

const (
	Stayed Relocation = iota
	ToCompleted
	ToPending
)

type row struct {
	item        models.PickItem
	pos         int
	completed   bool
	highlighted bool
}

// PickList is the authoritative mirror of a picklist's lines. The page is a
// projection of it. Rows are never removed, only moved between the pending
// grouping (page order) and the completed grouping (most recently completed first).
type PickList struct {
	rows      []*row
	completed []*row
}

func NewPickList(items []models.PickItem) *PickList {
	l := &PickList{rows: make([]*row, 0, len(items))}
	for i, it := range items {
		r := &row{item: it, pos: i, completed: it.Completed()}
		l.rows = append(l.rows, r)
		if r.completed {
			l.completed = append(l.completed, r)
		}
	}
	return l
}

// Len is the number of lines.
func (l *PickList) Len() int {
	return len(l.rows)
}

// Items returns every line in page order.
func (l *PickList) Items() []models.PickItem {
	out := make([]models.PickItem, 0, len(l.rows))
	for _, r := range l.rows {
		out = append(out, r.item)
	}
	return out
}

// Pending returns the pending grouping in page order.
func (l *PickList) Pending() []models.PickItem {
	out := make([]models.PickItem, 0, len(l.rows))
	for _, r := range l.rows {
		if !r.completed {
			out = append(out, r.item)
		}
	}
	return out
}

// Completed returns the completed grouping, most recently completed first.
func (l *PickList) Completed() []models.PickItem {
	out := make([]models.PickItem, 0, len(l.completed))
	for _, r := range l.completed {
		out = append(out, r.item)
	}
	return out
}

// Find returns the first line carrying barcode. Duplicate barcodes resolve to page order.
func (l *PickList) Find(barcode string) (models.PickItem, bool) {
	if r := l.find(barcode); r != nil {
		return r.item, true
	}
	return models.PickItem{}, false
}

func (l *PickList) find(barcode string) *row {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil
	}
	for _, r := range l.rows {
		if r.item.Barcode == barcode {
			return r
		}
	}
	return nil
}

// Update applies a server state to the line with barcode. It reports the updated
// line, whether it was found and how it moved. A line enters the completed
// grouping exactly once per transition.
func (l *PickList) Update(barcode string, picked int, status string) (models.PickItem, Relocation, bool) {
	r := l.find(barcode)
	if r == nil {
		return models.PickItem{}, Stayed, false
	}
	r.item.QuantityPicked = picked
	if status != "" {
		r.item.Status = status
	}

	move := Stayed
	switch {
	case r.item.Completed() && !r.completed:
		r.completed = true
		l.completed = append([]*row{r}, l.completed...)
		move = ToCompleted
	case !r.item.Completed() && r.completed:
		r.completed = false
		r.highlighted = false
		for i, c := range l.completed {
			if c == r {
				l.completed = append(l.completed[:i], l.completed[i+1:]...)
				break
			}
		}
		move = ToPending
	}
	return r.item, move, true
}

// SetHighlight marks or clears the transient highlight on a line.
func (l *PickList) SetHighlight(barcode string, on bool) {
	if r := l.find(barcode); r != nil {
		r.highlighted = on
	}
}

// Highlighted reports whether the line with barcode carries the highlight.
func (l *PickList) Highlighted(barcode string) bool {
	r := l.find(barcode)
	return r != nil && r.highlighted
}

// HighlightedBarcodes returns the barcodes currently highlighted.
func (l *PickList) HighlightedBarcodes() map[string]bool {
	out := make(map[string]bool)
	for _, r := range l.rows {
		if r.highlighted {
			out[r.item.Barcode] = true
		}
	}
	return out
}

// Counts returns the number of lines per status across both groupings.
func (l *PickList) Counts() map[string]int {
	counts := make(map[string]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, r := range l.rows {
		if _, ok := counts[r.item.Status]; ok {
			counts[r.item.Status]++
		}
	}
	return counts
}

// VisiblePending applies the status filter and text query to the pending grouping.
func (l *PickList) VisiblePending(filter, query string) []models.PickItem {
	out := make([]models.PickItem, 0)
	for _, it := range l.Pending() {
		if statusMatches(filter, it.Status) && it.Matches(query) {
			out = append(out, it)
		}
	}
	return out
}

// VisibleCompleted applies the text query to the completed grouping.
func (l *PickList) VisibleCompleted(query string) []models.PickItem {
	out := make([]models.PickItem, 0)
	for _, it := range l.Completed() {
		if it.Matches(query) {
			out = append(out, it)
		}
	}
	return out
}

// NormalizeFilter maps unknown filter names to the default.
func NormalizeFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == FilterAll {
		return filter
	}
	for _, s := range models.Statuses {
		if s == filter {
			return filter
		}
	}
	return FilterDefault
}

func statusMatches(filter, status string) bool {
	return filter == FilterAll || filter == status
}
