package picking

import (
	"errors"
	"strconv"
	"strings"

	"pickstation/models"
)

// ErrInvalidQuantity rejects a manual quantity that is not a non-negative integer.
var ErrInvalidQuantity = errors.New("picking: invalid quantity")

// InvalidQuantityMessage is the inline feedback for ErrInvalidQuantity.
const InvalidQuantityMessage = "Jumlah tidak valid."

// ManualLookup is the keyboard-driven search over pending lines used for manual corrections.
type ManualLookup struct {
	records   []models.PickItem
	query     string
	results   []models.PickItem
	highlight int

	selected *models.PickItem
	qtyText  string
}

func NewManualLookup(items []models.PickItem) *ManualLookup {
	m := &ManualLookup{highlight: -1}
	m.Build(items)
	return m
}

// Build snapshots the records to search. An active query is re-run against
// them and a committed selection picks up its fresh quantities.
func (m *ManualLookup) Build(items []models.PickItem) {
	m.records = append(m.records[:0], items...)
	if m.query != "" {
		m.results = m.match(m.query)
		if m.highlight >= len(m.results) {
			m.highlight = -1
		}
	}
	if m.selected != nil {
		for _, r := range m.records {
			if r.Barcode == m.selected.Barcode {
				fresh := r
				m.selected = &fresh
				break
			}
		}
	}
}

// Filter runs a new query. Results keep page order; an empty query hides the list.
func (m *ManualLookup) Filter(query string) []models.PickItem {
	m.query = strings.ToLower(strings.TrimSpace(query))
	m.highlight = -1
	if m.query == "" {
		m.results = nil
		return nil
	}
	m.results = m.match(m.query)
	return m.Results()
}

func (m *ManualLookup) match(query string) []models.PickItem {
	out := make([]models.PickItem, 0)
	for _, r := range m.records {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}

// Results is the visible result list.
func (m *ManualLookup) Results() []models.PickItem {
	return append([]models.PickItem(nil), m.results...)
}

// Showing reports whether the result list is visible.
func (m *ManualLookup) Showing() bool {
	return len(m.results) > 0
}

// Highlight is the highlighted result index, -1 for none.
func (m *ManualLookup) Highlight() int {
	return m.highlight
}

// Move cycles the highlight by delta, wrapping at both ends. With nothing
// highlighted, up lands on the last result. The older kiosk script computed
// (-1-1+n)%n there and landed on the second to last.
func (m *ManualLookup) Move(delta int) {
	n := len(m.results)
	if n == 0 {
		return
	}
	if m.highlight < 0 {
		if delta > 0 {
			m.highlight = 0
		} else {
			m.highlight = n - 1
		}
		return
	}
	m.highlight = ((m.highlight+delta)%n + n) % n
}

// ResultKey handles a key while the result list shows. It reports true when
// the key committed a selection.
func (m *ManualLookup) ResultKey(key string) bool {
	switch key {
	case "ArrowDown":
		m.Move(1)
	case "ArrowUp":
		m.Move(-1)
	case "Enter", "ArrowRight":
		if m.highlight > -1 {
			return m.Select(m.highlight)
		}
	}
	return false
}

// Select commits result index. The list closes and the quantity control opens
// pre-filled with the line's current picked quantity.
func (m *ManualLookup) Select(index int) bool {
	if index < 0 || index >= len(m.results) {
		return false
	}
	chosen := m.results[index]
	m.selected = &chosen
	m.qtyText = strconv.Itoa(chosen.QuantityPicked)
	m.results = nil
	m.highlight = -1
	return true
}

// Selected is the committed line.
func (m *ManualLookup) Selected() (models.PickItem, bool) {
	if m.selected == nil {
		return models.PickItem{}, false
	}
	return *m.selected, true
}

// Max is the quantity upper bound of the committed line.
func (m *ManualLookup) Max() int {
	if m.selected == nil {
		return 0
	}
	return m.selected.QuantityRequired
}

// QuantityText is the raw value of the quantity control.
func (m *ManualLookup) QuantityText() string {
	return m.qtyText
}

// SetQuantityText records what the operator typed into the quantity control.
func (m *ManualLookup) SetQuantityText(v string) {
	m.qtyText = strings.TrimSpace(v)
}

// Quantity parses the quantity control.
func (m *ManualLookup) Quantity() (int, error) {
	n, err := strconv.Atoi(m.qtyText)
	if err != nil || n < 0 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// QuantityKey handles Up/Down/Right/Left on the quantity control. It reports
// true for Enter, meaning the caller should submit.
func (m *ManualLookup) QuantityKey(key string) bool {
	if m.selected == nil {
		return false
	}
	current, err := m.Quantity()
	if err != nil {
		current = 0
	}
	max := m.Max()
	switch key {
	case "ArrowUp":
		current++
	case "ArrowDown":
		current--
	case "ArrowRight":
		current = max
	case "ArrowLeft":
		current = 0
	case "Enter":
		return true
	default:
		return false
	}
	if current > max {
		current = max
	}
	if current < 0 {
		current = 0
	}
	m.qtyText = strconv.Itoa(current)
	return false
}

// Cancel hides the list and the quantity control and forgets the query.
func (m *ManualLookup) Cancel() {
	m.query = ""
	m.results = nil
	m.highlight = -1
	m.selected = nil
	m.qtyText = ""
}
