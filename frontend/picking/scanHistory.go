package picking

import "pickstation/models"

// DefaultHistoryCap is the batch screen's history length.
const DefaultHistoryCap = 10

// ScanHistory is a bounded most-recent-first log of scan attempts.
type ScanHistory struct {
	limit   int
	entries []models.ScanAttempt
}

func NewScanHistory(limit int) *ScanHistory {
	if limit <= 0 {
		limit = DefaultHistoryCap
	}
	return &ScanHistory{limit: limit, entries: make([]models.ScanAttempt, 0, limit+1)}
}

// Record inserts at the front and evicts the oldest entries past the cap.
func (h *ScanHistory) Record(a models.ScanAttempt) {
	h.entries = append(h.entries, models.ScanAttempt{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = a
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

// Entries returns a copy, newest first.
func (h *ScanHistory) Entries() []models.ScanAttempt {
	return append([]models.ScanAttempt(nil), h.entries...)
}

func (h *ScanHistory) Len() int {
	return len(h.entries)
}

func (h *ScanHistory) Limit() int {
	return h.limit
}
