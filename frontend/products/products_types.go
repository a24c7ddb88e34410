package products

import (
	"sync"

	"pickstation/frontend/picking"
	"pickstation/infrastructure/fulfillment"
)

// PageData is the product editor projection.
type PageData struct {
	ProductID     int64
	PhotoURL      string
	ExtraBarcodes []fulfillment.ExtraBarcode
	History       []HistoryRow
	Notice        string
	Error         string
}

// HistoryRow is one audit entry shown under the editor.
type HistoryRow struct {
	Action    string
	Detail    string
	CreatedAt string
}

// productGates admits one mutation per product at a time, so a double click sends one request.
type productGates struct {
	mu    sync.Mutex
	gates map[int64]*picking.Gate
}

func newProductGates() *productGates {
	return &productGates{gates: make(map[int64]*picking.Gate)}
}

// Do runs fn unless another mutation of productID is running. It reports whether fn ran.
func (g *productGates) Do(productID int64, fn func()) bool {
	g.mu.Lock()
	gate, ok := g.gates[productID]
	if !ok {
		gate = &picking.Gate{}
		g.gates[productID] = gate
	}
	g.mu.Unlock()
	return gate.Do(fn)
}
