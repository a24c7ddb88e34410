package fulfillment

import (
	"strings"
	"testing"

	"pickstation/models"
)

const picklistPage = `<html><body>
<div id="pendingItemsContainer">
  <div class="list-group-item" data-barcode="8991001" data-status="partial" data-product-id="42">
    <span class="sku-badge">SKU: A1</span>
    <a class="product-name-link">Green Tea</a>
    <span class="variant-produk">500ml</span>
    <span class="brand">Acme</span>
    <span class="jumlah-ambil">3</span> / <span class="jumlah">5</span>
  </div>
  <div class="list-group-item" data-barcode="8991002" data-status="completed">
    <span class="sku-badge">SKU: B2</span>
    <a class="product-name-link">Black Tea</a>
    <span class="jumlah-ambil">2</span> / <span class="jumlah">2</span>
  </div>
  <div class="list-group-item">header row without barcode</div>
</div>
</body></html>`

func TestParsePicklistRows(t *testing.T) {
	items, err := ParsePicklistRows(strings.NewReader(picklistPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(items))
	}
	first := items[0]
	if first.SKU != "A1" || first.Barcode != "8991001" || first.ProductName != "Green Tea" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if first.QuantityPicked != 3 || first.QuantityRequired != 5 || first.Status != models.StatusPartial {
		t.Fatalf("unexpected quantities %+v", first)
	}
	if first.ProductID != 42 || first.Variant != "500ml" || first.Brand != "Acme" {
		t.Fatalf("unexpected attrs %+v", first)
	}
	if items[1].Status != models.StatusCompleted || items[1].Variant != "" {
		t.Fatalf("unexpected second row %+v", items[1])
	}
}

const orderPage = `<table><tbody id="pendingTableBody">
<tr data-sku="A1" data-barcode="111"><td>A1</td><td>111</td><td>Tea</td><td>Hot</td><td>Acme</td><td>4</td><td>1</td><td><span class="badge">Partial</span></td></tr>
</tbody></table>
<table><tbody id="completedTableBody">
<tr><td colspan="8">Tidak ada data completed.</td></tr>
</tbody></table>`

func TestParseOrderRows(t *testing.T) {
	rows, err := ParseOrderRows(strings.NewReader(orderPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows.Pending) != 1 || len(rows.Completed) != 0 {
		t.Fatalf("unexpected row counts %+v", rows)
	}
	got := rows.Pending[0]
	if got.SKU != "A1" || got.QuantityRequired != 4 || got.QuantityPicked != 1 || got.Status != models.StatusPartial {
		t.Fatalf("unexpected row %+v", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"Over Stock": models.StatusOverStock,
		"completed":  models.StatusCompleted,
		" Partial ":  models.StatusPartial,
		"":           models.StatusPending,
		"weird":      models.StatusPending,
	}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
