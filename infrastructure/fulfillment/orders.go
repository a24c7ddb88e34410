package fulfillment

import (
	"context"

	"pickstation/models"
)

// OrderLine is one row of the per-order pending/completed tables.
type OrderLine struct {
	SKU            string `json:"sku"`
	Barcode        string `json:"barcode"`
	ProductName    string `json:"nama_produk"`
	Variant        string `json:"variant_produk"`
	Brand          string `json:"brand"`
	Quantity       int    `json:"jumlah"`
	QuantityPicked int    `json:"jumlah_ambil"`
	Status         string `json:"status_ambil"`
}

// Item converts the wire row to a PickItem.
func (l OrderLine) Item() models.PickItem {
	return models.PickItem{
		SKU:              l.SKU,
		Barcode:          l.Barcode,
		ProductName:      l.ProductName,
		Variant:          l.Variant,
		Brand:            l.Brand,
		QuantityRequired: l.Quantity,
		QuantityPicked:   l.QuantityPicked,
		Status:           l.Status,
	}
}

// OrderScanResult is the per-order scan response. The tables are replaced wholesale.
type OrderScanResult struct {
	Success   bool        `json:"success"`
	SKU       string      `json:"sku"`
	Status    string      `json:"status_ambil"`
	Pending   []OrderLine `json:"pending_orders"`
	Completed []OrderLine `json:"completed_orders"`
	Error     string      `json:"error,omitempty"`
}

// ScanOrderBarcode submits a barcode against a single order.
func (c *Client) ScanOrderBarcode(ctx context.Context, orderID, barcode string) (OrderScanResult, error) {
	var out OrderScanResult
	err := c.postJSON(ctx, "scan_order_barcode", orderPath(orderID, "scan-barcode/"), barcodeRequest{Barcode: barcode}, &out)
	return out, err
}

// Items converts a slice of wire rows.
func Items(lines []OrderLine) []models.PickItem {
	out := make([]models.PickItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Item())
	}
	return out
}
