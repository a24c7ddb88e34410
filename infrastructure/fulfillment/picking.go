package fulfillment

import (
	"context"

	"pickstation/models"
)

type barcodeRequest struct {
	Barcode string `json:"barcode"`
}

type manualRequest struct {
	Barcode        string `json:"barcode"`
	QuantityPicked int    `json:"jumlah_ambil"`
}

// UpdateBarcode submits one scanned barcode against a picklist.
func (c *Client) UpdateBarcode(ctx context.Context, picklist, barcode string) (models.ReconciliationResult, error) {
	var out models.ReconciliationResult
	err := c.postJSON(ctx, "update_barcode", picklistPath(picklist, "update_barcode/"), barcodeRequest{Barcode: barcode}, &out)
	return out, err
}

// UpdateManual sets the picked quantity of one line directly.
func (c *Client) UpdateManual(ctx context.Context, picklist, barcode string, quantityPicked int) (models.ReconciliationResult, error) {
	var out models.ReconciliationResult
	err := c.postJSON(ctx, "update_manual", picklistPath(picklist, "update_manual/"), manualRequest{Barcode: barcode, QuantityPicked: quantityPicked}, &out)
	return out, err
}
