package fulfillment

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pickstation/models"
)

// OrderRows is the initial state of a per-order screen.
type OrderRows struct {
	Pending   []models.PickItem
	Completed []models.PickItem
}

// PicklistRows loads the lines of a batch picklist from the backend's picking page.
func (c *Client) PicklistRows(ctx context.Context, picklist string) ([]models.PickItem, error) {
	var items []models.PickItem
	err := c.getPage(ctx, "picklist_page", picklistPath(picklist, ""), func(r io.Reader) error {
		var err error
		items, err = ParsePicklistRows(r)
		return err
	})
	return items, err
}

// OrderRows loads the pending and completed lines of one order.
func (c *Client) OrderRows(ctx context.Context, orderID string) (OrderRows, error) {
	var rows OrderRows
	err := c.getPage(ctx, "order_page", orderPath(orderID, ""), func(r io.Reader) error {
		var err error
		rows, err = ParseOrderRows(r)
		return err
	})
	return rows, err
}

// ParsePicklistRows reads `.list-group-item[data-barcode]` rows in page order.
func ParsePicklistRows(r io.Reader) ([]models.PickItem, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	items := make([]models.PickItem, 0)
	doc.Find(".list-group-item[data-barcode]").Each(func(_ int, row *goquery.Selection) {
		barcode, _ := row.Attr("data-barcode")
		status, _ := row.Attr("data-status")
		productID, _ := row.Attr("data-product-id")
		items = append(items, models.PickItem{
			SKU:              strings.TrimSpace(strings.TrimPrefix(cellText(row, ".sku-badge"), "SKU:")),
			Barcode:          strings.TrimSpace(barcode),
			ProductName:      cellText(row, ".product-name-link"),
			Variant:          cellText(row, ".variant-produk"),
			Brand:            cellText(row, ".brand"),
			QuantityRequired: atoi(cellText(row, ".jumlah")),
			QuantityPicked:   atoi(cellText(row, ".jumlah-ambil")),
			Status:           NormalizeStatus(status),
			ProductID:        int64(atoi(productID)),
		})
	})
	return items, nil
}

// ParseOrderRows reads `tr[data-sku]` rows of the pending and completed tables.
// Cells are sku, barcode, name, variant, brand, required, picked, status.
func ParseOrderRows(r io.Reader) (OrderRows, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return OrderRows{}, err
	}
	read := func(selector, fallbackStatus string) []models.PickItem {
		items := make([]models.PickItem, 0)
		doc.Find(selector + " tr[data-sku]").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }
			sku, _ := row.Attr("data-sku")
			barcode, _ := row.Attr("data-barcode")
			if barcode == "" {
				barcode = text(1)
			}
			status := NormalizeStatus(text(7))
			if text(7) == "" {
				status = fallbackStatus
			}
			items = append(items, models.PickItem{
				SKU:              strings.TrimSpace(sku),
				Barcode:          strings.TrimSpace(barcode),
				ProductName:      text(2),
				Variant:          text(3),
				Brand:            text(4),
				QuantityRequired: atoi(text(5)),
				QuantityPicked:   atoi(text(6)),
				Status:           status,
			})
		})
		return items
	}
	return OrderRows{
		Pending:   read("#pendingTableBody", models.StatusPending),
		Completed: read("#completedTableBody", models.StatusCompleted),
	}, nil
}

// NormalizeStatus maps badge text or data attributes onto the four line statuses.
func NormalizeStatus(v string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", "_")) {
	case models.StatusPartial:
		return models.StatusPartial
	case models.StatusOverStock:
		return models.StatusOverStock
	case models.StatusCompleted:
		return models.StatusCompleted
	default:
		return models.StatusPending
	}
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}

func atoi(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}
