package orderscan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"pickstation/frontend/picking"
	sharedhtml "pickstation/frontend/shared/html"
	"pickstation/frontend/shared/nav"
	"pickstation/models"
)

var esc = templ.EscapeString

// PageData is the first render of a per-order page.
type PageData struct {
	OrderID    string
	Pending    []models.PickItem
	Completed  []models.PickItem
	SocketPath string
	LoadError  string
}

// OrderPage is the per-order kiosk page.
func OrderPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<main class="container-fluid orderscan" data-order="%s">`, esc(data.OrderID))
		b.WriteString(nav.BuildTopNavData("Scan Order "+data.OrderID, nav.Link{Label: "Order Lain", Href: EntryPath}).Render())
		b.WriteString(`<div id="loadError">`)
		if data.LoadError != "" {
			b.WriteString(renderString(ctx, picking.FeedbackAlert(data.LoadError, "warning")))
		}
		b.WriteString(`</div>`)
		fmt.Fprintf(&b, `<div id="%s"></div>`, FeedbackTarget)
		b.WriteString(`<h2 class="h5">Pending</h2>`)
		fmt.Fprintf(&b, `<table class="table table-sm">%s<tbody id="%s">%s</tbody></table>`, tableHead, PendingTarget, renderString(ctx, TableRows(data.Pending, EmptyPendingText)))
		b.WriteString(`<h2 class="h5">Completed</h2>`)
		fmt.Fprintf(&b, `<table class="table table-sm">%s<tbody id="%s">%s</tbody></table>`, tableHead, CompletedTarget, renderString(ctx, TableRows(data.Completed, EmptyCompletedText)))
		fmt.Fprintf(&b, `<h2 class="h6">Riwayat Scan</h2><table class="table table-sm"><thead><tr><th>Waktu</th><th>Tipe</th><th>Barcode</th><th>Status</th></tr></thead><tbody id="%s"></tbody></table>`, HistoryTarget)
		b.WriteString(`</main>`)
		b.WriteString(sharedhtml.IdleOverlay())
		b.WriteString(sharedhtml.KioskScript(data.SocketPath))

		_, err := io.WriteString(w, sharedhtml.RenderLayout("Scan Order "+data.OrderID, b.String()))
		return err
	})
}

const tableHead = `<thead><tr><th>SKU</th><th>Barcode</th><th>Nama Produk</th><th>Variant</th><th>Brand</th><th class="text-end">Jumlah</th><th class="text-end">Diambil</th><th class="text-center">Status</th></tr></thead>`

// TableRows renders one order table. An empty table shows a single spanning row.
func TableRows(items []models.PickItem, emptyText string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(items) == 0 {
			_, err := fmt.Fprintf(w, `<tr><td colspan="8" class="text-center text-muted">%s</td></tr>`, esc(emptyText))
			return err
		}
		for _, it := range items {
			class, text := sharedhtml.StatusBadge(it.Status)
			if _, err := fmt.Fprintf(w, `<tr data-sku="%s" data-barcode="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="jumlah text-end">%d</td><td class="jumlah-ambil text-end">%d</td><td class="status-ambil text-center"><span class="badge %s">%s</span></td></tr>`,
				esc(it.SKU), esc(it.Barcode), esc(it.SKU), esc(it.Barcode), esc(it.ProductName), esc(it.Variant), esc(it.Brand),
				it.QuantityRequired, it.QuantityPicked, class, esc(text)); err != nil {
				return err
			}
		}
		return nil
	})
}

// EntryPage asks for the order to scan.
func EntryPage(errText string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="container">`)
		b.WriteString(nav.BuildTopNavData("Scan Picking").Render())
		if errText != "" {
			b.WriteString(renderString(ctx, picking.FeedbackAlert(errText, "danger")))
		}
		b.WriteString(`<form method="get" action="/scanpicking/"><div class="input-group"><input id="orderIdInput" name="order" class="form-control" autocomplete="off" autofocus placeholder="Scan / ketik Order ID"><button class="btn btn-primary" type="submit">Buka</button></div></form>`)
		b.WriteString(`</main>`)
		_, err := io.WriteString(w, sharedhtml.RenderLayout("Scan Picking", b.String()))
		return err
	})
}

func renderString(ctx context.Context, c templ.Component) string {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return ""
	}
	return buf.String()
}
