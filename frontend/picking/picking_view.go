package picking

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	sharedhtml "pickstation/frontend/shared/html"
	"pickstation/frontend/shared/nav"
	"pickstation/models"
)

var esc = templ.EscapeString

// PageData is the initial projection of a picking screen.
type PageData struct {
	Picklist   string
	Variant    Variant
	Pending    []models.PickItem
	Completed  []models.PickItem
	Counts     map[string]int
	Filter     string
	Monitor    *Monitor
	History    []models.ScanAttempt
	SocketPath string
	LoadError  string
}

// PickingPage is the kiosk page. Every region is later re-rendered over the socket.
func PickingPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var body bytes.Buffer
		fmt.Fprintf(&body, `<main class="container-fluid picking" data-picklist="%s">`, esc(data.Picklist))
		base := "/picking/" + url.PathEscape(data.Picklist)
		body.WriteString(nav.BuildTopNavData("Batch Picking "+data.Picklist,
			nav.Link{Label: "Brands", Href: base + "/brands"},
			nav.Link{Label: "Export", Href: base + "/export?variant=" + url.QueryEscape(data.Variant.Name)},
			nav.Link{Label: "Pick Sheet", Href: base + "/pick-sheet.pdf"},
		).Render())
		body.WriteString(`<div id="loadError">`)
		if data.LoadError != "" {
			body.WriteString(renderString(ctx, FeedbackAlert(data.LoadError, "warning")))
		}
		body.WriteString(`</div>`)
		body.WriteString(`<section class="row"><div class="col-md-4">`)
		fmt.Fprintf(&body, `<div id="monitorCard" class="card">%s</div>`, renderString(ctx, MonitorCard(data.Monitor)))
		body.WriteString(`<div class="manual position-relative"><input id="manualSearch" class="form-control" autocomplete="off" placeholder="Cari SKU / barcode / nama produk">`)
		body.WriteString(`<div id="manualDropdown" class="list-group position-absolute w-100" style="display:none"></div>`)
		body.WriteString(`<div id="manualQtyControl" class="input-group mt-2" style="display:none"></div>`)
		body.WriteString(`<div id="manualFeedback"></div></div>`)
		fmt.Fprintf(&body, `<table class="table table-sm"><thead><tr><th>Waktu</th><th>Tipe</th><th>Barcode</th><th>Status</th></tr></thead><tbody id="%s">%s</tbody></table>`,
			esc(data.Variant.HistoryTarget), renderString(ctx, HistoryRows(data.History)))
		body.WriteString(`</div><div class="col-md-8">`)
		body.WriteString(`<input id="searchInput" class="form-control mb-2" autocomplete="off" placeholder="Filter item">`)
		fmt.Fprintf(&body, `<div id="pendingFilterButtons" class="btn-group mb-2">%s</div>`, renderString(ctx, FilterButtons(data.Counts, data.Filter)))
		fmt.Fprintf(&body, `<div id="%s" class="list-group">%s</div>`, esc(data.Variant.PendingTarget), renderString(ctx, ItemRows(data.Pending, nil)))
		body.WriteString(`<h2 class="mt-3">Completed</h2>`)
		fmt.Fprintf(&body, `<div id="%s" class="list-group">%s</div>`, esc(data.Variant.CompletedTarget), renderString(ctx, ItemRows(data.Completed, nil)))
		body.WriteString(`</div></section></main>`)
		body.WriteString(sharedhtml.IdleOverlay())
		body.WriteString(sharedhtml.KioskScript(data.SocketPath))

		_, err := io.WriteString(w, sharedhtml.RenderLayout("Picking "+data.Picklist, body.String()))
		return err
	})
}

// ItemRows renders the lines of one grouping. Highlighted barcodes get a flash class.
func ItemRows(items []models.PickItem, highlighted map[string]bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(items) == 0 {
			_, err := io.WriteString(w, `<div class="list-group-item text-muted empty">Tidak ada item.</div>`)
			return err
		}
		for _, it := range items {
			class, text := sharedhtml.StatusBadge(it.Status)
			rowClass := "list-group-item"
			if highlighted[it.Barcode] {
				rowClass += " row-highlight"
			}
			name := esc(it.ProductName)
			if it.ProductID > 0 {
				name = fmt.Sprintf(`<a class="product-name-link" href="/products/%d">%s</a>`, it.ProductID, name)
			} else {
				name = `<span class="product-name-link">` + name + `</span>`
			}
			if _, err := fmt.Fprintf(w, `<div class="%s" data-barcode="%s" data-status="%s"><span class="badge sku-badge">SKU: %s</span> %s <span class="variant-produk">%s</span> <span class="brand">%s</span> <span class="qty"><span class="jumlah-ambil">%d</span> / <span class="jumlah">%d</span></span> <span class="badge rounded-pill status-ambil %s">%s</span></div>`,
				rowClass, esc(it.Barcode), esc(it.Status), esc(it.SKU), name, esc(it.Variant), esc(it.Brand),
				it.QuantityPicked, it.QuantityRequired, class, text); err != nil {
				return err
			}
		}
		return nil
	})
}

var filterLabels = []struct{ filter, label string }{
	{models.StatusPending, "Pending"},
	{models.StatusPartial, "Partial"},
	{models.StatusOverStock, "Over Stock"},
	{models.StatusCompleted, "Completed"},
	{FilterAll, "All"},
}

// FilterButtons renders the status filter buttons with per-status counts.
func FilterButtons(counts map[string]int, active string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, f := range filterLabels {
			class := "btn btn-outline-light"
			if f.filter == active {
				class = "btn btn-light"
			}
			badge := ""
			if f.filter != FilterAll {
				badge = ` <span class="badge bg-secondary">` + strconv.Itoa(counts[f.filter]) + `</span>`
			}
			if _, err := fmt.Fprintf(w, `<button type="button" class="%s" data-filter="%s">%s%s</button>`, class, f.filter, f.label, badge); err != nil {
				return err
			}
		}
		return nil
	})
}

// HistoryRows renders the scan history, newest first.
func HistoryRows(entries []models.ScanAttempt) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, a := range entries {
			class, text := sharedhtml.OutcomeBadge(a.Outcome)
			if _, err := fmt.Fprintf(w, `<tr><td class="ps-3">%s</td><td><b>%s</b></td><td>%s</td><td><span class="badge %s">%s</span></td></tr>`,
				esc(a.Timestamp), a.SourceLetter(), esc(a.Barcode), class, text); err != nil {
				return err
			}
		}
		return nil
	})
}

// MonitorCard renders the last-scanned product card.
func MonitorCard(m *Monitor) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if m == nil {
			m = &Monitor{ProductName: "Belum ada scan", Progress: "0 / 0"}
		}
		_, err := fmt.Fprintf(w, `<div class="card-body"><h3 id="monitor-nama">%s</h3><div id="monitor-jumlah" class="display-6">%s</div><dl><dt>SKU</dt><dd id="monitor-sku">%s</dd><dt>Barcode</dt><dd id="monitor-barcode">%s</dd><dt>Brand</dt><dd id="monitor-brand">%s</dd><dt>Variant</dt><dd id="monitor-variant">%s</dd></dl></div>`,
			esc(m.ProductName), esc(m.Progress), esc(dashIfEmpty(m.SKU)), esc(dashIfEmpty(m.Barcode)), esc(dashIfEmpty(m.Brand)), esc(dashIfEmpty(m.Variant)))
		return err
	})
}

// LookupResults renders the manual search dropdown.
func LookupResults(results []models.PickItem, highlight int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for i, it := range results {
			class := "list-group-item list-group-item-action"
			if i == highlight {
				class += " active"
			}
			if _, err := fmt.Fprintf(w, `<button type="button" class="%s" data-index="%d"><b>%s</b> | %s <span class="text-info">%s</span></button>`,
				class, i, esc(it.SKU), esc(it.ProductName), esc(it.Variant)); err != nil {
				return err
			}
		}
		return nil
	})
}

// QuantityControl renders the quantity editor for the committed lookup selection.
func QuantityControl(item models.PickItem, value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span class="input-group-text">%s | %s</span><button type="button" id="qtyMinus" class="btn btn-outline-secondary">-</button><input id="manualQty" type="number" class="form-control" min="0" max="%d" value="%s"><button type="button" id="qtyPlus" class="btn btn-outline-secondary">+</button><button type="button" id="qtySubmit" class="btn btn-primary">Simpan</button>`,
			esc(item.SKU), esc(item.ProductName), item.QuantityRequired, esc(value))
		return err
	})
}

// FeedbackAlert renders inline manual feedback.
func FeedbackAlert(text, level string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if text == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<div class="alert alert-%s p-2">%s</div>`, esc(level), esc(text))
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

func dashIfEmpty(s string) string {
	if s == "" {
		return "---"
	}
	return s
}

// NewPageData projects freshly loaded rows for the first render of a page.
func NewPageData(picklist string, variant Variant, items []models.PickItem, socketPath string) PageData {
	list := NewPickList(items)
	data := PageData{
		Picklist:   picklist,
		Variant:    variant,
		Pending:    list.VisiblePending(FilterDefault, ""),
		Completed:  list.VisibleCompleted(""),
		Counts:     list.Counts(),
		Filter:     FilterDefault,
		SocketPath: socketPath,
	}
	if pending := list.Pending(); len(pending) > 0 {
		m := monitorFromItem(pending[0])
		data.Monitor = &m
	}
	return data
}
