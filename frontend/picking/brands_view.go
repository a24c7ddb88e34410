package picking

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	sharedhtml "pickstation/frontend/shared/html"
	"pickstation/frontend/shared/nav"
	"pickstation/infrastructure/fulfillment"
)

type BrandsPageData struct {
	Picklist  string
	SatBrands []fulfillment.BrandCount
	AllBrands []fulfillment.BrandCount
	Error     string
}

func BrandsPage(data BrandsPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="container">`)
		b.WriteString(nav.BuildTopNavData("Brands "+data.Picklist,
			nav.Link{Label: "Kembali", Href: "/picking/" + url.PathEscape(data.Picklist)},
		).Render())
		if data.Error != "" {
			b.WriteString(renderString(ctx, FeedbackAlert(data.Error, "warning")))
		}
		b.WriteString(`<div class="row"><div class="col-md-6"><h2 class="h5">Brand SAT</h2>`)
		b.WriteString(renderString(ctx, BrandTable(data.SatBrands)))
		b.WriteString(`</div><div class="col-md-6"><h2 class="h5">Semua Brand</h2>`)
		b.WriteString(renderString(ctx, BrandTable(data.AllBrands)))
		b.WriteString(`</div></div></main>`)
		_, err := io.WriteString(w, sharedhtml.RenderLayout("Brands "+data.Picklist, b.String()))
		return err
	})
}

// BrandTable renders brand order counts.
func BrandTable(brands []fulfillment.BrandCount) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table class="table table-dark table-sm"><thead><tr><th>Brand</th><th class="text-end">Total Order</th></tr></thead><tbody>`); err != nil {
			return err
		}
		if len(brands) == 0 {
			if _, err := io.WriteString(w, `<tr><td colspan="2" class="text-muted">Tidak ada data.</td></tr>`); err != nil {
				return err
			}
		}
		for _, br := range brands {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td class="text-end">%d</td></tr>`, esc(br.Brand), br.TotalOrders); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}
