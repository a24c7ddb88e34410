package products

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	sharedhtml "pickstation/frontend/shared/html"
	"pickstation/frontend/shared/nav"
	"pickstation/infrastructure/audit"
)

var esc = templ.EscapeString

var actionLabels = map[string]string{
	audit.ActionPhotoUpload:        "Upload foto",
	audit.ActionExtraBarcodeAdd:    "Tambah barcode",
	audit.ActionExtraBarcodeDelete: "Hapus barcode",
}

// ProductPage is the photo and extra barcode editor.
func ProductPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := productPath(data.ProductID)
		title := fmt.Sprintf("Produk #%d", data.ProductID)

		var b strings.Builder
		b.WriteString(`<main class="container">`)
		b.WriteString(nav.BuildTopNavData(title).Render())
		if data.Notice != "" {
			fmt.Fprintf(&b, `<div class="alert alert-success">%s</div>`, esc(data.Notice))
		}
		if data.Error != "" {
			fmt.Fprintf(&b, `<div class="alert alert-danger">%s</div>`, esc(data.Error))
		}

		b.WriteString(`<section class="card mb-3"><div class="card-body"><h2 class="h5">Foto Produk</h2>`)
		if data.PhotoURL != "" {
			fmt.Fprintf(&b, `<img class="product-photo mb-2" src="%s" alt="foto produk">`, esc(data.PhotoURL))
		}
		fmt.Fprintf(&b, `<form method="post" action="%s/photo" enctype="multipart/form-data"><input type="file" name="photo" accept="image/*" class="form-control mb-2" required><button class="btn btn-primary" type="submit">Upload</button></form>`, base)
		b.WriteString(`<small class="text-muted">Maks 10MB. Foto diperkecil ke 800x800.</small></div></section>`)

		b.WriteString(`<section class="card mb-3"><div class="card-body"><h2 class="h5">Barcode Tambahan</h2>`)
		fmt.Fprintf(&b, `<form method="post" action="%s/barcodes" class="input-group mb-3"><input name="barcode_value" class="form-control" autocomplete="off" placeholder="Scan barcode baru"><button class="btn btn-primary" type="submit">Tambah</button></form>`, base)
		if len(data.ExtraBarcodes) == 0 {
			b.WriteString(`<p class="text-muted">Belum ada barcode tambahan.</p>`)
		} else {
			b.WriteString(`<table class="table table-sm"><tbody>`)
			for _, eb := range data.ExtraBarcodes {
				fmt.Fprintf(&b, `<tr><td>%s</td><td><img src="/barcodes/%s.png?w=320&h=80" alt="%s"></td><td><form method="post" action="%s/barcodes/%d/delete"><input type="hidden" name="barcode" value="%s"><button class="btn btn-sm btn-outline-danger" type="submit">Hapus</button></form></td></tr>`,
					esc(eb.Barcode), esc(url.PathEscape(eb.Barcode)), esc(eb.Barcode), base, eb.ID, esc(eb.Barcode))
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</div></section>`)

		if len(data.History) > 0 {
			b.WriteString(`<section><h2 class="h6">Riwayat</h2><table class="table table-sm"><tbody>`)
			for _, h := range data.History {
				label := actionLabels[h.Action]
				if label == "" {
					label = h.Action
				}
				fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td><code>%s</code></td></tr>`, esc(h.CreatedAt), esc(label), esc(h.Detail))
			}
			b.WriteString(`</tbody></table></section>`)
		}
		b.WriteString(`</main>`)
		b.WriteString(sharedhtml.CSRFFormScript())

		_, err := io.WriteString(w, sharedhtml.RenderLayout(title, b.String()))
		return err
	})
}
