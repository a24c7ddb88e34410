package exports

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	sharedhtml "pickstation/frontend/shared/html"
	"pickstation/frontend/shared/nav"
)

func ExportsPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="container">`)
		b.WriteString(nav.BuildTopNavData("Exports " + data.StationID).Render())
		b.WriteString(`<table class="table table-dark table-sm"><thead><tr><th>Waktu</th><th>Picklist</th><th>Mode</th><th>File</th><th>Baris</th><th>Ukuran</th></tr></thead><tbody>`)
		if len(data.Runs) == 0 {
			b.WriteString(`<tr><td colspan="6" class="text-muted">Belum ada export.</td></tr>`)
		}
		for _, run := range data.Runs {
			fmt.Fprintf(&b, `<tr><td>%s</td><td><a href="/picking/%s">%s</a></td><td>%s</td><td>%s</td><td>%d</td><td>%d</td></tr>`,
				templ.EscapeString(run.CreatedAt),
				url.PathEscape(run.Picklist), templ.EscapeString(run.Picklist),
				templ.EscapeString(run.Mode), templ.EscapeString(run.FileName),
				run.RowCount, run.ByteSize)
		}
		b.WriteString(`</tbody></table></main>`)
		_, err := io.WriteString(w, sharedhtml.RenderLayout("Exports", b.String()))
		return err
	})
}
