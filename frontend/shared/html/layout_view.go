package html

import (
	"fmt"

	"github.com/a-h/templ"
)

// RenderLayout wraps body in the station page shell. Dialogs use SweetAlert2 like the backend's own pages.
func RenderLayout(title, body string) string {
	return fmt.Sprintf(`<!doctype html><html lang="id"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"><link rel="stylesheet" href="/assets/app.css"><script src="https://cdn.jsdelivr.net/npm/sweetalert2@11"></script></head><body class="bg-dark text-light">%s</body></html>`,
		templ.EscapeString(title), body)
}
