package nav

import (
	"strings"

	"github.com/a-h/templ"
)

// Link is one entry of the station top bar.
type Link struct {
	Label string
	Href  string
}

// TopNavData is shared with page renderers.
type TopNavData struct {
	Title string
	Links []Link
}

func BuildTopNavData(title string, links ...Link) TopNavData {
	return TopNavData{Title: title, Links: links}
}

// Render draws the top bar.
func (d TopNavData) Render() string {
	var b strings.Builder
	b.WriteString(`<header class="d-flex justify-content-between align-items-center mb-3"><h1 class="h4 m-0">`)
	b.WriteString(templ.EscapeString(d.Title))
	b.WriteString(`</h1>`)
	if len(d.Links) > 0 {
		b.WriteString(`<nav>`)
		for i, l := range d.Links {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(`<a class="btn btn-outline-light" href="`)
			b.WriteString(templ.EscapeString(l.Href))
			b.WriteString(`">`)
			b.WriteString(templ.EscapeString(l.Label))
			b.WriteString(`</a>`)
		}
		b.WriteString(`</nav>`)
	}
	b.WriteString(`</header>`)
	return b.String()
}
