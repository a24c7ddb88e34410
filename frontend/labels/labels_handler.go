package labels

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	sessioncontext "pickstation/frontend/shared/context"
	"pickstation/infrastructure/fulfillment"
	"pickstation/models"
)

const maxBarcodeLen = 80

// BarcodePNGQueryHandler serves a Code128 preview for /barcodes/{value}.png.
func BarcodePNGQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := url.PathUnescape(chi.URLParam(r, "value"))
		value = strings.TrimSpace(value)
		if err != nil || value == "" || len(value) > maxBarcodeLen {
			http.Error(w, "invalid barcode value", http.StatusBadRequest)
			return
		}
		width := queryInt(r, "w", 600, 100, 2000)
		height := queryInt(r, "h", 160, 40, 600)

		png, err := renderCode128PNG(value, width, height)
		if err != nil {
			http.Error(w, "cannot encode barcode", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(png)
	}
}

// PickSheetPDFQueryHandler renders the open lines of a picklist as a printable sheet.
func PickSheetPDFQueryHandler(client *fulfillment.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		picklist := strings.TrimSpace(chi.URLParam(r, "picklist"))
		if picklist == "" {
			http.Error(w, "invalid picklist", http.StatusBadRequest)
			return
		}

		items, err := sessioncontext.BackendClient(r.Context(), client).PicklistRows(r.Context(), picklist)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, fulfillment.ErrUnavailable) {
				status = http.StatusServiceUnavailable
			}
			slog.Error("load picklist rows failed", slog.String("picklist", picklist), slog.Any("err", err))
			http.Error(w, "failed to load picklist", status)
			return
		}
		open := make([]models.PickItem, 0, len(items))
		for _, it := range items {
			if !it.Completed() {
				open = append(open, it)
			}
		}
		if len(open) == 0 {
			http.Error(w, "no open lines", http.StatusNotFound)
			return
		}

		pdfBytes, err := RenderPickSheetPDF(picklist, open, time.Now())
		if err != nil {
			slog.Error("render pick sheet failed", slog.String("picklist", picklist), slog.Any("err", err))
			http.Error(w, "failed to build pick sheet", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=picklist-%s.pdf", url.PathEscape(picklist)))
		_, _ = w.Write(pdfBytes)
	}
}

func queryInt(r *http.Request, key string, def, min, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
