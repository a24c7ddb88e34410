package picking

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "pickstation/frontend/shared/context"
	"pickstation/infrastructure/fulfillment"
)

// BrandsPageQueryHandler renders the brand order counts of a picklist.
func BrandsPageQueryHandler(client *fulfillment.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		picklist := strings.TrimSpace(chi.URLParam(r, "picklist"))
		if picklist == "" {
			http.Error(w, "invalid picklist", http.StatusBadRequest)
			return
		}
		backend := sessioncontext.BackendClient(r.Context(), client)

		data := BrandsPageData{Picklist: picklist}
		sat, err := backend.SatBrands(r.Context(), picklist)
		if err != nil {
			slog.Error("load sat brands failed", slog.String("picklist", picklist), slog.Any("err", err))
			data.Error = "Gagal memuat data brand."
		}
		all, err := backend.BrandData(r.Context(), picklist)
		if err != nil {
			slog.Error("load brand data failed", slog.String("picklist", picklist), slog.Any("err", err))
			data.Error = "Gagal memuat data brand."
		}
		data.SatBrands = sat
		data.AllBrands = all

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := BrandsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render brands page", http.StatusInternalServerError)
			return
		}
	}
}
