package exports

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pickstation/frontend/picking"
	sessioncontext "pickstation/frontend/shared/context"
	"pickstation/infrastructure/audit"
	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/sqlite"
	"pickstation/models"
)

// ExportsPageQueryHandler lists the recent export runs of this station.
func ExportsPageQueryHandler(db *sqlite.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := LoadRecentRuns(r.Context(), db, 50)
		if err != nil {
			slog.Error("load export runs failed", slog.Any("err", err))
			http.Error(w, "failed to load export runs", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ExportsPage(PageData{StationID: cfg.Station.ID, Runs: toRunRows(runs)}).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render exports page", http.StatusInternalServerError)
			return
		}
	}
}

// PicklistExportHandler fetches the picklist spreadsheet from the backend and
// hands it to the operator. The variant's export mode decides the delivery:
// blob streams the workbook as an attachment, json redirects to the stored file.
func PicklistExportHandler(client *fulfillment.Client, db *sqlite.DB, auditSvc *audit.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		picklist := strings.TrimSpace(chi.URLParam(r, "picklist"))
		if picklist == "" {
			http.Error(w, "invalid picklist", http.StatusBadRequest)
			return
		}
		variant := picking.LookupVariant(r.URL.Query().Get("variant"), cfg)
		backend := sessioncontext.BackendClient(r.Context(), client)

		file, err := backend.Export(r.Context(), picklist, variant.ExportMode)
		if err != nil {
			slog.Error("export failed", slog.String("picklist", picklist), slog.Any("err", err))
			http.Error(w, "export failed", http.StatusBadGateway)
			return
		}

		run := &models.ExportRun{StationID: cfg.Station.ID, Picklist: picklist, Mode: variant.ExportMode}
		if variant.ExportMode == picking.ExportJSON {
			run.FileName = file.FilePath
			record(r, db, auditSvc, run)
			http.Redirect(w, r, backend.URL(file.FilePath), http.StatusSeeOther)
			return
		}

		run.FileName = file.FileName
		run.ByteSize = int64(len(file.Data))
		if rows, err := countWorkbookRows(file.Data); err != nil {
			slog.Warn("export workbook unreadable", slog.String("picklist", picklist), slog.Any("err", err))
		} else {
			run.RowCount = rows
		}
		slog.Info("export streamed", slog.String("picklist", picklist), slog.Int64("rows", run.RowCount), slog.Int64("bytes", run.ByteSize))

		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		w.Header().Set("X-Export-Rows", strconv.FormatInt(run.RowCount, 10))
		if _, err := w.Write(file.Data); err != nil {
			slog.Warn("export write interrupted", slog.String("picklist", picklist), slog.Any("err", err))
			return
		}
		record(r, db, auditSvc, run)
	}
}

func record(r *http.Request, db *sqlite.DB, auditSvc *audit.Service, run *models.ExportRun) {
	if err := recordExportRun(r.Context(), db, auditSvc, run); err != nil {
		slog.Error("record export run failed", slog.String("picklist", run.Picklist), slog.String("mode", run.Mode), slog.Any("err", err))
	}
}
