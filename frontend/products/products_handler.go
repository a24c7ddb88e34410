package products

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "pickstation/frontend/shared/context"
	"pickstation/infrastructure/audit"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/timeutil"
)

const (
	entityProduct = "product"
	historyLimit  = 10
)

// User-facing texts of the product editor.
const (
	MsgBusy             = "Permintaan sebelumnya masih diproses."
	MsgEmptyBarcode     = "Barcode tidak boleh kosong."
	MsgBarcodesFailed   = "Gagal memuat barcode tambahan."
	MsgPhotoSaved       = "Foto berhasil diupload."
	MsgPhotoFailed      = "Gagal upload foto."
	MsgBarcodeAdded     = "Barcode berhasil ditambahkan."
	MsgBarcodeAddFailed = "Gagal menambah barcode."
	MsgBarcodeDeleted   = "Barcode berhasil dihapus."
	MsgBarcodeDelFailed = "Gagal menghapus barcode."
)

var mutations = newProductGates()

// ProductPageQueryHandler renders the editor of /products/{id}.
func ProductPageQueryHandler(client *fulfillment.Client, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseProductID(r)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}
		q := r.URL.Query()
		data := PageData{
			ProductID: id,
			PhotoURL:  strings.TrimSpace(q.Get("photo")),
			Notice:    strings.TrimSpace(q.Get("notice")),
			Error:     strings.TrimSpace(q.Get("error")),
		}

		barcodes, err := sessioncontext.BackendClient(r.Context(), client).ExtraBarcodes(r.Context(), id)
		if err != nil {
			slog.Error("load extra barcodes failed", slog.Int64("product_id", id), slog.Any("err", err))
			if data.Error == "" {
				data.Error = MsgBarcodesFailed
			}
		}
		data.ExtraBarcodes = barcodes

		if auditSvc != nil {
			logs, err := auditSvc.Recent(r.Context(), entityProduct, strconv.FormatInt(id, 10), historyLimit)
			if err != nil {
				slog.Error("load product history failed", slog.Int64("product_id", id), slog.Any("err", err))
			}
			for _, l := range logs {
				data.History = append(data.History, HistoryRow{
					Action:    l.Action,
					Detail:    firstNonEmpty(l.AfterJSON, l.BeforeJSON),
					CreatedAt: l.CreatedAt.In(timeutil.WIB).Format("02/01/2006 15:04"),
				})
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ProductPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render product page", http.StatusInternalServerError)
			return
		}
	}
}

// UploadPhotoCommandHandler compresses the uploaded photo and stores it on the backend.
func UploadPhotoCommandHandler(client *fulfillment.Client, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseProductID(r)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(1<<20))
		if err := r.ParseMultipartForm(maxPhotoBytes + (1 << 20)); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				redirectError(w, r, id, errPhotoTooBig.Error())
				return
			}
			redirectError(w, r, id, "invalid form")
			return
		}
		data, fileName, err := parsePhoto(r)
		if err != nil {
			redirectError(w, r, id, err.Error())
			return
		}
		compressed, err := compressPhoto(data)
		if err != nil {
			slog.Warn("photo compression failed", slog.Int64("product_id", id), slog.Any("err", err))
			msg := errPhotoNotImage.Error()
			if errors.Is(err, errPhotoPixels) {
				msg = errPhotoPixels.Error()
			}
			redirectError(w, r, id, msg)
			return
		}

		var (
			res    fulfillment.PhotoResult
			uplErr error
		)
		ran := mutations.Do(id, func() {
			res, uplErr = sessioncontext.BackendClient(r.Context(), client).UploadPhoto(r.Context(), id, jpegName(fileName), compressed)
		})
		if !ran {
			redirectError(w, r, id, MsgBusy)
			return
		}
		if uplErr != nil || !res.Success {
			slog.Error("photo upload failed", slog.Int64("product_id", id), slog.String("backend_error", res.Error), slog.Any("err", uplErr))
			redirectError(w, r, id, firstNonEmpty(res.Error, MsgPhotoFailed))
			return
		}

		if err := auditSvc.Record(r.Context(), audit.ActionPhotoUpload, entityProduct, strconv.FormatInt(id, 10), nil, map[string]any{
			"photo_url":      res.PhotoURL,
			"original_bytes": len(data),
			"stored_bytes":   len(compressed),
		}); err != nil {
			slog.Error("audit photo upload failed", slog.Int64("product_id", id), slog.Any("err", err))
		}
		slog.Info("photo uploaded", slog.Int64("product_id", id), slog.Int("original_bytes", len(data)), slog.Int("stored_bytes", len(compressed)))

		target := productPath(id) + "?notice=" + url.QueryEscape(MsgPhotoSaved)
		if res.PhotoURL != "" {
			target += "&photo=" + url.QueryEscape(res.PhotoURL)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// AddExtraBarcodeCommandHandler registers an alternate barcode for the product.
func AddExtraBarcodeCommandHandler(client *fulfillment.Client, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseProductID(r)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirectError(w, r, id, "invalid form")
			return
		}
		value := strings.TrimSpace(r.FormValue("barcode_value"))
		if value == "" {
			redirectError(w, r, id, MsgEmptyBarcode)
			return
		}

		var (
			res    fulfillment.MutationResult
			addErr error
		)
		ran := mutations.Do(id, func() {
			res, addErr = sessioncontext.BackendClient(r.Context(), client).AddExtraBarcode(r.Context(), id, value)
		})
		if !ran {
			redirectError(w, r, id, MsgBusy)
			return
		}
		if addErr != nil || !res.Success {
			slog.Error("add extra barcode failed", slog.Int64("product_id", id), slog.String("barcode", value), slog.String("backend_error", res.Error), slog.Any("err", addErr))
			redirectError(w, r, id, firstNonEmpty(res.Error, MsgBarcodeAddFailed))
			return
		}

		if err := auditSvc.Record(r.Context(), audit.ActionExtraBarcodeAdd, entityProduct, strconv.FormatInt(id, 10), nil, map[string]any{"barcode": value}); err != nil {
			slog.Error("audit extra barcode add failed", slog.Int64("product_id", id), slog.Any("err", err))
		}
		redirectNotice(w, r, id, firstNonEmpty(res.Message, MsgBarcodeAdded))
	}
}

// DeleteExtraBarcodeCommandHandler removes one alternate barcode.
func DeleteExtraBarcodeCommandHandler(client *fulfillment.Client, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseProductID(r)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}
		barcodeID, err := strconv.ParseInt(chi.URLParam(r, "barcodeID"), 10, 64)
		if err != nil || barcodeID <= 0 {
			http.Error(w, "invalid barcode id", http.StatusBadRequest)
			return
		}
		_ = r.ParseForm()
		value := strings.TrimSpace(r.FormValue("barcode"))

		var (
			res    fulfillment.MutationResult
			delErr error
		)
		ran := mutations.Do(id, func() {
			res, delErr = sessioncontext.BackendClient(r.Context(), client).DeleteExtraBarcode(r.Context(), barcodeID)
		})
		if !ran {
			redirectError(w, r, id, MsgBusy)
			return
		}
		if delErr != nil || !res.Success {
			slog.Error("delete extra barcode failed", slog.Int64("product_id", id), slog.Int64("barcode_id", barcodeID), slog.String("backend_error", res.Error), slog.Any("err", delErr))
			redirectError(w, r, id, firstNonEmpty(res.Error, MsgBarcodeDelFailed))
			return
		}

		before := map[string]any{"id": barcodeID, "barcode": value}
		if err := auditSvc.Record(r.Context(), audit.ActionExtraBarcodeDelete, entityProduct, strconv.FormatInt(id, 10), before, nil); err != nil {
			slog.Error("audit extra barcode delete failed", slog.Int64("product_id", id), slog.Any("err", err))
		}
		redirectNotice(w, r, id, firstNonEmpty(res.Message, MsgBarcodeDeleted))
	}
}

func parseProductID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

func redirectError(w http.ResponseWriter, r *http.Request, id int64, msg string) {
	http.Redirect(w, r, productPath(id)+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

func redirectNotice(w http.ResponseWriter, r *http.Request, id int64, msg string) {
	http.Redirect(w, r, productPath(id)+"?notice="+url.QueryEscape(msg), http.StatusSeeOther)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
