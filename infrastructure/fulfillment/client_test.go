package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", CSRFToken: "tok-123", SessionCookie: "sess-9"})
}

func TestUpdateBarcode_SendsTokenAndDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/fullfilment/batchpicking/BATCH-01/update_barcode/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-CSRFToken"); got != "tok-123" {
			t.Errorf("expected csrf header, got %q", got)
		}
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != "sess-9" {
			t.Errorf("expected session cookie, got %v %v", c, err)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["barcode"] != "8991001" {
			t.Errorf("expected barcode in body, got %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"jumlah_ambil":5,"status_ambil":"completed","completed":true,"server_time":"10.11.12","product_info":{"barcode":"8991001","nama_produk":"Tea"}}`)
	})

	res, err := client.UpdateBarcode(context.Background(), "BATCH-01", "8991001")
	if err != nil {
		t.Fatalf("update barcode: %v", err)
	}
	if !res.Success || !res.Completed || res.QuantityPicked != 5 || res.Status != "completed" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Product == nil || res.Product.ProductName != "Tea" {
		t.Fatalf("expected product info, got %+v", res.Product)
	}
	if res.ServerTime != "10.11.12" {
		t.Fatalf("expected server time, got %q", res.ServerTime)
	}
}

func TestUpdateManual_DecodesValidationErrorOn400(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["jumlah_ambil"] != float64(7) {
			t.Errorf("expected jumlah_ambil 7, got %v", body["jumlah_ambil"])
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":"Jumlah melebihi kebutuhan"}`)
	})

	res, err := client.UpdateManual(context.Background(), "B", "X1", 7)
	if err != nil {
		t.Fatalf("expected JSON error body to decode, got %v", err)
	}
	if res.Success || res.Error != "Jumlah melebihi kebutuhan" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpdateBarcode_NonJSONIsUnexpected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>Server Error</html>")
	})

	_, err := client.UpdateBarcode(context.Background(), "B", "X1")
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}

func TestScanOrderBarcode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fullfilment/scanpicking/ORD-9/scan-barcode/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"success":true,"sku":"A1","status_ambil":"completed","pending_orders":[],"completed_orders":[{"sku":"A1","barcode":"111","jumlah":2,"jumlah_ambil":2,"status_ambil":"completed"}]}`)
	})

	res, err := client.ScanOrderBarcode(context.Background(), "ORD-9", "111")
	if err != nil {
		t.Fatalf("scan order: %v", err)
	}
	if len(res.Pending) != 0 || len(res.Completed) != 1 {
		t.Fatalf("unexpected tables %+v", res)
	}
	item := res.Completed[0].Item()
	if item.QuantityRequired != 2 || item.Status != "completed" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestBrands(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("nama_batch") != "B 1" {
			t.Errorf("expected nama_batch query, got %q", r.URL.RawQuery)
		}
		switch r.URL.Path {
		case "/fullfilment/get_sat_brands/":
			_, _ = io.WriteString(w, `{"success":true,"brands":[{"brand":"Acme","totalOrders":3}]}`)
		default:
			_, _ = io.WriteString(w, `{"success":false,"error":"batch not found"}`)
		}
	})

	brands, err := client.SatBrands(context.Background(), "B 1")
	if err != nil {
		t.Fatalf("sat brands: %v", err)
	}
	if len(brands) != 1 || brands[0].Brand != "Acme" || brands[0].TotalOrders != 3 {
		t.Fatalf("unexpected brands %+v", brands)
	}
	if _, err := client.BrandData(context.Background(), "B 1"); err == nil || !strings.Contains(err.Error(), "batch not found") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLookupBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		if _, err := client.SatBrands(context.Background(), "B"); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}
	_, err := client.SatBrands(context.Background(), "B")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once breaker is open, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("expected breaker to stop requests at 5, got %d", got)
	}
}

func exportClient(t *testing.T, jsonMode bool) *Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/fullfilment/batchpicking/B7/export/" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		if jsonMode {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"success":true,"file_path":"/media/exports/B7.xlsx"}`)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="B7-picklist.xlsx"`)
		_, _ = w.Write([]byte("PK-fake"))
	})
}

func TestExport_BlobMode(t *testing.T) {
	file, err := exportClient(t, false).Export(context.Background(), "B7", ExportModeBlob)
	if err != nil {
		t.Fatalf("blob export: %v", err)
	}
	if file.FileName != "B7-picklist.xlsx" || string(file.Data) != "PK-fake" || file.FilePath != "" {
		t.Fatalf("unexpected blob export %+v", file)
	}
}

func TestExport_JSONMode(t *testing.T) {
	file, err := exportClient(t, true).Export(context.Background(), "B7", ExportModeJSON)
	if err != nil {
		t.Fatalf("json export: %v", err)
	}
	if file.FilePath != "/media/exports/B7.xlsx" || file.Data != nil {
		t.Fatalf("unexpected json export %+v", file)
	}
}

func TestExport_ModeDecidesHowTheBodyIsRead(t *testing.T) {
	if _, err := exportClient(t, false).Export(context.Background(), "B7", ExportModeJSON); !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("workbook in json mode should be rejected, got %v", err)
	}
	if _, err := exportClient(t, true).Export(context.Background(), "B7", ExportModeBlob); !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("file_path answer in blob mode should be rejected, got %v", err)
	}
}

func TestExport_BlobModeSurfacesBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":false,"error":"batch locked"}`)
	})
	_, err := client.Export(context.Background(), "B7", ExportModeBlob)
	if err == nil || !strings.Contains(err.Error(), "batch locked") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestExport_EscapesPicklist(t *testing.T) {
	var got string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("PK"))
	})
	if _, err := client.Export(context.Background(), "B/7?x#y", ExportModeBlob); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got != "/fullfilment/batchpicking/B%2F7%3Fx%23y/export/" {
		t.Fatalf("picklist not escaped into one segment: %q", got)
	}
}

func TestExtraBarcodeCommands(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/api/extra-barcodes/42/":
			_, _ = io.WriteString(w, `{"success":true,"extra_barcodes":[{"id":1,"barcode":"A"},{"id":2,"barcode":"B"}]}`)
		case "/products/api/add-extra-barcode/":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["product_id"] != float64(42) || body["barcode_value"] != "C" {
				t.Errorf("unexpected add body %v", body)
			}
			_, _ = io.WriteString(w, `{"success":true,"message":"added"}`)
		case "/products/api/delete-extra-barcode/2/":
			_, _ = io.WriteString(w, `{"success":true,"message":"deleted"}`)
		case "/products/api/upload-photo/42/":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if _, _, err := r.FormFile("photo"); err != nil {
				t.Errorf("expected photo field: %v", err)
			}
			_, _ = io.WriteString(w, `{"success":true,"photo_url":"/media/p/42.jpg"}`)
		default:
			http.NotFound(w, r)
		}
	})

	list, err := client.ExtraBarcodes(context.Background(), 42)
	if err != nil || len(list) != 2 {
		t.Fatalf("extra barcodes: %v %+v", err, list)
	}
	if res, err := client.AddExtraBarcode(context.Background(), 42, "C"); err != nil || !res.Success {
		t.Fatalf("add extra barcode: %v %+v", err, res)
	}
	if res, err := client.DeleteExtraBarcode(context.Background(), 2); err != nil || res.Message != "deleted" {
		t.Fatalf("delete extra barcode: %v %+v", err, res)
	}
	if res, err := client.UploadPhoto(context.Background(), 42, "photo.jpg", []byte{0xff, 0xd8, 0xff}); err != nil || res.PhotoURL != "/media/p/42.jpg" {
		t.Fatalf("upload photo: %v %+v", err, res)
	}
}

func TestWithCSRFTokenOverridesHeaderOnly(t *testing.T) {
	var got atomic.Value
	base := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-CSRFToken"))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	kiosk := base.WithCSRFToken("kiosk-tok")
	if _, err := kiosk.UpdateBarcode(context.Background(), "B", "1"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Load() != "kiosk-tok" {
		t.Fatalf("expected kiosk token, got %v", got.Load())
	}
	if base.CSRFToken() != "tok-123" {
		t.Fatalf("base client must keep its token")
	}
	if base.WithCSRFToken("") != base {
		t.Fatalf("empty token should return the same client")
	}
}
