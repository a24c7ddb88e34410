package http

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"pickstation/infrastructure/audit"
	"pickstation/infrastructure/cache"
	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/metrics"
	"pickstation/infrastructure/sqlite"
)

const integrationPicklistPage = `<div id="pendingItemsContainer">
<div class="list-group-item" data-barcode="111" data-status="pending"><span class="sku-badge">SKU: A1</span><a class="product-name-link">Teh Botol</a><span class="jumlah-ambil">0</span> / <span class="jumlah">4</span></div>
</div>`

// fakeBackend stands in for the fulfillment backend and remembers the
// session token of the last request it saw.
type fakeBackend struct {
	mu        sync.Mutex
	lastToken string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.lastToken = r.Header.Get("X-CSRFToken")
	b.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/fullfilment/batchpicking/"):
		_, _ = io.WriteString(w, integrationPicklistPage)
	case r.URL.Path == "/products/api/add-extra-barcode/":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true}`)
	case strings.HasPrefix(r.URL.Path, "/products/api/upload-photo/"):
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"photo_url":"/media/p9.jpg"}`)
	case strings.HasPrefix(r.URL.Path, "/products/api/extra-barcodes/"):
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"extra_barcodes":[]}`)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastToken
}

type integrationEnv struct {
	server  *httptest.Server
	db      *sqlite.DB
	backend *fakeBackend
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	backend := &fakeBackend{}
	backendServer := httptest.NewServer(backend)
	t.Cleanup(backendServer.Close)

	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	cfg := &config.Config{}
	cfg.Station.ID = "it-station"
	cfg.Station.Addr = "127.0.0.1:0"
	cfg.Backend.BaseURL = backendServer.URL
	cfg.Backend.CSRFToken = "station-default"
	cfg.Scan.KeyGap = 100 * time.Millisecond
	cfg.Scan.IdleTimeout = time.Minute
	cfg.Scan.HistoryCap = 10
	cfg.Scan.ExportMode = "blob"

	m := metrics.New()
	client := fulfillment.New(fulfillment.Options{
		BaseURL:   cfg.Backend.BaseURL,
		CSRFToken: cfg.Backend.CSRFToken,
		Metrics:   m,
	})
	auditSvc := audit.NewService(db, cfg.Station.ID)

	s := NewServer(cfg, db, client, cache.NewScreenHub(), cache.NewRowsCache(time.Minute), auditSvc, m)
	ts := httptest.NewServer(s.Handler())
	env := &integrationEnv{server: ts, db: db, backend: backend}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func postMultipartFile(t *testing.T, client *http.Client, baseURL, path, fieldName, fileName string, fileContents []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if token := csrfToken(t, client, baseURL); token != "" {
		if err := writer.WriteField("_csrf", token); err != nil {
			t.Fatalf("write csrf multipart field: %v", err)
		}
	}

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create multipart file field: %v", err)
	}
	if _, err := part.Write(fileContents); err != nil {
		t.Fatalf("write multipart file content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build multipart request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST multipart %s failed: %v", path, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	return ""
}

// primeCSRF makes one safe request so the jar holds a CSRF cookie.
func primeCSRF(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	resp := get(t, client, baseURL, "/health")
	_ = readBody(t, resp)
	if csrfToken(t, client, baseURL) == "" {
		t.Fatalf("expected csrf cookie after GET")
	}
}

func countAuditLogs(t *testing.T, db *sqlite.DB, entityType, entityID string) int64 {
	t.Helper()
	var count int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM audit_logs WHERE entity_type = ? AND entity_id = ?`, entityType, entityID).Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	return count
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHealthReportsOK(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/health")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected secure headers on every response")
	}
}

func TestRootRedirectsToOrderEntry(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/scanpicking/" {
		t.Fatalf("unexpected root response %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestMetricsEndpointExposesRequests(t *testing.T) {
	env, client := setupIntegrationServer(t)

	_ = readBody(t, get(t, client, env.server.URL, "/health"))
	resp := get(t, client, env.server.URL, "/metrics")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "pickstation_") {
		t.Fatalf("expected pickstation metrics, got %q", body)
	}
}

func TestKioskScriptServedFromAssets(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/assets/kiosk.js")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected asset 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "data-socket") {
		t.Fatalf("kiosk script does not read the socket path")
	}
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	// No GET first: no CSRF token available in cookie or form.
	resp, err := client.PostForm(env.server.URL+"/products/9/barcodes", url.Values{
		"barcode_value": {"899"},
	})
	if err != nil {
		t.Fatalf("post barcode: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for missing csrf, got %d", resp.StatusCode)
	}
	if countAuditLogs(t, env.db, "product", "9") != 0 {
		t.Fatalf("rejected post must not be audited")
	}
}

func TestCSRFPostWithTokenAccepted(t *testing.T) {
	env, client := setupIntegrationServer(t)
	primeCSRF(t, client, env.server.URL)

	resp := postForm(t, client, env.server.URL, "/products/9/barcodes", url.Values{"barcode_value": {"899"}})
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "notice=") {
		t.Fatalf("unexpected redirect %q", resp.Header.Get("Location"))
	}
	if countAuditLogs(t, env.db, "product", "9") != 1 {
		t.Fatalf("expected the added barcode to be audited")
	}
}

func TestCSRFPostWithoutToken_SameOriginRefererAccepted(t *testing.T) {
	env, client := setupIntegrationServer(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/products/9/barcodes", strings.NewReader("barcode_value=899"))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", env.server.URL+"/products/9")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post without csrf token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected same-origin csrf fallback 303, got %d", resp.StatusCode)
	}
}

func TestCSRFPostWithoutToken_CrossOriginRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/products/9/barcodes", strings.NewReader("barcode_value=899"))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Referer", "https://evil.example/attack")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post cross-origin request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-origin missing csrf token, got %d", resp.StatusCode)
	}
}

func TestPhotoUploadThroughServer(t *testing.T) {
	env, client := setupIntegrationServer(t)
	primeCSRF(t, client, env.server.URL)

	resp := postMultipartFile(t, client, env.server.URL, "/products/9/photo", "photo", "shelf.png", smallPNG(t))
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Location"), "photo=%2Fmedia%2Fp9.jpg") {
		t.Fatalf("unexpected redirect %q", resp.Header.Get("Location"))
	}
}

func TestPickingPageUsesDefaultBackendToken(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/picking/B7")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `data-barcode="111"`) {
		t.Fatalf("picking page missing backend rows")
	}
	if got := env.backend.token(); got != "station-default" {
		t.Fatalf("expected configured token, got %q", got)
	}
}

func TestBackendTokenQueryIsKeptInCookie(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/picking/B7?token=kiosk-abc")
	_ = readBody(t, resp)
	if got := env.backend.token(); got != "kiosk-abc" {
		t.Fatalf("expected query token forwarded, got %q", got)
	}

	// A later request without the query still acts for the same session.
	resp = get(t, client, env.server.URL, "/picking/B8")
	_ = readBody(t, resp)
	if got := env.backend.token(); got != "kiosk-abc" {
		t.Fatalf("expected cookie token forwarded, got %q", got)
	}
}

func TestBackendTokenHeaderWins(t *testing.T) {
	env, client := setupIntegrationServer(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/picking/B7?token=from-query", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Backend-Token", "from-header")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("get picking: %v", err)
	}
	_ = readBody(t, resp)
	if got := env.backend.token(); got != "from-header" {
		t.Fatalf("expected header token forwarded, got %q", got)
	}
}
