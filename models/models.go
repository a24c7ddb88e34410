package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Pick line statuses as reported by the fulfillment backend.
const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusOverStock = "over_stock"
	StatusCompleted = "completed"
)

// Statuses lists every line status in badge order.
var Statuses = []string{StatusPending, StatusPartial, StatusOverStock, StatusCompleted}

// PickItem is one line of a picklist or order. Status is owned by the backend.
type PickItem struct {
	SKU              string
	Barcode          string
	ProductName      string
	Variant          string
	Brand            string
	QuantityRequired int
	QuantityPicked   int
	Status           string
	ProductID        int64
}

// Completed reports whether the backend marked the line finished.
func (p PickItem) Completed() bool {
	return p.Status == StatusCompleted
}

// Progress renders "picked / required" for monitor cards and tables.
func (p PickItem) Progress() string {
	return strconv.Itoa(p.QuantityPicked) + " / " + strconv.Itoa(p.QuantityRequired)
}

// Matches reports whether the lower-cased query is contained in any searchable field.
func (p PickItem) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.SKU, p.Barcode, p.ProductName, p.Variant, p.Brand} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Scan attempt outcomes, highest precedence first.
const (
	OutcomeCompleted = "completed"
	OutcomeSuccess   = "success"
	OutcomeOverscan  = "overscan"
	OutcomeError     = "error"
)

// Scan attempt sources.
const (
	SourceScan   = "scan"
	SourceManual = "manual"
)

// ScanAttempt is a single history entry. Never persisted.
type ScanAttempt struct {
	Barcode   string
	Outcome   string
	Source    string
	Timestamp string
}

// SourceLetter is the one-letter source column of the history table.
func (a ScanAttempt) SourceLetter() string {
	if a.Source == SourceManual {
		return "M"
	}
	return "S"
}

// ProductInfo is the optional product block returned with a reconciliation.
type ProductInfo struct {
	SKU         string `json:"sku"`
	Barcode     string `json:"barcode"`
	ProductName string `json:"nama_produk"`
	Variant     string `json:"variant_produk"`
	Brand       string `json:"brand"`
}

// ReconciliationResult is the backend's answer to a scan or manual correction.
type ReconciliationResult struct {
	Success          bool         `json:"success"`
	QuantityPicked   int          `json:"jumlah_ambil"`
	QuantityRequired int          `json:"jumlah"`
	Status           string       `json:"status_ambil"`
	Completed        bool         `json:"completed"`
	Product          *ProductInfo `json:"product_info,omitempty"`
	MainBarcode      string       `json:"main_barcode,omitempty"`
	ServerTime       string       `json:"server_time,omitempty"`
	AlreadyCompleted bool         `json:"already_completed,omitempty"`
	Error            string       `json:"error,omitempty"`

	// Transport is set when the result was synthesised from a network or decode failure.
	Transport bool `json:"-"`
}

// Outcome derives the history outcome: completed > success > overscan > error.
func (r ReconciliationResult) Outcome() string {
	switch {
	case r.Success && r.Completed:
		return OutcomeCompleted
	case r.Success:
		return OutcomeSuccess
	case r.AlreadyCompleted && !r.Transport:
		return OutcomeOverscan
	default:
		return OutcomeError
	}
}

// TargetBarcode resolves which row a successful result refers to.
func (r ReconciliationResult) TargetBarcode(submitted string) string {
	if r.MainBarcode != "" {
		return r.MainBarcode
	}
	if r.Product != nil && r.Product.Barcode != "" {
		return r.Product.Barcode
	}
	return submitted
}

// ItemUpdate is a line state reconciled by one screen and mirrored by the
// other screens open on the same picklist.
type ItemUpdate struct {
	Picklist       string
	Barcode        string
	QuantityPicked int
	Status         string
	Origin         string
}

// AuditLog captures station actions that mutate backend product data.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	StationID  string    `bun:"station_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ExportRun records one spreadsheet export handed to an operator.
type ExportRun struct {
	bun.BaseModel `bun:"table:export_runs,alias:er"`

	ID        int64     `bun:"id,pk,autoincrement"`
	StationID string    `bun:"station_id,notnull"`
	Picklist  string    `bun:"picklist,notnull"`
	Mode      string    `bun:"mode,notnull"`
	FileName  string    `bun:"file_name"`
	ByteSize  int64     `bun:"byte_size,notnull,default:0"`
	RowCount  int64     `bun:"row_count,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
