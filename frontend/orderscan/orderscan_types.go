package orderscan

import (
	"context"
	"log/slog"
	"time"

	"pickstation/frontend/kiosk"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/metrics"
	"pickstation/models"
)

// Variant is the metrics label of the per-order screen.
const Variant = "order"

// Targets of the per-order page.
const (
	PendingTarget   = "pendingTableBody"
	CompletedTarget = "completedTableBody"
	HistoryTarget   = "orderHistoryBody"
	FeedbackTarget  = "barcodeFeedback"
)

// Texts shown by the per-order screen.
const (
	ScanFailedTitle    = "Scan Gagal"
	ScanFailedMessage  = "Barcode tidak valid."
	ConnectionFailed   = "Terjadi kesalahan koneksi."
	LineCompletedTitle = "SKU Selesai!"
	EmptyPendingText   = "Tidak ada data pending."
	EmptyCompletedText = "Tidak ada data completed."
)

const (
	lineDialogTimeMS = 1500
	// doneRedirectMS is how long the order-complete modal shows before returning to order entry.
	doneRedirectMS = 300
	// EntryPath is the station's order entry page.
	EntryPath = "/scanpicking/"
)

// Backend is the backend surface of the per-order screen.
type Backend interface {
	ScanOrderBarcode(ctx context.Context, orderID, barcode string) (fulfillment.OrderScanResult, error)
}

// Options configures a Screen.
type Options struct {
	OrderID     string
	AuthToken   string
	Rows        fulfillment.OrderRows
	Backend     Backend
	Sink        kiosk.Sink
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	KeyGap      time.Duration
	IdleTimeout time.Duration
	HistoryCap  int
	SoundBase   string
}

// Result is a scan response with transport failures folded in.
type Result struct {
	fulfillment.OrderScanResult
	Transport bool
}

// Outcome derives the history outcome of a per-order scan.
func (r Result) Outcome() string {
	switch {
	case r.Success && r.Status == models.StatusCompleted:
		return models.OutcomeCompleted
	case r.Success:
		return models.OutcomeSuccess
	default:
		return models.OutcomeError
	}
}

// OrderDone reports whether the scan finished the whole order.
func (r Result) OrderDone() bool {
	return r.Success && len(r.Pending) == 0 && len(r.Completed) > 0
}
