package picking

import (
	"time"

	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	"pickstation/models"
)

// Export modes.
const (
	ExportBlob = fulfillment.ExportModeBlob
	ExportJSON = fulfillment.ExportModeJSON
)

// Variant carries everything that differs between the batch-picking screens.
type Variant struct {
	Name            string
	PendingTarget   string
	CompletedTarget string
	HistoryTarget   string
	Sounds          SoundTable
	SoundBaseURL    string
	HistoryCap      int
	ExportMode      string
	KeyGap          time.Duration
	HighlightTTL    time.Duration
	IdleTimeout     time.Duration
}

// DefaultHighlightTTL is how long a freshly completed line stays highlighted.
const DefaultHighlightTTL = 2 * time.Second

var variants = map[string]Variant{
	"batch": {
		Name:            "batch",
		PendingTarget:   "pendingItemsContainer",
		CompletedTarget: "completedItemsContainer",
		HistoryTarget:   "scanHistoryTableBody",
		Sounds:          BatchSounds,
		HistoryCap:      DefaultHistoryCap,
		ExportMode:      ExportBlob,
	},
	"mobile": {
		Name:            "mobile",
		PendingTarget:   "mobilePendingList",
		CompletedTarget: "mobileCompletedList",
		HistoryTarget:   "mobileHistoryBody",
		Sounds:          BatchSounds,
		HistoryCap:      DefaultHistoryCap,
		ExportMode:      ExportJSON,
	},
}

// LookupVariant returns the named variant with station settings applied.
// Unknown names fall back to the batch screen.
func LookupVariant(name string, cfg *config.Config) Variant {
	v, ok := variants[name]
	if !ok {
		v = variants["batch"]
	}
	if cfg == nil {
		return v.withDefaults()
	}
	v.SoundBaseURL = cfg.Scan.SoundBaseURL
	v.KeyGap = cfg.Scan.KeyGap
	v.HighlightTTL = cfg.Scan.HighlightTTL
	v.IdleTimeout = cfg.Scan.IdleTimeout
	if cfg.Scan.HistoryCap > 0 {
		v.HistoryCap = cfg.Scan.HistoryCap
	}
	if name == "" && cfg.Scan.ExportMode != "" {
		v.ExportMode = cfg.Scan.ExportMode
	}
	return v.withDefaults()
}

func (v Variant) withDefaults() Variant {
	if v.HistoryCap <= 0 {
		v.HistoryCap = DefaultHistoryCap
	}
	if v.KeyGap <= 0 {
		v.KeyGap = DefaultKeyGap
	}
	if v.HighlightTTL <= 0 {
		v.HighlightTTL = DefaultHighlightTTL
	}
	if v.ExportMode != ExportJSON {
		v.ExportMode = ExportBlob
	}
	return v
}

// Monitor is the "last scanned" card.
type Monitor struct {
	ProductName string
	Progress    string
	SKU         string
	Barcode     string
	Brand       string
	Variant     string
}

func monitorFromItem(it models.PickItem) Monitor {
	return Monitor{
		ProductName: it.ProductName,
		Progress:    it.Progress(),
		SKU:         it.SKU,
		Barcode:     it.Barcode,
		Brand:       it.Brand,
		Variant:     it.Variant,
	}
}
