package picking

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"pickstation/models"
)

// ErrInFlight is returned when a submission is dropped because another one is still running.
var ErrInFlight = errors.New("picking: reconciliation already in flight")

// GenericError is shown when the backend could not be reached or answered garbage.
const GenericError = "Terjadi kesalahan saat memproses barcode."

// Gate admits one holder at a time and never queues.
type Gate struct {
	busy atomic.Bool
}

// Do runs fn if the gate is free and reports whether it ran. The gate is released even if fn panics.
func (g *Gate) Do(fn func()) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	defer g.busy.Store(false)
	fn()
	return true
}

func (g *Gate) Busy() bool {
	return g.busy.Load()
}

// Reconciler is the backend surface the submitter needs.
type Reconciler interface {
	UpdateBarcode(ctx context.Context, picklist, barcode string) (models.ReconciliationResult, error)
	UpdateManual(ctx context.Context, picklist, barcode string, quantityPicked int) (models.ReconciliationResult, error)
}

// ScanSubmitter sends scans and manual corrections for one picklist, one at a time.
type ScanSubmitter struct {
	backend  Reconciler
	picklist string
	gate     Gate
	logger   *slog.Logger
}

func NewScanSubmitter(backend Reconciler, picklist string, logger *slog.Logger) *ScanSubmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanSubmitter{backend: backend, picklist: picklist, logger: logger}
}

// SubmitScan reconciles one scanned barcode. Backend and transport failures are
// folded into the result; the only error is ErrInFlight.
func (s *ScanSubmitter) SubmitScan(ctx context.Context, barcode string) (models.ReconciliationResult, error) {
	return s.submit(ctx, "update_barcode", barcode, func(ctx context.Context) (models.ReconciliationResult, error) {
		return s.backend.UpdateBarcode(ctx, s.picklist, barcode)
	})
}

// SubmitManual sets the picked quantity of barcode directly.
func (s *ScanSubmitter) SubmitManual(ctx context.Context, barcode string, quantityPicked int) (models.ReconciliationResult, error) {
	return s.submit(ctx, "update_manual", barcode, func(ctx context.Context) (models.ReconciliationResult, error) {
		return s.backend.UpdateManual(ctx, s.picklist, barcode, quantityPicked)
	})
}

func (s *ScanSubmitter) Busy() bool {
	return s.gate.Busy()
}

func (s *ScanSubmitter) submit(ctx context.Context, endpoint, barcode string, call func(context.Context) (models.ReconciliationResult, error)) (models.ReconciliationResult, error) {
	var res models.ReconciliationResult
	ran := s.gate.Do(func() {
		// An in-flight reconciliation always runs to completion.
		out, err := call(context.WithoutCancel(ctx))
		if err != nil {
			s.logger.Error("reconciliation request failed",
				slog.String("endpoint", endpoint),
				slog.String("picklist", s.picklist),
				slog.String("barcode", barcode),
				slog.Any("err", err),
			)
			res = models.ReconciliationResult{Success: false, Transport: true, Error: GenericError}
			return
		}
		res = out
	})
	if !ran {
		return models.ReconciliationResult{}, ErrInFlight
	}
	return res, nil
}
