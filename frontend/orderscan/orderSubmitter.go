package orderscan

import (
	"context"
	"log/slog"

	"pickstation/frontend/picking"
)

// OrderSubmitter sends scans for one order, one at a time.
type OrderSubmitter struct {
	backend Backend
	orderID string
	gate    picking.Gate
	logger  *slog.Logger
}

func NewOrderSubmitter(backend Backend, orderID string, logger *slog.Logger) *OrderSubmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderSubmitter{backend: backend, orderID: orderID, logger: logger}
}

// Submit scans barcode against the order. Failures are folded into the result;
// the only error is picking.ErrInFlight.
func (s *OrderSubmitter) Submit(ctx context.Context, barcode string) (Result, error) {
	var res Result
	ran := s.gate.Do(func() {
		out, err := s.backend.ScanOrderBarcode(context.WithoutCancel(ctx), s.orderID, barcode)
		if err != nil {
			s.logger.Error("order scan request failed",
				slog.String("order_id", s.orderID),
				slog.String("barcode", barcode),
				slog.Any("err", err),
			)
			res = Result{Transport: true}
			res.Error = ConnectionFailed
			return
		}
		res = Result{OrderScanResult: out}
	})
	if !ran {
		return Result{}, picking.ErrInFlight
	}
	return res, nil
}

func (s *OrderSubmitter) Busy() bool {
	return s.gate.Busy()
}
