package orderscan

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"pickstation/frontend/idle"
	"pickstation/frontend/kiosk"
	"pickstation/frontend/picking"
	"pickstation/infrastructure/fulfillment"
	"pickstation/infrastructure/metrics"
	"pickstation/infrastructure/timeutil"
	"pickstation/models"
)

type submission struct {
	barcode string
	result  Result
	dropped bool
}

// Screen is the controller of one per-order scan page. Its state is owned by
// the goroutine running Run.
type Screen struct {
	ID        string
	orderID   string
	authToken string

	pending   []models.PickItem
	completed []models.PickItem
	done      bool

	buffer    *picking.ScanBuffer
	submitter *OrderSubmitter
	history   *picking.ScanHistory
	guard     *idle.Guard
	sounds    picking.SoundCue

	sink    kiosk.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	launch  func(func())

	processing bool
	events     chan kiosk.Event
	results    chan submission
	stop       chan struct{}
	idleTimer  *time.Timer
}

func NewScreen(opts Options) (*Screen, error) {
	if opts.OrderID == "" {
		return nil, errors.New("orderscan: order id is required")
	}
	if opts.Backend == nil || opts.Sink == nil {
		return nil, errors.New("orderscan: backend and sink are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With(slog.String("screen_id", id), slog.String("order_id", opts.OrderID))

	return &Screen{
		ID:        id,
		orderID:   opts.OrderID,
		authToken: opts.AuthToken,
		pending:   append([]models.PickItem(nil), opts.Rows.Pending...),
		completed: append([]models.PickItem(nil), opts.Rows.Completed...),
		buffer:    picking.NewScanBuffer(opts.KeyGap),
		submitter: NewOrderSubmitter(opts.Backend, opts.OrderID, logger),
		history:   picking.NewScanHistory(opts.HistoryCap),
		guard:     idle.New(opts.IdleTimeout, time.Now()),
		sounds:    picking.NewSoundCue(opts.SoundBase, picking.OrderSounds),
		sink:      opts.Sink,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
		launch:    func(fn func()) { go fn() },
		events:    make(chan kiosk.Event, 64),
		results:   make(chan submission, 1),
		stop:      make(chan struct{}),
	}, nil
}

func (s *Screen) OrderID() string {
	return s.orderID
}

// AuthToken is the backend token the screen was opened with.
func (s *Screen) AuthToken() string {
	return s.authToken
}

// Events accepts kiosk input.
func (s *Screen) Events() chan<- kiosk.Event {
	return s.events
}

// Done reports whether the whole order has been checked.
func (s *Screen) Done() bool {
	return s.done
}

// Run processes events until ctx is done.
func (s *Screen) Run(ctx context.Context) {
	s.metrics.ScreenOpened(Variant)
	defer s.metrics.ScreenClosed(Variant)
	defer close(s.stop)

	s.idleTimer = time.NewTimer(s.guard.Timeout())
	defer s.idleTimer.Stop()

	s.renderTables()
	s.renderHistory()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.Handle(ctx, ev)
		case sub := <-s.results:
			s.handleResult(sub)
		case <-s.idleTimer.C:
			now := s.now()
			if s.guard.Expire(now) {
				s.sink.Send(kiosk.Overlay(true))
			} else if s.guard.State() == idle.Active {
				s.idleTimer.Reset(s.guard.Deadline().Sub(now))
			}
		}
	}
}

// Handle applies one kiosk event. Only the loop goroutine may call it.
func (s *Screen) Handle(ctx context.Context, ev kiosk.Event) {
	now := s.now()
	if s.guard.Observe(now) {
		s.sink.Send(kiosk.Overlay(false))
	}
	if s.idleTimer != nil {
		if !s.idleTimer.Stop() {
			select {
			case <-s.idleTimer.C:
			default:
			}
		}
		s.idleTimer.Reset(s.guard.Deadline().Sub(now))
	}

	if ev.Type != kiosk.EventKey || ev.Field != "" {
		return
	}
	at := now
	if ev.At > 0 && !math.IsNaN(ev.At) {
		at = time.Unix(0, 0).Add(time.Duration(ev.At * float64(time.Millisecond)))
	}
	if code, ok := s.buffer.Press(ev.Key, at); ok {
		s.submit(ctx, code)
	}
}

func (s *Screen) submit(ctx context.Context, barcode string) {
	if s.processing || s.done {
		s.metrics.ObserveDropped(Variant)
		s.logger.Info("scan dropped", slog.String("barcode", barcode), slog.Bool("order_done", s.done))
		return
	}
	s.processing = true
	s.launch(func() {
		res, err := s.submitter.Submit(ctx, barcode)
		sub := submission{barcode: barcode, result: res, dropped: errors.Is(err, picking.ErrInFlight)}
		select {
		case s.results <- sub:
		case <-s.stop:
		}
	})
}

func (s *Screen) handleResult(sub submission) {
	s.processing = false
	if sub.dropped {
		s.metrics.ObserveDropped(Variant)
		return
	}
	res := sub.result
	outcome := res.Outcome()
	s.history.Record(models.ScanAttempt{
		Barcode:   sub.barcode,
		Outcome:   outcome,
		Source:    models.SourceScan,
		Timestamp: timeutil.ClockWIB(s.now()),
	})
	s.metrics.ObserveScan(Variant, models.SourceScan, outcome)
	s.logger.Info("order scan reconciled", slog.String("barcode", sub.barcode), slog.String("outcome", outcome))
	s.renderHistory()

	if !res.Success {
		s.playOutcome(models.OutcomeError)
		if res.Transport {
			s.sink.Send(kiosk.Feedback(FeedbackTarget, ConnectionFailed, "danger"))
			return
		}
		text := res.Error
		if text == "" {
			text = ScanFailedMessage
		}
		s.sink.Send(kiosk.ShowDialog(kiosk.Dialog{Icon: kiosk.IconError, Title: ScanFailedTitle, Text: text}))
		return
	}

	s.pending = fulfillment.Items(res.Pending)
	s.completed = fulfillment.Items(res.Completed)
	s.renderTables()

	// Order completion wins over the line cue and its feedback.
	if res.OrderDone() {
		s.done = true
		s.logger.Info("order fully checked")
		s.playOutcome(models.OutcomeCompleted)
		s.sink.Send(kiosk.ShowDialog(kiosk.Dialog{
			Icon:  kiosk.IconSuccess,
			Title: "Semua Order ID " + s.orderID + " Sudah Selesai di Check",
		}))
		s.sink.Send(kiosk.Redirect(EntryPath, doneRedirectMS))
		return
	}

	sku := res.SKU
	if sku == "" {
		sku = sub.barcode
	}
	s.sink.Send(kiosk.Feedback(FeedbackTarget, "Berhasil scan: "+sku, "success"))
	if res.Status == models.StatusCompleted {
		// a finished line plays the line cue, not the order cue
		s.playOutcome(models.OutcomeSuccess)
		s.sink.Send(kiosk.ShowDialog(kiosk.Dialog{
			Icon:    kiosk.IconSuccess,
			Title:   LineCompletedTitle,
			Text:    "SKU " + res.SKU + " sudah semua di scan.",
			TimerMS: lineDialogTimeMS,
		}))
	}
}

func (s *Screen) playOutcome(outcome string) {
	if url, ok := s.sounds.URL(outcome); ok {
		s.sink.Send(kiosk.Sound(url))
	}
}

func (s *Screen) renderTables() {
	ctx := context.Background()
	s.sink.Send(kiosk.Render(PendingTarget, renderString(ctx, TableRows(s.pending, EmptyPendingText))))
	s.sink.Send(kiosk.Render(CompletedTarget, renderString(ctx, TableRows(s.completed, EmptyCompletedText))))
}

func (s *Screen) renderHistory() {
	s.sink.Send(kiosk.Render(HistoryTarget, renderString(context.Background(), picking.HistoryRows(s.history.Entries()))))
}
