package picking

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"pickstation/frontend/idle"
	"pickstation/frontend/kiosk"
	"pickstation/infrastructure/metrics"
	"pickstation/models"
)

// Publisher fans a reconciled line out to the other screens on the picklist.
type Publisher interface {
	Publish(u models.ItemUpdate) int
}

// Options configures a Screen. AuthToken is the backend token Backend sends with every request.
type Options struct {
	Picklist  string
	AuthToken string
	Variant   Variant
	Items     []models.PickItem
	Backend   Reconciler
	Sink      kiosk.Sink
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type submission struct {
	barcode string
	manual  bool
	item    models.PickItem
	result  models.ReconciliationResult
	dropped bool
}

// Screen is the controller of one kiosk picking page. All of its state is
// owned by the goroutine running Run; input arrives through Events.
type Screen struct {
	ID        string
	picklist  string
	authToken string
	variant   Variant

	list       *PickList
	history    *ScanHistory
	lookup     *ManualLookup
	buffer     *ScanBuffer
	submitter  *ScanSubmitter
	reconciler *ViewReconciler
	guard      *idle.Guard
	sounds     SoundCue

	sink      kiosk.Sink
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	launch    func(func())

	filter     string
	query      string
	monitor    *Monitor
	processing bool

	events    chan kiosk.Event
	results   chan submission
	remote    chan models.ItemUpdate
	expired   chan string
	stop      chan struct{}
	idleTimer *time.Timer
}

func NewScreen(opts Options) (*Screen, error) {
	if opts.Picklist == "" {
		return nil, errors.New("picking: picklist is required")
	}
	if opts.Backend == nil || opts.Sink == nil {
		return nil, errors.New("picking: backend and sink are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	variant := opts.Variant.withDefaults()
	if variant.Name == "" {
		variant = LookupVariant("", nil)
	}

	id := uuid.NewString()
	logger = logger.With(slog.String("screen_id", id), slog.String("picklist", opts.Picklist), slog.String("variant", variant.Name))
	list := NewPickList(opts.Items)
	history := NewScanHistory(variant.HistoryCap)
	now := time.Now
	sounds := NewSoundCue(variant.SoundBaseURL, variant.Sounds)

	s := &Screen{
		ID:         id,
		picklist:   opts.Picklist,
		authToken:  opts.AuthToken,
		variant:    variant,
		list:       list,
		history:    history,
		lookup:     NewManualLookup(list.Pending()),
		buffer:     NewScanBuffer(variant.KeyGap),
		submitter:  NewScanSubmitter(opts.Backend, opts.Picklist, logger),
		reconciler: NewViewReconciler(list, history, sounds),
		guard:      idle.New(variant.IdleTimeout, now()),
		sounds:     sounds,
		sink:       opts.Sink,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		logger:     logger,
		now:        now,
		launch:     func(fn func()) { go fn() },
		filter:     FilterDefault,
		events:     make(chan kiosk.Event, 64),
		results:    make(chan submission, 1),
		remote:     make(chan models.ItemUpdate, 16),
		expired:    make(chan string, 16),
		stop:       make(chan struct{}),
	}
	if pending := list.Pending(); len(pending) > 0 {
		m := monitorFromItem(pending[0])
		s.monitor = &m
	}
	return s, nil
}

// Picklist is the picklist the screen reconciles against.
func (s *Screen) Picklist() string {
	return s.picklist
}

// AuthToken is the backend token the screen was opened with.
func (s *Screen) AuthToken() string {
	return s.authToken
}

// Events accepts kiosk input. Sends block only while the loop is busy.
func (s *Screen) Events() chan<- kiosk.Event {
	return s.events
}

// Updates accepts lines reconciled by other screens.
func (s *Screen) Updates() chan<- models.ItemUpdate {
	return s.remote
}

// PageData is the initial projection for the kiosk page.
func (s *Screen) PageData(socketPath string) PageData {
	return PageData{
		Picklist:   s.picklist,
		Variant:    s.variant,
		Pending:    s.list.VisiblePending(s.filter, s.query),
		Completed:  s.list.VisibleCompleted(s.query),
		Counts:     s.list.Counts(),
		Filter:     s.filter,
		Monitor:    s.monitor,
		History:    s.history.Entries(),
		SocketPath: socketPath,
	}
}

// Run processes events until ctx is done. It renders every region once on start.
func (s *Screen) Run(ctx context.Context) {
	s.metrics.ScreenOpened(s.variant.Name)
	defer s.metrics.ScreenClosed(s.variant.Name)
	defer close(s.stop)

	s.idleTimer = time.NewTimer(s.guard.Timeout())
	defer s.idleTimer.Stop()

	s.renderAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.Handle(ctx, ev)
		case sub := <-s.results:
			s.handleResult(sub)
		case u := <-s.remote:
			s.handleRemote(u)
		case barcode := <-s.expired:
			s.reconciler.ClearHighlight(barcode)
			s.renderItems()
		case <-s.idleTimer.C:
			s.handleIdleTimer()
		}
	}
}

// Handle applies one kiosk event. Only the loop goroutine may call it.
func (s *Screen) Handle(ctx context.Context, ev kiosk.Event) {
	s.observe()

	switch ev.Type {
	case kiosk.EventKey:
		// keys typed into a text field belong to that field
		if ev.Field != "" {
			return
		}
		if code, ok := s.buffer.Press(ev.Key, s.eventTime(ev)); ok {
			s.submitScan(ctx, code)
		}
	case kiosk.EventFilter:
		s.filter = NormalizeFilter(ev.Value)
		s.renderItems()
	case kiosk.EventSearch:
		s.query = ev.Value
		s.renderItems()
	case kiosk.EventLookupInput:
		s.lookup.Build(s.list.Pending())
		s.lookup.Filter(ev.Value)
		s.renderLookup()
	case kiosk.EventLookupKey:
		if ev.Key == "Escape" {
			s.hideManual()
			return
		}
		if !s.lookup.Showing() {
			return
		}
		if s.lookup.ResultKey(ev.Key) {
			s.renderQuantity()
			return
		}
		s.renderLookup()
	case kiosk.EventLookupClick:
		if s.lookup.Select(ev.Index) {
			s.renderQuantity()
		}
	case kiosk.EventQtyInput:
		s.lookup.SetQuantityText(ev.Value)
	case kiosk.EventQtyKey:
		if ev.Key == "Escape" {
			s.hideManual()
			return
		}
		if s.lookup.QuantityKey(ev.Key) {
			s.submitManual(ctx)
			return
		}
		s.renderQuantity()
	case kiosk.EventQtySubmit:
		if ev.Value != "" {
			s.lookup.SetQuantityText(ev.Value)
		}
		s.submitManual(ctx)
	case kiosk.EventLookupCancel:
		s.hideManual()
	}
}

func (s *Screen) observe() {
	now := s.now()
	if s.guard.Observe(now) {
		s.sink.Send(kiosk.Overlay(false))
	}
	if s.idleTimer != nil {
		resetTimer(s.idleTimer, s.guard.Deadline().Sub(now))
	}
}

func (s *Screen) handleIdleTimer() {
	now := s.now()
	if s.guard.Expire(now) {
		s.logger.Info("screen idle")
		s.sink.Send(kiosk.Overlay(true))
		return
	}
	if s.guard.State() == idle.Active {
		s.idleTimer.Reset(s.guard.Deadline().Sub(now))
	}
}

// eventTime maps the page's millisecond clock onto a time for gap comparisons.
func (s *Screen) eventTime(ev kiosk.Event) time.Time {
	if ev.At <= 0 || math.IsNaN(ev.At) {
		return s.now()
	}
	return time.Unix(0, 0).Add(time.Duration(ev.At * float64(time.Millisecond)))
}

func (s *Screen) submitScan(ctx context.Context, barcode string) {
	if s.processing {
		s.metrics.ObserveDropped(s.variant.Name)
		s.logger.Info("scan dropped while reconciling", slog.String("barcode", barcode))
		return
	}
	s.processing = true
	s.launch(func() {
		res, err := s.submitter.SubmitScan(ctx, barcode)
		s.post(submission{barcode: barcode, result: res, dropped: errors.Is(err, ErrInFlight)})
	})
}

func (s *Screen) submitManual(ctx context.Context) {
	item, ok := s.lookup.Selected()
	if !ok {
		return
	}
	if s.processing {
		s.metrics.ObserveDropped(s.variant.Name)
		return
	}
	qty, err := s.lookup.Quantity()
	if err != nil {
		s.playOutcome(models.OutcomeError)
		s.sink.Send(kiosk.Render("manualFeedback", renderString(context.Background(), FeedbackAlert(InvalidQuantityMessage, "danger"))))
		return
	}
	s.processing = true
	s.launch(func() {
		res, err := s.submitter.SubmitManual(ctx, item.Barcode, qty)
		s.post(submission{barcode: item.Barcode, manual: true, item: item, result: res, dropped: errors.Is(err, ErrInFlight)})
	})
}

func (s *Screen) post(sub submission) {
	select {
	case s.results <- sub:
	case <-s.stop:
	}
}

func (s *Screen) handleResult(sub submission) {
	s.processing = false
	if sub.dropped {
		s.metrics.ObserveDropped(s.variant.Name)
		return
	}

	var applied Applied
	if sub.manual {
		applied = s.reconciler.ApplyManual(sub.result, sub.item)
	} else {
		applied = s.reconciler.ApplyScan(sub.result, sub.barcode)
	}
	s.metrics.ObserveScan(s.variant.Name, applied.Attempt.Source, applied.Attempt.Outcome)
	s.logger.Info("reconciled",
		slog.String("barcode", sub.barcode),
		slog.String("source", applied.Attempt.Source),
		slog.String("outcome", applied.Attempt.Outcome),
	)

	if applied.Found {
		if s.publisher != nil {
			s.publisher.Publish(models.ItemUpdate{
				Picklist:       s.picklist,
				Barcode:        applied.Item.Barcode,
				QuantityPicked: applied.Item.QuantityPicked,
				Status:         applied.Item.Status,
				Origin:         s.ID,
			})
		}
		if applied.Move == ToCompleted {
			s.scheduleHighlightEnd(applied.Item.Barcode)
		}
	}
	if applied.Monitor != nil {
		s.monitor = applied.Monitor
	}
	s.lookup.Build(s.list.Pending())

	s.renderItems()
	s.renderHistory()
	s.sink.Send(kiosk.Render("monitorCard", renderString(context.Background(), MonitorCard(s.monitor))))
	if applied.SoundURL != "" {
		s.sink.Send(kiosk.Sound(applied.SoundURL))
	}
	if applied.Dialog != nil {
		s.sink.Send(kiosk.ShowDialog(*applied.Dialog))
	}

	if sub.manual {
		if sub.result.Success {
			s.hideManual()
		} else {
			s.sink.Send(kiosk.Render("manualFeedback", renderString(context.Background(), FeedbackAlert(applied.Feedback, "danger"))))
		}
	}
}

func (s *Screen) handleRemote(u models.ItemUpdate) {
	if u.Origin == s.ID || u.Picklist != s.picklist {
		return
	}
	if _, _, ok := s.reconciler.ApplyRemote(u); !ok {
		return
	}
	s.lookup.Build(s.list.Pending())
	s.renderItems()
}

func (s *Screen) scheduleHighlightEnd(barcode string) {
	time.AfterFunc(s.variant.HighlightTTL, func() {
		select {
		case s.expired <- barcode:
		case <-s.stop:
		}
	})
}

func (s *Screen) playOutcome(outcome string) {
	if url, ok := s.sounds.URL(outcome); ok {
		s.sink.Send(kiosk.Sound(url))
	}
}

func (s *Screen) hideManual() {
	s.lookup.Cancel()
	s.sink.Send(kiosk.Render("manualDropdown", ""))
	s.sink.Send(kiosk.Render("manualQtyControl", ""))
	s.sink.Send(kiosk.Render("manualFeedback", ""))
	s.sink.Send(kiosk.Clear("manualSearch"))
	s.sink.Send(kiosk.Focus("body"))
}

func (s *Screen) renderAll() {
	s.renderItems()
	s.renderHistory()
	s.sink.Send(kiosk.Render("monitorCard", renderString(context.Background(), MonitorCard(s.monitor))))
}

func (s *Screen) renderItems() {
	ctx := context.Background()
	highlighted := s.list.HighlightedBarcodes()
	s.sink.Send(kiosk.Render(s.variant.PendingTarget, renderString(ctx, ItemRows(s.list.VisiblePending(s.filter, s.query), highlighted))))
	s.sink.Send(kiosk.Render(s.variant.CompletedTarget, renderString(ctx, ItemRows(s.list.VisibleCompleted(s.query), highlighted))))
	s.sink.Send(kiosk.Render("pendingFilterButtons", renderString(ctx, FilterButtons(s.list.Counts(), s.filter))))
}

func (s *Screen) renderHistory() {
	s.sink.Send(kiosk.Render(s.variant.HistoryTarget, renderString(context.Background(), HistoryRows(s.history.Entries()))))
}

func (s *Screen) renderLookup() {
	s.sink.Send(kiosk.Render("manualDropdown", renderString(context.Background(), LookupResults(s.lookup.Results(), s.lookup.Highlight()))))
}

func (s *Screen) renderQuantity() {
	item, ok := s.lookup.Selected()
	if !ok {
		return
	}
	s.sink.Send(kiosk.Render("manualDropdown", ""))
	s.sink.Send(kiosk.Render("manualQtyControl", renderString(context.Background(), QuantityControl(item, s.lookup.QuantityText()))))
	s.sink.Send(kiosk.Focus("manualQty"))
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
