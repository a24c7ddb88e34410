package picking

import (
	"context"
	"strings"
	"testing"
	"time"

	"pickstation/frontend/kiosk"
	"pickstation/models"
)

type recordingPublisher struct {
	updates []models.ItemUpdate
}

func (p *recordingPublisher) Publish(u models.ItemUpdate) int {
	p.updates = append(p.updates, u)
	return 1
}

func screenItems() []models.PickItem {
	return []models.PickItem{
		{SKU: "A1", Barcode: "111", ProductName: "Teh", QuantityRequired: 5, QuantityPicked: 3, Status: models.StatusPartial},
		{SKU: "B2", Barcode: "222", ProductName: "Kopi", QuantityRequired: 2, Status: models.StatusPending},
		{SKU: "C3", Barcode: "333", ProductName: "Gula", QuantityRequired: 1, QuantityPicked: 1, Status: models.StatusCompleted},
	}
}

func newTestScreen(t *testing.T, backend *fakeBackend) (*Screen, *kiosk.Recorder, *recordingPublisher) {
	t.Helper()
	rec := &kiosk.Recorder{}
	pub := &recordingPublisher{}
	s, err := NewScreen(Options{
		Picklist:  "B1",
		AuthToken: "tok",
		Variant:   LookupVariant("batch", nil),
		Items:     screenItems(),
		Backend:   backend,
		Sink:      rec,
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("new screen: %v", err)
	}
	s.launch = func(fn func()) { fn() }
	return s, rec, pub
}

func scan(s *Screen, code string) {
	at := 1000.0
	for _, r := range code {
		s.Handle(context.Background(), kiosk.Event{Type: kiosk.EventKey, Key: string(r), At: at})
		at += 10
	}
	s.Handle(context.Background(), kiosk.Event{Type: kiosk.EventKey, Key: "Enter", At: at})
}

func drain(t *testing.T, s *Screen) {
	t.Helper()
	select {
	case sub := <-s.results:
		s.handleResult(sub)
	case <-time.After(2 * time.Second):
		t.Fatalf("no reconciliation result posted")
	}
}

func countBarcode(items []models.PickItem, barcode string) int {
	n := 0
	for _, it := range items {
		if it.Barcode == barcode {
			n++
		}
	}
	return n
}

func TestScreenScanCompletesLine(t *testing.T) {
	backend := &fakeBackend{result: models.ReconciliationResult{Success: true, QuantityPicked: 5, Status: models.StatusCompleted, Completed: true}}
	s, rec, pub := newTestScreen(t, backend)

	scan(s, "111")
	drain(t, s)

	if backend.lastBarcode != "111" {
		t.Fatalf("expected scan of 111, got %q", backend.lastBarcode)
	}
	if countBarcode(s.list.Pending(), "111") != 0 || countBarcode(s.list.Completed(), "111") != 1 {
		t.Fatalf("line should have moved to the completed grouping once")
	}
	if s.list.Completed()[0].Barcode != "111" {
		t.Fatalf("newly completed line should lead the completed grouping")
	}
	if !s.list.Highlighted("111") {
		t.Fatalf("expected highlight on the completed line")
	}

	entries := s.history.Entries()
	if len(entries) != 1 || entries[0].Outcome != models.OutcomeCompleted || entries[0].SourceLetter() != "S" {
		t.Fatalf("unexpected history %+v", entries)
	}
	if snd, ok := rec.Last(kiosk.MessageSound); !ok || !strings.HasSuffix(snd.URL, "completedsound.mp3") {
		t.Fatalf("expected completed cue, got %+v", snd)
	}
	dlg, ok := rec.Last(kiosk.MessageDialog)
	if !ok || dlg.Dialog.Title != "Selesai!" || dlg.Dialog.TimerMS != 1500 {
		t.Fatalf("expected auto-dismissing completion dialog, got %+v", dlg)
	}

	var completedHTML string
	for _, m := range rec.OfType(kiosk.MessageRender) {
		if m.Target == s.variant.CompletedTarget {
			completedHTML = m.HTML
		}
	}
	if !strings.Contains(completedHTML, ">Completed</span>") || !strings.Contains(completedHTML, "row-highlight") {
		t.Fatalf("completed grouping should show the badge and highlight: %s", completedHTML)
	}
	if len(pub.updates) != 1 || pub.updates[0].Status != models.StatusCompleted {
		t.Fatalf("expected one published update, got %+v", pub.updates)
	}

	// a repeated completion must not duplicate the row
	scan(s, "111")
	drain(t, s)
	if countBarcode(s.list.Completed(), "111") != 1 {
		t.Fatalf("line duplicated in completed grouping")
	}
}

func TestScreenAlreadyCompletedIsInformational(t *testing.T) {
	backend := &fakeBackend{result: models.ReconciliationResult{Success: false, AlreadyCompleted: true}}
	s, rec, _ := newTestScreen(t, backend)
	before := s.list.Items()

	scan(s, "333")
	drain(t, s)

	if len(rec.OfType(kiosk.MessageSound)) != 0 {
		t.Fatalf("already-completed must not play a sound")
	}
	dlg, ok := rec.Last(kiosk.MessageDialog)
	if !ok || dlg.Dialog.Icon != kiosk.IconInfo || dlg.Dialog.Text != AlreadyCompletedText {
		t.Fatalf("expected info dialog, got %+v", dlg)
	}
	if got := s.history.Entries()[0].Outcome; got != models.OutcomeOverscan {
		t.Fatalf("expected overscan history, got %s", got)
	}
	after := s.list.Items()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("state changed on failure: %+v -> %+v", before[i], after[i])
		}
	}
}

func TestScreenValidationErrorPlaysErrorCue(t *testing.T) {
	backend := &fakeBackend{result: models.ReconciliationResult{Success: false, Error: "Barcode tidak ada di picklist"}}
	s, rec, _ := newTestScreen(t, backend)

	scan(s, "999")
	drain(t, s)

	if snd, ok := rec.Last(kiosk.MessageSound); !ok || !strings.HasSuffix(snd.URL, "errorsound.mp3") {
		t.Fatalf("expected error cue, got %+v", snd)
	}
	dlg, _ := rec.Last(kiosk.MessageDialog)
	if dlg.Dialog == nil || dlg.Dialog.Icon != kiosk.IconError || dlg.Dialog.Text != "Barcode tidak ada di picklist" {
		t.Fatalf("unexpected dialog %+v", dlg)
	}
}

func TestScreenDropsScanWhileProcessing(t *testing.T) {
	backend := &fakeBackend{release: make(chan struct{}), result: models.ReconciliationResult{Success: true, QuantityPicked: 4, Status: models.StatusPartial}}
	s, _, _ := newTestScreen(t, backend)
	s.launch = func(fn func()) { go fn() }

	scan(s, "111")
	scan(s, "111")
	close(backend.release)
	drain(t, s)

	if got := backend.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
	if s.history.Len() != 1 {
		t.Fatalf("dropped scan must not be recorded, got %d entries", s.history.Len())
	}
	if s.processing {
		t.Fatalf("processing flag must clear after the result")
	}
}

func TestScreenIgnoresKeysFromTextFields(t *testing.T) {
	backend := &fakeBackend{}
	s, _, _ := newTestScreen(t, backend)

	for _, k := range []string{"1", "1", "1", "Enter"} {
		s.Handle(context.Background(), kiosk.Event{Type: kiosk.EventKey, Key: k, At: 10, Field: kiosk.FieldLookup})
	}
	if backend.calls.Load() != 0 || s.processing {
		t.Fatalf("keys typed into the lookup field must not submit")
	}
}

func TestScreenManualFlow(t *testing.T) {
	backend := &fakeBackend{result: models.ReconciliationResult{Success: true, QuantityPicked: 2, Status: models.StatusCompleted, Completed: true}}
	s, rec, _ := newTestScreen(t, backend)
	ctx := context.Background()

	s.Handle(ctx, kiosk.Event{Type: kiosk.EventLookupInput, Value: "kopi"})
	s.Handle(ctx, kiosk.Event{Type: kiosk.EventLookupKey, Key: "ArrowDown"})
	s.Handle(ctx, kiosk.Event{Type: kiosk.EventLookupKey, Key: "Enter"})
	if sel, ok := s.lookup.Selected(); !ok || sel.Barcode != "222" {
		t.Fatalf("expected Kopi selected, got %+v", sel)
	}

	s.Handle(ctx, kiosk.Event{Type: kiosk.EventQtyInput, Value: "abc"})
	s.Handle(ctx, kiosk.Event{Type: kiosk.EventQtySubmit})
	if backend.calls.Load() != 0 {
		t.Fatalf("invalid quantity must not reach the backend")
	}
	fb, _ := rec.Last(kiosk.MessageRender)
	if fb.Target != "manualFeedback" || !strings.Contains(fb.HTML, InvalidQuantityMessage) {
		t.Fatalf("expected inline invalid quantity feedback, got %+v", fb)
	}

	s.Handle(ctx, kiosk.Event{Type: kiosk.EventQtyKey, Key: "ArrowRight"})
	s.Handle(ctx, kiosk.Event{Type: kiosk.EventQtyKey, Key: "Enter"})
	drain(t, s)

	if backend.lastQty != 2 || backend.lastBarcode != "222" {
		t.Fatalf("unexpected manual request %s/%d", backend.lastBarcode, backend.lastQty)
	}
	if got := s.history.Entries()[0]; got.SourceLetter() != "M" || got.Outcome != models.OutcomeCompleted {
		t.Fatalf("unexpected manual history %+v", got)
	}
	if _, ok := s.lookup.Selected(); ok {
		t.Fatalf("manual success must close the lookup")
	}
	if clr, ok := rec.Last(kiosk.MessageClear); !ok || clr.Target != "manualSearch" {
		t.Fatalf("expected manual search to be cleared")
	}
	if s.monitor == nil || s.monitor.SKU != "B2" || s.monitor.Progress != "2 / 2" {
		t.Fatalf("unexpected monitor %+v", s.monitor)
	}
}

func TestScreenRemoteUpdateSkipsHistory(t *testing.T) {
	s, rec, _ := newTestScreen(t, &fakeBackend{})

	s.handleRemote(models.ItemUpdate{Picklist: "B1", Barcode: "222", QuantityPicked: 1, Status: models.StatusPartial, Origin: "other"})
	it, _ := s.list.Find("222")
	if it.QuantityPicked != 1 || it.Status != models.StatusPartial {
		t.Fatalf("remote update not applied: %+v", it)
	}
	if s.history.Len() != 0 || len(rec.OfType(kiosk.MessageSound)) != 0 {
		t.Fatalf("remote updates must not record history or play sounds")
	}

	s.handleRemote(models.ItemUpdate{Picklist: "B1", Barcode: "222", QuantityPicked: 2, Status: models.StatusCompleted, Origin: s.ID})
	if it, _ := s.list.Find("222"); it.QuantityPicked != 1 {
		t.Fatalf("own updates must be ignored")
	}
}

func TestScreenIdleOverlay(t *testing.T) {
	s, rec, _ := newTestScreen(t, &fakeBackend{})
	s.idleTimer = time.NewTimer(time.Hour)
	defer s.idleTimer.Stop()

	later := time.Now().Add(2 * time.Minute)
	s.now = func() time.Time { return later }
	s.handleIdleTimer()
	if ov, ok := rec.Last(kiosk.MessageOverlay); !ok || !ov.Show {
		t.Fatalf("expected overlay shown, got %+v", ov)
	}

	s.Handle(context.Background(), kiosk.Event{Type: kiosk.EventOverlayClick})
	if ov, _ := rec.Last(kiosk.MessageOverlay); ov.Show {
		t.Fatalf("overlay click should hide the overlay")
	}
}

func TestScreenFilterRendersCounts(t *testing.T) {
	s, rec, _ := newTestScreen(t, &fakeBackend{})

	s.Handle(context.Background(), kiosk.Event{Type: kiosk.EventFilter, Value: models.StatusPartial})
	var pending, buttons string
	for _, m := range rec.OfType(kiosk.MessageRender) {
		switch m.Target {
		case s.variant.PendingTarget:
			pending = m.HTML
		case "pendingFilterButtons":
			buttons = m.HTML
		}
	}
	if !strings.Contains(pending, `data-barcode="111"`) || strings.Contains(pending, `data-barcode="222"`) {
		t.Fatalf("partial filter should show only A1: %s", pending)
	}
	if !strings.Contains(buttons, `class="btn btn-light" data-filter="partial"`) {
		t.Fatalf("partial button should be active: %s", buttons)
	}
}
