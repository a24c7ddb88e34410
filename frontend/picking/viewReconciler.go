package picking

import (
	"time"

	"pickstation/frontend/kiosk"
	"pickstation/infrastructure/timeutil"
	"pickstation/models"
)

// Fallback texts when the backend sends no error message.
const (
	ScanFailedMessage      = "Barcode tidak valid."
	ManualFailedMessage    = "Gagal update."
	AlreadyCompletedText   = "Item ini sudah selesai diambil."
	completionDialogTimeMS = 1500
)

// Applied is what a reconciliation changed and which feedback it calls for.
type Applied struct {
	Attempt  models.ScanAttempt
	Item     models.PickItem
	Found    bool
	Move     Relocation
	SoundURL string
	Dialog   *kiosk.Dialog
	// Feedback is inline text next to the manual quantity control.
	Feedback string
	Monitor  *Monitor
}

// ViewReconciler is the only writer of the pick list mirror.
type ViewReconciler struct {
	list    *PickList
	history *ScanHistory
	sounds  SoundCue
	now     func() time.Time
}

func NewViewReconciler(list *PickList, history *ScanHistory, sounds SoundCue) *ViewReconciler {
	return &ViewReconciler{list: list, history: history, sounds: sounds, now: time.Now}
}

// ApplyScan reconciles the result of a scanned barcode.
func (v *ViewReconciler) ApplyScan(res models.ReconciliationResult, barcode string) Applied {
	return v.apply(res, barcode, res.TargetBarcode(barcode), models.SourceScan, nil)
}

// ApplyManual reconciles a manual correction of the selected line.
func (v *ViewReconciler) ApplyManual(res models.ReconciliationResult, selected models.PickItem) Applied {
	return v.apply(res, selected.Barcode, selected.Barcode, models.SourceManual, &selected)
}

func (v *ViewReconciler) apply(res models.ReconciliationResult, submitted, target, source string, selected *models.PickItem) Applied {
	outcome := res.Outcome()
	out := Applied{
		Attempt: models.ScanAttempt{
			Barcode:   submitted,
			Outcome:   outcome,
			Source:    source,
			Timestamp: v.timestamp(res),
		},
	}
	v.history.Record(out.Attempt)

	if !res.Success {
		v.failure(&out, res, source)
		return out
	}

	out.Item, out.Move, out.Found = v.list.Update(target, res.QuantityPicked, res.Status)
	if out.Move == ToCompleted {
		v.list.SetHighlight(target, true)
	}
	if url, ok := v.sounds.URL(outcome); ok {
		out.SoundURL = url
	}
	out.Monitor = v.monitor(res, out, selected)

	if res.Completed {
		name := out.Item.ProductName
		if res.Product != nil && res.Product.ProductName != "" {
			name = res.Product.ProductName
		} else if selected != nil {
			name = selected.ProductName
		}
		out.Dialog = &kiosk.Dialog{
			Icon:    kiosk.IconSuccess,
			Title:   "Selesai!",
			Text:    name + " telah selesai.",
			TimerMS: completionDialogTimeMS,
		}
	}
	return out
}

func (v *ViewReconciler) failure(out *Applied, res models.ReconciliationResult, source string) {
	if res.AlreadyCompleted && !res.Transport {
		out.Dialog = &kiosk.Dialog{
			Icon:  kiosk.IconInfo,
			Title: "Item Sudah Selesai",
			Text:  orDefault(res.Error, AlreadyCompletedText),
		}
		return
	}
	if url, ok := v.sounds.URL(models.OutcomeError); ok {
		out.SoundURL = url
	}
	if source == models.SourceManual {
		out.Feedback = orDefault(res.Error, ManualFailedMessage)
		return
	}
	out.Dialog = &kiosk.Dialog{
		Icon:  kiosk.IconError,
		Title: "Error",
		Text:  orDefault(res.Error, ScanFailedMessage),
	}
}

// monitor builds the last-scanned card. The manual path shows the selected line.
func (v *ViewReconciler) monitor(res models.ReconciliationResult, out Applied, selected *models.PickItem) *Monitor {
	required := res.QuantityRequired
	if required == 0 {
		required = out.Item.QuantityRequired
	}
	var m Monitor
	switch {
	case selected != nil:
		m = monitorFromItem(*selected)
		m.Barcode = selected.Barcode
		required = selected.QuantityRequired
	case res.Product != nil:
		m = Monitor{
			ProductName: res.Product.ProductName,
			SKU:         res.Product.SKU,
			Barcode:     res.Product.Barcode,
			Brand:       res.Product.Brand,
			Variant:     res.Product.Variant,
		}
	case out.Found:
		m = monitorFromItem(out.Item)
	default:
		return nil
	}
	m.Progress = models.PickItem{QuantityPicked: res.QuantityPicked, QuantityRequired: required}.Progress()
	return &m
}

// ApplyRemote mirrors a line reconciled elsewhere. It touches neither history nor sound.
func (v *ViewReconciler) ApplyRemote(u models.ItemUpdate) (models.PickItem, Relocation, bool) {
	return v.list.Update(u.Barcode, u.QuantityPicked, u.Status)
}

// ClearHighlight ends the transient highlight on a line.
func (v *ViewReconciler) ClearHighlight(barcode string) {
	v.list.SetHighlight(barcode, false)
}

func (v *ViewReconciler) timestamp(res models.ReconciliationResult) string {
	if res.ServerTime != "" {
		return res.ServerTime
	}
	return timeutil.ClockWIB(v.now())
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
