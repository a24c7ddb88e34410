package picking

import (
	"testing"
	"time"
)

func typeKeys(b *ScanBuffer, start time.Time, gap time.Duration, keys ...string) (time.Time, string, bool) {
	at := start
	var code string
	var ok bool
	for _, k := range keys {
		code, ok = b.Press(k, at)
		at = at.Add(gap)
	}
	return at, code, ok
}

func TestScanBufferEmitsFastBurst(t *testing.T) {
	b := NewScanBuffer(100 * time.Millisecond)
	start := time.Unix(1000, 0)

	_, code, ok := typeKeys(b, start, 20*time.Millisecond, "8", "9", "9", "1", "0", "0", "1", "Enter")
	if !ok || code != "8991001" {
		t.Fatalf("expected 8991001, got %q ok=%v", code, ok)
	}
	if b.Pending() != "" {
		t.Fatalf("expected empty accumulator after emit, got %q", b.Pending())
	}
}

func TestScanBufferGapResetsAccumulator(t *testing.T) {
	b := NewScanBuffer(100 * time.Millisecond)
	start := time.Unix(1000, 0)

	at, _, _ := typeKeys(b, start, 30*time.Millisecond, "x", "y")
	// exactly the threshold counts as a gap
	at = at.Add(70 * time.Millisecond)
	_, code, ok := typeKeys(b, at, 10*time.Millisecond, "A", "1", "Enter")
	if !ok || code != "A1" {
		t.Fatalf("expected keys before the gap to be discarded, got %q", code)
	}
}

func TestScanBufferJustUnderThresholdKeepsBurst(t *testing.T) {
	b := NewScanBuffer(100 * time.Millisecond)
	start := time.Unix(1000, 0)

	b.Press("A", start)
	b.Press("B", start.Add(99*time.Millisecond))
	code, ok := b.Press("Enter", start.Add(120*time.Millisecond))
	if !ok || code != "AB" {
		t.Fatalf("expected AB, got %q", code)
	}
}

func TestScanBufferIgnoresEmptyEnterAndNonPrintable(t *testing.T) {
	b := NewScanBuffer(0)
	start := time.Unix(1000, 0)

	if _, ok := b.Press("Enter", start); ok {
		t.Fatalf("empty enter must not emit")
	}
	_, code, ok := typeKeys(b, start, 5*time.Millisecond, "Shift", "Z", "ArrowDown", "9", "Tab", "Enter")
	if !ok || code != "Z9" {
		t.Fatalf("expected Z9, got %q", code)
	}
}
