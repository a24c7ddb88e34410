package picking

import (
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultKeyGap separates a scanner burst from human typing.
const DefaultKeyGap = 100 * time.Millisecond

// ScanBuffer turns keyboard-wedge keystrokes into barcodes.
type ScanBuffer struct {
	gap  time.Duration
	buf  []rune
	last time.Time
}

func NewScanBuffer(gap time.Duration) *ScanBuffer {
	if gap <= 0 {
		gap = DefaultKeyGap
	}
	return &ScanBuffer{gap: gap}
}

// Press feeds one key. It returns the barcode when Enter terminates a non-empty burst.
// A gap of at least the threshold since the previous key discards what was typed before it.
func (b *ScanBuffer) Press(key string, at time.Time) (string, bool) {
	if key == "Enter" {
		if len(b.buf) == 0 {
			return "", false
		}
		code := string(b.buf)
		b.Reset()
		return code, true
	}

	r, size := utf8.DecodeRuneInString(key)
	if size == 0 || size != len(key) || !unicode.IsPrint(r) {
		return "", false
	}
	if !b.last.IsZero() && at.Sub(b.last) >= b.gap {
		b.buf = b.buf[:0]
	}
	b.buf = append(b.buf, r)
	b.last = at
	return "", false
}

// Pending is the current accumulator.
func (b *ScanBuffer) Pending() string {
	return string(b.buf)
}

func (b *ScanBuffer) Reset() {
	b.buf = b.buf[:0]
	b.last = time.Time{}
}
