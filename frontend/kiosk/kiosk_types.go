package kiosk

import "sync"

// Event types relayed by the kiosk page.
const (
	EventKey          = "key"
	EventActivity     = "activity"
	EventOverlayClick = "overlay_click"
	EventFilter       = "filter"
	EventSearch       = "search"
	EventLookupInput  = "lookup_input"
	EventLookupKey    = "lookup_key"
	EventLookupClick  = "lookup_click"
	EventQtyInput     = "qty_input"
	EventQtyKey       = "qty_key"
	EventQtySubmit    = "qty_submit"
	EventLookupCancel = "lookup_cancel"
)

// Fields a key event may originate from. Keys typed into any of them never reach the scan buffer.
const (
	FieldLookup   = "manualSearch"
	FieldQuantity = "manualQty"
	FieldSearch   = "searchInput"
)

// Event is one input event forwarded by the kiosk page.
// At is the browser's event.timeStamp in milliseconds.
type Event struct {
	Type  string  `json:"type"`
	Key   string  `json:"key,omitempty"`
	At    float64 `json:"at,omitempty"`
	Field string  `json:"field,omitempty"`
	Value string  `json:"value,omitempty"`
	Index int     `json:"index,omitempty"`
}

// Message types pushed to the kiosk page.
const (
	MessageRender   = "render"
	MessageSound    = "sound"
	MessageDialog   = "dialog"
	MessageOverlay  = "overlay"
	MessageFocus    = "focus"
	MessageRedirect = "redirect"
	MessageFeedback = "feedback"
	MessageClear    = "clear"
)

// Dialog icons, named after the kiosk's alert library.
const (
	IconSuccess = "success"
	IconError   = "error"
	IconInfo    = "info"
)

// Dialog is a modal shown by the kiosk page. TimerMS > 0 auto-dismisses it.
type Dialog struct {
	Icon    string `json:"icon"`
	Title   string `json:"title"`
	Text    string `json:"text,omitempty"`
	TimerMS int    `json:"timer_ms,omitempty"`
}

// Message is one instruction for the kiosk page.
type Message struct {
	Type    string  `json:"type"`
	Target  string  `json:"target,omitempty"`
	HTML    string  `json:"html,omitempty"`
	URL     string  `json:"url,omitempty"`
	Text    string  `json:"text,omitempty"`
	Level   string  `json:"level,omitempty"`
	Dialog  *Dialog `json:"dialog,omitempty"`
	Show    bool    `json:"show,omitempty"`
	DelayMS int     `json:"delay_ms,omitempty"`
}

// Sink receives messages for one kiosk page.
type Sink interface {
	Send(msg Message)
}

// Render replaces the inner HTML of the element with id target.
func Render(target, html string) Message {
	return Message{Type: MessageRender, Target: target, HTML: html}
}

// Sound plays the asset at url once.
func Sound(url string) Message {
	return Message{Type: MessageSound, URL: url}
}

// Feedback sets the inline feedback text of target. Level is "success" or "danger".
func Feedback(target, text, level string) Message {
	return Message{Type: MessageFeedback, Target: target, Text: text, Level: level}
}

// Overlay shows or hides the idle overlay.
func Overlay(show bool) Message {
	return Message{Type: MessageOverlay, Target: "idleOverlay", Show: show}
}

// Focus moves keyboard focus to target.
func Focus(target string) Message {
	return Message{Type: MessageFocus, Target: target}
}

// Clear empties the value of the input target.
func Clear(target string) Message {
	return Message{Type: MessageClear, Target: target}
}

// Redirect navigates the page after delayMS.
func Redirect(url string, delayMS int) Message {
	return Message{Type: MessageRedirect, URL: url, DelayMS: delayMS}
}

// ShowDialog opens a modal.
func ShowDialog(d Dialog) Message {
	return Message{Type: MessageDialog, Dialog: &d}
}

// Recorder is a Sink that keeps every message. Used by screen tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Send(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// OfType returns the recorded messages of one type in send order.
func (r *Recorder) OfType(typ string) []Message {
	out := make([]Message, 0)
	for _, m := range r.Messages() {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message of typ.
func (r *Recorder) Last(typ string) (Message, bool) {
	msgs := r.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == typ {
			return msgs[i], true
		}
	}
	return Message{}, false
}

// Reset drops every recorded message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
