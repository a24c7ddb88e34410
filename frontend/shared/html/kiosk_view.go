package html

import "github.com/a-h/templ"

// IdleOverlay is the blocking overlay toggled by the idle guard.
func IdleOverlay() string {
	return `<div id="idleOverlay" class="idle-overlay" style="display:none"><div class="idle-box"><h2>Sesi tidak aktif</h2><p>Klik di mana saja untuk melanjutkan.</p></div></div>`
}

// KioskScript loads the relay that forwards input to socketPath and applies station messages.
func KioskScript(socketPath string) string {
	return `<script src="/assets/kiosk.js" data-socket="` + templ.EscapeString(socketPath) + `" defer></script>` + CSRFFormScript()
}
