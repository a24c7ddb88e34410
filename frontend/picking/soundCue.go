package picking

import (
	"strings"

	"pickstation/models"
)

// SoundTable maps an outcome to an asset file name under the sound base URL.
// An outcome missing from the table plays nothing.
type SoundTable map[string]string

// BatchSounds is the cue set of the batch-picking screens. Overscan is silent.
var BatchSounds = SoundTable{
	models.OutcomeCompleted: "completedsound.mp3",
	models.OutcomeSuccess:   "ding.mp3",
	models.OutcomeError:     "errorsound.mp3",
}

// OrderSounds is the cue set of the per-order scan screen.
var OrderSounds = SoundTable{
	models.OutcomeCompleted: "completedsound.mp3",
	models.OutcomeSuccess:   "ding.mp3",
	models.OutcomeError:     "wrong_barcode.mp3",
	models.OutcomeOverscan:  "over_scan.mp3",
}

// SoundCue resolves outcomes to playable URLs.
type SoundCue struct {
	baseURL string
	table   SoundTable
}

func NewSoundCue(baseURL string, table SoundTable) SoundCue {
	if baseURL == "" {
		baseURL = "/static/sounds/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return SoundCue{baseURL: baseURL, table: table}
}

// URL returns the asset for outcome, or false when the outcome is silent.
func (c SoundCue) URL(outcome string) (string, bool) {
	file, ok := c.table[outcome]
	if !ok || file == "" {
		return "", false
	}
	return c.baseURL + file, true
}
