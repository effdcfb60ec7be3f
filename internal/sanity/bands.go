package sanity

import (
	"time"

	"github.com/myrjola/unsolved/internal/models"
)

// Band is the discretized sanity level. Lower values are more severe, so bands order the same way as sanity.
type Band int

const (
	BandCritical Band = iota
	BandLow
	BandNormal
)

const (
	criticalBelow = 30
	lowBelow      = 60
)

func (b Band) String() string {
	switch b {
	case BandCritical:
		return "critical"
	case BandLow:
		return "low"
	case BandNormal:
		return "normal"
	}
	return "unknown"
}

// BandOf discretizes a sanity value: critical below 30, low below 60 and normal otherwise.
func BandOf(sanity int) Band {
	switch {
	case sanity < criticalBelow:
		return BandCritical
	case sanity < lowBelow:
		return BandLow
	default:
		return BandNormal
	}
}

// Cursor is the cursor style tag shown to the player.
type Cursor string

const (
	CursorNormal Cursor = "normal"
	CursorShaky  Cursor = "shaky"
	CursorStabby Cursor = "stabby"
)

// CursorFor returns the cursor style for a sanity value.
func CursorFor(sanity int) Cursor {
	switch BandOf(sanity) {
	case BandCritical:
		return CursorStabby
	case BandLow:
		return CursorShaky
	case BandNormal:
		return CursorNormal
	}
	return CursorNormal
}

// AmbientVolume is the target volume of the active music layers.
func AmbientVolume(sanity int) float64 {
	switch BandOf(sanity) {
	case BandCritical:
		return 0.5
	case BandLow:
		return 0.3
	case BandNormal:
		return 0.2
	}
	return 0.2
}

// WhisperProbability is the chance that one whisper check plays a whisper, (60-sanity)/60 clamped to [0,1].
func WhisperProbability(sanity int) float64 {
	p := float64(lowBelow-sanity) / lowBelow
	return min(max(p, 0), 1)
}

// WhisperInterval is how often whispers are checked. The cadence shortens as sanity drops.
func WhisperInterval(sanity int) time.Duration {
	switch BandOf(sanity) {
	case BandCritical:
		return 2 * time.Second
	case BandLow:
		return 5 * time.Second
	case BandNormal:
		return 10 * time.Second
	}
	return 10 * time.Second
}

// Distortion is the visual distortion tag of one trinity channel. Empty means none.
type Distortion string

const (
	DistortionNone     Distortion = ""
	DistortionTinted   Distortion = "tinted"
	DistortionInverted Distortion = "inverted"
	DistortionPulse    Distortion = "pulse"
	DistortionShake    Distortion = "shake"
	DistortionWarp     Distortion = "distortion"
	DistortionGlitch   Distortion = "glitch"
)

// DistortionFor returns the distortion of channel ch at the given value. The legacy overall channel has none.
func DistortionFor(ch models.SanityChannel, value int) Distortion {
	band := BandOf(value)
	if band == BandNormal {
		return DistortionNone
	}
	critical := band == BandCritical
	switch ch {
	case models.SanityCognitive:
		if critical {
			return DistortionInverted
		}
		return DistortionTinted
	case models.SanityEmotional:
		if critical {
			return DistortionShake
		}
		return DistortionPulse
	case models.SanityPerceptual:
		if critical {
			return DistortionGlitch
		}
		return DistortionWarp
	case models.SanityOverall:
		return DistortionNone
	}
	return DistortionNone
}

// Effects is everything presentation collaborators derive from the current sanity.
type Effects struct {
	Overall            int
	Band               Band
	Cursor             Cursor
	AmbientVolume      float64
	WhisperProbability float64
	WhisperInterval    time.Duration
	Distortions        map[models.SanityChannel]Distortion
}

// EffectsOf derives the effects of state.
func EffectsOf(state models.SanityState) Effects {
	overall := state.Overall()
	e := Effects{
		Overall:            overall,
		Band:               BandOf(overall),
		Cursor:             CursorFor(overall),
		AmbientVolume:      AmbientVolume(overall),
		WhisperProbability: WhisperProbability(overall),
		WhisperInterval:    WhisperInterval(overall),
		Distortions:        map[models.SanityChannel]Distortion{},
	}
	for _, ch := range state.Channels() {
		if d := DistortionFor(ch, state.Get(ch)); d != DistortionNone {
			e.Distortions[ch] = d
		}
	}
	return e
}
