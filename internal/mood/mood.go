// Package mood maps the day phase and sanity to the audio mood and the overlay that sits on top of the scene.
package mood

import (
	"github.com/myrjola/unsolved/internal/models"
)

// Resolution is what the audio and overlay collaborators are told to present.
type Resolution struct {
	Mood      models.Mood
	Opacity   float64
	Intensity models.Intensity
}

const (
	criticalSanity = 30
	lowSanity      = 60
)

// Resolve derives the default mood, overlay opacity and intensity for phase and overall sanity.
func Resolve(phase models.DayPhase, sanity int) Resolution {
	r := Resolution{
		Mood:      DefaultMood(phase),
		Opacity:   0,
		Intensity: models.IntensityNormal,
	}
	switch phase {
	case models.PhaseDay:
		r.Opacity = 0
	case models.PhaseEvening:
		r.Opacity = 0.3
	case models.PhaseNight:
		r.Opacity = 0.6
	case models.PhaseMidnight:
		r.Opacity = 0.8
		r.Intensity = models.IntensityIntense
	}

	switch {
	case sanity < criticalSanity:
		r.Opacity += 0.2
		r.Intensity = models.IntensityIntense
	case sanity < lowSanity:
		r.Opacity += 0.1
	}
	r.Opacity = min(max(r.Opacity, 0), 1)
	return r
}

// DefaultMood is the mood of phase absent narrative overrides.
func DefaultMood(phase models.DayPhase) models.Mood {
	switch phase {
	case models.PhaseEvening, models.PhaseNight:
		return models.MoodTension
	case models.PhaseMidnight:
		return models.MoodDanger
	case models.PhaseDay:
		return models.MoodNeutral
	}
	return models.MoodNeutral
}

// Tracker remembers a narrative mood override such as victory or failure. The override wins over the
// phase default until the next phase change.
type Tracker struct {
	override models.Mood
}

// Override sets the narrative mood. Phase moods are not overrides and are ignored; it reports whether m
// was applied.
func (t *Tracker) Override(m models.Mood) bool {
	if !m.IsNarrative() {
		return false
	}
	t.override = m
	return true
}

// PhaseChanged drops any override.
func (t *Tracker) PhaseChanged() {
	t.override = ""
}

// Current resolves the presentation for phase and sanity, applying the override if one is active.
func (t *Tracker) Current(phase models.DayPhase, sanity int) Resolution {
	r := Resolve(phase, sanity)
	if t.override != "" {
		r.Mood = t.override
	}
	return r
}

// Layer is one music track and its target volume.
type Layer struct {
	Track  string
	Volume float64
}

// Layers lists the music layers the audio engine mixes for m.
func Layers(m models.Mood) []Layer {
	switch m {
	case models.MoodNeutral:
		return []Layer{{Track: "background", Volume: 0.3}}
	case models.MoodTension:
		return []Layer{{Track: "background", Volume: 0.2}, {Track: "nightmare", Volume: 0.1}}
	case models.MoodDanger:
		return []Layer{{Track: "background", Volume: 0.1}, {Track: "nightmare", Volume: 0.3}}
	case models.MoodVictory:
		return []Layer{{Track: "victory", Volume: 0.4}}
	case models.MoodFailure:
		return []Layer{{Track: "failure", Volume: 0.4}}
	}
	return nil
}
