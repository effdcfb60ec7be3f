package models

// DayPhase is the discrete part of the in-game day derived from the clock.
type DayPhase string

const (
	PhaseDay      DayPhase = "day"
	PhaseEvening  DayPhase = "evening"
	PhaseNight    DayPhase = "night"
	PhaseMidnight DayPhase = "midnight"
)

// IsDark reports whether the phase is night or midnight, when glitches and whispers are active.
func (p DayPhase) IsDark() bool {
	return p == PhaseNight || p == PhaseMidnight
}

// Mood selects the audio layers played by the audio collaborator.
type Mood string

const (
	MoodNeutral Mood = "neutral"
	MoodTension Mood = "tension"
	MoodDanger  Mood = "danger"
	MoodVictory Mood = "victory"
	MoodFailure Mood = "failure"
)

// IsNarrative reports whether the mood comes from a story event rather than the time of day.
func (m Mood) IsNarrative() bool {
	return m == MoodVictory || m == MoodFailure
}

// Intensity tags the strength of the night overlay.
type Intensity string

const (
	IntensityNormal  Intensity = "normal"
	IntensityIntense Intensity = "intense"
)
