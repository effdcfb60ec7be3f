// Package clock keeps the cyclical in-game time and derives the day phase from it.
package clock

import (
	"math"

	"github.com/myrjola/unsolved/internal/models"
)

const (
	// HoursPerDay is the length of the in-game day.
	HoursPerDay = 24.0
	// TickIncrement is how far one Tick advances the clock, in hours.
	TickIncrement = 0.1
	// precision removes float drift from repeated increments.
	precision = 1e6
)

// PhaseChangeFunc is notified with the phase before and after a change.
type PhaseChangeFunc func(old, new models.DayPhase)

// Clock is the in-game time of day. It is not safe for concurrent use; the game controller serializes access.
type Clock struct {
	current  float64
	phase    models.DayPhase
	onChange []PhaseChangeFunc
}

// New creates a clock at hour start. The initial phase does not notify anyone.
func New(start float64) *Clock {
	c := &Clock{}
	c.current = normalize(start)
	c.phase = PhaseAt(c.current)
	return c
}

// OnPhaseChange registers fn to be called whenever Tick or SetTime changes the phase.
func (c *Clock) OnPhaseChange(fn PhaseChangeFunc) {
	c.onChange = append(c.onChange, fn)
}

// Tick advances the clock by [TickIncrement] and returns the current phase and whether it changed.
func (c *Clock) Tick() (models.DayPhase, bool) {
	return c.moveTo(c.current + TickIncrement)
}

// SetTime forces an absolute hour and re-evaluates the phase. Values outside [0,24) wrap around.
func (c *Clock) SetTime(hour float64) (models.DayPhase, bool) {
	return c.moveTo(hour)
}

// Now returns the current hour in [0,24).
func (c *Clock) Now() float64 {
	return c.current
}

// Phase returns the current day phase.
func (c *Clock) Phase() models.DayPhase {
	return c.phase
}

func (c *Clock) moveTo(hour float64) (models.DayPhase, bool) {
	c.current = normalize(hour)
	old := c.phase
	c.phase = PhaseAt(c.current)
	if old == c.phase {
		return c.phase, false
	}
	for _, fn := range c.onChange {
		fn(old, c.phase)
	}
	return c.phase, true
}

// PhaseAt maps an hour in [0,24) to its phase: midnight [0,6), day [6,18), evening [18,21) and night [21,24).
func PhaseAt(hour float64) models.DayPhase {
	hour = normalize(hour)
	switch {
	case hour < 6: //nolint:mnd // phase boundary
		return models.PhaseMidnight
	case hour < 18: //nolint:mnd // phase boundary
		return models.PhaseDay
	case hour < 21: //nolint:mnd // phase boundary
		return models.PhaseEvening
	default:
		return models.PhaseNight
	}
}

func normalize(hour float64) float64 {
	if math.IsNaN(hour) || math.IsInf(hour, 0) {
		return 0
	}
	hour = math.Mod(hour, HoursPerDay)
	if hour < 0 {
		hour += HoursPerDay
	}
	hour = math.Round(hour*precision) / precision
	if hour >= HoursPerDay {
		hour = 0
	}
	return hour
}
