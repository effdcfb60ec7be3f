// Package sanity owns the sanity meters, detects band crossings and derives the presentation effects of sanity.
package sanity

import (
	"context"
	"log/slog"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/models"
)

// ErrChannelNotTracked is returned when writing a meter the current mode does not store, e.g., the derived
// overall value in trinity mode.
var ErrChannelNotTracked = errors.NewSentinel("sanity channel not tracked")

// TransitionKind names a band crossing.
type TransitionKind string

const (
	EnteredCritical TransitionKind = "enteredCritical"
	EnteredLow      TransitionKind = "enteredLow"
	Recovered       TransitionKind = "recovered"
)

// Transition is one band crossing of one channel.
type Transition struct {
	Channel models.SanityChannel
	Kind    TransitionKind
	From    Band
	To      Band
	Value   int
}

// DeveloperMessage returns the in-fiction message shown when the overall sanity makes this transition.
func (t Transition) DeveloperMessage() string {
	switch t.Kind {
	case EnteredCritical:
		return "Your sanity is critically low. The game is becoming unstable..."
	case EnteredLow:
		return "Reality is beginning to blur. Are you sure you want to continue?"
	case Recovered:
		return "Your mind is clearing. The truth becomes more apparent."
	}
	return ""
}

func kindOf(from, to Band) (TransitionKind, bool) {
	switch {
	case from == to:
		return "", false
	case to == BandCritical:
		return EnteredCritical, true
	case to == BandLow:
		return EnteredLow, true
	default:
		return Recovered, true
	}
}

const (
	fileAttackPerceptual = -10
	fileAttackEmotional  = -5
)

// Engine mutates the sanity meters and reports band crossings. Each crossing is reported once; staying
// within a band never reports again.
//
// In trinity mode the engine also tracks the band of the derived overall value under [models.SanityOverall].
type Engine struct {
	logger   *slog.Logger
	state    *models.SanityState
	observed map[models.SanityChannel]Band
}

// NewEngine creates an engine over state. The current bands are taken as already observed.
func NewEngine(logger *slog.Logger, state *models.SanityState) *Engine {
	e := &Engine{
		logger: logger.With(slog.String("source", "sanity")),
		state:  state,
	}
	e.Rebase(state)
	return e
}

// Rebase switches the engine to state and accepts its bands without reporting transitions, e.g., after
// loading a save or starting a case.
func (e *Engine) Rebase(state *models.SanityState) {
	e.state = state
	e.observed = make(map[models.SanityChannel]Band, len(state.Values)+1)
	for _, ch := range e.tracked() {
		e.observed[ch] = BandOf(state.Get(ch))
	}
}

// Writable reports whether Set stores ch. Adjust also accepts the derived overall value in trinity mode.
func (e *Engine) Writable(ch models.SanityChannel) bool {
	return e.state.Has(ch)
}

// State returns the meters the engine operates on.
func (e *Engine) State() *models.SanityState {
	return e.state
}

// Set stores value in ch and returns the resulting transitions.
func (e *Engine) Set(ctx context.Context, ch models.SanityChannel, value int) []Transition {
	if !e.set(ch, value) {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "sanity channel not tracked", slog.String("channel", string(ch)))
		return nil
	}
	return e.Observe(ctx)
}

// Adjust changes ch by delta and returns the resulting transitions.
//
// Adjusting [models.SanityOverall] in trinity mode spreads the delta over all three channels.
func (e *Engine) Adjust(ctx context.Context, ch models.SanityChannel, delta int) []Transition {
	if ch == models.SanityOverall && e.state.IsTrinity() {
		for _, c := range e.state.Channels() {
			e.set(c, e.state.Get(c)+delta)
		}
		return e.Observe(ctx)
	}
	return e.Set(ctx, ch, e.state.Get(ch)+delta)
}

// FileAttack applies the damage of opening a hostile file: perceptual -10 and emotional -5, or overall -10
// in legacy mode.
func (e *Engine) FileAttack(ctx context.Context) []Transition {
	if !e.state.IsTrinity() {
		return e.Adjust(ctx, models.SanityOverall, fileAttackPerceptual)
	}
	e.set(models.SanityPerceptual, e.state.Get(models.SanityPerceptual)+fileAttackPerceptual)
	e.set(models.SanityEmotional, e.state.Get(models.SanityEmotional)+fileAttackEmotional)
	return e.Observe(ctx)
}

// Reset restores full sanity and returns the resulting transitions.
func (e *Engine) Reset(ctx context.Context) []Transition {
	e.state.Reset()
	return e.Observe(ctx)
}

// Observe compares the current values with the last observed bands and reports every crossing. The monitor
// task calls it every second to pick up mutations made outside the engine.
func (e *Engine) Observe(ctx context.Context) []Transition {
	var transitions []Transition
	for _, ch := range e.tracked() {
		value := e.state.Get(ch)
		to := BandOf(value)
		from, seen := e.observed[ch]
		e.observed[ch] = to
		if !seen {
			continue
		}
		kind, ok := kindOf(from, to)
		if !ok {
			continue
		}
		t := Transition{Channel: ch, Kind: kind, From: from, To: to, Value: value}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "sanity band crossed",
			slog.String("channel", string(ch)),
			slog.String("kind", string(kind)),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.Int("value", value))
		transitions = append(transitions, t)
	}
	return transitions
}

// Effects derives the presentation effects of the current meters.
func (e *Engine) Effects() Effects {
	return EffectsOf(*e.state)
}

func (e *Engine) set(ch models.SanityChannel, value int) bool {
	return e.state.Set(ch, value)
}

// tracked lists the channels whose bands are observed. Overall comes first.
func (e *Engine) tracked() []models.SanityChannel {
	channels := e.state.Channels()
	if e.state.IsTrinity() {
		channels = append([]models.SanityChannel{models.SanityOverall}, channels...)
	}
	return channels
}
