package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/sanity"
)

var whispers = []string{
	"Victoria...", "Richard...", "James...", "Eleanor...", "Thomas...",
	"murder...", "blood...", "lies...", "truth...", "evidence...",
	"guilty...", "innocent...", "deception...", "betrayal...", "secrets...",
	"corruption...", "justice...", "vengeance...", "death...", "life...",
}

// registerTasks schedules the periodic work. Registration order breaks ties between tasks due at the same time.
func (c *Controller) registerTasks() error {
	err := errors.Join(
		c.scheduler.Every("clock", ClockInterval, c.tickClock),
		c.scheduler.Every("sanity monitor", MonitorInterval, c.monitorSanity),
		c.scheduler.Every("autosave", AutosaveInterval, c.autosaveTask),
		c.scheduler.Every("glitch", GlitchInterval, c.maybeGlitch),
		c.scheduler.EveryDynamic("whisper", c.whisperInterval, c.maybeWhisper),
	)
	if err != nil {
		return errors.Wrap(err, "register game tasks")
	}
	return nil
}

func (c *Controller) tickClock(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock.Tick()
}

// monitorSanity picks up changes of the meters made outside the engine's setters.
func (c *Controller) monitorSanity(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handleTransitions(ctx, c.sanity.Observe(ctx))
	c.pushSanity(ctx)
}

func (c *Controller) autosaveTask(ctx context.Context) {
	if _, err := c.Autosave(ctx); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "autosave failed", errors.SlogError(err))
	}
}

func (c *Controller) maybeGlitch(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.clock.Phase().IsDark() {
		return
	}
	if c.rng.Float64() < GlitchChance {
		c.overlay.TriggerGlitch()
	}
}

func (c *Controller) whisperInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sanity.WhisperInterval(c.state.Sanity.Overall())
}

func (c *Controller) maybeWhisper(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rng.Float64() >= sanity.WhisperProbability(c.state.Sanity.Overall()) {
		return
	}
	text := whispers[c.rng.IntN(len(whispers))]
	c.audio.Whisper(text)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "whisper", slog.String("text", text))
}
