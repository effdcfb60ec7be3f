package game

import (
	"context"
	"log/slog"

	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/saves"
	"github.com/myrjola/unsolved/internal/scumguard"
)

// Save writes the current game to manual slot.
func (c *Controller) Save(ctx context.Context, slot int) (saves.WriteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return saves.WriteResult{}, ErrDestroyed
	}
	snap, err := c.snapshot()
	if err != nil {
		return saves.WriteResult{}, err
	}
	return c.codec.Write(ctx, saves.SlotKey(slot), snap)
}

// Autosave writes the current game to a new autosave entry.
func (c *Controller) Autosave(ctx context.Context) (saves.WriteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return saves.WriteResult{}, ErrDestroyed
	}
	snap, err := c.snapshot()
	if err != nil {
		return saves.WriteResult{}, err
	}
	return c.codec.Autosave(ctx, snap)
}

// snapshot expects c.mu to be held.
func (c *Controller) snapshot() (models.SaveSnapshot, error) {
	night := models.NightMode{
		CurrentTime: c.clock.Now(),
		DayPhase:    c.clock.Phase(),
		SanityLevel: c.state.Sanity.Overall(),
	}
	return c.codec.CreateSnapshot(c.liveState(), night)
}

// Load verifies and restores the save under key. A damaged save returns an error wrapping
// [saves.ErrCorrupted] and leaves the game untouched; the player then picks Repair, DeleteSave or
// ContinueAnyway.
func (c *Controller) Load(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	snap, err := c.codec.Read(ctx, key)
	if err != nil {
		return err
	}
	c.apply(ctx, key, snap)
	return nil
}

// LoadLatestAutosave restores the newest autosave and returns its key.
func (c *Controller) LoadLatestAutosave(ctx context.Context) (string, error) {
	key, err := c.codec.LatestAutosave(ctx)
	if err != nil {
		return "", err
	}
	return key, c.Load(ctx, key)
}

// Repair restores the backup embedded in the damaged save under key and loads it.
func (c *Controller) Repair(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	snap, err := c.codec.Repair(ctx, key)
	if err != nil {
		return err
	}
	c.apply(ctx, key, snap)
	return nil
}

// DeleteSave removes the save under key.
func (c *Controller) DeleteSave(ctx context.Context, key string) error {
	return c.codec.Delete(ctx, key)
}

// ContinueAnyway loads the save under key without verifying it and raises the persistent corruption warning.
func (c *Controller) ContinueAnyway(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	snap, err := c.codec.ContinueAnyway(ctx, key)
	if err != nil {
		return err
	}
	c.apply(ctx, key, snap)
	c.messages.DeveloperMessage(CorruptionAcceptedMessage)
	return nil
}

// Saves lists the manual slots followed by the autosaves.
func (c *Controller) Saves(ctx context.Context) ([]models.SlotInfo, error) {
	return c.codec.List(ctx)
}

// apply replaces the running game with snap. It expects c.mu to be held.
func (c *Controller) apply(ctx context.Context, key string, snap models.SaveSnapshot) {
	state := snap.GameState.Clone()
	c.suspects.Restore(state.SuspectMemory)
	c.state = state
	c.sanity.Rebase(&c.state.Sanity)
	c.current = nil
	if id := c.state.CurrentCase; id != "" {
		kase, err := c.catalog.Case(id)
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "saved case not in catalog", slog.String("case", id))
		} else {
			c.useCase(kase)
		}
	}
	c.clock.SetTime(snap.NightMode.CurrentTime)
	c.present(ctx)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "game loaded",
		slog.String("key", key),
		slog.String("case", c.state.CurrentCase),
		slog.Float64("hour", c.clock.Now()),
		slog.Bool("corruption_warning", c.state.CorruptionWarning))
}

// RecordReload counts a reload and reports whether the player is save scumming.
func (c *Controller) RecordReload(ctx context.Context) (scumguard.Verdict, scumguard.Activity, error) {
	activity, err := c.guard.RecordReload(ctx)
	if err != nil {
		return "", scumguard.Activity{}, err
	}
	verdict, err := c.guard.CheckThreshold(ctx)
	if err != nil {
		return "", activity, err
	}
	return verdict, activity, nil
}

// ResolveScumWarning answers a save scumming warning. Carrying on doubles the save corruption chance; backing off
// resets the reload counter.
func (c *Controller) ResolveScumWarning(ctx context.Context, carryOn bool) error {
	if !carryOn {
		return c.guard.Abort(ctx)
	}
	if _, err := c.guard.Continue(ctx); err != nil {
		return err
	}
	c.messages.DeveloperMessage(scumguard.ContinueMessage)
	return nil
}
