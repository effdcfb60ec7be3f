// Package scumguard detects rapid reload patterns and makes save corruption more likely for players who keep
// reloading.
package scumguard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/kvstore"
	"github.com/myrjola/unsolved/internal/metrics"
)

const (
	ReloadCountKey      = "unsolved_reload_count"
	LastReloadKey       = "unsolved_last_reload"
	CorruptionChanceKey = "unsolved_corruption_chance"

	// Window is how close reloads must follow each other to be counted together.
	Window = time.Minute
	// Threshold is the reload count within Window that triggers a warning.
	Threshold = 5

	// ContinueMessage is shown when the player ignores the warning.
	ContinueMessage = "Save file corruption detected. Your progress may be lost."
)

// Verdict is the result of CheckThreshold.
type Verdict string

const (
	VerdictOK   Verdict = "ok"
	VerdictWarn Verdict = "warn"
)

// Escalator raises the probability of save corruption.
type Escalator interface {
	DoubleCorruptionChance() float64
	RaiseCorruptionChance(chance float64) float64
}

// Activity is the persisted reload counter.
type Activity struct {
	Count int
	// LastReload is in unix milliseconds.
	LastReload int64
}

// Guard tracks reload activity in the key-value store so that it survives restarts.
type Guard struct {
	logger    *slog.Logger
	store     kvstore.Store
	escalator Escalator
	metrics   *metrics.GameMetrics
	now       func() time.Time
}

func New(
	logger *slog.Logger,
	store kvstore.Store,
	escalator Escalator,
	m *metrics.GameMetrics,
	now func() time.Time,
) *Guard {
	return &Guard{
		logger:    logger.With(slog.String("source", "scumguard")),
		store:     store,
		escalator: escalator,
		metrics:   m,
		now:       now,
	}
}

// Activity reads the persisted counter. Missing or malformed values count as zero.
func (g *Guard) Activity(ctx context.Context) (Activity, error) {
	count, err := g.readInt(ctx, ReloadCountKey)
	if err != nil {
		return Activity{}, err
	}
	last, err := g.readInt(ctx, LastReloadKey)
	if err != nil {
		return Activity{}, err
	}
	return Activity{Count: int(count), LastReload: last}, nil
}

// RecordReload counts a reload. Reloads within Window of the previous one increment the counter, otherwise
// it starts over at one.
func (g *Guard) RecordReload(ctx context.Context) (Activity, error) {
	activity, err := g.Activity(ctx)
	if err != nil {
		return Activity{}, err
	}
	now := g.now().UnixMilli()
	if now-activity.LastReload < Window.Milliseconds() {
		activity.Count++
	} else {
		activity.Count = 1
	}
	activity.LastReload = now
	if err = g.write(ctx, activity); err != nil {
		return Activity{}, err
	}
	g.logger.LogAttrs(ctx, slog.LevelDebug, "reload recorded", slog.Int("count", activity.Count))
	return activity, nil
}

// CheckThreshold returns VerdictWarn when Threshold reloads happened within the current window.
func (g *Guard) CheckThreshold(ctx context.Context) (Verdict, error) {
	activity, err := g.Activity(ctx)
	if err != nil {
		return "", err
	}
	if g.now().UnixMilli()-activity.LastReload < Window.Milliseconds() && activity.Count >= Threshold {
		g.metrics.ObserveScumDecision("warned")
		g.logger.LogAttrs(ctx, slog.LevelWarn, "save scumming detected", slog.Int("count", activity.Count))
		return VerdictWarn, nil
	}
	return VerdictOK, nil
}

// Abort answers a warning by backing off. The counter is reset to zero.
func (g *Guard) Abort(ctx context.Context) error {
	if err := g.store.Set(ctx, ReloadCountKey, "0"); err != nil {
		return errors.Wrap(err, "reset reload count")
	}
	g.metrics.ObserveScumDecision("aborted")
	g.logger.LogAttrs(ctx, slog.LevelInfo, "save scum warning heeded")
	return nil
}

// Continue answers a warning by carrying on. Save corruption becomes twice as likely, also for later sessions
// that call Restore. The new probability is returned.
func (g *Guard) Continue(ctx context.Context) (float64, error) {
	chance := g.escalator.DoubleCorruptionChance()
	g.metrics.ObserveScumDecision("continued")
	g.logger.LogAttrs(ctx, slog.LevelWarn, "save scum warning ignored", slog.Float64("corruption_chance", chance))
	if err := g.store.Set(ctx, CorruptionChanceKey, strconv.FormatFloat(chance, 'g', -1, 64)); err != nil {
		return chance, errors.Wrap(err, "write corruption chance")
	}
	return chance, nil
}

// Restore applies the corruption chance escalated by earlier sessions. A configured chance that is already
// higher is kept. Malformed values are ignored.
func (g *Guard) Restore(ctx context.Context) (float64, error) {
	raw, err := g.store.Get(ctx, CorruptionChanceKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return g.escalator.RaiseCorruptionChance(0), nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read corruption chance")
	}
	chance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "malformed corruption chance, ignoring", slog.String("value", raw))
		return g.escalator.RaiseCorruptionChance(0), nil
	}
	chance = g.escalator.RaiseCorruptionChance(chance)
	g.logger.LogAttrs(ctx, slog.LevelDebug, "corruption chance restored", slog.Float64("corruption_chance", chance))
	return chance, nil
}

// WarningText is the prompt shown with a warning.
func WarningText(count int) string {
	return fmt.Sprintf("⚠️ SAVE SCUMMING DETECTED ⚠️\n\n"+
		"You've reloaded the game %d times in the last minute.\n"+
		"This behavior may corrupt your save files.\n\n"+
		"Continue anyway?", count)
}

func (g *Guard) readInt(ctx context.Context, key string) (int64, error) {
	raw, err := g.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read reload activity", slog.String("key", key))
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "malformed reload activity, treating as zero",
			slog.String("key", key), slog.String("value", raw))
		return 0, nil
	}
	return v, nil
}

func (g *Guard) write(ctx context.Context, a Activity) error {
	if err := g.store.Set(ctx, ReloadCountKey, strconv.Itoa(a.Count)); err != nil {
		return errors.Wrap(err, "write reload count")
	}
	if err := g.store.Set(ctx, LastReloadKey, strconv.FormatInt(a.LastReload, 10)); err != nil {
		return errors.Wrap(err, "write last reload")
	}
	return nil
}
