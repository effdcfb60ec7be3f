// Package saves writes and reads game snapshots, verifies their integrity and simulates save corruption.
package saves

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/kvstore"
	"github.com/myrjola/unsolved/internal/metrics"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/random"
)

const (
	SlotKeyPrefix     = "unsolved_save_"
	AutosaveKeyPrefix = "unsolved_autosave_"

	// DefaultCorruptionChance is the probability of corrupting a written snapshot before any save scumming.
	DefaultCorruptionChance = 0.01
	// DefaultAutosaveRetention is how many autosaves are kept.
	DefaultAutosaveRetention = 5
)

// SlotKey returns the store key of a manual save slot.
func SlotKey(slot int) string {
	return fmt.Sprintf("%s%d", SlotKeyPrefix, slot)
}

// LiveState returns the current game state. It is used by [PolicyLive].
type LiveState func() models.GameState

type Options struct {
	CorruptionChance  float64
	Policy            Policy
	AutosaveRetention int
}

// WriteResult tells what actually ended up in the store.
type WriteResult struct {
	Key            string
	Corrupted      bool
	CorruptionType models.CorruptionType
}

// Codec creates, persists and verifies snapshots.
type Codec struct {
	logger    *slog.Logger
	store     kvstore.Store
	rng       random.Source
	metrics   *metrics.GameMetrics
	now       func() time.Time
	policy    Policy
	retention int

	mu               sync.Mutex
	corruptionChance float64
	live             LiveState
}

func NewCodec(
	logger *slog.Logger,
	store kvstore.Store,
	rng random.Source,
	m *metrics.GameMetrics,
	now func() time.Time,
	opts Options,
) *Codec {
	if opts.Policy == "" {
		opts.Policy = PolicyPayload
	}
	if opts.AutosaveRetention <= 0 {
		opts.AutosaveRetention = DefaultAutosaveRetention
	}
	c := &Codec{
		logger:           logger.With(slog.String("source", "saves")),
		store:            store,
		rng:              rng,
		metrics:          m,
		now:              now,
		policy:           opts.Policy,
		retention:        opts.AutosaveRetention,
		corruptionChance: min(max(opts.CorruptionChance, 0), 1),
	}
	m.SetCorruptionChance(c.corruptionChance)
	return c
}

// SetLiveState registers the provider of the live state that [PolicyLive] verifies against.
func (c *Codec) SetLiveState(live LiveState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live = live
}

// CorruptionChance returns the current probability that Write corrupts a snapshot.
func (c *Codec) CorruptionChance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.corruptionChance
}

// DoubleCorruptionChance doubles the corruption probability, capped at 1. It returns the new value.
func (c *Codec) DoubleCorruptionChance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corruptionChance = min(c.corruptionChance*2, 1) //nolint:mnd // doubling
	c.metrics.SetCorruptionChance(c.corruptionChance)
	return c.corruptionChance
}

// RaiseCorruptionChance lifts the corruption probability to at least chance, capped at 1. It returns the
// new value.
func (c *Codec) RaiseCorruptionChance(chance float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corruptionChance = max(c.corruptionChance, min(chance, 1))
	c.metrics.SetCorruptionChance(c.corruptionChance)
	return c.corruptionChance
}

// CreateSnapshot copies state into a versioned snapshot with its checksum.
func (c *Codec) CreateSnapshot(state models.GameState, night models.NightMode) (models.SaveSnapshot, error) {
	copied := state.Clone()
	checksum, err := Checksum(copied)
	if err != nil {
		return models.SaveSnapshot{}, errors.Wrap(err, "checksum snapshot")
	}
	return models.SaveSnapshot{
		Version:   models.SaveFormatVersion,
		Timestamp: c.now().UnixMilli(),
		GameState: copied,
		NightMode: night,
		Checksum:  checksum,
	}, nil
}

// Write stores snap under key. With probability CorruptionChance the stored entry is replaced by a corrupted
// wrapper that embeds the original, base64 encoded, for repair.
func (c *Codec) Write(ctx context.Context, key string, snap models.SaveSnapshot) (WriteResult, error) {
	result := WriteResult{Key: key}
	stored := snap
	if c.rng.Float64() < c.CorruptionChance() {
		original, err := json.Marshal(snap)
		if err != nil {
			return result, errors.Wrap(err, "marshal original snapshot", slog.String("key", key))
		}
		stored.Corrupted = true
		stored.CorruptionType = models.CorruptionTypes[c.rng.IntN(len(models.CorruptionTypes))]
		stored.OriginalData = base64.StdEncoding.EncodeToString(original)
		result.Corrupted = true
		result.CorruptionType = stored.CorruptionType
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return result, errors.Wrap(err, "marshal snapshot", slog.String("key", key))
	}
	if err = c.store.Set(ctx, key, string(data)); err != nil {
		return result, errors.Wrap(err, "store snapshot", slog.String("key", key))
	}

	c.metrics.ObserveSaveWritten(kindOf(key), result.Corrupted)
	level := slog.LevelInfo
	if result.Corrupted {
		level = slog.LevelWarn
	}
	c.logger.LogAttrs(ctx, level, "snapshot written",
		slog.String("key", key),
		slog.Bool("corrupted", result.Corrupted),
		slog.String("corruption_type", string(result.CorruptionType)))
	return result, nil
}

// Read loads and verifies the snapshot under key.
//
// Integrity failures return ErrCorrupted joined with ErrParse, ErrCorruptionFlagged, ErrVersionMismatch or
// ErrChecksumMismatch. The parsed snapshot is returned alongside the error when parsing succeeded.
func (c *Codec) Read(ctx context.Context, key string) (models.SaveSnapshot, error) {
	snap, err := c.read(ctx, key)
	switch {
	case err == nil:
		c.metrics.ObserveLoad("ok")
	case errors.Is(err, ErrNotFound):
		c.metrics.ObserveLoad("not_found")
	default:
		c.metrics.ObserveLoad("corrupted")
		c.logger.LogAttrs(ctx, slog.LevelWarn, "corrupted snapshot", errors.SlogError(err))
	}
	return snap, err
}

func (c *Codec) read(ctx context.Context, key string) (models.SaveSnapshot, error) {
	var snap models.SaveSnapshot
	raw, err := c.load(ctx, key)
	if err != nil {
		return snap, err
	}
	if err = json.Unmarshal([]byte(raw), &snap); err != nil {
		return models.SaveSnapshot{}, errors.Wrap(corrupted(errors.Join(ErrParse, err)), "read snapshot",
			slog.String("key", key))
	}
	if snap.Corrupted {
		return snap, errors.Wrap(corrupted(ErrCorruptionFlagged), "read snapshot",
			slog.String("key", key), slog.String("corruption_type", string(snap.CorruptionType)))
	}
	if snap.Version != models.SaveFormatVersion {
		return snap, errors.Wrap(corrupted(ErrVersionMismatch), "read snapshot",
			slog.String("key", key), slog.String("version", snap.Version))
	}

	reference := snap.GameState
	if c.policy == PolicyLive {
		c.mu.Lock()
		live := c.live
		c.mu.Unlock()
		if live != nil {
			reference = live()
		}
	}
	checksum, err := Checksum(reference)
	if err != nil {
		return snap, errors.Wrap(err, "checksum snapshot", slog.String("key", key))
	}
	if checksum != snap.Checksum {
		return snap, errors.Wrap(corrupted(ErrChecksumMismatch), "read snapshot",
			slog.String("key", key),
			slog.String("policy", string(c.policy)),
			slog.Int64("stored", snap.Checksum),
			slog.Int64("computed", checksum))
	}
	snap.GameState.Normalize()
	return snap, nil
}

func (c *Codec) load(ctx context.Context, key string) (string, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", errors.Wrap(ErrNotFound, "load snapshot", slog.String("key", key))
	}
	if err != nil {
		return "", errors.Wrap(err, "load snapshot", slog.String("key", key))
	}
	return raw, nil
}

// Repair restores the original snapshot embedded in a corrupted entry and writes it back under key.
// It fails with ErrRepairFailed when there is no usable backup.
func (c *Codec) Repair(ctx context.Context, key string) (models.SaveSnapshot, error) {
	snap, err := c.repair(ctx, key)
	c.metrics.ObserveRepair(err == nil)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "repair failed", errors.SlogError(err))
		return models.SaveSnapshot{}, err
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "snapshot repaired", slog.String("key", key))
	return snap, nil
}

func (c *Codec) repair(ctx context.Context, key string) (models.SaveSnapshot, error) {
	raw, err := c.load(ctx, key)
	if err != nil {
		return models.SaveSnapshot{}, err
	}
	fail := func(reason string, cause error) error {
		return errors.Wrap(errors.Join(ErrRepairFailed, cause), reason, slog.String("key", key))
	}

	var wrapper models.SaveSnapshot
	if err = json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return models.SaveSnapshot{}, fail("parse corrupted entry", err)
	}
	if wrapper.OriginalData == "" {
		return models.SaveSnapshot{}, fail("find embedded backup", nil)
	}
	original, err := base64.StdEncoding.DecodeString(wrapper.OriginalData)
	if err != nil {
		return models.SaveSnapshot{}, fail("decode embedded backup", err)
	}
	var snap models.SaveSnapshot
	if err = json.Unmarshal(original, &snap); err != nil {
		return models.SaveSnapshot{}, fail("parse embedded backup", err)
	}
	if err = c.store.Set(ctx, key, string(original)); err != nil {
		return models.SaveSnapshot{}, errors.Wrap(err, "store repaired snapshot", slog.String("key", key))
	}
	snap.GameState.Normalize()
	return snap, nil
}

// Delete clears the entry under key.
func (c *Codec) Delete(ctx context.Context, key string) error {
	if err := c.store.Remove(ctx, key); err != nil {
		return errors.Wrap(err, "delete snapshot", slog.String("key", key))
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "snapshot deleted", slog.String("key", key))
	return nil
}

// ContinueAnyway loads whatever can be parsed from key without verifying it. The returned state has its
// persistent corruption warning raised.
func (c *Codec) ContinueAnyway(ctx context.Context, key string) (models.SaveSnapshot, error) {
	raw, err := c.load(ctx, key)
	if err != nil {
		return models.SaveSnapshot{}, err
	}
	var snap models.SaveSnapshot
	if err = json.Unmarshal([]byte(raw), &snap); err != nil {
		return models.SaveSnapshot{}, errors.Wrap(corrupted(errors.Join(ErrParse, err)), "load best effort",
			slog.String("key", key))
	}
	snap.GameState.Normalize()
	snap.GameState.CorruptionWarning = true
	c.logger.LogAttrs(ctx, slog.LevelWarn, "continuing with unverified snapshot",
		slog.String("key", key), slog.Bool("corrupted", snap.Corrupted))
	return snap, nil
}

// Autosave writes snap under a timestamped autosave key and prunes old autosaves beyond the retention count.
func (c *Codec) Autosave(ctx context.Context, snap models.SaveSnapshot) (WriteResult, error) {
	key := fmt.Sprintf("%s%d", AutosaveKeyPrefix, snap.Timestamp)
	result, err := c.Write(ctx, key, snap)
	if err != nil {
		return result, err
	}
	if err = c.pruneAutosaves(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Autosaves lists autosave keys, newest first.
func (c *Codec) Autosaves(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	type entry struct {
		key string
		ts  int64
	}
	var entries []entry
	for _, key := range keys {
		suffix, ok := strings.CutPrefix(key, AutosaveKeyPrefix)
		if !ok {
			continue
		}
		ts, parseErr := strconv.ParseInt(suffix, 10, 64)
		if parseErr != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "ignoring autosave with malformed key", slog.String("key", key))
			continue
		}
		entries = append(entries, entry{key: key, ts: ts})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.ts > b.ts:
			return -1
		case a.ts < b.ts:
			return 1
		}
		return strings.Compare(a.key, b.key)
	})
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.key)
	}
	return out, nil
}

func (c *Codec) pruneAutosaves(ctx context.Context) error {
	keys, err := c.Autosaves(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys[min(len(keys), c.retention):] {
		if err = c.store.Remove(ctx, key); err != nil {
			return errors.Wrap(err, "prune autosave", slog.String("key", key))
		}
		c.logger.LogAttrs(ctx, slog.LevelDebug, "pruned autosave", slog.String("key", key))
	}
	return nil
}

// LatestAutosave returns the key of the newest autosave or ErrNotFound.
func (c *Codec) LatestAutosave(ctx context.Context) (string, error) {
	keys, err := c.Autosaves(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", errors.Wrap(ErrNotFound, "find latest autosave")
	}
	return keys[0], nil
}

// SlotInfo summarizes the entry under key without verifying it. Entries that cannot be parsed are reported
// as corrupted.
func (c *Codec) SlotInfo(ctx context.Context, key string) (models.SlotInfo, error) {
	raw, err := c.load(ctx, key)
	if err != nil {
		return models.SlotInfo{}, err
	}
	info := models.SlotInfo{Key: key}
	var snap models.SaveSnapshot
	if err = json.Unmarshal([]byte(raw), &snap); err != nil {
		info.Corrupted = true
		return info, nil //nolint:nilerr // unparsable entries are listed as corrupted
	}
	info.Timestamp = snap.Timestamp
	info.Case = snap.GameState.CurrentCase
	info.Sanity = snap.GameState.Sanity.Overall()
	info.EvidenceCount = len(snap.GameState.CollectedEvidence)
	info.Corrupted = snap.Corrupted
	return info, nil
}

// List summarizes every manual save and autosave, manual slots first.
func (c *Codec) List(ctx context.Context) ([]models.SlotInfo, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list keys")
	}
	autosaves, err := c.Autosaves(ctx)
	if err != nil {
		return nil, err
	}
	var ordered []string
	for _, key := range keys {
		if strings.HasPrefix(key, SlotKeyPrefix) {
			ordered = append(ordered, key)
		}
	}
	ordered = append(ordered, autosaves...)

	infos := make([]models.SlotInfo, 0, len(ordered))
	for _, key := range ordered {
		info, infoErr := c.SlotInfo(ctx, key)
		if errors.Is(infoErr, ErrNotFound) {
			continue
		}
		if infoErr != nil {
			return nil, infoErr
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func kindOf(key string) string {
	if strings.HasPrefix(key, AutosaveKeyPrefix) {
		return "autosave"
	}
	return "manual"
}
