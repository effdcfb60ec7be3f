package saves_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/kvstore"
	"github.com/myrjola/unsolved/internal/metrics"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/random"
	"github.com/myrjola/unsolved/internal/saves"
	"github.com/myrjola/unsolved/internal/testhelpers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	corrupt   = 0.0
	noCorrupt = 0.99
)

type fixture struct {
	codec *saves.Codec
	store *kvstore.Memory
	clock *testhelpers.FakeNow
	rng   *random.Fixed
}

func newFixture(t *testing.T, policy saves.Policy, floats ...float64) fixture {
	t.Helper()
	f := fixture{
		store: kvstore.NewMemory(),
		clock: testhelpers.NewFakeNow(time.UnixMilli(1_700_000_000_000)),
		rng:   &random.Fixed{Floats: floats, Ints: []int{2}},
	}
	f.codec = saves.NewCodec(
		testhelpers.NewLogger(io.Discard),
		f.store,
		f.rng,
		metrics.NewGameMetrics(prometheus.NewRegistry()),
		f.clock.Now,
		saves.Options{CorruptionChance: saves.DefaultCorruptionChance, Policy: policy},
	)
	return f
}

func sampleState() models.GameState {
	state := models.NewGameState(models.NewTrinitySanity())
	state.Sanity.Set(models.SanityEmotional, 42)
	state.CurrentCase = "case1"
	state.CollectedEvidence = append(state.CollectedEvidence, "whiskey_glass", "derringer")
	state.AddAchievement("first_blood")
	progress := state.Progress("case1")
	progress.EvidenceCollected = append(progress.EvidenceCollected, "whiskey_glass")
	state.CaseProgress["case1"] = progress
	record := models.NewSuspectRecord()
	record.MetaLevel = 2
	record.Topics["Alibi"] = models.TopicMemory{Response: "I was reading.", IsLie: true, Timestamp: 12}
	state.SuspectMemory["Victoria"] = record
	return state
}

func night(state models.GameState) models.NightMode {
	return models.NightMode{CurrentTime: 23, DayPhase: models.PhaseNight, SanityLevel: state.Sanity.Overall()}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, saves.PolicyPayload, noCorrupt)
	state := sampleState()

	snap, err := f.codec.CreateSnapshot(state, night(state))
	require.NoError(t, err)
	require.Equal(t, models.SaveFormatVersion, snap.Version)
	require.Equal(t, int64(1_700_000_000_000), snap.Timestamp)

	result, err := f.codec.Write(ctx, saves.SlotKey(1), snap)
	require.NoError(t, err)
	require.False(t, result.Corrupted)
	require.Equal(t, "unsolved_save_1", result.Key)

	read, err := f.codec.Read(ctx, saves.SlotKey(1))
	require.NoError(t, err)
	require.Equal(t, state, read.GameState)
	require.Equal(t, snap, read)
}

func TestCorruptedWriteAndRepair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, saves.PolicyPayload, corrupt)
	state := sampleState()

	snap, err := f.codec.CreateSnapshot(state, night(state))
	require.NoError(t, err)
	result, err := f.codec.Write(ctx, "unsolved_save_0", snap)
	require.NoError(t, err)
	require.True(t, result.Corrupted)
	require.Equal(t, models.CorruptionChecksum, result.CorruptionType)

	read, err := f.codec.Read(ctx, "unsolved_save_0")
	require.ErrorIs(t, err, saves.ErrCorrupted)
	require.ErrorIs(t, err, saves.ErrCorruptionFlagged)
	require.True(t, read.Corrupted)
	require.NotEmpty(t, read.OriginalData)

	info, err := f.codec.SlotInfo(ctx, "unsolved_save_0")
	require.NoError(t, err)
	require.Equal(t, models.SlotInfo{
		Key:           "unsolved_save_0",
		Timestamp:     snap.Timestamp,
		Case:          "case1",
		Sanity:        80,
		EvidenceCount: 2,
		Corrupted:     true,
	}, info)

	repaired, err := f.codec.Repair(ctx, "unsolved_save_0")
	require.NoError(t, err)
	require.Equal(t, snap, repaired)

	read, err = f.codec.Read(ctx, "unsolved_save_0")
	require.NoError(t, err)
	require.Equal(t, state, read.GameState)
}

func TestReadFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(raw string) string
		reason error
	}{
		{"parse", func(string) string { return `{"version": "2.0", "gameState": ` }, saves.ErrParse},
		{"version", func(raw string) string {
			return strings.Replace(raw, `"version":"2.0"`, `"version":"1.0"`, 1)
		}, saves.ErrVersionMismatch},
		{"checksum", func(raw string) string {
			return strings.Replace(raw, `"emotional":42`, `"emotional":99`, 1)
		}, saves.ErrChecksumMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, saves.PolicyPayload, noCorrupt)
			state := sampleState()
			snap, err := f.codec.CreateSnapshot(state, night(state))
			require.NoError(t, err)
			_, err = f.codec.Write(ctx, "unsolved_save_2", snap)
			require.NoError(t, err)

			raw, err := f.store.Get(ctx, "unsolved_save_2")
			require.NoError(t, err)
			mutated := tt.mutate(raw)
			require.NotEqual(t, raw, mutated)
			require.NoError(t, f.store.Set(ctx, "unsolved_save_2", mutated))

			_, err = f.codec.Read(ctx, "unsolved_save_2")
			require.ErrorIs(t, err, saves.ErrCorrupted)
			require.ErrorIs(t, err, tt.reason)

			// Without an embedded backup the repair fails closed.
			_, err = f.codec.Repair(ctx, "unsolved_save_2")
			require.ErrorIs(t, err, saves.ErrRepairFailed)
		})
	}
}

func TestLivePolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, saves.PolicyLive, noCorrupt)
	live := sampleState()
	f.codec.SetLiveState(func() models.GameState { return live })

	snap, err := f.codec.CreateSnapshot(live, night(live))
	require.NoError(t, err)
	_, err = f.codec.Write(ctx, "unsolved_save_3", snap)
	require.NoError(t, err)

	_, err = f.codec.Read(ctx, "unsolved_save_3")
	require.NoError(t, err)

	live.Sanity.Set(models.SanityCognitive, 10)
	_, err = f.codec.Read(ctx, "unsolved_save_3")
	require.ErrorIs(t, err, saves.ErrChecksumMismatch)
}

func TestNotFoundAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, saves.PolicyPayload, noCorrupt)

	_, err := f.codec.Read(ctx, "unsolved_save_9")
	require.ErrorIs(t, err, saves.ErrNotFound)
	require.False(t, errors.Is(err, saves.ErrCorrupted))

	state := sampleState()
	snap, err := f.codec.CreateSnapshot(state, night(state))
	require.NoError(t, err)
	_, err = f.codec.Write(ctx, "unsolved_save_9", snap)
	require.NoError(t, err)
	require.NoError(t, f.codec.Delete(ctx, "unsolved_save_9"))
	_, err = f.codec.Read(ctx, "unsolved_save_9")
	require.ErrorIs(t, err, saves.ErrNotFound)
}

func TestContinueAnyway(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, saves.PolicyPayload, corrupt)
	state := sampleState()

	snap, err := f.codec.CreateSnapshot(state, night(state))
	require.NoError(t, err)
	_, err = f.codec.Write(ctx, "unsolved_save_4", snap)
	require.NoError(t, err)

	loaded, err := f.codec.ContinueAnyway(ctx, "unsolved_save_4")
	require.NoError(t, err)
	require.True(t, loaded.GameState.CorruptionWarning)
	require.Equal(t, "case1", loaded.GameState.CurrentCase)

	require.NoError(t, f.store.Set(ctx, "unsolved_save_5", "not json"))
	_, err = f.codec.ContinueAnyway(ctx, "unsolved_save_5")
	require.ErrorIs(t, err, saves.ErrParse)

	info, err := f.codec.SlotInfo(ctx, "unsolved_save_5")
	require.NoError(t, err)
	require.True(t, info.Corrupted)
}

func TestAutosaveRetention(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, saves.PolicyPayload, noCorrupt)
	state := sampleState()

	var written []string
	for range 7 {
		snap, err := f.codec.CreateSnapshot(state, night(state))
		require.NoError(t, err)
		result, err := f.codec.Autosave(ctx, snap)
		require.NoError(t, err)
		written = append(written, result.Key)
		f.clock.Advance(30 * time.Second)
	}

	keys, err := f.codec.Autosaves(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{written[6], written[5], written[4], written[3], written[2]}, keys)

	latest, err := f.codec.LatestAutosave(ctx)
	require.NoError(t, err)
	require.Equal(t, written[6], latest)

	require.NoError(t, f.store.Set(ctx, saves.SlotKey(0), "garbage"))
	infos, err := f.codec.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 6)
	require.Equal(t, "unsolved_save_0", infos[0].Key)
	require.True(t, infos[0].Corrupted)
	require.Equal(t, written[6], infos[1].Key)
}

func TestLatestAutosaveMissing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, saves.PolicyPayload, noCorrupt)
	_, err := f.codec.LatestAutosave(context.Background())
	require.ErrorIs(t, err, saves.ErrNotFound)
}

func TestDoubleCorruptionChance(t *testing.T) {
	t.Parallel()
	f := newFixture(t, saves.PolicyPayload, noCorrupt)

	require.InDelta(t, 0.01, f.codec.CorruptionChance(), 1e-12)
	require.InDelta(t, 0.02, f.codec.DoubleCorruptionChance(), 1e-12)
	for range 10 {
		f.codec.DoubleCorruptionChance()
	}
	require.InDelta(t, 1.0, f.codec.CorruptionChance(), 0)
}

func TestRaiseCorruptionChance(t *testing.T) {
	t.Parallel()
	f := newFixture(t, saves.PolicyPayload, noCorrupt)

	require.InDelta(t, 0.08, f.codec.RaiseCorruptionChance(0.08), 1e-12)
	require.InDelta(t, 0.08, f.codec.RaiseCorruptionChance(0.02), 1e-12, "never lowered")
	require.InDelta(t, 1.0, f.codec.RaiseCorruptionChance(3), 0)
}

func TestChecksumAndPolicy(t *testing.T) {
	t.Parallel()

	state := sampleState()
	a, err := saves.Checksum(state)
	require.NoError(t, err)
	require.Positive(t, a)
	state.HallucinationTriggered = true
	b, err := saves.Checksum(state)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	policy, err := saves.ParsePolicy("live")
	require.NoError(t, err)
	require.Equal(t, saves.PolicyLive, policy)
	_, err = saves.ParsePolicy("vibes")
	require.ErrorIs(t, err, saves.ErrInvalidPolicy)
}
