package suspects_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/random"
	"github.com/myrjola/unsolved/internal/suspects"
	"github.com/myrjola/unsolved/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

const (
	roll   = 0.0  // below every threshold
	noRoll = 0.99 // above every threshold
)

func newMemory(t *testing.T, rng random.Source) *suspects.Memory {
	t.Helper()
	catalog, err := cases.Load()
	require.NoError(t, err)
	c, err := catalog.Case("case1")
	require.NoError(t, err)
	clock := testhelpers.NewFakeNow(time.UnixMilli(1_700_000_000_000))
	return suspects.NewMemory(testhelpers.NewLogger(io.Discard), c, rng, clock.Now)
}

func TestLieConfrontationOnRepeat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	// Lie roll, detection roll and meta roll for the first call, only a meta roll for the second.
	rng := &random.Fixed{Floats: []float64{roll, noRoll, noRoll, noRoll}}
	memory := newMemory(t, rng)

	first, err := memory.DiscussTopic(ctx, "Victoria", "Alibi")
	require.NoError(t, err)
	require.Equal(t, suspects.BranchNew, first.Branch)
	require.True(t, first.LieFlagged)
	require.False(t, first.LieDetected)
	require.Contains(t, first.Text, "drawing room")

	second, err := memory.DiscussTopic(ctx, "Victoria", "Alibi")
	require.NoError(t, err)
	require.Equal(t, suspects.BranchConfrontation, second.Branch)
	require.Equal(t,
		"You know, I told you my alibi already. Why do you keep asking? Are you trying to catch me in a lie?",
		second.Text)
}

func TestRepeatBranches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		topic  string
		floats []float64
		want   string
		branch suspects.Branch
	}{
		{"honest repeat", "Alibi", []float64{noRoll, noRoll, noRoll, noRoll}, suspects.RepetitionResponse,
			suspects.BranchRepeat},
		{"lie without topic text", "Weather", []float64{roll, roll, noRoll, noRoll}, suspects.GenericConfrontation,
			suspects.BranchConfrontation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			memory := newMemory(t, &random.Fixed{Floats: tt.floats})
			_, err := memory.DiscussTopic(ctx, "Thomas", tt.topic)
			require.NoError(t, err)
			reply, err := memory.DiscussTopic(ctx, "Thomas", tt.topic)
			require.NoError(t, err)
			require.Equal(t, tt.branch, reply.Branch)
			require.Equal(t, tt.want, reply.Text)
		})
	}
}

func TestUnknownTopicFallsBack(t *testing.T) {
	t.Parallel()
	memory := newMemory(t, &random.Fixed{Floats: []float64{noRoll}})

	reply, err := memory.DiscussTopic(context.Background(), "Eleanor", "Weather")
	require.NoError(t, err)
	require.Equal(t, suspects.DefaultResponse, reply.Text)
}

func TestMetaLevelMonotonicAndCapped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	memory := newMemory(t, random.NewSeeded(42))

	topics := []string{"Relationship", "Alibi", "Argument", "Investment", "Weather"}
	previous := 0
	for i := range 40 {
		reply, err := memory.DiscussTopic(ctx, "Victoria", topics[i%len(topics)])
		require.NoError(t, err)
		require.GreaterOrEqual(t, reply.MetaLevel, previous)
		require.LessOrEqual(t, reply.MetaLevel, models.MaxMetaLevel)
		previous = reply.MetaLevel
	}
	require.Equal(t, models.MaxMetaLevel, memory.Record("Victoria").MetaLevel)
	require.Equal(t, models.EmotionPanicked, memory.Record("Victoria").Emotion)
}

func TestEmotionThresholds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	memory := newMemory(t, &random.Fixed{Floats: []float64{noRoll}})
	memory.SetEmotion("James", models.EmotionNervous)

	for level := 1; level <= 9; level++ {
		reply, err := memory.DiscussTopic(ctx, "James", "Alibi")
		require.NoError(t, err)
		switch {
		case level >= 8:
			require.Equal(t, models.EmotionPanicked, reply.Emotion)
			require.Contains(t, reply.Text, suspects.EmotionSuffix(models.EmotionPanicked))
		case level >= 5:
			require.Equal(t, models.EmotionConfused, reply.Emotion)
		default:
			require.Equal(t, models.EmotionNervous, reply.Emotion)
			require.Contains(t, reply.Text, " *fidgeting*")
		}
	}
	// Narrative emotions no longer override panic.
	memory.SetEmotion("James", models.EmotionEmotional)
	require.Equal(t, models.EmotionPanicked, memory.Record("James").Emotion)
}

func TestMetaRemark(t *testing.T) {
	t.Parallel()
	rng := &random.Fixed{Floats: []float64{noRoll, noRoll, roll}, Ints: []int{4}}
	memory := newMemory(t, rng)

	reply, err := memory.DiscussTopic(context.Background(), "Thomas", "Discovery")
	require.NoError(t, err)
	require.True(t, reply.MetaRemark)
	require.Contains(t, reply.Text, " Why do I feel like I'm in a game?")
}

func TestEndInterviewCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	memory := newMemory(t, &random.Fixed{Floats: []float64{roll, roll, noRoll, noRoll, noRoll, noRoll}})

	interview := memory.StartInterview("Victoria")
	require.Same(t, interview, memory.StartInterview("Victoria"))
	reply, err := interview.DiscussTopic(ctx, "Alibi")
	require.NoError(t, err)
	require.True(t, reply.LieDetected)
	_, err = interview.DiscussTopic(ctx, "Investment")
	require.NoError(t, err)
	require.Equal(t, []string{"Alibi", "Investment"}, interview.Topics())
	require.Empty(t, memory.Record("Victoria").Topics)

	memory.EndInterview(ctx, "Victoria")
	record := memory.Record("Victoria")
	require.Len(t, record.Topics, 2)
	require.True(t, record.Topics["Alibi"].IsLie)
	require.False(t, record.Topics["Investment"].IsLie)
	require.Equal(t, int64(1_700_000_000_000), record.Topics["Alibi"].Timestamp)

	_, err = interview.DiscussTopic(ctx, "Argument")
	require.True(t, errors.Is(err, suspects.ErrInterviewEnded))

	// A later interview remembers the lie.
	reply, err = memory.DiscussTopic(ctx, "Victoria", "Alibi")
	require.NoError(t, err)
	require.Equal(t, suspects.BranchConfrontation, reply.Branch)
}

func TestRestore(t *testing.T) {
	t.Parallel()
	memory := newMemory(t, &random.Fixed{Floats: []float64{noRoll}})

	record := models.NewSuspectRecord()
	record.MetaLevel = 3
	record.Topics["Alibi"] = models.TopicMemory{Response: "x", IsLie: false, Timestamp: 1}
	memory.Restore(map[string]models.SuspectRecord{"Victoria": record})

	reply, err := memory.DiscussTopic(context.Background(), "Victoria", "Alibi")
	require.NoError(t, err)
	require.Equal(t, suspects.BranchRepeat, reply.Branch)
	require.Equal(t, 4, reply.MetaLevel)
	require.Equal(t, 4, memory.Records()["Victoria"].MetaLevel)
}

func TestAnswerWithResolvedResponse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	memory := newMemory(t, &random.Fixed{Floats: []float64{noRoll}})

	require.False(t, memory.Known("Victoria", "Alibi"))
	base := memory.Resolve(ctx, memory.Source(), "Victoria", "Alibi")
	require.NotEqual(t, suspects.DefaultResponse, base)
	require.Equal(t, suspects.DefaultResponse, memory.Resolve(ctx, memory.Source(), "Victoria", "Favourite colour"))
	require.Equal(t, suspects.DefaultResponse, memory.Resolve(ctx, nil, "Victoria", "Alibi"))

	reply, err := memory.Answer(ctx, "Victoria", "Alibi", "I was reading.")
	require.NoError(t, err)
	require.Equal(t, suspects.BranchNew, reply.Branch)
	require.Contains(t, reply.Text, "I was reading.")
	require.True(t, memory.Known("Victoria", "Alibi"))

	// A known topic ignores the supplied answer.
	reply, err = memory.Answer(ctx, "Victoria", "Alibi", "Something else.")
	require.NoError(t, err)
	require.Equal(t, suspects.BranchRepeat, reply.Branch)
	require.NotContains(t, reply.Text, "Something else.")

	memory.EndInterview(ctx, "Victoria")
	require.True(t, memory.Known("Victoria", "Alibi"), "committed topics stay known")
}
