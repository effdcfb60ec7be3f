package models_test

import (
	"encoding/json"
	"testing"

	"github.com/myrjola/unsolved/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSanityState(t *testing.T) {
	t.Parallel()

	legacy := models.NewLegacySanity()
	require.False(t, legacy.IsTrinity())
	require.True(t, legacy.Set(models.SanityOverall, 150))
	require.Equal(t, 100, legacy.Get(models.SanityOverall))
	require.True(t, legacy.Set(models.SanityOverall, -20))
	require.Equal(t, 0, legacy.Overall())
	require.False(t, legacy.Set(models.SanityCognitive, 50))

	trinity := models.NewTrinitySanity()
	require.True(t, trinity.IsTrinity())
	require.Equal(t,
		[]models.SanityChannel{models.SanityCognitive, models.SanityEmotional, models.SanityPerceptual},
		trinity.Channels())
	trinity.Set(models.SanityCognitive, 50)
	trinity.Set(models.SanityEmotional, 41)
	require.Equal(t, 63, trinity.Overall())
	require.Equal(t, 63, trinity.Get(models.SanityOverall))

	clone := trinity.Clone()
	clone.Set(models.SanityPerceptual, 0)
	require.Equal(t, 100, trinity.Get(models.SanityPerceptual))

	trinity.Reset()
	require.Equal(t, 100, trinity.Overall())
}

func TestGameStateRoundTrip(t *testing.T) {
	t.Parallel()

	state := models.NewGameState(models.NewTrinitySanity())
	state.CurrentCase = "case1"
	state.AddAchievement("night_owl")
	state.AddAchievement("first_case")
	require.False(t, state.AddAchievement("night_owl"))
	require.Equal(t, []string{"first_case", "night_owl"}, state.Achievements)
	state.Progress("case1")
	state.SuspectMemory["victoria"] = models.NewSuspectRecord()

	data, err := json.Marshal(state)
	require.NoError(t, err)
	var decoded models.GameState
	require.NoError(t, json.Unmarshal(data, &decoded))
	decoded.Normalize()
	require.Equal(t, state, decoded)
}

func TestGameStateNormalize(t *testing.T) {
	t.Parallel()

	var state models.GameState
	state.Achievements = []string{"b", "a", "b"}
	state.Normalize()
	require.Equal(t, []string{"a", "b"}, state.Achievements)
	require.NotNil(t, state.SuspectMemory)
	require.Equal(t, 100, state.Sanity.Overall())
}

func TestEmotionIcon(t *testing.T) {
	t.Parallel()

	require.Equal(t, "😱", models.EmotionPanicked.Icon())
	require.Equal(t, "😐", models.Emotion("unknown").Icon())
}
