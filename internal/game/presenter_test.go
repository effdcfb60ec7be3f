package game_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/unsolved/internal/broker"
	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/game"
	"github.com/myrjola/unsolved/internal/kvstore"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/mood"
	"github.com/myrjola/unsolved/internal/random"
	"github.com/myrjola/unsolved/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestBrokerPresenter(t *testing.T) {
	t.Parallel()
	b := broker.New[game.Event](16)
	go b.Start()
	t.Cleanup(b.Stop)
	_, events := b.Subscribe()

	presenter := game.NewBrokerPresenter(b)
	presenter.SetMood(models.MoodDanger)
	presenter.SetOverlay(0.8, models.IntensityIntense)
	presenter.Whisper("secrets...")
	presenter.DeveloperMessage("hello")

	want := []game.Event{
		{Kind: game.EventMood, Mood: models.MoodDanger, Layers: []mood.Layer{
			{Track: "background", Volume: 0.1},
			{Track: "nightmare", Volume: 0.3},
		}},
		{Kind: game.EventOverlay, Opacity: 0.8, Intensity: models.IntensityIntense},
		{Kind: game.EventWhisper, Text: "secrets..."},
		{Kind: game.EventDeveloperMessage, Text: "hello"},
	}
	for _, e := range want {
		require.Equal(t, e, <-events)
	}
}

func TestController_BrokerPresenter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := broker.New[game.Event](64)
	go b.Start()
	t.Cleanup(b.Stop)
	_, events := b.Subscribe()

	catalog, err := cases.Load()
	require.NoError(t, err)
	presenter := game.NewBrokerPresenter(b)
	controller, err := game.New(ctx, testhelpers.NewLogger(io.Discard), game.Dependencies{ //nolint:exhaustruct
		Store:    kvstore.NewMemory(),
		RNG:      &random.Fixed{Floats: []float64{rollHigh}}, //nolint:exhaustruct
		Catalog:  catalog,
		Audio:    presenter,
		Overlay:  presenter,
		Messages: presenter,
	}, game.Options{StartHour: 3}) //nolint:exhaustruct
	require.NoError(t, err)
	t.Cleanup(func() { controller.Destroy(ctx) })

	first := <-events
	require.Equal(t, game.EventMood, first.Kind)
	require.Equal(t, models.MoodDanger, first.Mood)
	overlay := <-events
	require.Equal(t, game.EventOverlay, overlay.Kind)
	require.InDelta(t, 0.8, overlay.Opacity, 1e-9)
}
