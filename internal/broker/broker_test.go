package broker_test

import (
	"testing"

	"github.com/myrjola/unsolved/internal/broker"
	"github.com/stretchr/testify/require"
)

func TestBroker(t *testing.T) {
	type testCase struct {
		name     string
		testFunc func(t *testing.T, b *broker.Broker[string])
	}
	tests := []testCase{
		{
			name: "every subscriber receives messages",
			testFunc: func(t *testing.T, b *broker.Broker[string]) {
				_, first := b.Subscribe()
				_, second := b.Subscribe()
				b.Publish("mood:danger")
				require.Equal(t, "mood:danger", <-first)
				require.Equal(t, "mood:danger", <-second)
			},
		},
		{
			name: "unsubscribe closes the channel",
			testFunc: func(t *testing.T, b *broker.Broker[string]) {
				id, c := b.Subscribe()
				b.Unsubscribe(id)
				_, ok := <-c
				require.False(t, ok, "channel not closed")
				// Publishing after unsubscribe must not panic.
				b.Publish("glitch")
			},
		},
		{
			name: "full buffers drop messages",
			testFunc: func(t *testing.T, b *broker.Broker[string]) {
				_, c := b.Subscribe()
				b.Publish("one")
				b.Publish("two")
				b.Publish("three")
				require.Equal(t, "one", <-c)
				require.Equal(t, "two", <-c)
				// A later publish proves the broker is still running.
				b.Publish("four")
				require.Equal(t, "four", <-c)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := broker.New[string](2)
			go br.Start()
			t.Cleanup(func() {
				br.Stop()
			})
			tt.testFunc(t, br)
		})
	}
}

func TestBrokerStop(t *testing.T) {
	br := broker.New[int](1)
	go br.Start()
	_, c := br.Subscribe()
	br.Stop()
	_, ok := <-c
	require.False(t, ok, "subscriber channel not closed on stop")

	br.Publish(1)
	id, late := br.Subscribe()
	require.Equal(t, -1, id)
	_, ok = <-late
	require.False(t, ok)
}
