package cases_test

import (
	"context"
	"testing"

	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	catalog, err := cases.Load()
	require.NoError(t, err)
	require.Len(t, catalog.Cases(), 3)

	c, err := catalog.Case("case1")
	require.NoError(t, err)
	require.Equal(t, "The Midnight Murder", c.Name)
	require.Equal(t, "Medium", c.Difficulty)
	require.True(t, c.IsCulprit("Victoria"))
	require.False(t, c.IsCulprit("Thomas"))

	victoria, err := c.Suspect("Victoria")
	require.NoError(t, err)
	require.Contains(t, victoria.TopicNames(), "Alibi")

	_, err = catalog.Case("case9")
	require.ErrorIs(t, err, cases.ErrUnknownCase)
	_, err = c.Suspect("Moriarty")
	require.ErrorIs(t, err, cases.ErrUnknownSuspect)
	_, err = c.FindEvidence("fingerprint")
	require.ErrorIs(t, err, cases.ErrUnknownEvidence)
}

func TestBaseResponse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	catalog, err := cases.Load()
	require.NoError(t, err)
	c, err := catalog.Case("case1")
	require.NoError(t, err)

	response, ok, err := c.BaseResponse(ctx, "Thomas", "Footprints")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, response, "muddy footprints")

	_, ok, err = c.BaseResponse(ctx, "Thomas", "Weather")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = c.BaseResponse(ctx, "Nobody", "Alibi")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `[{`},
		{"missing id", `[{"suspects":[{"name":"A"}],"solution":{"killer":"A"}}]`},
		{"no suspects", `[{"id":"x","solution":{"killer":"A"}}]`},
		{"killer not a suspect", `[{"id":"x","suspects":[{"name":"A"}],"solution":{"killer":"B"}}]`},
		{"unknown evidence type",
			`[{"id":"x","suspects":[{"name":"A"}],"solution":{"killer":"A"},"evidence":[{"id":"e","type":"hologram"}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cases.Parse([]byte(tt.json))
			require.Error(t, err)
			if tt.name != "malformed" {
				require.True(t, errors.Is(err, cases.ErrInvalidCatalog))
			}
		})
	}
}
