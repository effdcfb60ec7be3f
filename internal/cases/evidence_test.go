package cases_test

import (
	"testing"

	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/random"
	"github.com/stretchr/testify/require"
)

func TestCipher(t *testing.T) {
	t.Parallel()

	require.Equal(t, "XKL", cases.Encrypt("abc"))
	require.Equal(t, "RJ 500,000!", cases.Encrypt("Io 500,000!"))

	seen := map[rune]bool{}
	for _, r := range cases.Encrypt("abcdefghijklmnopqrstuvwxyz") {
		require.False(t, seen[r], "letter %q used twice", r)
		seen[r] = true
	}
	require.Len(t, seen, 26)
}

func TestPresent(t *testing.T) {
	t.Parallel()

	catalog, err := cases.Load()
	require.NoError(t, err)
	c, err := catalog.Case("case1")
	require.NoError(t, err)

	tests := []struct {
		id    string
		check func(t *testing.T, e cases.Evidence, p cases.Presentation)
	}{
		{"whiskey_glass", func(t *testing.T, e cases.Evidence, p cases.Presentation) {
			require.Equal(t, "📄 Whiskey Glass", p.Title)
			require.Equal(t, e.Description, p.Text)
		}},
		{"financial_documents", func(t *testing.T, e cases.Evidence, p cases.Presentation) {
			require.NotEqual(t, e.Description, p.Text)
			require.Equal(t, cases.Encrypt(e.Description), p.Text)
		}},
		{"torn_letter", func(t *testing.T, e cases.Evidence, p cases.Presentation) {
			require.Equal(t, []string{
				"Meet me after midnight",
				"We must settle this tonight",
				"Nobody can know",
				"Signed E.",
			}, p.Fragments)
		}},
		{"derringer", func(t *testing.T, _ cases.Evidence, p cases.Presentation) {
			require.True(t, p.Redacted)
		}},
	}
	for _, tt := range tests {
		e, err := c.FindEvidence(tt.id)
		require.NoError(t, err)
		tt.check(t, e, e.Present())
	}
}

func TestStageAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opened int
		want   cases.Stage
	}{
		{opened: 1, want: cases.Stage{}},
		{opened: 6, want: cases.Stage{}},
		{opened: 7, want: cases.Stage{Mutating: true}},
		{opened: 11, want: cases.Stage{Mutating: true}},
		{opened: 12, want: cases.Stage{Mutating: true, Hostile: true}},
		{opened: 13, want: cases.Stage{Mutating: true, Hostile: true, Attacks: true}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, cases.StageAt(tt.opened), "opened %d times", tt.opened)
	}
}

func TestEvolve(t *testing.T) {
	t.Parallel()

	p := cases.Presentation{Title: "📄 Note", Text: "the butler lied", Fragments: []string{"one two"}}

	calm := p.Evolve(cases.Stage{}, &random.Fixed{Floats: []float64{0}})
	require.Equal(t, p, calm)

	// Every word is replaced when each roll lands below the mutation chance.
	mutated := p.Evolve(cases.Stage{Mutating: true}, &random.Fixed{Floats: []float64{0}, Ints: []int{1}})
	require.True(t, mutated.Mutated)
	require.Equal(t, "███ ███ ███", mutated.Text)
	require.Equal(t, []string{"███ ███"}, mutated.Fragments)
	require.Equal(t, []string{"one two"}, p.Fragments, "original fragments untouched")

	untouched := p.Evolve(cases.Stage{Mutating: true}, &random.Fixed{Floats: []float64{0.5}})
	require.Equal(t, p.Text, untouched.Text)

	hostile := p.Evolve(cases.Stage{Mutating: true, Hostile: true}, &random.Fixed{Floats: []float64{0.5}})
	require.True(t, hostile.Hostile)
	require.Contains(t, hostile.Title, cases.HostileTitle)
}
