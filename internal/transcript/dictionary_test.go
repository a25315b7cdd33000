package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectorSnapsNearMisses(t *testing.T) {
	t.Parallel()

	c := NewCorrector([]string{"Kubernetes", "PostgreSQL", "Hyprland"}, 0.92)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "exact case-insensitive", in: "use hyprland today", want: "use Hyprland today"},
		{name: "fuzzy", in: "run kubernetis locally", want: "run Kubernetes locally"},
		{name: "keeps punctuation", in: "(kubernetes), then", want: "(Kubernetes), then"},
		{name: "unrelated words", in: "the cat sat on the mat", want: "the cat sat on the mat"},
		{name: "short words never fuzzy", in: "hyp land", want: "hyp land"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.Correct(tt.in))
		})
	}
}

func TestCorrectorPrefersLongestPhrase(t *testing.T) {
	t.Parallel()

	c := NewCorrector([]string{"Visual Studio Code", "code"}, 0)
	require.Equal(t, "open Visual Studio Code now", c.Correct("open visual studio code now"))
	require.Equal(t, "write code", c.Correct("write Code"))
}

func TestCorrectorDoesNotCrossPunctuation(t *testing.T) {
	t.Parallel()

	c := NewCorrector([]string{"New York"}, 0)
	require.Equal(t, "new, york", c.Correct("new, york"))
	require.Equal(t, "in New York.", c.Correct("in new york."))
}

func TestCorrectorEmpty(t *testing.T) {
	t.Parallel()

	c := NewCorrector([]string{"", "  "}, 0)
	require.Equal(t, "unchanged text", c.Correct("unchanged text"))
	require.Empty(t, NewCorrector([]string{"word"}, 0).Correct(""))
}
