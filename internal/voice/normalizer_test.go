package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsWakePhrase(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "wake phrase prefix",
			input: "Hey LeanVibe show me the tasks",
			want:  "show me the tasks",
		},
		{
			name:  "short wake phrase",
			input: "LeanVibe list files",
			want:  "list files",
		},
		{
			name:  "wake phrase mid-sentence",
			input: "ok hey leanvibe what is the status",
			want:  "ok what is the status",
		},
		{
			name:  "no wake phrase",
			input: "  Explain This Function  ",
			want:  "explain this function",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "wake phrase only",
			input: "hey leanvibe",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(nil)

	inputs := []string{
		"Hey LeanVibe show me the tasks",
		"leanvibe leanvibe status",
		"plain text with no wake phrase",
		"",
		"   spaced   out   words   ",
		"heyhey leanvibeleanvibe nested",
	}
	for _, input := range inputs {
		once := n.Normalize(input)
		assert.Equal(t, once, n.Normalize(once), "input %q", input)
	}
}

func TestNormalizeCustomWakePhrases(t *testing.T) {
	n := NewNormalizer([]string{"computer"})

	assert.Equal(t, "run the tests", n.Normalize("Computer run the tests"))
	// Default phrases are not stripped when custom ones are configured.
	assert.Equal(t, "hey leanvibe status", n.Normalize("hey leanvibe status"))
}
