package voice

import "strings"

// DefaultWakePhrases are the activation prefixes stripped during
// normalization when no custom phrases are configured.
var DefaultWakePhrases = []string{"hey leanvibe", "leanvibe"}

// Normalizer lowercases input, strips wake phrases, and trims whitespace.
// It is a pure, idempotent transformation: normalizing an already-normalized
// string returns it unchanged. Empty input yields empty output.
type Normalizer struct {
	wakePhrases []string
}

// NewNormalizer returns a Normalizer stripping the given wake phrases
// case-insensitively. Longer phrases are removed first so that a phrase
// containing another ("hey leanvibe" / "leanvibe") is stripped whole.
func NewNormalizer(wakePhrases []string) *Normalizer {
	if len(wakePhrases) == 0 {
		wakePhrases = DefaultWakePhrases
	}
	phrases := make([]string, len(wakePhrases))
	for i, p := range wakePhrases {
		phrases[i] = strings.ToLower(strings.TrimSpace(p))
	}
	// Insertion sort by descending length; the list is tiny.
	for i := 1; i < len(phrases); i++ {
		for j := i; j > 0 && len(phrases[j]) > len(phrases[j-1]); j-- {
			phrases[j], phrases[j-1] = phrases[j-1], phrases[j]
		}
	}
	return &Normalizer{wakePhrases: phrases}
}

// Normalize applies the normalization. Wake-phrase removal loops until the
// text stops changing, so removals that make adjacent fragments form a new
// occurrence cannot leave one behind; this is what guarantees idempotence
// for arbitrary input.
func (n *Normalizer) Normalize(text string) string {
	out := strings.ToLower(strings.TrimSpace(text))
	for {
		prev := out
		for _, phrase := range n.wakePhrases {
			if phrase == "" {
				continue
			}
			out = strings.ReplaceAll(out, phrase, " ")
		}
		out = strings.Join(strings.Fields(out), " ")
		if out == prev {
			return out
		}
	}
}
