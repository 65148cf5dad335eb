package voice

import (
	"strings"

	"github.com/leanvibe/leanvibe-ai/internal/models"
)

// Scoring constants. The scorer starts from the base, adds the keyword
// bonus per distinct keyword of the intent's set found in the text, adds
// the exact bonus when the text equals one of the intent's canonical
// phrases, and clamps the result to [0,1].
const (
	BaseConfidence  = 0.5
	KeywordBonus    = 0.1
	ExactMatchBonus = 0.3
)

// ScoreConfidence computes the classification confidence for normalized
// text and its intent. Deterministic and side-effect free: identical inputs
// always produce identical outputs.
func ScoreConfidence(text string, intent Intent) float64 {
	score := BaseConfidence
	for _, keyword := range intentKeywords[intent] {
		if strings.Contains(text, keyword) {
			score += KeywordBonus
		}
	}
	for _, phrase := range exactPhrases[intent] {
		if text == phrase {
			score += ExactMatchBonus
			break
		}
	}
	return models.ClampConfidence(score)
}
