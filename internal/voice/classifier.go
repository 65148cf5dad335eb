package voice

import "strings"

// Classifier assigns exactly one Intent to normalized text by evaluating
// the ordered keyword sets in classificationOrder. Matching is substring
// containment, not tokenization; the first intent with at least one keyword
// present wins. Classification never fails: text matching no set resolves
// to IntentGeneral.
type Classifier struct{}

// NewClassifier returns a stateless classifier. It is safe for concurrent
// use from any number of goroutines.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the intent for normalized text.
func (c *Classifier) Classify(text string) Intent {
	for _, intent := range classificationOrder {
		for _, keyword := range intentKeywords[intent] {
			if strings.Contains(text, keyword) {
				return intent
			}
		}
	}
	return IntentGeneral
}

// Keywords returns the keyword set for an intent. The returned slice is
// shared and must not be modified.
func Keywords(intent Intent) []string {
	return intentKeywords[intent]
}
