package voice

import (
	"time"

	"go.uber.org/zap"
)

// Command is the immutable product of one classification call: the original
// text together with the canonical command, intent, extracted parameters,
// confidence, and timing. It is created exactly once per call and handed to
// the dispatch layer; nothing in this package mutates or retains it.
type Command struct {
	OriginalText   string            `json:"original_text"`
	Command        string            `json:"command"`
	Intent         Intent            `json:"intent"`
	Parameters     map[string]string `json:"parameters"`
	Confidence     float64           `json:"confidence"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessingTime time.Duration     `json:"processing_time"`
}

// Processor runs the full pipeline: normalize → classify → map + extract →
// score. All stages are pure, allocation-only computations with no shared
// mutable state, so a single Processor may be called concurrently from any
// number of goroutines.
type Processor struct {
	normalizer *Normalizer
	classifier *Classifier
	logger     *zap.Logger
}

// NewProcessor creates a pipeline with the given wake phrases (nil for the
// defaults). The logger may be zap.NewNop() in tests.
func NewProcessor(wakePhrases []string, logger *zap.Logger) *Processor {
	return &Processor{
		normalizer: NewNormalizer(wakePhrases),
		classifier: NewClassifier(),
		logger:     logger,
	}
}

// Process classifies raw text into a Command. It never fails: unrecognized
// text resolves to IntentGeneral with the normalized text as the command
// and the base confidence.
func (p *Processor) Process(text string) Command {
	start := time.Now()

	normalized := p.normalizer.Normalize(text)
	intent := p.classifier.Classify(normalized)
	command := MapCommand(normalized, intent)
	params := ExtractParameters(normalized, intent)
	confidence := ScoreConfidence(normalized, intent)

	cmd := Command{
		OriginalText:   text,
		Command:        command,
		Intent:         intent,
		Parameters:     params,
		Confidence:     confidence,
		CreatedAt:      start,
		ProcessingTime: time.Since(start),
	}

	p.logger.Debug("Processed voice command",
		zap.String("intent", string(intent)),
		zap.String("command", command),
		zap.Float64("confidence", confidence),
		zap.Duration("processing_time", cmd.ProcessingTime))

	return cmd
}
