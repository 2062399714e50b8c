package retrieval

import "strings"

// Cosine similarity bounds for the threshold clamp.
const (
	minThreshold = -1.0
	maxThreshold = 0.9
)

// AdaptiveThreshold picks a score cutoff from the query shape. Short
// queries are usually names and need strict matching; long natural
// language questions spread their signal across many words, so the cutoff
// relaxes. Asking for few results tightens it, asking for many loosens it.
func AdaptiveThreshold(queryText string, topK int) float32 {
	var threshold float32
	switch words := len(strings.Fields(queryText)); {
	case words <= 2:
		threshold = 0.3
	case words <= 5:
		threshold = 0.15
	default:
		threshold = 0.05
	}

	if topK <= 3 {
		threshold += 0.1
	} else if topK >= 10 {
		threshold -= 0.05
	}

	if threshold < minThreshold {
		threshold = minThreshold
	}
	if threshold > maxThreshold {
		threshold = maxThreshold
	}
	return threshold
}
