package engine

import "strings"

// unknownDenominator is the fixed confidence denominator when no entity type
// is eligible.
const unknownDenominator = 10

// DetectionResult is the classifier's verdict for one header set.
type DetectionResult struct {
	EntityType EntityType `json:"entityType"`
	Confidence float64    `json:"confidence"`
}

// Classify scores the header set against every entity type's term patterns
// and returns the most likely type.
//
// A required term that is a substring of some lowercased header scores 2; an
// optional term scores 1. A type is eligible only if its score reaches its
// own threshold, and among eligible types the strictly highest score wins.
// On a tie, the first-declared type wins: this is deliberate, documented
// policy, not an accident of iteration order.
//
// Classify never fails; when no type is eligible the result is Unknown with
// confidence score/10.
func Classify(headers []string) DetectionResult {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(h)
	}

	best := DetectionResult{EntityType: Unknown}
	bestScore := -1
	topScore := 0 // highest score overall, eligible or not

	for _, t := range ConcreteTypes() {
		pattern := schemas[t].Pattern
		score := patternScore(lowered, pattern)
		if score > topScore {
			topScore = score
		}
		if score < pattern.Threshold {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = DetectionResult{
				EntityType: t,
				Confidence: float64(score) / float64(pattern.maxScore()),
			}
		}
	}

	if best.EntityType == Unknown {
		best.Confidence = float64(topScore) / unknownDenominator
		if best.Confidence > 1 {
			best.Confidence = 1
		}
	}

	return best
}

// patternScore computes 2*required hits + 1*optional hits. Each term counts
// at most once regardless of how many headers contain it.
func patternScore(lowered []string, pattern typePattern) int {
	score := 0
	for _, term := range pattern.Required {
		if anyContains(lowered, term) {
			score += 2
		}
	}
	for _, term := range pattern.Optional {
		if anyContains(lowered, term) {
			score++
		}
	}
	return score
}

func anyContains(lowered []string, term string) bool {
	for _, h := range lowered {
		if strings.Contains(h, term) {
			return true
		}
	}
	return false
}
