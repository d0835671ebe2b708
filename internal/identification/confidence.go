package identification

import (
	"math"

	"jellyzam/internal/recognition"
)

// timeSkewScale is the time skew at which the time factor reaches zero.
const timeSkewScale = 10.0

// Selection is the outcome of match selection. Accepted=false means no
// candidate qualified; Confidence then holds the top candidate's score, or 0
// when the list was empty.
type Selection struct {
	Match      *recognition.Match
	Confidence float64
	Accepted   bool
}

// Confidence scores a candidate from its skews. The result lies in [0, 1]
// and never increases as either skew grows in magnitude. Non-finite skews
// score 0 for their factor.
func Confidence(frequencySkew, timeSkew float64) float64 {
	freqFactor := clampFactor(1 - math.Abs(frequencySkew))
	timeFactor := clampFactor(1 - math.Abs(timeSkew)/timeSkewScale)
	return (freqFactor + timeFactor) / 2.0
}

func clampFactor(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Select considers only the first candidate, which the service ranks best,
// and accepts it when its confidence reaches threshold (inclusive). The
// threshold is not range-checked: above 1 nothing passes, at or below 0
// everything does.
func Select(candidates []recognition.Match, threshold float64) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}
	top := candidates[0]
	confidence := Confidence(top.FrequencySkew, top.TimeSkew)
	if confidence >= threshold {
		return Selection{Match: &top, Confidence: confidence, Accepted: true}
	}
	return Selection{Confidence: confidence}
}
