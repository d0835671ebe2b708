package identification_test

import (
	"math"
	"testing"

	"jellyzam/internal/identification"
	"jellyzam/internal/recognition"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestConfidenceFormula(t *testing.T) {
	tests := []struct {
		name     string
		freq     float64
		timeSkew float64
		want     float64
	}{
		{"perfect", 0, 0, 1},
		{"typical", 0.1, 0.2, 0.94},
		{"negative skews", -0.1, -0.2, 0.94},
		{"half frequency", 0.5, 0, 0.75},
		{"factors clamp at zero", 3, 50, 0},
		{"time only", 0, 5, 0.75},
		{"nan frequency", math.NaN(), 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := identification.Confidence(tt.freq, tt.timeSkew); !approx(got, tt.want) {
				t.Fatalf("Confidence(%v, %v) = %v, want %v", tt.freq, tt.timeSkew, got, tt.want)
			}
		})
	}
}

func TestConfidenceRangeAndMonotonicity(t *testing.T) {
	prev := 2.0
	for i := 0; i <= 40; i++ {
		skew := float64(i) * 0.05
		got := identification.Confidence(skew, skew*4)
		if got < 0 || got > 1 {
			t.Fatalf("confidence %v out of range for skew %v", got, skew)
		}
		if got > prev {
			t.Fatalf("confidence increased from %v to %v at skew %v", prev, got, skew)
		}
		prev = got
	}
}

func TestSelectAcceptsAtThreshold(t *testing.T) {
	candidates := []recognition.Match{{ID: "1", FrequencySkew: 0.5, Track: recognition.TrackDescriptor{Title: "Song"}}}

	sel := identification.Select(candidates, 0.75)
	if !sel.Accepted || sel.Match == nil || sel.Match.Track.Title != "Song" {
		t.Fatalf("expected inclusive acceptance, got %+v", sel)
	}
	if !approx(sel.Confidence, 0.75) {
		t.Fatalf("expected confidence 0.75, got %v", sel.Confidence)
	}

	sel = identification.Select(candidates, 0.7500001)
	if sel.Accepted || sel.Match != nil {
		t.Fatalf("expected rejection just above confidence, got %+v", sel)
	}
	if !approx(sel.Confidence, 0.75) {
		t.Fatalf("rejected selection should keep score, got %v", sel.Confidence)
	}
}

func TestSelectOnlyConsidersTopCandidate(t *testing.T) {
	candidates := []recognition.Match{
		{ID: "weak", FrequencySkew: 0.9, TimeSkew: 9},
		{ID: "strong"},
	}
	if sel := identification.Select(candidates, 0.8); sel.Accepted {
		t.Fatalf("expected top candidate to decide, got %+v", sel)
	}
}

func TestSelectEmpty(t *testing.T) {
	sel := identification.Select(nil, 0)
	if sel.Accepted || sel.Match != nil || sel.Confidence != 0 {
		t.Fatalf("expected empty selection, got %+v", sel)
	}
}

func TestSelectThresholdExtremes(t *testing.T) {
	candidates := []recognition.Match{{ID: "1", FrequencySkew: 1, TimeSkew: 10}}
	if sel := identification.Select(candidates, 0); !sel.Accepted {
		t.Fatalf("threshold 0 should accept a zero-confidence candidate")
	}
	perfect := []recognition.Match{{ID: "1"}}
	if sel := identification.Select(perfect, 1.01); sel.Accepted {
		t.Fatalf("threshold above 1 should accept nothing")
	}
}
