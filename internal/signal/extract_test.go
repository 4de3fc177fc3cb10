package signal

import "testing"

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  int
		found bool
	}{
		{"plain", "verdict follows [SCORE: 72]", 72, true},
		{"no whitespace", "[SCORE:5]", 5, true},
		{"lowercase tag", "summary [score: 31] trailing", 31, true},
		{"first wins", "[SCORE: 10] then [SCORE: 90]", 10, true},
		{"out of range kept as written", "[SCORE: 250]", 250, true},
		{"absent", "no verdict line at all", 0, false},
		{"negative rejected", "[SCORE: -4]", 0, false},
		{"non numeric", "[SCORE: high]", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractScore(tt.text)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got != tt.want {
				t.Fatalf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtractSentimentMetrics(t *testing.T) {
	text := `Retail mood is euphoric.
[SENTIMENT_METRICS: {"score": 0.6, "confidence": 0.8, "intensity": 7, "decay": 0.3, "disagreement": 0.2}]`

	metrics, ok := ExtractSentimentMetrics(text)
	if !ok {
		t.Fatalf("expected metrics to be found")
	}
	if metrics.Score != 0.6 || metrics.Intensity != 7 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestExtractSentimentMetricsMultiline(t *testing.T) {
	text := "[SENTIMENT_METRICS: {\n  \"score\": -0.4,\n  \"confidence\": 0.5,\n  \"intensity\": 3,\n  \"decay\": 0.9,\n  \"disagreement\": 0.7\n}]"
	metrics, ok := ExtractSentimentMetrics(text)
	if !ok {
		t.Fatalf("expected multiline payload to parse")
	}
	if metrics.Score != -0.4 {
		t.Fatalf("score = %v, want -0.4", metrics.Score)
	}
}

func TestExtractSentimentMetricsMalformed(t *testing.T) {
	if _, ok := ExtractSentimentMetrics(`[SENTIMENT_METRICS: {"score": }]`); ok {
		t.Fatalf("malformed JSON must not yield metrics")
	}
	if _, ok := ExtractSentimentMetrics("plain text"); ok {
		t.Fatalf("absent tag must not yield metrics")
	}
}
