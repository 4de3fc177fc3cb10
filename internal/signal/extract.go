// Package signal extracts structured verdict signals embedded in
// free-form model reports.
package signal

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/stgquant/stgtrade/models"
)

var (
	scorePattern   = regexp.MustCompile(`(?i)\[SCORE:\s*(\d+)\]`)
	metricsPattern = regexp.MustCompile(`(?i)\[SENTIMENT_METRICS:\s*(\{[\s\S]*?\})\]`)
)

// ExtractScore returns the first embedded score tag in the text, or
// false when no well-formed tag is present. The value is reported as
// written; the prompt contract keeps it in 0..100.
func ExtractScore(text string) (int, bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractSentimentMetrics returns the first embedded sentiment metrics
// block, or false when the tag is absent or its payload is not valid
// JSON. A malformed payload never aborts the surrounding run.
func ExtractSentimentMetrics(text string) (*models.SentimentMetrics, bool) {
	m := metricsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	var metrics models.SentimentMetrics
	if err := json.Unmarshal([]byte(m[1]), &metrics); err != nil {
		return nil, false
	}
	return &metrics, true
}
