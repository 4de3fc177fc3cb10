package models

// SentimentMetrics is the structured block the sentiment analyst embeds
// in its report text. Ranges: Score -1..1, Confidence 0..1, Intensity
// 0..10, Decay 0..1, Disagreement 0..1.
type SentimentMetrics struct {
	Score        float64 `json:"score"`
	Confidence   float64 `json:"confidence"`
	Intensity    float64 `json:"intensity"`
	Decay        float64 `json:"decay"`
	Disagreement float64 `json:"disagreement"`
}
