package models

// Source is one grounding citation returned by a search-grounded call.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// TickerInfo is the result of resolving a symbol to a tradable name and
// a base price.
type TickerInfo struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Generation is the output of one role-conditioned generation call.
type Generation struct {
	Text    string
	Sources []Source
}

// StageReport holds the archived output of one completed stage, keyed
// by the owning Action id in HistoryRecord.Reports.
type StageReport struct {
	Text    string            `json:"text"`
	Sources []Source          `json:"sources,omitempty"`
	Score   *int              `json:"score,omitempty"`
	Metrics *SentimentMetrics `json:"sentiment_metrics,omitempty"`
}

// HistoryRecord is an immutable archived run. It is created exactly
// once, when a run reaches its final stage without cancellation.
type HistoryRecord struct {
	ID        string                 `json:"id"`
	Symbol    string                 `json:"symbol"`
	StockName string                 `json:"stock_name"`
	Timestamp string                 `json:"timestamp"`
	TaskName  string                 `json:"task_name"`
	Reports   map[string]StageReport `json:"reports"`
	Actions   []Action               `json:"actions"`
	PriceData []PricePoint           `json:"price_data"`
	BasePrice float64                `json:"base_price"`
}
