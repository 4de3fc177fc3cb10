package models

// PricePoint is one entry of the 181-day forecast series. Only the
// first entry (DayIndex 0) anchors to the resolved base price and is
// never perturbed.
type PricePoint struct {
	DayIndex int     `json:"index"`
	Date     string  `json:"date"`
	Price    float64 `json:"price"`
	IsFuture bool    `json:"is_future"`
}
