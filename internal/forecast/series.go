// Package forecast maintains the forward price projection that evolves
// as analysis stages deliver their verdicts.
package forecast

import (
	"math/rand"
	"time"

	"github.com/stgquant/stgtrade/models"
)

// Series is a mutable forward price curve. Index 0 anchors the curve at
// the resolved base price and is never rewritten by Evolve.
type Series struct {
	points []models.PricePoint
	days   int
	noise  func() float64
}

type Option func(*Series)

// WithNoise replaces the random jitter source. The function must return
// values in [0,1).
func WithNoise(fn func() float64) Option {
	return func(s *Series) {
		if fn != nil {
			s.noise = fn
		}
	}
}

// Seed builds a flat curve of days+1 points starting at base price.
// Point zero carries today's date; every later point is one calendar
// day further out and marked as a future projection.
func Seed(basePrice float64, days int, start time.Time, opts ...Option) *Series {
	s := &Series{
		days:  days,
		noise: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.points = make([]models.PricePoint, 0, days+1)
	for i := 0; i <= days; i++ {
		s.points = append(s.points, models.PricePoint{
			DayIndex: i,
			Date:     start.AddDate(0, 0, i).Format("2006-01-02"),
			Price:    basePrice,
			IsFuture: i > 0,
		})
	}
	return s
}

// Evolve tilts every future point by intensity percent at full horizon,
// scaled linearly by how far out the point lies, plus a small jitter.
// Positive intensity drifts the curve up, negative down. The anchor
// point keeps the base price.
func (s *Series) Evolve(intensity float64) {
	horizon := float64(s.days)
	for i := 1; i < len(s.points); i++ {
		p := &s.points[i]
		drift := p.Price * (intensity / 100.0) * (float64(i) / horizon)
		jitter := (s.noise() - 0.5) * p.Price * 0.01
		p.Price += drift + jitter
	}
}

// Points returns a copy of the current curve.
func (s *Series) Points() []models.PricePoint {
	out := make([]models.PricePoint, len(s.points))
	copy(out, s.points)
	return out
}
