package forecast

import (
	"math"
	"testing"
	"time"
)

func TestSeedShape(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := Seed(100, 180, start)

	points := s.Points()
	if len(points) != 181 {
		t.Fatalf("expected 181 points, got %d", len(points))
	}
	if points[0].Price != 100 || points[0].IsFuture {
		t.Fatalf("anchor point wrong: %+v", points[0])
	}
	if points[0].Date != "2026-03-02" {
		t.Fatalf("anchor date = %s", points[0].Date)
	}
	if points[180].Date != "2026-08-29" {
		t.Fatalf("horizon date = %s", points[180].Date)
	}
	for _, p := range points[1:] {
		if !p.IsFuture {
			t.Fatalf("point %d not marked future", p.DayIndex)
		}
		if p.Price != 100 {
			t.Fatalf("seed must be flat, point %d = %v", p.DayIndex, p.Price)
		}
	}
}

func TestEvolveDriftsHorizon(t *testing.T) {
	// Centered noise so the drift term is isolated.
	s := Seed(100, 180, time.Now(), WithNoise(func() float64 { return 0.5 }))

	s.Evolve(-4)
	points := s.Points()

	if points[0].Price != 100 {
		t.Fatalf("anchor must stay at base price, got %v", points[0].Price)
	}
	if got := points[180].Price; math.Abs(got-96) > 1e-9 {
		t.Fatalf("full-horizon point = %v, want 96", got)
	}
	if got := points[90].Price; math.Abs(got-98) > 1e-9 {
		t.Fatalf("mid-horizon point = %v, want 98", got)
	}
}

func TestEvolveCompounds(t *testing.T) {
	s := Seed(200, 180, time.Now(), WithNoise(func() float64 { return 0.5 }))

	s.Evolve(4)
	s.Evolve(4)

	points := s.Points()
	want := 200 * 1.04 * 1.04
	if got := points[180].Price; math.Abs(got-want) > 1e-9 {
		t.Fatalf("compounded horizon = %v, want %v", got, want)
	}
	if points[0].Price != 200 {
		t.Fatalf("anchor changed: %v", points[0].Price)
	}
}

func TestEvolveJitterBounded(t *testing.T) {
	s := Seed(100, 180, time.Now())
	s.Evolve(0)

	for _, p := range s.Points()[1:] {
		if math.Abs(p.Price-100) > 0.5+1e-9 {
			t.Fatalf("jitter out of bounds at %d: %v", p.DayIndex, p.Price)
		}
	}
}
