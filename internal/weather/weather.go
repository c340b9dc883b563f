// Package weather simulates yard weather from layered simplex noise over
// game time. Conditions are published into the world store so data-driven
// consequence triggers (e.g. weather.heavy_rain) can read them.
package weather

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/prison-world/internal/worldstate"
)

// Conditions holds the derived weather for one tick.
type Conditions struct {
	Temperature   float64 `json:"temperature"`    // Celsius
	RainIntensity float64 `json:"rain_intensity"` // 0..1
	HeavyRain     bool    `json:"heavy_rain"`
	Overcast      bool    `json:"overcast"`
	Description   string  `json:"description"` // symbolic token
}

// System generates deterministic weather from a seed. Two independent noise
// layers drive temperature drift and precipitation.
type System struct {
	tempNoise opensimplex.Noise
	rainNoise opensimplex.Noise
	current   Conditions
}

// NewSystem creates a weather system seeded for reproducible runs.
func NewSystem(seed int64) *System {
	return &System{
		tempNoise: opensimplex.NewNormalized(seed),
		rainNoise: opensimplex.NewNormalized(seed + 1),
	}
}

// Current returns the most recently computed conditions.
func (s *System) Current() Conditions { return s.current }

// Update advances weather for the given game day and minute and mirrors the
// result into the world store.
func (s *System) Update(world *worldstate.Store, day, minute int) Conditions {
	t := float64(day) + float64(minute)/1440.0

	// Seasonal swing over a 360-day year plus a diurnal cycle, with slow
	// noise drift on top.
	seasonal := 8 * math.Sin(2*math.Pi*t/360)
	diurnal := 5 * math.Sin(2*math.Pi*(float64(minute)-360)/1440)
	drift := (s.tempNoise.Eval2(t*0.15, 0) - 0.5) * 10
	temp := 10 + seasonal + diurnal + drift

	rain := s.rainNoise.Eval2(t*0.6, 7.3)
	// Remap so roughly a quarter of days see rain at all.
	intensity := math.Max(0, (rain-0.55)/0.45)

	cond := Conditions{
		Temperature:   temp,
		RainIntensity: intensity,
		HeavyRain:     intensity > 0.6,
		Overcast:      rain > 0.45,
	}
	cond.Description = describe(cond)
	s.current = cond

	world.Set("weather.temperature", worldstate.Float(cond.Temperature))
	world.Set("weather.rain_intensity", worldstate.Float(cond.RainIntensity))
	world.Set("weather.heavy_rain", worldstate.Bool(cond.HeavyRain))
	world.Set("weather.overcast", worldstate.Bool(cond.Overcast))
	world.Set("weather.description", worldstate.String(cond.Description))
	return cond
}

func describe(c Conditions) string {
	switch {
	case c.HeavyRain:
		return "weather_downpour"
	case c.RainIntensity > 0:
		return "weather_drizzle"
	case c.Overcast:
		return "weather_overcast"
	case c.Temperature < 0:
		return "weather_frost"
	case c.Temperature > 24:
		return "weather_heat"
	default:
		return "weather_clear"
	}
}
