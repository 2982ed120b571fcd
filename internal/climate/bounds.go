package climate

import (
	"fmt"
)

// Bounds is the closed temperature range every target temperature must lie within, regardless of
// where it came from.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds matches the physical limits of the supported thermostat hardware.
var DefaultBounds = Bounds{Min: 5.0, Max: 30.0}

// Clamp constrains the temperature to the bounds. It also reports whether it had to.
func (b Bounds) Clamp(temperature float64) (float64, bool) {
	if temperature < b.Min {
		return b.Min, true
	}
	if temperature > b.Max {
		return b.Max, true
	}
	return temperature, false
}

// Contains reports whether the temperature lies within the bounds.
func (b Bounds) Contains(temperature float64) bool {
	return temperature >= b.Min && temperature <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.1f-%.1f]", b.Min, b.Max)
}
