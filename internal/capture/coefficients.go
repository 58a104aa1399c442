// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package capture

// Control states used as coefficient keys and histogram labels.
const (
	StateWalking   = "walking"
	StateSprinting = "sprinting"
	StateSneaking  = "sneaking"
	StateFlying    = "flying"
	StateSwimming  = "swimming"
	StateGliding   = "gliding"
	StateVehicle   = "vehicle"
	StateSitting   = "sitting"
)

// Coefficients holds the tuning tables shared by the captures. Horizontal
// values are blocks per tick; vertical values are the expected vertical
// displacement per tick (negative while falling under gravity).
type Coefficients struct {
	ControlHorizontal map[string]float64 `koanf:"control_horizontal"`
	ControlVertical   map[string]float64 `koanf:"control_vertical"`

	// Effect coefficients are multiplied by (amplifier + 1) and summed.
	Effects         map[string]float64 `koanf:"effects"`
	VerticalEffects map[string]float64 `koanf:"vertical_effects"`

	// Material coefficients are keyed by material name first, then by
	// class name ("gas", "liquid", "solid").
	Materials map[string]float64 `koanf:"materials"`
}

// DefaultCoefficients returns vanilla-like movement constants.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		ControlHorizontal: map[string]float64{
			StateWalking:   0.2158,
			StateSprinting: 0.2806,
			StateSneaking:  0.0663,
			StateFlying:    0.5458,
			StateSwimming:  0.1960,
			StateGliding:   1.6,
			StateVehicle:   0.8,
			StateSitting:   0,
		},
		ControlVertical: map[string]float64{
			StateWalking:   -0.2,
			StateSprinting: -0.2,
			StateSneaking:  -0.2,
			StateFlying:    0.375,
			StateSwimming:  0.1,
			StateGliding:   -0.05,
			StateVehicle:   0,
			StateSitting:   0,
		},
		Effects: map[string]float64{
			"speed":          0.2,
			"slowness":       -0.15,
			"dolphins_grace": 0.3,
		},
		VerticalEffects: map[string]float64{
			"jump_boost": 0.5,
		},
		Materials: map[string]float64{
			"gas":        1.0,
			"liquid":     0.5,
			"solid":      1.0,
			"ice":        1.6,
			"packed_ice": 1.6,
			"blue_ice":   1.8,
			"soul_sand":  0.4,
		},
	}
}

func (c Coefficients) horizontal(state string) float64 {
	return c.ControlHorizontal[state]
}

func (c Coefficients) vertical(state string) float64 {
	return c.ControlVertical[state]
}

func (c Coefficients) material(name, class string) float64 {
	if v, ok := c.Materials[name]; ok {
		return v
	}
	if v, ok := c.Materials[class]; ok {
		return v
	}
	return 1.0
}
