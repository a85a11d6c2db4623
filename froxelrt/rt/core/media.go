package core

import "math"

// Media describes the participating medium filling the froxel volume.
// Coefficients are per world unit.
type Media struct {
	Scattering float32 `json:"scattering"`
	Absorption float32 `json:"absorption"`
	Anisotropy float32 `json:"anisotropy"`
}

func DefaultMedia() Media {
	return Media{
		Scattering: 0.02,
		Absorption: 0.005,
		Anisotropy: 0.3,
	}
}

func (m Media) Extinction() float32 {
	return m.Scattering + m.Absorption
}

// HenyeyGreenstein is the HG phase function; it integrates to 1 over the sphere.
func HenyeyGreenstein(cosTheta, g float32) float32 {
	g2 := float64(g * g)
	denom := 1 + g2 - 2*float64(g)*float64(cosTheta)
	if denom <= 0 {
		denom = 1e-6
	}
	return float32((1 - g2) / (4 * math.Pi * math.Pow(denom, 1.5)))
}
