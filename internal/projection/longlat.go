package projection

import "github.com/pspoerri/geoproj/internal/ellps"

// LongLat is the geographic pseudo-projection. Coordinates stay longitude
// and latitude in radians on its ellipsoid.
type LongLat struct{}

func (LongLat) Name() string { return "longlat" }

func (LongLat) params() []string { return nil }

func (LongLat) build(*ellps.Ellipsoid) (kernel, error) { return identity{}, nil }

type identity struct{}

func (identity) forward(lam, phi float64) (float64, float64, error) { return lam, phi, nil }
func (identity) inverse(x, y float64) (float64, float64, error)     { return x, y, nil }
