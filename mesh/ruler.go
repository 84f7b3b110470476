package mesh

import (
	"log"
)

// Ruler maps cell indices of one mesh axis onto coordinates. Meshes are
// uniform, so a ruler is fully described by its origin and spacing.
type Ruler struct {
	N        int
	Min, Max float64
	Delta    float64
}

// NewRuler creates a ruler with n cells spanning [min, max] inclusively.
func NewRuler(n int, min, max float64) *Ruler {
	if n < 2 {
		log.Fatalf("Ruler needs at least 2 cells, got %d.", n)
	}
	if max <= min {
		log.Fatalf("Ruler range [%g, %g] is empty.", min, max)
	}
	return &Ruler{
		N: n, Min: min, Max: max,
		Delta: (max - min) / float64(n-1),
	}
}

// At returns the coordinate of cell i.
func (r *Ruler) At(i int) float64 {
	return r.Min + float64(i)*r.Delta
}

// Index returns the (fractional) cell index of coordinate x.
func (r *Ruler) Index(x float64) float64 {
	return (x - r.Min) / r.Delta
}

// Contains reports whether x lies inside the ruler's span.
func (r *Ruler) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}
