package sim

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/mesh"
)

// Haissinski iterates the distribution towards the self-consistent
// equilibrium before the main loop starts: the wake of the current
// profile deforms the Gaussian potential well, the profile is reset to
// the Boltzmann density of the deformed well, and the 2-D distribution
// is rebuilt as the outer product with the unchanged Gaussian energy
// profile.
//
// Returns the relative change of the profile in the last iteration.
func (s *Simulation) Haissinski(iterations int) (float64, error) {
	if iterations <= 0 || s.wakeKick == nil {
		return 0, nil
	}

	n := s.mesh1.N()
	q := s.mesh1.Axis(mesh.Q)
	dp := s.mesh1.Axis(mesh.P).Delta
	prev := make([]float64, n)
	residual := math.Inf(1)

	for i := 0; i < iterations; i++ {
		if err := s.wakeKick.Update(); err != nil {
			return residual, fmt.Errorf("haissinski iteration %d: %w", i, err)
		}
		force := s.wakeKick.Force()

		proj := s.mesh1.XProjection()
		copy(prev, proj)

		// force is -V/dE in mesh points; force*dp is -V/dE in natural
		// energy spreads.
		charge := 0.0
		for x := 0; x < n; x++ {
			proj[x] = math.Exp(-0.5*q.At(x)*q.At(x) + force[x]*dp)
			charge += proj[x] * q.Delta
		}
		floats.Scale(1/charge, proj)

		s.mesh1.CreateFromProjections()

		diff := 0.0
		norm := 0.0
		for x := 0; x < n; x++ {
			d := proj[x] - prev[x]
			diff += d * d
			norm += proj[x] * proj[x]
		}
		residual = math.Sqrt(diff / norm)
	}

	log.Printf("Haissinski residual after %d iterations: %g",
		iterations, residual)

	s.mesh1.Buffer().Sync(device.HostToDev)
	s.mesh1.UpdateXProjection()
	return residual, nil
}
