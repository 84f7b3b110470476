package sim

import (
	"math/rand"

	"github.com/phil-mansfield/table"

	"github.com/Inovesa/inovesa/mesh"
)

// LoadParticles reads tracked-particle seed coordinates from a two
// column (q, p) whitespace table.
func LoadParticles(fname string) ([]mesh.Position, error) {
	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return nil, err
	}
	qs, ps := cols[0], cols[1]
	out := make([]mesh.Position, len(qs))
	for i := range qs {
		out[i] = mesh.Position{Q: qs[i], P: ps[i]}
	}
	return out, nil
}

// SampleParticles draws n marker particles from the mesh density by
// rejection sampling.
func SampleParticles(ps *mesh.PhaseSpace, n int,
	rng *rand.Rand) []mesh.Position {

	q, p := ps.Axis(mesh.Q), ps.Axis(mesh.P)
	max := ps.Max()

	out := make([]mesh.Position, 0, n)
	for len(out) < n {
		x := q.Min + rng.Float64()*(q.Max-q.Min)
		y := p.Min + rng.Float64()*(p.Max-p.Min)

		xi := int(q.Index(x) + 0.5)
		yi := int(p.Index(y) + 0.5)
		if xi < 0 || xi >= ps.N() || yi < 0 || yi >= ps.N() {
			continue
		}
		if rng.Float64()*max <= ps.Get(xi, yi) {
			out = append(out, mesh.Position{Q: x, P: y})
		}
	}
	return out
}
