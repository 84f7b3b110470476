/*package sm implements the source maps which advance the phase-space
distribution: precomputed stencils mapping every output cell onto a
small, fixed number of input cells with Lagrange weights.

The set of maps is closed: rotation, RF kick, drift, wake potential,
wake function, Fokker-Planck and identity. All of them share the stencil
application loop in SourceMap; maps whose stencil depends on the current
distribution additionally implement Updater.
*/
package sm

import (
	"log"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/mesh"
)

// InterpolationType selects the number of interpolation points per
// dimension of a stencil.
type InterpolationType int

const (
	NearestNeighbour InterpolationType = 1
	Linear           InterpolationType = 2
	Quadratic        InterpolationType = 3
	Cubic            InterpolationType = 4
)

// Map is a transformation of one mesh into another, plus the matching
// continuous-coordinate transform for tracked particles.
type Map interface {
	// Apply reads the input mesh and writes every output cell as the
	// weighted sum over its stencil entries.
	Apply()
	// ApplyTo advances a tracked particle through the same analytic
	// transform that generated the stencil.
	ApplyTo(pos mesh.Position) mesh.Position
}

// Updater is implemented by maps whose stencil depends on mesh state and
// must be recomputed before Apply.
type Updater interface {
	Update() error
}

// hi is one stencil entry: a flat source cell index and its weight.
// Sentinel entries at boundaries carry weight zero.
type hi struct {
	idx    int32
	weight float64
}

// SourceMap is the shared stencil core. perCell entries describe each
// output cell; for 1-D maps perCell equals the interpolation order, for
// the 2-D rotation it is the square of it.
type SourceMap struct {
	in, out *mesh.PhaseSpace
	ctx     *device.Context

	n       int
	size    int
	perCell int
	clamp   bool

	stencil []hi
}

func newSourceMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	perCell int, clamp bool) *SourceMap {

	if in.N() != out.N() {
		log.Fatalf("Source map input is %d cells wide, output %d.",
			in.N(), out.N())
	}
	n := in.N()
	return &SourceMap{
		in: in, out: out, ctx: ctx,
		n: n, size: n * n, perCell: perCell, clamp: clamp,
		stencil: make([]hi, n*n*perCell),
	}
}

// In returns the input mesh handle.
func (m *SourceMap) In() *mesh.PhaseSpace { return m.in }

// Out returns the output mesh handle.
func (m *SourceMap) Out() *mesh.PhaseSpace { return m.out }

// Apply runs the stencil: out[i] = sum_k w_k * in[s_k]. With clamping
// enabled the result is clipped to the range of the contributing inputs,
// which keeps densities non-negative and conserves mass for the
// normalised stencils produced by the map builders.
func (m *SourceMap) Apply() {
	in := m.in.Buffer().ReadOnDevice()
	out := m.out.Buffer().ReadOnDevice()
	k := m.perCell
	stencil := m.stencil
	clamp := m.clamp

	m.ctx.Enqueue(m.size, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			entries := stencil[i*k : (i+1)*k]
			v := 0.0
			for _, e := range entries {
				v += e.weight * in[e.idx]
			}
			if clamp {
				v = clampToSources(v, entries, in)
			}
			out[i] = v
		}
	})

	if m.ctx.Active() {
		m.out.Buffer().MarkWritten(device.Dev)
	} else {
		m.out.Buffer().MarkWritten(device.Host)
	}
}

func clampToSources(v float64, entries []hi, in []float64) float64 {
	any := false
	lo, hi := 0.0, 0.0
	for _, e := range entries {
		if e.weight == 0 {
			continue
		}
		s := in[e.idx]
		if !any {
			lo, hi = s, s
			any = true
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if !any {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Stencil returns the raw stencil entry for output cell i at slot k.
func (m *SourceMap) Stencil(i, k int) (idx int, weight float64) {
	e := m.stencil[i*m.perCell+k]
	return int(e.idx), e.weight
}

// PerCell returns the number of stencil entries per output cell.
func (m *SourceMap) PerCell() int { return m.perCell }

// zeroCell writes sentinel entries for output cell i.
func (m *SourceMap) zeroCell(i int) {
	for k := 0; k < m.perCell; k++ {
		m.stencil[i*m.perCell+k] = hi{0, 0}
	}
}

// interpolationWeights fills w with the Lagrange weights of it points,
// the first of which is the base point returned by baseIndex. frac is
// the distance of the target from the reference cell of the order: the
// base point for linear, round(x) for quadratic, floor(x) for cubic.
//
// The conventions per order, with x the continuous source index:
//
//	nearest:   base = round(x),     frac unused
//	linear:    base = floor(x),     frac = x - base
//	quadratic: base = round(x) - 1, frac = x - round(x) in [-1/2, 1/2]
//	cubic:     base = floor(x) - 1, frac = x - floor(x) in [0, 1)
func interpolationWeights(it InterpolationType, frac float64, w []float64) {
	switch it {
	case NearestNeighbour:
		w[0] = 1
	case Linear:
		w[0] = 1 - frac
		w[1] = frac
	case Quadratic:
		w[0] = frac * (frac - 1) / 2
		w[1] = 1 - frac*frac
		w[2] = frac * (frac + 1) / 2
	case Cubic:
		x := frac
		w[0] = -x * (x - 1) * (x - 2) / 6
		w[1] = (x + 1) * (x - 1) * (x - 2) / 2
		w[2] = -(x + 1) * x * (x - 2) / 2
		w[3] = (x + 1) * x * (x - 1) / 6
	default:
		log.Fatalf("Unknown interpolation type %d.", it)
	}
}

// baseIndex returns the first source cell of a 1-D stencil around the
// continuous source index x, together with the fraction to feed into
// interpolationWeights.
func baseIndex(it InterpolationType, x float64) (base int, frac float64) {
	switch it {
	case NearestNeighbour:
		return int(x + 0.5), 0
	case Linear:
		base = floorInt(x)
		return base, x - float64(base)
	case Quadratic:
		round := int(x + 0.5)
		return round - 1, x - float64(round)
	case Cubic:
		fl := floorInt(x)
		return fl - 1, x - float64(fl)
	}
	log.Fatalf("Unknown interpolation type %d.", it)
	return 0, 0
}

func floorInt(x float64) int {
	i := int(x)
	if x < 0 && float64(i) != x {
		i--
	}
	return i
}
