package sm

import (
	"math"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/interpolate"
	"github.com/Inovesa/inovesa/mesh"
)

// KickMap shifts the distribution along one axis by an offset that
// depends only on the perpendicular coordinate: energy kicks are
// functions of position, position displacements functions of energy.
// The stencil is a 1-D interpolation along the kick axis.
type KickMap struct {
	*SourceMap

	// offset per perpendicular cell, in units of mesh points along the
	// kick axis.
	offset []float64

	kick mesh.Axis
	it   InterpolationType
}

func newKickMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	kick mesh.Axis, it InterpolationType, clamp bool) *KickMap {

	km := &KickMap{
		SourceMap: newSourceMap(ctx, in, out, int(it), clamp),
		kick:      kick,
		it:        it,
	}
	km.offset = make([]float64, in.N())
	return km
}

// Force returns the current per-cell offset, in mesh points along the
// kick axis. Read-only; consumed by displays.
func (km *KickMap) Force() []float64 { return km.offset }

// rebuild recomputes the stencil from the current offsets.
func (km *KickMap) rebuild() {
	n := km.n
	ip := int(km.it)
	w := make([]float64, ip)

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			cell := x*n + y

			// Continuous source index along the kick axis.
			var perp, along int
			if km.kick == mesh.P {
				perp, along = x, y
			} else {
				perp, along = y, x
			}
			src := float64(along) - km.offset[perp]

			if src < 0 || src > float64(n-1) {
				km.zeroCell(cell)
				continue
			}

			base, frac := baseIndex(km.it, src)
			// Stencils reaching past the mesh edge are shifted back inside;
			// the Lagrange weights of the shifted nodes still sum to one.
			if s := min(max(base, 0), n-ip) - base; s != 0 {
				base, frac = base+s, frac-float64(s)
			}
			interpolationWeights(km.it, frac, w)

			for k := 0; k < ip; k++ {
				g := base + k
				if g < 0 || g >= n {
					km.stencil[cell*km.perCell+k] = hi{0, 0}
					continue
				}
				var idx int
				if km.kick == mesh.P {
					idx = x*n + g
				} else {
					idx = g*n + y
				}
				km.stencil[cell*km.perCell+k] = hi{int32(idx), w[k]}
			}
		}
	}
}

// applyToOffset advances a particle by the interpolated offset at its
// perpendicular coordinate.
func (km *KickMap) applyToOffset(pos mesh.Position) mesh.Position {
	var perpAxis, kickAxis *mesh.Ruler
	var coord float64
	if km.kick == mesh.P {
		perpAxis, kickAxis = km.in.Axis(mesh.Q), km.in.Axis(mesh.P)
		coord = pos.Q
	} else {
		perpAxis, kickAxis = km.in.Axis(mesh.P), km.in.Axis(mesh.Q)
		coord = pos.P
	}

	idx := perpAxis.Index(clampF(coord, perpAxis))
	lin := interpolate.NewUniformLinear(0, 1, km.offset)
	off := lin.Eval(clampIndex(idx, len(km.offset))) * kickAxis.Delta

	if km.kick == mesh.P {
		return mesh.Position{Q: pos.Q, P: pos.P + off}
	}
	return mesh.Position{Q: pos.Q + off, P: pos.P}
}

func clampF(x float64, r *mesh.Ruler) float64 {
	if x < r.Min {
		return r.Min
	}
	if x > r.Max {
		return r.Max
	}
	return x
}

func clampIndex(x float64, n int) float64 {
	if x < 0 {
		return 0
	}
	if x > float64(n-1) {
		return float64(n - 1)
	}
	return x
}

// RFKickMap applies the sinusoidal RF energy kick. With lambda the RF
// wavelength in mesh q units the kick is
//
//	dp(q) = -lambda * sin(angle*q/lambda)
//
// which linearises to the focusing kick -angle*q for q << lambda.
type RFKickMap struct {
	*KickMap
	angle  float64
	lambda float64
}

// NewRFKickMap precomputes the RF kick stencil. The stencil does not
// depend on mesh state, so it is built exactly once.
func NewRFKickMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	angle, lambda float64, it InterpolationType, clamp bool) *RFKickMap {

	rf := &RFKickMap{
		KickMap: newKickMap(ctx, in, out, mesh.P, it, clamp),
		angle:   angle,
		lambda:  lambda,
	}
	dp := in.Axis(mesh.P).Delta
	for x := 0; x < in.N(); x++ {
		q := in.Axis(mesh.Q).At(x)
		rf.offset[x] = rf.kickAt(q) / dp
	}
	rf.rebuild()
	return rf
}

func (rf *RFKickMap) kickAt(q float64) float64 {
	return -rf.lambda * math.Sin(rf.angle*q/rf.lambda)
}

// ApplyTo kicks a tracked particle with the analytic RF force.
func (rf *RFKickMap) ApplyTo(pos mesh.Position) mesh.Position {
	return mesh.Position{Q: pos.Q, P: pos.P + rf.kickAt(pos.Q)}
}
