package sm

import (
	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/mesh"
)

// FPType selects which terms of the Fokker-Planck operator the stencil
// realises.
type FPType int

const (
	FPNone FPType = iota
	FPDampingOnly
	FPDiffusionOnly
	FPFull
)

// FokkerPlanckMap applies synchrotron damping and quantum-excitation
// diffusion as a three-point stencil in p:
//
//	dpsi/dt = e * d_p(p*psi) + (e/2) * d^2_p psi
//
// with e = 2/(f_s * t_d * steps). Boundary rows map to zero (absorbing),
// acceptable while the distribution's tails vanish inside the grid.
type FokkerPlanckMap struct {
	*SourceMap
	fpt FPType
	e   float64
}

// NewFokkerPlanckMap precomputes the stencil for damping strength e.
func NewFokkerPlanckMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	fpt FPType, e float64) *FokkerPlanckMap {

	fp := &FokkerPlanckMap{
		SourceMap: newSourceMap(ctx, in, out, 3, false),
		fpt:       fpt,
		e:         e,
	}
	fp.build()
	return fp
}

func (fp *FokkerPlanckMap) build() {
	n := fp.n
	dp := fp.in.Axis(mesh.P).Delta
	e := fp.e

	e2d := e / (2 * dp)      // drift coefficient
	e2d2 := e / (2 * dp * dp) // diffusion coefficient

	for x := 0; x < n; x++ {
		fp.zeroCell(x*n + 0)
		fp.zeroCell(x*n + n - 1)

		for y := 1; y < n-1; y++ {
			cell := x*n + y
			p := fp.in.Axis(mesh.P).At(y)

			var wm, w0, wp float64
			switch fp.fpt {
			case FPNone:
				wm, w0, wp = 0, 1, 0
			case FPDampingOnly:
				wm = -e2d * p
				w0 = 1 + e
				wp = e2d * p
			case FPDiffusionOnly:
				wm = e2d2
				w0 = 1 - 2*e2d2
				wp = e2d2
			case FPFull:
				wm = e2d2 - e2d*p
				w0 = 1 + e - 2*e2d2
				wp = e2d2 + e2d*p
			}

			fp.stencil[cell*3+0] = hi{int32(cell - 1), wm}
			fp.stencil[cell*3+1] = hi{int32(cell), w0}
			fp.stencil[cell*3+2] = hi{int32(cell + 1), wp}
		}
	}
}

// ApplyTo applies the deterministic damping drift to a tracked particle.
// Diffusion has no single-particle counterpart and is omitted.
func (fp *FokkerPlanckMap) ApplyTo(pos mesh.Position) mesh.Position {
	switch fp.fpt {
	case FPDampingOnly, FPFull:
		return mesh.Position{Q: pos.Q, P: pos.P * (1 - fp.e)}
	}
	return pos
}
