package sm

import (
	"math"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/mesh"
)

// RotationCoordinates selects the normalisation in which the rotation is
// an exact rotation.
type RotationCoordinates int

const (
	// MeshCoords rotates in cell-index space about the grid centre.
	MeshCoords RotationCoordinates = iota
	// PhysCoords rotates in physical (q, p) coordinates about the
	// origin.
	PhysCoords
	// NormPM1 rotates in coordinates where both axes span [-1, +1].
	// This is the default of the solver.
	NormPM1
)

// RotationMap realises one fraction 2*pi/steps of a synchrotron
// oscillation as a rigid rotation of the distribution. The stencil is
// precomputed once: cells whose preimage falls outside the mesh map to
// zero.
type RotationMap struct {
	*SourceMap
	angle  float64
	coords RotationCoordinates
	it     InterpolationType
}

// NewRotationMap precomputes the stencil for a rotation by angle
// (radian). Interpolation uses it x it input cells per output cell.
func NewRotationMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	angle float64, it InterpolationType, clamp bool,
	coords RotationCoordinates) *RotationMap {

	ip := int(it)
	rm := &RotationMap{
		SourceMap: newSourceMap(ctx, in, out, ip*ip, clamp),
		angle:     angle,
		coords:    coords,
		it:        it,
	}
	rm.build()
	return rm
}

func (rm *RotationMap) build() {
	n := rm.n
	ip := int(rm.it)
	sin, cos := math.Sincos(rm.angle)

	wx := make([]float64, ip)
	wy := make([]float64, ip)

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			cell := x*n + y

			// Preimage of the output cell centre under the forward
			// rotation, in normalised coordinates.
			cx, cy := rm.toNorm(float64(x), float64(y))
			px := cos*cx + sin*cy
			py := -sin*cx + cos*cy
			sx, sy := rm.fromNorm(px, py)

			if sx < 0 || sx > float64(n-1) || sy < 0 || sy > float64(n-1) {
				rm.zeroCell(cell)
				continue
			}

			bx, fx := baseIndex(rm.it, sx)
			by, fy := baseIndex(rm.it, sy)
			// Stencils reaching past the mesh edge are shifted back
			// inside; the Lagrange weights of the shifted nodes still sum
			// to one.
			if s := min(max(bx, 0), n-ip) - bx; s != 0 {
				bx, fx = bx+s, fx-float64(s)
			}
			if s := min(max(by, 0), n-ip) - by; s != 0 {
				by, fy = by+s, fy-float64(s)
			}
			interpolationWeights(rm.it, fx, wx)
			interpolationWeights(rm.it, fy, wy)

			k := 0
			for i := 0; i < ip; i++ {
				for j := 0; j < ip; j++ {
					gx, gy := bx+i, by+j
					if gx < 0 || gx >= n || gy < 0 || gy >= n {
						rm.stencil[cell*rm.perCell+k] = hi{0, 0}
					} else {
						rm.stencil[cell*rm.perCell+k] =
							hi{int32(gx*n + gy), wx[i] * wy[j]}
					}
					k++
				}
			}
		}
	}
}

// toNorm maps cell indices into the rotation coordinate system.
func (rm *RotationMap) toNorm(x, y float64) (float64, float64) {
	n1 := float64(rm.n - 1)
	switch rm.coords {
	case MeshCoords:
		return x - n1/2, y - n1/2
	case PhysCoords:
		return rm.in.Axis(mesh.Q).At(0) + x*rm.in.Axis(mesh.Q).Delta,
			rm.in.Axis(mesh.P).At(0) + y*rm.in.Axis(mesh.P).Delta
	default: // NormPM1
		return 2*x/n1 - 1, 2*y/n1 - 1
	}
}

// fromNorm is the inverse of toNorm.
func (rm *RotationMap) fromNorm(u, v float64) (float64, float64) {
	n1 := float64(rm.n - 1)
	switch rm.coords {
	case MeshCoords:
		return u + n1/2, v + n1/2
	case PhysCoords:
		return rm.in.Axis(mesh.Q).Index(u), rm.in.Axis(mesh.P).Index(v)
	default: // NormPM1
		return (u + 1) * n1 / 2, (v + 1) * n1 / 2
	}
}

// ApplyTo rotates a tracked particle forward by the map's angle.
func (rm *RotationMap) ApplyTo(pos mesh.Position) mesh.Position {
	qx := rm.in.Axis(mesh.Q).Index(pos.Q)
	py := rm.in.Axis(mesh.P).Index(pos.P)
	u, v := rm.toNorm(qx, py)

	sin, cos := math.Sincos(rm.angle)
	fu := cos*u - sin*v
	fv := sin*u + cos*v

	nx, ny := rm.fromNorm(fu, fv)
	return mesh.Position{
		Q: rm.in.Axis(mesh.Q).At(0) + nx*rm.in.Axis(mesh.Q).Delta,
		P: rm.in.Axis(mesh.P).At(0) + ny*rm.in.Axis(mesh.P).Delta,
	}
}
