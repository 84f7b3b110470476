package sm

import (
	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/mesh"
)

// DriftMap applies the chromatic path-length displacement
//
//	dq(p) = (alpha0 + alpha1*p + alpha2*p^2) * angle * p / alpha0
//
// so higher-order momentum compaction distorts the linear shear.
type DriftMap struct {
	*KickMap
	angle                  float64
	alpha0, alpha1, alpha2 float64
}

// NewDriftMap precomputes the drift stencil. Like the RF kick the
// stencil is distribution independent and built once.
func NewDriftMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	angle, alpha0, alpha1, alpha2 float64,
	it InterpolationType, clamp bool) *DriftMap {

	dm := &DriftMap{
		KickMap: newKickMap(ctx, in, out, mesh.Q, it, clamp),
		angle:   angle,
		alpha0:  alpha0, alpha1: alpha1, alpha2: alpha2,
	}
	dq := in.Axis(mesh.Q).Delta
	for y := 0; y < in.N(); y++ {
		p := in.Axis(mesh.P).At(y)
		dm.offset[y] = dm.driftAt(p) / dq
	}
	dm.rebuild()
	return dm
}

func (dm *DriftMap) driftAt(p float64) float64 {
	return (dm.alpha0 + dm.alpha1*p + dm.alpha2*p*p) * dm.angle * p / dm.alpha0
}

// ApplyTo drifts a tracked particle with the analytic displacement.
func (dm *DriftMap) ApplyTo(pos mesh.Position) mesh.Position {
	return mesh.Position{Q: pos.Q + dm.driftAt(pos.P), P: pos.P}
}
