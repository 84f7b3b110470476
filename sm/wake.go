package sm

import (
	"fmt"

	"github.com/phil-mansfield/table"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/field"
	"github.com/Inovesa/inovesa/interpolate"
	"github.com/Inovesa/inovesa/mesh"
)

// WakeKick is the common interface of the two wake kick variants: a kick
// map whose stencil is recomputed from the current distribution before
// every application.
type WakeKick interface {
	Map
	Updater
	// Force returns the per-position energy offset in mesh points.
	Force() []float64
}

// WakePotentialMap kicks the distribution with the wake potential
// computed self-consistently by the field solver from the current x
// projection.
type WakePotentialMap struct {
	*KickMap
	field *field.ElectricField
}

// NewWakePotentialMap builds the wake kick. The stencil is empty until
// the first Update.
func NewWakePotentialMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	f *field.ElectricField, it InterpolationType, clamp bool,
) *WakePotentialMap {

	return &WakePotentialMap{
		KickMap: newKickMap(ctx, in, out, mesh.P, it, clamp),
		field:   f,
	}
}

// Update recomputes the wake potential from the input mesh's current x
// projection and rebuilds the stencil. The energy kick per cell is
// -V(q)/dE, converted to mesh points.
func (wm *WakePotentialMap) Update() error {
	if err := wm.field.Update(); err != nil {
		return err
	}
	wake := wm.field.Wake()
	dp := wm.in.Axis(mesh.P).Delta
	for x := range wm.offset {
		wm.offset[x] = -wake[x] / wm.in.DeltaE / dp
	}
	wm.rebuild()
	return nil
}

// ApplyTo kicks a tracked particle with the interpolated wake.
func (wm *WakePotentialMap) ApplyTo(pos mesh.Position) mesh.Position {
	return wm.applyToOffset(pos)
}

// WakeFunctionMap kicks the distribution with a static wake function
// loaded from file, integrated against the current profile before each
// application.
type WakeFunctionMap struct {
	*KickMap

	// wake function sampled on the 2n-1 grid of cell differences.
	wf []float64

	// charge per step: Q_b * revolutionpart.
	scale float64
}

// NewWakeFunctionMap reads a two column (z, W) wake function table and
// resamples it onto the grid of mesh cell differences with a cubic
// spline. z is in mesh q units.
func NewWakeFunctionMap(ctx *device.Context, in, out *mesh.PhaseSpace,
	fname string, revolutionpart float64,
	it InterpolationType, clamp bool) (*WakeFunctionMap, error) {

	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return nil, err
	}
	zs, ws := cols[0], cols[1]
	if len(zs) < 2 {
		return nil, fmt.Errorf(
			"Wake function file '%s' has only %d samples.", fname, len(zs))
	}

	wm := &WakeFunctionMap{
		KickMap: newKickMap(ctx, in, out, mesh.P, it, clamp),
		scale:   in.Charge * revolutionpart,
	}

	sp := interpolate.NewSpline(zs, ws)
	n := in.N()
	q := in.Axis(mesh.Q)
	wm.wf = make([]float64, 2*n-1)
	for i := range wm.wf {
		z := float64(i-(n-1)) * q.Delta
		if z < zs[0] || z > zs[len(zs)-1] {
			wm.wf[i] = 0
			continue
		}
		wm.wf[i] = sp.Eval(z)
	}
	return wm, nil
}

// Update integrates the wake function against the current x projection
// and rebuilds the stencil.
func (wm *WakeFunctionMap) Update() error {
	proj := wm.in.XProjection()
	n := wm.in.N()
	dq := wm.in.Axis(mesh.Q).Delta
	dp := wm.in.Axis(mesh.P).Delta

	for i := 0; i < n; i++ {
		v := 0.0
		for j := 0; j < n; j++ {
			v += proj[j] * wm.wf[(n-1)+i-j]
		}
		v *= wm.scale * dq
		wm.offset[i] = -v / wm.in.DeltaE / dp
	}
	wm.rebuild()
	return nil
}

// ApplyTo kicks a tracked particle with the interpolated wake.
func (wm *WakeFunctionMap) ApplyTo(pos mesh.Position) mesh.Position {
	return wm.applyToOffset(pos)
}
