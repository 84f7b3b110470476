/*package mesh holds the discretised phase-space distribution.

A PhaseSpace is a fixed N x N grid of density samples over longitudinal
position q (axis 0) and relative energy deviation p (axis 1), both in
natural units. Marginal projections and scalar moments are cached and
explicitly stale: callers must refresh them before reading.
*/
package mesh

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Inovesa/inovesa/device"
)

// Axis selects a phase-space direction.
type Axis int

const (
	Q Axis = 0 // longitudinal position
	P Axis = 1 // energy deviation
)

// PhaseSpace is a square mesh of density samples together with its
// rulers, cached marginals and attached bunch scalars.
//
// The data layout is row-major in q: data[x*n+y] is the cell at position
// index x and energy index y.
type PhaseSpace struct {
	n     int
	axes  [2]*Ruler
	data  []float64
	buf   *device.Buffer
	xProj []float64
	yProj []float64

	integral float64
	mean     [2]float64
	variance [2]float64

	// Bunch scalars attached at construction.
	Charge       float64 // bunch charge Q_b
	Current      float64 // bunch current
	BunchLength  float64 // natural RMS bunch length
	DeltaE       float64 // absolute energy spread
	Norm         float64 // normalisation constant of the seed
}

// New allocates an empty n x n phase space spanning [qmin,qmax] x
// [pmin,pmax] with the given bunch scalars attached.
func New(ctx *device.Context, n int, qmin, qmax, pmin, pmax,
	charge, current, bl, dE float64) *PhaseSpace {

	ps := &PhaseSpace{
		n:    n,
		axes: [2]*Ruler{NewRuler(n, qmin, qmax), NewRuler(n, pmin, pmax)},
		data: make([]float64, n*n),

		xProj: make([]float64, n),
		yProj: make([]float64, n),

		Charge:      charge,
		Current:     current,
		BunchLength: bl,
		DeltaE:      dE,
	}
	ps.buf = ctx.NewBuffer(ps.data)
	return ps
}

// NewGaussian allocates a phase space seeded with a bivariate Gaussian of
// unit widths, optionally zoomed by zoom (> 0), and normalises it.
func NewGaussian(ctx *device.Context, n int, qmin, qmax, pmin, pmax,
	charge, current, bl, dE, zoom float64) *PhaseSpace {

	ps := New(ctx, n, qmin, qmax, pmin, pmax, charge, current, bl, dE)
	if zoom <= 0 {
		zoom = 1
	}
	for x := 0; x < n; x++ {
		q := ps.axes[0].At(x) / zoom
		for y := 0; y < n; y++ {
			p := ps.axes[1].At(y) / zoom
			ps.data[x*n+y] = math.Exp(-0.5 * (q*q + p*p))
		}
	}
	ps.UpdateXProjection()
	ps.Norm = ps.Normalize()
	return ps
}

// NewFromData allocates a phase space from an externally read n x n grid
// of samples (for example a start-distribution text file). The grid must
// be square.
func NewFromData(ctx *device.Context, grid [][]float64,
	qmin, qmax, pmin, pmax, charge, current, bl, dE float64,
) (*PhaseSpace, error) {

	n := len(grid)
	for i := range grid {
		if len(grid[i]) != n {
			return nil, fmt.Errorf(
				"Start distribution is not square: row %d has %d of %d cells.",
				i, len(grid[i]), n)
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("Start distribution is empty.")
	}

	ps := New(ctx, n, qmin, qmax, pmin, pmax, charge, current, bl, dE)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			ps.data[x*n+y] = grid[x][y]
		}
	}
	ps.UpdateXProjection()
	ps.Norm = ps.Normalize()
	return ps, nil
}

// Clone allocates a deep copy sharing no state with ps.
func (ps *PhaseSpace) Clone(ctx *device.Context) *PhaseSpace {
	out := New(ctx, ps.n,
		ps.axes[0].Min, ps.axes[0].Max, ps.axes[1].Min, ps.axes[1].Max,
		ps.Charge, ps.Current, ps.BunchLength, ps.DeltaE)
	copy(out.data, ps.data)
	copy(out.xProj, ps.xProj)
	copy(out.yProj, ps.yProj)
	out.integral = ps.integral
	out.Norm = ps.Norm
	return out
}

// N returns the number of cells per axis.
func (ps *PhaseSpace) N() int { return ps.n }

// Axis returns the ruler of the given axis.
func (ps *PhaseSpace) Axis(a Axis) *Ruler { return ps.axes[a] }

// Data returns the raw host-side density slice in row-major q order.
func (ps *PhaseSpace) Data() []float64 { return ps.data }

// Buffer returns the device mirror of the density data.
func (ps *PhaseSpace) Buffer() *device.Buffer { return ps.buf }

// Get returns the density at cell (x, y).
func (ps *PhaseSpace) Get(x, y int) float64 { return ps.data[x*ps.n+y] }

// Set writes the density at cell (x, y).
func (ps *PhaseSpace) Set(x, y int, v float64) { ps.data[x*ps.n+y] = v }

// XProjection returns the cached marginal over q. Stale until
// UpdateXProjection is called.
func (ps *PhaseSpace) XProjection() []float64 { return ps.xProj }

// YProjection returns the cached marginal over p. Stale until
// UpdateYProjection is called.
func (ps *PhaseSpace) YProjection() []float64 { return ps.yProj }

// UpdateXProjection sums the density over p and scales by the p spacing.
func (ps *PhaseSpace) UpdateXProjection() {
	data := ps.buf.ReadOnHost()
	dp := ps.axes[1].Delta
	for x := 0; x < ps.n; x++ {
		ps.xProj[x] = floats.Sum(data[x*ps.n:(x+1)*ps.n]) * dp
	}
}

// UpdateYProjection sums the density over q and scales by the q spacing.
func (ps *PhaseSpace) UpdateYProjection() {
	data := ps.buf.ReadOnHost()
	dq := ps.axes[0].Delta
	for y := 0; y < ps.n; y++ {
		sum := 0.0
		for x := 0; x < ps.n; x++ {
			sum += data[x*ps.n+y]
		}
		ps.yProj[y] = sum * dq
	}
}

// Integral recomputes and caches the integral of the x projection. The
// projection must be current.
func (ps *PhaseSpace) Integral() float64 {
	ps.integral = floats.Sum(ps.xProj) * ps.axes[0].Delta
	return ps.integral
}

// CachedIntegral returns the last value computed by Integral or
// Normalize.
func (ps *PhaseSpace) CachedIntegral() float64 { return ps.integral }

// Normalize scales the density so its integral becomes one and returns
// the integral it had before. The x projection must be current; both
// projections are rescaled along with the data.
func (ps *PhaseSpace) Normalize() float64 {
	before := ps.Integral()
	if before <= 0 || math.IsNaN(before) || math.IsInf(before, 0) {
		log.Fatalf("Cannot normalize mesh with integral %g.", before)
	}
	data := ps.buf.ReadOnHost()
	floats.Scale(1/before, data)
	floats.Scale(1/before, ps.xProj)
	floats.Scale(1/before, ps.yProj)
	ps.buf.MarkWritten(device.Host)
	ps.integral = 1
	return before
}

// Mean returns the first moment of the named projection. The projection
// must be current.
func (ps *PhaseSpace) Mean(a Axis) float64 {
	proj, ax := ps.proj(a)
	var sum, w float64
	for i := range proj {
		sum += proj[i] * ax.At(i)
		w += proj[i]
	}
	if w == 0 {
		return 0
	}
	ps.mean[a] = sum / w
	return ps.mean[a]
}

// Variance returns the central second moment of the named projection.
// The projection must be current.
func (ps *PhaseSpace) Variance(a Axis) float64 {
	mean := ps.Mean(a)
	proj, ax := ps.proj(a)
	var sum, w float64
	for i := range proj {
		d := ax.At(i) - mean
		sum += proj[i] * d * d
		w += proj[i]
	}
	if w == 0 {
		return 0
	}
	ps.variance[a] = sum / w
	return ps.variance[a]
}

func (ps *PhaseSpace) proj(a Axis) ([]float64, *Ruler) {
	switch a {
	case Q:
		return ps.xProj, ps.axes[0]
	case P:
		return ps.yProj, ps.axes[1]
	}
	log.Fatalf("Unknown mesh axis %d.", a)
	return nil, nil
}

// CreateFromProjections rebuilds the 2-D density as the outer product of
// the current x and y projections. Used by the Haissinski seed.
func (ps *PhaseSpace) CreateFromProjections() {
	data := ps.buf.ReadOnHost()
	for x := 0; x < ps.n; x++ {
		for y := 0; y < ps.n; y++ {
			data[x*ps.n+y] = ps.xProj[x] * ps.yProj[y]
		}
	}
	ps.buf.MarkWritten(device.Host)
}

// Max returns the largest density sample.
func (ps *PhaseSpace) Max() float64 {
	return floats.Max(ps.buf.ReadOnHost())
}

// Position is a tracked marker particle in mesh coordinates.
type Position struct {
	Q, P float64
}
