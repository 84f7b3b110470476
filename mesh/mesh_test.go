package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Inovesa/inovesa/device"
)

func hostCtx() *device.Context {
	ctx, _ := device.New(0)
	return ctx
}

func TestGaussianSeedIsNormalised(t *testing.T) {
	ps := NewGaussian(hostCtx(), 128, -6, 6, -6, 6, 1e-9, 1e-3, 1e-3, 600, 1)

	assert.InDelta(t, 1.0, ps.Integral(), 1e-12, "integral after seed")
	assert.True(t, ps.Norm > 0, "seed normalisation constant")

	ps.UpdateYProjection()
	assert.InDelta(t, 0.0, ps.Mean(Q), 1e-9, "q mean")
	assert.InDelta(t, 0.0, ps.Mean(P), 1e-9, "p mean")
	assert.InDelta(t, 1.0, ps.Variance(Q), 1e-3, "q variance")
	assert.InDelta(t, 1.0, ps.Variance(P), 1e-3, "p variance")
}

func TestProjectionsAndIntegralAgree(t *testing.T) {
	ps := NewGaussian(hostCtx(), 64, -5, 5, -5, 5, 1, 1, 1, 1, 1)

	// The y projection integrates to the same charge as the x
	// projection.
	ps.UpdateYProjection()
	sum := 0.0
	for _, v := range ps.YProjection() {
		sum += v
	}
	assert.InDelta(t, ps.Integral(), sum*ps.Axis(P).Delta, 1e-9)
}

func TestNormalizeRescalesEverything(t *testing.T) {
	ps := New(hostCtx(), 32, -5, 5, -5, 5, 1, 1, 1, 1)
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			ps.Set(x, y, 2)
		}
	}
	ps.UpdateXProjection()

	before := ps.Normalize()
	assert.True(t, before > 1, "integral before normalisation")
	assert.InDelta(t, 1.0, ps.Integral(), 1e-12, "integral after")
}

func TestCreateFromProjectionsOuterProduct(t *testing.T) {
	ps := NewGaussian(hostCtx(), 64, -5, 5, -5, 5, 1, 1, 1, 1, 1)
	ps.UpdateYProjection()

	ps.CreateFromProjections()
	x, y := 20, 40
	assert.InDelta(t,
		ps.XProjection()[x]*ps.YProjection()[y], ps.Get(x, y), 1e-14)
}

func TestNewFromDataRejectsNonSquare(t *testing.T) {
	grid := [][]float64{{1, 2, 3}, {4, 5}}
	_, err := NewFromData(hostCtx(), grid, -1, 1, -1, 1, 1, 1, 1, 1)
	assert.Error(t, err)
}

func TestRuler(t *testing.T) {
	r := NewRuler(11, -5, 5)
	assert.Equal(t, 1.0, r.Delta)
	assert.Equal(t, -5.0, r.At(0))
	assert.Equal(t, 5.0, r.At(10))
	assert.InDelta(t, 7.5, r.Index(2.5), 1e-14)
	assert.True(t, r.Contains(0))
	assert.False(t, r.Contains(5.1))
}

func TestIntegralAccumulation(t *testing.T) {
	// A large mesh of tiny equal contributions must not lose mass to
	// accumulation error.
	n := 512
	ps := New(hostCtx(), n, 0, 1, 0, 1, 1, 1, 1, 1)
	v := 1.0 / float64(n*n)
	for i := range ps.Data() {
		ps.Data()[i] = v
	}
	ps.UpdateXProjection()
	want := v * float64(n*n) * ps.Axis(Q).Delta * ps.Axis(P).Delta
	if math.Abs(ps.Integral()-want) > 1e-12 {
		t.Errorf("integral = %g, want %g", ps.Integral(), want)
	}
}
