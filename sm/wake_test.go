package sm

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Inovesa/inovesa/field"
	"github.com/Inovesa/inovesa/impedance"
	"github.com/Inovesa/inovesa/mesh"
)

func TestWakePotentialMapForce(t *testing.T) {
	ctx := hostCtx()
	n := 64
	in := mesh.NewGaussian(ctx, n, -6, 6, -6, 6, 1e-10, 5e-4, 1e-3, 6e5, 1)
	out := in.Clone(ctx)

	imp := impedance.ParallelPlatesCSR(2*n, 2.7e6, 1.6e12, 0.032)
	f, err := field.New(in, imp, 0.3, 2)
	if err != nil {
		t.Fatal(err)
	}

	wm := NewWakePotentialMap(ctx, in, out, f, Cubic, true)
	assert.NoError(t, wm.Update())

	// Force is -V/dE in mesh points; must mirror the wake's sign.
	wake := f.Wake()
	force := wm.Force()
	dp := in.Axis(mesh.P).Delta
	for i := range force {
		assert.InDelta(t, -wake[i]/in.DeltaE/dp, force[i], 1e-15, "cell %d", i)
	}

	// Applying after Update transports mass but conserves it.
	before := meshSum(in)
	wm.Apply()
	after := meshSum(out)
	assert.InDelta(t, before, after, before*1e-3)
}

func TestWakeFunctionMap(t *testing.T) {
	ctx := hostCtx()
	n := 32
	in := mesh.NewGaussian(ctx, n, -6, 6, -6, 6, 1e-10, 5e-4, 1e-3, 6e5, 1)
	out := in.Clone(ctx)

	// A resistive-style wake: decaying exponential behind the source,
	// zero ahead of it.
	fname := filepath.Join(t.TempDir(), "wake.dat")
	fd, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	for z := -15.0; z <= 15.0; z += 0.1 {
		w := 0.0
		if z > 0 {
			w = math.Exp(-z)
		}
		fmt.Fprintf(fd, "%g %g\n", z, w)
	}
	fd.Close()

	wm, err := NewWakeFunctionMap(ctx, in, out, fname, 0.3, Linear, true)
	assert.NoError(t, err)
	assert.NoError(t, wm.Update())

	// The convolution of a positive profile with a positive wake gives
	// a strictly decelerating force.
	force := wm.Force()
	negative := 0
	for _, v := range force {
		if v < 0 {
			negative++
		}
	}
	assert.True(t, negative > n/2, "%d of %d cells decelerate", negative, n)

	wm.Apply()
	assert.InDelta(t, meshSum(in), meshSum(out), meshSum(in)*1e-3)
}

func TestWakeFunctionMapRejectsShortFiles(t *testing.T) {
	ctx := hostCtx()
	in, out := gaussianPair(ctx, 16)

	fname := filepath.Join(t.TempDir(), "wake.dat")
	os.WriteFile(fname, []byte("0 1\n"), 0666)

	_, err := NewWakeFunctionMap(ctx, in, out, fname, 1, Linear, false)
	assert.Error(t, err)
}
