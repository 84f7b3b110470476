package field

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/assert"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/impedance"
	"github.com/Inovesa/inovesa/mesh"
)

func hostCtx() *device.Context {
	ctx, _ := device.New(0)
	return ctx
}

func gaussianMesh(n int) *mesh.PhaseSpace {
	return mesh.NewGaussian(hostCtx(), n, -6, 6, -6, 6,
		1e-10, 1e-3, 1e-3, 600, 1)
}

func TestFFTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 512
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = rng.Float64()
	}

	out := fft.IFFT(fft.FFTReal(xs))
	for i := range xs {
		assert.InDelta(t, xs[i], real(out[i]), 1e-5, "cell %d", i)
		assert.InDelta(t, 0, imag(out[i]), 1e-5, "cell %d imag", i)
	}
}

func TestWakeIsReal(t *testing.T) {
	n := 128
	ps := gaussianMesh(n)
	imp := impedance.FreeSpaceCSR(2*n, 1e6, 1e12)

	f, err := New(ps, imp, 1e-3, 2)
	if err != nil {
		t.Fatal(err)
	}
	// Update errors out if the imaginary residue exceeds tolerance.
	assert.NoError(t, f.Update())
	assert.Equal(t, n, len(f.Wake()))
}

func TestConvolutionLinearity(t *testing.T) {
	n := 128
	imp := impedance.FreeSpaceCSR(2*n, 1e6, 1e12)

	ps1 := gaussianMesh(n)
	ps2 := gaussianMesh(n)
	// Deform the second profile so the two inputs differ.
	proj2 := ps2.XProjection()
	for i := range proj2 {
		proj2[i] *= 1 + 0.3*math.Sin(float64(i)/7)
	}

	psSum := gaussianMesh(n)
	a, b := 2.0, -0.5
	projSum := psSum.XProjection()
	for i := range projSum {
		projSum[i] = a*ps1.XProjection()[i] + b*proj2[i]
	}

	f1, _ := New(ps1, imp, 1e-3, 2)
	f2, _ := New(ps2, imp, 1e-3, 2)
	fs, _ := New(psSum, imp, 1e-3, 2)

	assert.NoError(t, f1.Update())
	assert.NoError(t, f2.Update())
	assert.NoError(t, fs.Update())

	scale := 0.0
	for i := 0; i < n; i++ {
		if v := math.Abs(fs.Wake()[i]); v > scale {
			scale = v
		}
	}
	for i := 0; i < n; i++ {
		want := a*f1.Wake()[i] + b*f2.Wake()[i]
		assert.InDelta(t, want, fs.Wake()[i], 1e-4*(1+scale), "cell %d", i)
	}
}

func TestCSRSpectrumCutoff(t *testing.T) {
	n := 64
	ps := gaussianMesh(n)
	imp := impedance.FreeSpaceCSR(2*n, 1e6, 1e12)

	f, _ := New(ps, imp, 1e-3, 2)
	assert.NoError(t, f.Update())

	full := f.UpdateCSR(0)
	assert.True(t, full > 0, "uncut CSR power")

	cut := f.UpdateCSR(imp.FMax() / 4)
	assert.True(t, cut < full, "cutoff reduces power")
	for i := range f.CSRSpectrum() {
		if imp.Freq(i) > imp.FMax()/4 {
			assert.Equal(t, 0.0, f.CSRSpectrum()[i], "bin %d above cutoff", i)
		}
	}
}

func TestImpedanceTooShort(t *testing.T) {
	ps := gaussianMesh(64)
	imp := impedance.FreeSpaceCSR(16, 1e6, 1e12)
	_, err := New(ps, imp, 1e-3, 2)
	assert.Error(t, err)
}
