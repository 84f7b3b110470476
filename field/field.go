/*package field computes the self-consistent wake potential and the CSR
spectrum of the bunch from its longitudinal charge profile.

The convolution runs over a zero-padded copy of the x projection: pad the
profile, transform, multiply by the impedance, transform back and keep
the leading mesh-sized block. Working buffers are allocated once per run.
*/
package field

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/Inovesa/inovesa/impedance"
	"github.com/Inovesa/inovesa/mesh"
)

// Relative tolerance on the imaginary residue of the back transformed
// wake. The convolution of real data with a hermitian spectrum is real;
// anything above this indicates a bug upstream.
const imagTol = 1e-6

// ElectricField owns the FFT working buffers, the impedance reference
// and the derived caches: charge spectrum, wake potential and CSR power
// spectrum.
type ElectricField struct {
	ps  *mesh.PhaseSpace
	imp *impedance.Impedance

	n, padded int

	profile  []float64    // zero-padded charge profile
	spectrum []complex128 // charge spectrum rho(f)
	wakeSpec []complex128
	wake     []float64 // wake potential on the mesh q grid, volt

	csrSpectrum []float64
	csrPower    float64

	// Qb * revolutionpart: charge passing per simulation step. The step
	// fraction and the bunch charge enter the convolution only through
	// this factor.
	scale float64
}

// New creates the field solver for a mesh and an impedance. pad is the
// zero-padding factor (>= 1; >= 2 gives linear-convolution semantics).
// revolutionpart is the fraction of one revolution covered by a
// simulation step; together with the mesh's bunch charge it scales the
// convolution.
func New(ps *mesh.PhaseSpace, imp *impedance.Impedance,
	revolutionpart float64, pad int) (*ElectricField, error) {

	if pad < 1 {
		pad = 1
	}
	n := ps.N()
	padded := n * pad
	if imp.NFreqs() < padded/2+1 {
		return nil, fmt.Errorf(
			"Impedance has %d samples but the padded mesh needs %d.",
			imp.NFreqs(), padded/2+1)
	}

	return &ElectricField{
		ps:          ps,
		imp:         imp,
		n:           n,
		padded:      padded,
		profile:     make([]float64, padded),
		wake:        make([]float64, n),
		csrSpectrum: make([]float64, padded/2+1),
		scale:       ps.Charge * revolutionpart,
	}, nil
}

// Update recomputes the wake potential from the mesh's current x
// projection. The projection must have been refreshed by the caller.
func (f *ElectricField) Update() error {
	proj := f.ps.XProjection()
	copy(f.profile, proj)
	for i := f.n; i < f.padded; i++ {
		f.profile[i] = 0
	}

	f.spectrum = fft.FFTReal(f.profile)

	if f.wakeSpec == nil {
		f.wakeSpec = make([]complex128, f.padded)
	}
	half := f.padded / 2
	for i := 0; i <= half; i++ {
		f.wakeSpec[i] = f.spectrum[i] * f.imp.At(i) * complex(f.scale, 0)
	}
	// A hermitian spectrum of even length needs a real Nyquist bin.
	if f.padded%2 == 0 {
		f.wakeSpec[half] = complex(real(f.wakeSpec[half]), 0)
	}
	for i := half + 1; i < f.padded; i++ {
		f.wakeSpec[i] = cmplx.Conj(f.wakeSpec[f.padded-i])
	}

	out := fft.IFFT(f.wakeSpec)

	maxAbs := 0.0
	for i := 0; i < f.n; i++ {
		f.wake[i] = real(out[i])
		if a := math.Abs(f.wake[i]); a > maxAbs {
			maxAbs = a
		}
	}
	for i := 0; i < f.padded; i++ {
		if math.Abs(imag(out[i])) > imagTol*(1+maxAbs) {
			return fmt.Errorf(
				"Wake potential has imaginary residue %g at cell %d.",
				imag(out[i]), i)
		}
	}
	return nil
}

// Wake returns the wake potential on the mesh q grid. Valid after
// Update.
func (f *ElectricField) Wake() []float64 { return f.wake }

// UpdateCSR recomputes the CSR power spectrum |rho(f)|^2 * Re Z(f),
// truncated above the cutoff frequency fc, and returns the integrated
// power. Requires a previous Update.
func (f *ElectricField) UpdateCSR(fc float64) float64 {
	if f.spectrum == nil {
		return 0
	}
	for i := range f.csrSpectrum {
		if fc > 0 && f.imp.Freq(i) > fc {
			f.csrSpectrum[i] = 0
			continue
		}
		r := cmplx.Abs(f.spectrum[i])
		f.csrSpectrum[i] = r * r * real(f.imp.At(i))
	}
	f.csrPower = floats.Sum(f.csrSpectrum) * f.imp.Delta()
	return f.csrPower
}

// CSRSpectrum returns the cached power spectrum. Valid after UpdateCSR.
func (f *ElectricField) CSRSpectrum() []float64 { return f.csrSpectrum }

// CSRPower returns the cached integrated CSR power.
func (f *ElectricField) CSRPower() float64 { return f.csrPower }

// PaddedSize returns the length of the FFT working buffers.
func (f *ElectricField) PaddedSize() int { return f.padded }
