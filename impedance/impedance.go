/*package impedance models the complex longitudinal coupling impedance on
a uniform frequency grid [0, fmax].

An Impedance is immutable once handed to the field solver; composition of
several models happens through Add before that point.
*/
package impedance

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/phil-mansfield/table"

	"github.com/Inovesa/inovesa/phys"
)

// Free-space impedance of the vacuum, in ohm.
const Z0 = 376.730313668

// Impedance holds M complex samples on a uniform frequency grid.
type Impedance struct {
	data []complex128
	fMax float64
}

// New allocates a zero impedance with m samples up to fmax.
func New(m int, fmax float64) *Impedance {
	return &Impedance{data: make([]complex128, m), fMax: fmax}
}

// NFreqs returns the number of frequency samples.
func (z *Impedance) NFreqs() int { return len(z.data) }

// FMax returns the highest sampled frequency.
func (z *Impedance) FMax() float64 { return z.fMax }

// Delta returns the frequency spacing.
func (z *Impedance) Delta() float64 {
	return z.fMax / float64(len(z.data)-1)
}

// At returns sample i.
func (z *Impedance) At(i int) complex128 { return z.data[i] }

// Data returns the raw sample slice. Treat as read-only.
func (z *Impedance) Data() []complex128 { return z.data }

// Freq returns the frequency of sample i.
func (z *Impedance) Freq(i int) float64 {
	return z.fMax * float64(i) / float64(len(z.data)-1)
}

// Add accumulates other into z componentwise. Both impedances must live
// on the same frequency grid.
func (z *Impedance) Add(other *Impedance) error {
	if len(z.data) != len(other.data) || z.fMax != other.fMax {
		return fmt.Errorf(
			"Cannot add impedance with %d samples up to %g Hz to one "+
				"with %d samples up to %g Hz.",
			other.NFreqs(), other.fMax, z.NFreqs(), z.fMax)
	}
	for i := range z.data {
		z.data[i] += other.data[i]
	}
	return nil
}

// FreeSpaceCSR returns the steady-state free space CSR impedance,
// Z(n) = Z0 * Gamma(2/3) / 3^(1/3) * (i*n)^(1/3), with n = f/f0 the
// revolution harmonic.
func FreeSpaceCSR(m int, f0, fmax float64) *Impedance {
	z := New(m, fmax)
	scale := complex(Z0*math.Gamma(2./3.)/math.Cbrt(3), 0)
	// (i)^(1/3) = exp(i*pi/6)
	phase := cmplx.Exp(complex(0, math.Pi/6))
	for i := 1; i < m; i++ {
		n := z.Freq(i) / f0
		z.data[i] = scale * phase * complex(math.Cbrt(n), 0)
	}
	return z
}

// ParallelPlatesCSR returns the CSR impedance shielded by perfectly
// conducting parallel plates separated by gap. It is evaluated as a sum
// over vertical image modes with Airy-function kernels; the sum is
// truncated once a mode contributes less than a fixed relative
// tolerance, so the number of modes grows with frequency.
func ParallelPlatesCSR(m int, f0, fmax, gap float64) *Impedance {
	const tol = 1e-6
	const maxModes = 1 << 12

	z := New(m, fmax)
	r := phys.SpeedOfLight / (2 * math.Pi * f0)

	for i := 1; i < m; i++ {
		k := 2 * math.Pi * z.Freq(i) / phys.SpeedOfLight
		lambda := math.Cbrt(r / (2 * k * k))

		sum := complex(0, 0)
		for p := 0; p < maxModes; p++ {
			x := math.Pi * float64(2*p+1) * lambda / gap
			term := modeTerm(x * x)
			sum += term
			if p > 0 && cmplx.Abs(term) < tol*cmplx.Abs(sum) {
				break
			}
		}

		pre := Z0 * 4 * math.Pi * math.Pi * lambda / gap
		z.data[i] = complex(pre, 0) * sum
	}
	return z
}

// modeTerm evaluates one image mode, Ai'(u)*CAi'(u) + u*Ai(u)*CAi(u)
// with CAi = Ai - i*Bi. Beyond the crossover the exponentially growing
// Bi factors cancel analytically against the decaying Ai factors, so
// the imaginary part is taken from the product expansion instead of the
// raw functions, which would overflow.
func modeTerm(u float64) complex128 {
	if u < 64 {
		ai, aip, bi, bip := airy(u)
		return complex(aip*aip+u*ai*ai, -(aip*bip + u*ai*bi))
	}
	ai, aip, _, _ := airy(u)
	re := aip*aip + u*ai*ai
	im := -3 / (16 * math.Pi * math.Pow(u, 2.5))
	return complex(re, im)
}

// ResistiveWall returns the skin-depth impedance of a circular chamber
// wall of conductivity sigma and magnetic susceptibility chi at radius b.
// The inductive-wall sign convention follows the CSR models above.
func ResistiveWall(m int, f0, fmax, sigma, chi, b float64) *Impedance {
	z := New(m, fmax)
	mu := 4 * math.Pi * 1e-7 * (1 + chi)
	circumference := phys.SpeedOfLight / f0
	for i := 1; i < m; i++ {
		omega := 2 * math.Pi * z.Freq(i)
		delta := math.Sqrt(2 / (mu * sigma * omega))
		re := circumference / (2 * math.Pi * b * sigma * delta)
		z.data[i] = complex(re, -re)
	}
	return z
}

// Collimator returns the purely geometric impedance of a collimator that
// narrows the chamber from radius b to radius r. In the optical regime
// it is real and frequency independent.
func Collimator(m int, fmax, b, r float64) *Impedance {
	z := New(m, fmax)
	val := complex(Z0/math.Pi*math.Log(b/r), 0)
	for i := range z.data {
		z.data[i] = val
	}
	return z
}

// FromFile reads a two column (Re, Im) impedance table sampled on a
// uniform frequency grid. Files with fewer than minSamples rows are
// rejected.
func FromFile(fname string, fmax float64, minSamples int) (*Impedance, error) {
	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return nil, err
	}
	res, ims := cols[0], cols[1]
	if len(res) < minSamples {
		return nil, fmt.Errorf(
			"Impedance file '%s' has %d samples, need at least %d.",
			fname, len(res), minSamples)
	}

	z := New(len(res), fmax)
	for i := range res {
		z.data[i] = complex(res[i], ims[i])
	}
	return z, nil
}
