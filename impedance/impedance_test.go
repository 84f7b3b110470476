package impedance

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeSpaceCSRScaling(t *testing.T) {
	z := FreeSpaceCSR(256, 1e6, 1e12)

	// |Z| grows with f^(1/3); doubling the frequency scales by 2^(1/3).
	r1 := cmplx.Abs(z.At(64))
	r2 := cmplx.Abs(z.At(128))
	assert.InDelta(t, math.Cbrt(2), r2/r1, 1e-9)

	// Constant phase of pi/6.
	for _, i := range []int{1, 50, 200} {
		assert.InDelta(t, math.Pi/6, cmplx.Phase(z.At(i)), 1e-9, "sample %d", i)
	}
	assert.Equal(t, complex(0, 0), z.At(0), "DC sample")
}

func TestParallelPlatesShieldsLowFrequencies(t *testing.T) {
	fs := FreeSpaceCSR(128, 1e6, 1e11)
	pp := ParallelPlatesCSR(128, 1e6, 1e11, 0.032)

	// Shielding suppresses the real (radiating) part at low frequency
	// relative to free space.
	lowFS := real(fs.At(1))
	lowPP := real(pp.At(1))
	assert.True(t, lowPP < lowFS,
		"low frequency: parallel plates %g, free space %g", lowPP, lowFS)
}

func TestResistiveWall(t *testing.T) {
	z := ResistiveWall(64, 1e6, 1e10, 3.6e7, 0, 0.016)

	// Re = -Im, both scale with sqrt(f).
	s := z.At(16)
	assert.InDelta(t, real(s), -imag(s), 1e-9)
	assert.InDelta(t, math.Sqrt(2),
		real(z.At(32))/real(z.At(16)), 1e-9)
}

func TestCollimatorIsFlat(t *testing.T) {
	z := Collimator(32, 1e10, 0.016, 0.004)
	want := complex(Z0/math.Pi*math.Log(4), 0)
	for i := 0; i < 32; i++ {
		assert.Equal(t, want, z.At(i))
	}
}

func TestAddRequiresMatchingGrids(t *testing.T) {
	a := New(64, 1e10)
	b := New(32, 1e10)
	c := New(64, 2e10)
	assert.Error(t, a.Add(b))
	assert.Error(t, a.Add(c))

	d := FreeSpaceCSR(64, 1e6, 1e10)
	before := a.At(10)
	assert.NoError(t, a.Add(d))
	assert.Equal(t, before+d.At(10), a.At(10))
}

func TestFileRoundTrip(t *testing.T) {
	orig := ParallelPlatesCSR(128, 1e6, 1e11, 0.032)

	fname := filepath.Join(t.TempDir(), "impedance.dat")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < orig.NFreqs(); i++ {
		fmt.Fprintf(f, "%.17g %.17g\n", real(orig.At(i)), imag(orig.At(i)))
	}
	f.Close()

	read, err := FromFile(fname, orig.FMax(), 128)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, orig.NFreqs(), read.NFreqs())
	for i := 0; i < orig.NFreqs(); i++ {
		rel := cmplx.Abs(orig.At(i)-read.At(i)) / (1 + cmplx.Abs(orig.At(i)))
		if rel > 1e-4 {
			t.Errorf("sample %d: wrote %v, read %v", i, orig.At(i), read.At(i))
		}
	}
}

func TestFromFileRejectsShortTables(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "short.dat")
	os.WriteFile(fname, []byte("1 2\n3 4\n"), 0666)

	_, err := FromFile(fname, 1e10, 16)
	assert.Error(t, err)
}

func TestAirySmallArguments(t *testing.T) {
	// Reference values from Abramowitz & Stegun, table 10.11.
	ai, aip, bi, bip := airy(0)
	assert.InDelta(t, 0.35502805, ai, 1e-7)
	assert.InDelta(t, -0.25881940, aip, 1e-7)
	assert.InDelta(t, 0.61492663, bi, 1e-7)
	assert.InDelta(t, 0.44828836, bip, 1e-7)

	ai, _, bi, _ = airy(1)
	assert.InDelta(t, 0.13529242, ai, 1e-7)
	assert.InDelta(t, 1.20742359, bi, 1e-7)
}

func TestAiryWronskian(t *testing.T) {
	// Ai*Bi' - Ai'*Bi = 1/pi for every argument; checks both branches.
	for _, x := range []float64{0.1, 1, 3, 7, 7.5, 9, 15, 30} {
		ai, aip, bi, bip := airy(x)
		w := ai*bip - aip*bi
		assert.InDelta(t, 1/math.Pi, w, 1e-6, "x = %g", x)
	}
}
