package phys

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testInput() Input {
	return Input{
		GridSize:       256,
		PhaseSpaceSize: 10,
		BeamEnergy:     1.3e9,
		EnergySpread:   4.7e-4,
		RevFreq:        2.7e6,
		BendRadius:     -1,
		SyncFreq:       8e3,
		Harmonic:       184,
		RFVoltage:      1.4e6,
		BunchCurrent:   5e-4,
		DampingTime:    5e-3,
		Gap:            0.032,
		Steps:          1000,
		Rotations:      10,
	}
}

func TestDeriveBasics(t *testing.T) {
	par, err := Derive(testInput())
	assert.NoError(t, err)

	assert.Equal(t, 1.0, par.IsoScale, "isomagnetic ring")
	assert.InDelta(t, -5, par.QMin, 1e-12)
	assert.InDelta(t, 5, par.QMax, 1e-12)
	assert.InDelta(t, 2*math.Pi/1000, par.Angle, 1e-15)
	assert.InDelta(t, 1.0/(8e3*1000), par.TimeStep, 1e-12)
	assert.True(t, par.BunchLength > 0, "bunch length")
	assert.True(t, par.RevolutionPart > 0 && par.RevolutionPart < 1,
		"steps resolve a fraction of a turn, got %g", par.RevolutionPart)
	assert.InDelta(t, 5e-4/2.7e6, par.BunchCharge, 1e-18)
}

func TestSyncFreqAlphaRoundTrip(t *testing.T) {
	in := testInput()
	par1, err := Derive(in)
	assert.NoError(t, err)

	// Feeding the derived alpha0 back with a negative f_s must
	// reproduce the synchrotron frequency.
	in.SyncFreq = -1
	in.Alpha0 = par1.Alpha0
	par2, err := Derive(in)
	assert.NoError(t, err)

	assert.InDelta(t, par1.SyncFreqRing, par2.SyncFreqRing,
		par1.SyncFreqRing*1e-12)
	assert.InDelta(t, par1.BunchLength, par2.BunchLength,
		par1.BunchLength*1e-9)
}

func TestShieldingAndThreshold(t *testing.T) {
	par, err := Derive(testInput())
	assert.NoError(t, err)

	assert.True(t, par.Shielding > 0, "shielding with a positive gap")
	assert.True(t, par.ThresholdCur > 0, "BBT threshold")
	assert.True(t, par.CSRStrength > 0, "CSR strength")

	// No gap, no shielding figures.
	in := testInput()
	in.Gap = 0
	par, err = Derive(in)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, par.Shielding)
	assert.Equal(t, 0.0, par.ThresholdCur)
}

func TestDeriveRejectsBadInput(t *testing.T) {
	in := testInput()
	in.BeamEnergy = 0
	_, err := Derive(in)
	assert.Error(t, err)
}

func TestSimSteps(t *testing.T) {
	par, _ := Derive(testInput())
	assert.Equal(t, 10000, par.SimSteps())
	assert.True(t, par.MaxFreq() > 0)
}
