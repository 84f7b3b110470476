/*package phys holds physical constants and derives the scaled run
parameters which the rest of the simulation consumes.

All user-facing inputs (currents, frequencies, voltages) are SI. The
simulation itself works in normalised phase-space units: positions in
natural bunch lengths and energy offsets in natural energy spreads, so
everything dimensional is folded into the constants computed here.
*/
package phys

import (
	"fmt"
	"math"
)

// Physical constants (SI).
const (
	SpeedOfLight   = 299792458.0
	ElectronCharge = 1.602176634e-19
	ElectronMass   = 9.1093837015e-31
	// Alfven current for electrons, in ampere.
	AlfvenCurrent = 17045.0
)

// Params is the frozen record of derived run parameters. It is computed
// once by Derive() and never modified afterwards.
type Params struct {
	// Grid geometry.
	GridSize               int
	QMin, QMax, PMin, PMax float64

	// Reference machine quantities (SI unless noted).
	BeamEnergy   float64 // eV
	EnergySpread float64 // relative
	DeltaE       float64 // absolute energy spread, eV
	RevFreq      float64 // revolution frequency f_rev
	BendFreq     float64 // isomagnetic revolution frequency f0
	BendRadius   float64
	IsoScale     float64 // f_rev/f0, <= 1
	SyncFreq     float64 // synchrotron frequency, isomagnetic ring
	SyncFreqRing float64 // synchrotron frequency, real ring
	Alpha0       float64
	Alpha1       float64
	Alpha2       float64
	Harmonic     float64 // scaled harmonic number
	RFVoltage    float64

	// Bunch quantities.
	BunchLength  float64 // natural RMS bunch length, meter
	BunchCurrent float64 // scaled current I_b/isoscale, ampere
	BunchCharge  float64 // I_b/f_rev, coulomb

	// Stepping.
	Steps          int
	Rotations      float64
	DampingTime    float64
	TimeStep       float64 // dt = 1/(fs*steps)
	RevolutionPart float64 // f0*dt, fraction of one turn per step
	Angle          float64 // 2*pi/steps

	// CSR figures of merit.
	Shielding    float64
	ThresholdCur float64 // BBT scaling-law threshold current
	CSRStrength  float64
}

// Input mirrors the user-level machine description needed by Derive. The
// zero value is not valid; see io.SimulationConfig for defaults and
// validation.
type Input struct {
	GridSize       int
	PhaseSpaceSize float64
	PSShiftX       float64
	PSShiftY       float64

	BeamEnergy     float64
	EnergySpread   float64
	RevFreq        float64
	BendRadius     float64 // <= 0 means isomagnetic ring
	SyncFreq       float64 // < 0 means derive from Alpha0
	Alpha0         float64
	Alpha1, Alpha2 float64
	Harmonic       float64
	RFVoltage      float64
	BunchCurrent   float64
	DampingTime    float64
	Gap            float64

	Steps     int
	Rotations float64
}

// Derive computes every scaled parameter from the machine description.
// It mirrors the unit-conversion preamble that runs before the solver is
// built: synchrotron frequency and momentum compaction determine each
// other, the isomagnetic scaling maps the real ring onto an equivalent
// ring with constant bending field, and the natural bunch length sets the
// phase-space unit.
func Derive(in Input) (*Params, error) {
	if in.Steps < 1 {
		in.Steps = 1
	}
	if in.BeamEnergy <= 0 || in.RevFreq <= 0 || in.RFVoltage <= 0 {
		return nil, fmt.Errorf(
			"BeamEnergy, RevolutionFrequency and RFVoltage must be positive.")
	}

	p := &Params{
		GridSize:     in.GridSize,
		BeamEnergy:   in.BeamEnergy,
		EnergySpread: in.EnergySpread,
		DeltaE:       in.EnergySpread * in.BeamEnergy,
		RevFreq:      in.RevFreq,
		Alpha1:       in.Alpha1,
		Alpha2:       in.Alpha2,
		RFVoltage:    in.RFVoltage,
		Steps:        in.Steps,
		Rotations:    in.Rotations,
	}

	pqhalf := in.PhaseSpaceSize / 2
	qcenter := -in.PSShiftX * in.PhaseSpaceSize / float64(in.GridSize-1)
	pcenter := -in.PSShiftY * in.PhaseSpaceSize / float64(in.GridSize-1)
	p.QMin, p.QMax = qcenter-pqhalf, qcenter+pqhalf
	p.PMin, p.PMax = pcenter-pqhalf, pcenter+pqhalf

	if in.BendRadius > 0 {
		p.BendRadius = in.BendRadius
		p.BendFreq = SpeedOfLight / (2 * math.Pi * p.BendRadius)
	} else {
		p.BendRadius = SpeedOfLight / (2 * math.Pi * in.RevFreq)
		p.BendFreq = in.RevFreq
	}
	p.IsoScale = p.RevFreq / p.BendFreq

	// Positive f_s wins; a negative one means alpha0 is authoritative.
	if in.SyncFreq >= 0 {
		p.SyncFreqRing = in.SyncFreq
		p.Alpha0 = 2 * math.Pi * in.BeamEnergy / (in.Harmonic * in.RFVoltage) *
			math.Pow(in.SyncFreq/in.RevFreq, 2)
	} else {
		p.Alpha0 = in.Alpha0
		p.SyncFreqRing = in.RevFreq *
			math.Sqrt(in.Alpha0*in.Harmonic*in.RFVoltage/(2*math.Pi*in.BeamEnergy))
	}
	if p.SyncFreqRing <= 0 {
		return nil, fmt.Errorf(
			"Synchrotron frequency came out non-positive; check Alpha0, " +
				"HarmonicNumber and RFVoltage.")
	}
	p.SyncFreq = p.SyncFreqRing / p.IsoScale
	p.Harmonic = p.IsoScale * in.Harmonic

	p.BunchLength = SpeedOfLight * p.DeltaE / in.Harmonic /
		math.Pow(p.BendFreq, 2) / in.RFVoltage * p.SyncFreq
	p.BunchCharge = in.BunchCurrent / in.RevFreq
	p.BunchCurrent = in.BunchCurrent / p.IsoScale

	p.DampingTime = p.IsoScale * in.DampingTime
	p.TimeStep = 1 / (p.SyncFreq * float64(p.Steps))
	p.RevolutionPart = p.BendFreq * p.TimeStep
	p.Angle = 2 * math.Pi / float64(p.Steps)

	if in.Gap > 0 {
		p.Shielding = p.BunchLength * math.Sqrt(p.BendRadius) *
			math.Pow(in.Gap, -1.5)
	}
	if in.Gap != 0 {
		inorm := AlfvenCurrent / (ElectronMass * SpeedOfLight * SpeedOfLight /
			ElectronCharge) * 2 * math.Pi *
			math.Pow(p.DeltaE*p.SyncFreq/p.BendFreq, 2) /
			in.RFVoltage / in.Harmonic *
			math.Pow(p.BunchLength/p.BendRadius, 1./3.)
		p.ThresholdCur = inorm * (0.5 + 0.34*p.Shielding)
		if inorm > 0 {
			p.CSRStrength = p.BunchCurrent / inorm
		}
	}

	return p, nil
}

// MaxFreq is the highest frequency resolved by a grid of n cells spanning
// [qmin, qmax] bunch lengths: n*c / (2*qmax*bl).
func (p *Params) MaxFreq() float64 {
	return float64(p.GridSize) * SpeedOfLight / (2 * p.QMax * p.BunchLength)
}

// SimSteps is the total number of simulation steps for the configured
// number of synchrotron rotations.
func (p *Params) SimSteps() int {
	return int(float64(p.Steps) * p.Rotations)
}
