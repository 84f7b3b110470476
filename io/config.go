/*package io reads the frozen simulation parameter record.

Configuration files are INI-style gcfg files with a single [Simulation]
section. The required fields and the enumerated options have Valid
methods, and Check reports every failing one at once instead of dying
on the first.
*/
package io

import (
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/Inovesa/inovesa/phys"
	"github.com/Inovesa/inovesa/sim"
	"github.com/Inovesa/inovesa/sm"
)

const ExampleSimulationFile = `[Simulation]

#######################
# Required Parameters #
#######################

# Number of mesh cells per phase-space axis. May be 0 only when
# StartDistFile provides the grid.
GridSize = 256

# Extent of the phase space in natural units (bunch lengths and energy
# spreads). The mesh spans [-PhaseSpaceSize/2, +PhaseSpaceSize/2] on
# both axes before shifting.
PhaseSpaceSize = 10.0

# Beam energy in eV and relative energy spread.
BeamEnergy = 1.3e9
EnergySpread = 4.7e-4

# Revolution frequency in Hz.
RevolutionFrequency = 2.7e6

# RF system: harmonic number and total voltage in volt.
HarmonicNumber = 184
RFVoltage = 1.4e6

# Synchrotron frequency in Hz. Set negative to derive it from Alpha0
# instead.
SynchrotronFrequency = 8.0e3

# Bunch current in ampere.
BunchCurrent = 5e-4

# Longitudinal damping time in seconds. Zero disables damping and
# diffusion.
DampingTime = 5e-3

# Steps per synchrotron period and number of synchrotron periods.
Steps = 1000
Rotations = 10

#######################
# Optional Parameters #
#######################

# Shift of the phase space in cells.
# PSShiftX = 0
# PSShiftY = 0

# Momentum compaction. Alpha0 is only read when SynchrotronFrequency is
# negative; Alpha1 and Alpha2 distort the drift for the kick+drift
# rotation.
# Alpha0 = 0
# Alpha1 = 0
# Alpha2 = 0

# Bending radius in meter. Non-positive means an isomagnetic ring at the
# revolution frequency.
# BendingRadius = -1

# Full vacuum chamber gap in meter. Positive selects the parallel
# plates CSR impedance, zero disables the wake entirely, negative
# selects free space CSR.
# VacuumChamberGap = 0.032

# Resistive wall: conductivity in S/m and magnetic susceptibility.
# WallConductivity = 0
# WallSusceptibility = 0

# Collimator aperture radius in meter.
# CollimatorRadius = 0

# CSR spectrum cutoff frequency in Hz. Zero keeps the full spectrum.
# CutoffFrequency = 0

# Rotation realisation: 0 and 1 rotate in one 2-D map, 2 splits the
# rotation into an RF kick and a drift.
# RotationType = 0

# Interpolation points per dimension (1..4) and result clamping.
# InterpolationPoints = 4
# InterpolationClamped = false

# Zero padding factor of the wake convolution.
# Padding = 2

# Snapshot stride in steps; 0 disables snapshots.
# OutStep = 100

# Renormalisation stride in steps; 0 tracks the integral instead.
# RenormalizeCharge = 0

# Haissinski equilibrium iterations before the run.
# HaissinskiIterations = 0

# Initial distribution zoom factor.
# StartDistZoom = 1

# File paths. StartDistFile seeds the mesh from a square text grid;
# ImpedanceFile and WakeFile override the analytic models; TrackFile
# seeds marker particles; OutFile is the prefix for snapshot plots.
# StartDistFile =
# ImpedanceFile =
# WakeFile =
# TrackFile =
# OutFile =

# Compute device: 0 runs on the host, 1 on the in-process accelerator.
# Device = 0`

type SimulationConfig struct {
	// Required
	GridSize             int
	PhaseSpaceSize       float64
	BeamEnergy           float64
	EnergySpread         float64
	RevolutionFrequency  float64
	HarmonicNumber       float64
	RFVoltage            float64
	SynchrotronFrequency float64
	BunchCurrent         float64
	DampingTime          float64
	Steps                int
	Rotations            float64

	// Optional
	PSShiftX, PSShiftY   float64
	Alpha0               float64
	Alpha1, Alpha2       float64
	BendingRadius        float64
	VacuumChamberGap     float64
	WallConductivity     float64
	WallSusceptibility   float64
	CollimatorRadius     float64
	CutoffFrequency      float64
	RotationType         int
	InterpolationPoints  int
	InterpolationClamped bool
	Padding              int
	OutStep              int
	RenormalizeCharge    int
	HaissinskiIterations int
	StartDistZoom        float64

	StartDistFile string
	ImpedanceFile string
	WakeFile      string
	TrackFile     string
	OutFile       string

	Device int
}

type SimulationWrapper struct {
	Simulation SimulationConfig
}

// DefaultSimulationWrapper returns a wrapper with every optional field
// at its default.
func DefaultSimulationWrapper() *SimulationWrapper {
	con := SimulationConfig{}
	con.BendingRadius = -1
	con.SynchrotronFrequency = -1
	con.InterpolationPoints = 4
	con.Padding = 2
	con.StartDistZoom = 1
	return &SimulationWrapper{con}
}

// ReadSimulationConfig reads and validates a configuration file.
func ReadSimulationConfig(fname string) (*SimulationConfig, error) {
	wrap := DefaultSimulationWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.Simulation
	if err := con.Check(); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *SimulationConfig) ValidGridSize() bool {
	return con.GridSize > 0 || con.StartDistFile != ""
}
func (con *SimulationConfig) ValidPhaseSpaceSize() bool {
	return con.PhaseSpaceSize > 0
}
func (con *SimulationConfig) ValidBeamEnergy() bool {
	return con.BeamEnergy > 0
}
func (con *SimulationConfig) ValidEnergySpread() bool {
	return con.EnergySpread > 0
}
func (con *SimulationConfig) ValidRevolutionFrequency() bool {
	return con.RevolutionFrequency > 0
}
func (con *SimulationConfig) ValidHarmonicNumber() bool {
	return con.HarmonicNumber > 0
}
func (con *SimulationConfig) ValidRFVoltage() bool {
	return con.RFVoltage > 0
}
func (con *SimulationConfig) ValidSynchrotronFrequency() bool {
	return con.SynchrotronFrequency > 0 || con.Alpha0 > 0
}
func (con *SimulationConfig) ValidSteps() bool {
	return con.Steps > 0
}
func (con *SimulationConfig) ValidRotations() bool {
	return con.Rotations > 0
}
func (con *SimulationConfig) ValidRotationType() bool {
	return con.RotationType >= 0 && con.RotationType <= 2
}
func (con *SimulationConfig) ValidInterpolationPoints() bool {
	return con.InterpolationPoints >= 1 && con.InterpolationPoints <= 4
}
func (con *SimulationConfig) ValidPadding() bool {
	return con.Padding >= 1
}
func (con *SimulationConfig) ValidDevice() bool {
	return con.Device >= 0 && con.Device <= 1
}

// Check validates every field and collects the failures into one error.
func (con *SimulationConfig) Check() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{con.ValidGridSize(), "GridSize (or StartDistFile)"},
		{con.ValidPhaseSpaceSize(), "PhaseSpaceSize"},
		{con.ValidBeamEnergy(), "BeamEnergy"},
		{con.ValidEnergySpread(), "EnergySpread"},
		{con.ValidRevolutionFrequency(), "RevolutionFrequency"},
		{con.ValidHarmonicNumber(), "HarmonicNumber"},
		{con.ValidRFVoltage(), "RFVoltage"},
		{con.ValidSynchrotronFrequency(), "SynchrotronFrequency (or Alpha0)"},
		{con.ValidSteps(), "Steps"},
		{con.ValidRotations(), "Rotations"},
		{con.ValidRotationType(), "RotationType"},
		{con.ValidInterpolationPoints(), "InterpolationPoints"},
		{con.ValidPadding(), "Padding"},
		{con.ValidDevice(), "Device"},
	}

	bad := ""
	for _, c := range checks {
		if c.ok {
			continue
		}
		if bad != "" {
			bad += ", "
		}
		bad += c.name
	}
	if bad != "" {
		return fmt.Errorf("Invalid or missing configuration values: %s.", bad)
	}
	return nil
}

// PhysInput converts the record into the machine description consumed
// by phys.Derive.
func (con *SimulationConfig) PhysInput() phys.Input {
	return phys.Input{
		GridSize:       con.GridSize,
		PhaseSpaceSize: con.PhaseSpaceSize,
		PSShiftX:       con.PSShiftX,
		PSShiftY:       con.PSShiftY,
		BeamEnergy:     con.BeamEnergy,
		EnergySpread:   con.EnergySpread,
		RevFreq:        con.RevolutionFrequency,
		BendRadius:     con.BendingRadius,
		SyncFreq:       con.SynchrotronFrequency,
		Alpha0:         con.Alpha0,
		Alpha1:         con.Alpha1,
		Alpha2:         con.Alpha2,
		Harmonic:       con.HarmonicNumber,
		RFVoltage:      con.RFVoltage,
		BunchCurrent:   con.BunchCurrent,
		DampingTime:    con.DampingTime,
		Gap:            con.VacuumChamberGap,
		Steps:          con.Steps,
		Rotations:      con.Rotations,
	}
}

// SimOptions converts the record into the solver options.
func (con *SimulationConfig) SimOptions() sim.Options {
	return sim.Options{
		RotationType:     sim.RotationType(con.RotationType),
		Interpolation:    sm.InterpolationType(con.InterpolationPoints),
		Clamp:            con.InterpolationClamped,
		Coords:           sm.NormPM1,
		Padding:          con.Padding,
		OutStep:          con.OutStep,
		Renormalize:      con.RenormalizeCharge,
		CutoffFreq:       con.CutoffFrequency,
		Haissinski:       con.HaissinskiIterations,
		Gap:              con.VacuumChamberGap,
		Conductivity:     con.WallConductivity,
		Susceptibility:   con.WallSusceptibility,
		CollimatorRadius: con.CollimatorRadius,
		ImpedanceFile:    con.ImpedanceFile,
		WakeFile:         con.WakeFile,
	}
}
