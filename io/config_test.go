package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "sim.cfg")
	if err := os.WriteFile(fname, []byte(text), 0666); err != nil {
		t.Fatal(err)
	}
	return fname
}

const minimalConfig = `[Simulation]
GridSize = 128
PhaseSpaceSize = 12.0
BeamEnergy = 1.3e9
EnergySpread = 4.7e-4
RevolutionFrequency = 2.7e6
HarmonicNumber = 184
RFVoltage = 1.4e6
SynchrotronFrequency = 8.0e3
BunchCurrent = 5e-4
DampingTime = 5e-3
Steps = 1000
Rotations = 10
`

func TestReadMinimalConfig(t *testing.T) {
	con, err := ReadSimulationConfig(writeConfig(t, minimalConfig))
	assert.NoError(t, err)

	assert.Equal(t, 128, con.GridSize)
	assert.Equal(t, 12.0, con.PhaseSpaceSize)
	assert.Equal(t, 1000, con.Steps)

	// Defaults survive the read.
	assert.Equal(t, 4, con.InterpolationPoints)
	assert.Equal(t, 2, con.Padding)
	assert.Equal(t, 1.0, con.StartDistZoom)
	assert.Equal(t, -1.0, con.BendingRadius)
}

func TestConfigConversions(t *testing.T) {
	con, err := ReadSimulationConfig(writeConfig(t, minimalConfig+
		"VacuumChamberGap = 0.032\nRotationType = 2\n"))
	assert.NoError(t, err)

	in := con.PhysInput()
	assert.Equal(t, 128, in.GridSize)
	assert.Equal(t, 0.032, in.Gap)

	opts := con.SimOptions()
	assert.Equal(t, 0.032, opts.Gap)
	assert.Equal(t, 2, int(opts.RotationType))
	assert.Equal(t, 4, int(opts.Interpolation))
}

func TestCheckCollectsAllFailures(t *testing.T) {
	con := &SimulationConfig{}
	err := con.Check()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GridSize")
	assert.Contains(t, err.Error(), "RFVoltage")
	assert.Contains(t, err.Error(), "Steps")
}

func TestGridSizeMayComeFromFile(t *testing.T) {
	con := DefaultSimulationWrapper().Simulation
	con.StartDistFile = "start.dat"
	assert.True(t, con.ValidGridSize())
}

func TestRejectsBadValues(t *testing.T) {
	_, err := ReadSimulationConfig(writeConfig(t, minimalConfig+
		"InterpolationPoints = 7\n"))
	assert.Error(t, err)

	_, err = ReadSimulationConfig(writeConfig(t, minimalConfig+
		"Device = 3\n"))
	assert.Error(t, err)
}
