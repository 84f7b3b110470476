/*package sim wires the source maps, the field solver and the mesh
triple into the simulation loop.

The three meshes cycle as ping-pong buffers through every step:

	mesh1 -> wake kick -> mesh2 -> rotation -> mesh3 -> Fokker-Planck -> mesh1

or, for the split rotation, mesh2 -> RF kick -> mesh1 -> drift -> mesh3.
Between steps the x projection of mesh1 is rebuilt; the wake kick
consumes it at the top of the next step.
*/
package sim

import (
	"fmt"
	"log"
	"math"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/field"
	"github.com/Inovesa/inovesa/impedance"
	"github.com/Inovesa/inovesa/mesh"
	"github.com/Inovesa/inovesa/phys"
	"github.com/Inovesa/inovesa/sm"
)

// ErrDiverged is wrapped by step errors when the density integral stops
// being finite. The loop halts and leaves the last valid mesh in place.
var ErrDiverged = fmt.Errorf("numerical divergence")

// RotationType selects how the synchrotron rotation is realised.
type RotationType int

const (
	// OnePass applies the rotation as a single 2-D map.
	OnePass RotationType = iota
	// Precomputed is OnePass with the stencil held in device memory; on
	// the host path the two are identical.
	Precomputed
	// KickDrift splits the rotation into an RF kick and a drift.
	KickDrift
)

// Options collects the solver choices that are not physics parameters.
type Options struct {
	RotationType  RotationType
	Interpolation sm.InterpolationType
	Clamp         bool
	Coords        sm.RotationCoordinates

	Padding     int
	OutStep     int
	Renormalize int
	CutoffFreq  float64
	Haissinski  int

	Gap              float64
	Conductivity     float64
	Susceptibility   float64
	CollimatorRadius float64

	ImpedanceFile string
	WakeFile      string
}

// Simulation owns the mesh triple, the maps and the field for one run.
type Simulation struct {
	par  *phys.Params
	opts Options
	ctx  *device.Context

	mesh1, mesh2, mesh3 *mesh.PhaseSpace

	imp   *impedance.Impedance
	field *field.ElectricField

	wakeKick sm.WakeKick // nil when no wake acts
	wake     sm.Map      // wake stage: wakeKick or identity
	rot1     sm.Map      // rotation, or RF kick
	rot2     sm.Map      // nil, or drift
	fp       sm.Map

	trackme []mesh.Position
	sinks   []Sink

	step int
	outs int
}

// New builds a simulation in the order impedance -> field and wake map
// -> rotation/drift -> Fokker-Planck, around an already seeded mesh1.
func New(ctx *device.Context, par *phys.Params, opts Options,
	mesh1 *mesh.PhaseSpace) (*Simulation, error) {

	if opts.Padding < 1 {
		opts.Padding = 1
	}

	s := &Simulation{par: par, opts: opts, ctx: ctx, mesh1: mesh1}
	s.mesh2 = mesh1.Clone(ctx)
	s.mesh3 = mesh1.Clone(ctx)

	if err := s.buildImpedance(); err != nil {
		return nil, err
	}
	if err := s.buildWake(); err != nil {
		return nil, err
	}
	s.buildTransport()
	s.buildFokkerPlanck()

	s.mesh1.UpdateXProjection()
	s.mesh1.UpdateYProjection()
	return s, nil
}

func (s *Simulation) buildImpedance() error {
	n := s.par.GridSize
	m := n * s.opts.Padding
	fmax := s.par.MaxFreq()

	if s.opts.ImpedanceFile != "" {
		imp, err := impedance.FromFile(s.opts.ImpedanceFile, fmax, n)
		if err != nil {
			return err
		}
		s.imp = imp
		return nil
	}

	if s.opts.Gap > 0 {
		log.Println("Will use parallel plates CSR impedance.")
		s.imp = impedance.ParallelPlatesCSR(m, s.par.BendFreq, fmax, s.opts.Gap)
		if s.opts.Conductivity > 0 && s.opts.Susceptibility >= -1 {
			rw := impedance.ResistiveWall(m, s.par.BendFreq, fmax,
				s.opts.Conductivity, s.opts.Susceptibility, s.opts.Gap/2)
			if err := s.imp.Add(rw); err != nil {
				return err
			}
			log.Println("... with added resistive wall impedance.")
		}
		if s.opts.CollimatorRadius > 0 {
			col := impedance.Collimator(m, fmax,
				s.opts.Gap/2, s.opts.CollimatorRadius)
			if err := s.imp.Add(col); err != nil {
				return err
			}
			log.Println("... with added collimator.")
		}
	} else {
		log.Println("Will use free space CSR impedance.")
		s.imp = impedance.FreeSpaceCSR(m, s.par.BendFreq, fmax)
		if s.opts.Conductivity > 0 {
			log.Println("Resistive wall impedance is ignored in free space.")
		}
	}
	return nil
}

func (s *Simulation) buildWake() error {
	var err error
	s.field, err = field.New(s.mesh1, s.imp,
		s.par.RevolutionPart, s.opts.Padding)
	if err != nil {
		return err
	}

	switch {
	case s.opts.WakeFile != "":
		log.Printf("Reading wake function from '%s'.", s.opts.WakeFile)
		wfm, err := sm.NewWakeFunctionMap(s.ctx, s.mesh1, s.mesh2,
			s.opts.WakeFile, s.par.RevolutionPart,
			s.opts.Interpolation, s.opts.Clamp)
		if err != nil {
			return err
		}
		s.wakeKick = wfm
		s.wake = wfm
	case s.opts.Gap != 0:
		log.Println("Building wake potential map.")
		wpm := sm.NewWakePotentialMap(s.ctx, s.mesh1, s.mesh2,
			s.field, s.opts.Interpolation, s.opts.Clamp)
		s.wakeKick = wpm
		s.wake = wpm
	default:
		s.wake = sm.NewIdentity(s.ctx, s.mesh1, s.mesh2)
	}
	return nil
}

func (s *Simulation) buildTransport() {
	switch s.opts.RotationType {
	case KickDrift:
		log.Println("Building RF kick and drift maps.")
		lambda := phys.SpeedOfLight /
			(s.par.Harmonic * s.par.BendFreq * s.par.BunchLength)
		s.rot1 = sm.NewRFKickMap(s.ctx, s.mesh2, s.mesh1,
			s.par.Angle, lambda, s.opts.Interpolation, s.opts.Clamp)
		s.rot2 = sm.NewDriftMap(s.ctx, s.mesh1, s.mesh3,
			s.par.Angle, s.par.Alpha0, s.par.Alpha1, s.par.Alpha2,
			s.opts.Interpolation, s.opts.Clamp)
	default:
		log.Println("Building rotation map.")
		s.rot1 = sm.NewRotationMap(s.ctx, s.mesh2, s.mesh3,
			s.par.Angle, s.opts.Interpolation, s.opts.Clamp, s.opts.Coords)
	}
}

func (s *Simulation) buildFokkerPlanck() {
	if s.par.DampingTime > 0 {
		e := 2 / (s.par.SyncFreq * s.par.DampingTime * float64(s.par.Steps))
		log.Println("Building Fokker-Planck map.")
		s.fp = sm.NewFokkerPlanckMap(s.ctx, s.mesh3, s.mesh1, sm.FPFull, e)
	} else {
		s.fp = sm.NewIdentity(s.ctx, s.mesh3, s.mesh1)
	}
}

// Mesh returns the authoritative mesh of the run.
func (s *Simulation) Mesh() *mesh.PhaseSpace { return s.mesh1 }

// Field returns the field solver.
func (s *Simulation) Field() *field.ElectricField { return s.field }

// WakeKick returns the active wake kick map, or nil when no wake acts.
func (s *Simulation) WakeKick() sm.WakeKick { return s.wakeKick }

// Track registers marker particles to be advected through the maps.
func (s *Simulation) Track(ps []mesh.Position) { s.trackme = ps }

// Particles returns the current tracked particle coordinates.
func (s *Simulation) Particles() []mesh.Position { return s.trackme }

// AddSink registers a snapshot consumer.
func (s *Simulation) AddSink(sink Sink) { s.sinks = append(s.sinks, sink) }

// Step advances the distribution by one map chain application. The
// order is semantic: the wake must see the projection of the previous
// step before any transport runs.
func (s *Simulation) Step() error {
	if s.wakeKick != nil {
		if err := s.wakeKick.Update(); err != nil {
			return fmt.Errorf("step %d: %w: %v", s.step, ErrDiverged, err)
		}
	}

	if s.opts.Renormalize > 0 && s.step%s.opts.Renormalize == 0 {
		s.mesh1.Normalize()
	} else {
		s.mesh1.Integral()
	}
	if !isFinite(s.mesh1.CachedIntegral()) || s.mesh1.CachedIntegral() <= 0 {
		return fmt.Errorf("step %d: %w: integral is %g",
			s.step, ErrDiverged, s.mesh1.CachedIntegral())
	}

	if s.opts.OutStep > 0 && s.step%s.opts.OutStep == 0 {
		s.emit()
	}

	s.applyMaps()

	s.mesh1.UpdateXProjection()
	s.step++
	return nil
}

func (s *Simulation) applyMaps() {
	s.wake.Apply()
	s.rot1.Apply()
	if s.rot2 != nil {
		s.rot2.Apply()
	}
	s.fp.Apply()

	for i := range s.trackme {
		p := s.trackme[i]
		p = s.wake.ApplyTo(p)
		p = s.rot1.ApplyTo(p)
		if s.rot2 != nil {
			p = s.rot2.ApplyTo(p)
		}
		p = s.fp.ApplyTo(p)
		s.trackme[i] = p
	}
}

// Run executes the configured number of steps, emits the final snapshot
// and returns the number of steps completed.
func (s *Simulation) Run() (int, error) {
	total := s.par.SimSteps()
	log.Println("Starting the simulation.")
	log.Println(StatusString(s.mesh1, 0, s.par.Rotations))

	for i := 0; i < total; i++ {
		if err := s.Step(); err != nil {
			return i, err
		}
	}

	// The final state would otherwise differ slightly from every state
	// the loop emitted.
	if s.wakeKick != nil {
		if err := s.wakeKick.Update(); err != nil {
			return total, err
		}
	}
	if s.opts.Renormalize > 0 {
		s.mesh1.Normalize()
	} else {
		s.mesh1.Integral()
	}
	s.emit()
	log.Println(StatusString(s.mesh1, s.par.Rotations, s.par.Rotations))
	return total, nil
}

// emit refreshes the moments, syncs everything the sinks read back to
// the host, and pushes a snapshot.
func (s *Simulation) emit() {
	s.mesh1.Variance(mesh.Q)
	s.mesh1.UpdateYProjection()
	s.mesh1.Variance(mesh.P)

	s.mesh1.Buffer().Sync(device.DevToHost)

	var force []float64
	if s.wakeKick != nil {
		force = s.wakeKick.Force()
	}
	s.field.UpdateCSR(s.opts.CutoffFreq)

	snap := &Snapshot{
		Time:        float64(s.step) / float64(s.par.Steps),
		Mesh:        s.mesh1,
		Wake:        s.field.Wake(),
		Force:       force,
		CSRPower:    s.field.CSRPower(),
		CSRSpectrum: s.field.CSRSpectrum(),
		Particles:   s.trackme,
	}
	for _, sink := range s.sinks {
		if err := sink.Push(snap); err != nil {
			log.Printf("Snapshot sink failed: %v", err)
		}
	}
	s.outs++
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
