package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Inovesa/inovesa/mesh"
)

// Snapshot is the read-only view of the run state handed to sinks every
// outstep steps. Slices alias live buffers; sinks must not hold on to
// them across steps.
type Snapshot struct {
	// Simulated time in synchrotron periods.
	Time float64

	Mesh *mesh.PhaseSpace

	// Wake potential on the q grid, volt.
	Wake []float64
	// Per-cell energy offset of the wake kick, mesh points. Nil when no
	// wake acts.
	Force []float64

	CSRPower    float64
	CSRSpectrum []float64

	Particles []mesh.Position
}

// Sink consumes snapshots. Persistence formats are the sink's concern;
// the core writes nothing itself.
type Sink interface {
	Push(*Snapshot) error
}

// StatusString formats the one-line progress report: simulated time,
// total charge and energy spread. The mesh moments must be current.
func StatusString(ps *mesh.PhaseSpace, t, rotations float64) string {
	return fmt.Sprintf("T = %.2f/%.2f, integral = %.6f, energy spread = %.4f",
		t, rotations, ps.CachedIntegral(), math.Sqrt(ps.Variance(mesh.P)))
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(*Snapshot) error

func (f SinkFunc) Push(snap *Snapshot) error { return f(snap) }

// PlotSink renders the bunch profile and, when a wake acts, the wake
// kick offset (Snapshot.Force) of every snapshot into a PNG file named
// after the snapshot index.
type PlotSink struct {
	// Prefix of the output files: <prefix>NNNN.png.
	Prefix string

	count int
}

// Push writes one profile plot.
func (s *PlotSink) Push(snap *Snapshot) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("T = %.2f synchrotron periods", snap.Time)
	p.X.Label.Text = "q / natural bunch length"
	p.Y.Label.Text = "charge density"

	q := snap.Mesh.Axis(mesh.Q)
	proj := snap.Mesh.XProjection()
	pts := make(plotter.XYs, len(proj))
	for i := range proj {
		pts[i].X = q.At(i)
		pts[i].Y = proj[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)

	if snap.Force != nil {
		wpts := make(plotter.XYs, len(snap.Force))
		for i := range snap.Force {
			wpts[i].X = q.At(i)
			wpts[i].Y = snap.Force[i]
		}
		wline, err := plotter.NewLine(wpts)
		if err != nil {
			return err
		}
		wline.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		p.Add(wline)
		p.Legend.Add("profile", line)
		p.Legend.Add("wake force", wline)
	}

	fname := fmt.Sprintf("%s%04d.png", s.Prefix, s.count)
	s.count++
	return p.Save(6*vg.Inch, 4*vg.Inch, fname)
}
