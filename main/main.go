package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/phil-mansfield/table"

	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/io"
	"github.com/Inovesa/inovesa/mesh"
	"github.com/Inovesa/inovesa/phys"
	"github.com/Inovesa/inovesa/sim"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		if err := fg.log.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		config        string
		exampleConfig bool
		logFile       string
		profFile      string
		verbose       bool
	)

	flag.StringVar(&config, "Config", "",
		"Simulation configuration file.")
	flag.BoolVar(&exampleConfig, "ExampleConfig", false,
		"Prints an example configuration file to stdout.")
	flag.StringVar(&logFile, "LogFile", "",
		"Redirects the log to the given file.")
	flag.StringVar(&profFile, "ProfileFile", "",
		"Writes a CPU profile to the given file.")
	flag.BoolVar(&verbose, "Verbose", false,
		"Logs the derived machine parameters before the run.")

	flag.Parse()

	if exampleConfig {
		fmt.Println(io.ExampleSimulationFile)
		return
	}
	if config == "" {
		log.Fatal("Specify a configuration file with -Config, or use " +
			"-ExampleConfig to print a template.")
	}

	fg := &FileGroup{}
	defer fg.Close()

	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg.log = f
		log.SetOutput(f)
	}
	if profFile != "" {
		f, err := os.Create(profFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg.prof = f
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err.Error())
		}
	}

	con, err := io.ReadSimulationConfig(config)
	if err != nil {
		log.Fatal(err.Error())
	}

	ctx, err := device.New(con.Device)
	if err != nil {
		log.Printf("%v. Will fall back to the host path.", err)
		ctx, _ = device.New(0)
	}
	defer ctx.Close()

	// A zero GridSize is taken from the number of columns in the first
	// data row of the start distribution.
	if con.GridSize == 0 && con.StartDistFile != "" {
		text, err := os.ReadFile(con.StartDistFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		for _, line := range strings.Split(string(text), "\n") {
			if fields := strings.Fields(line); len(fields) > 0 &&
				!strings.HasPrefix(fields[0], "#") {
				con.GridSize = len(fields)
				break
			}
		}
	}

	par, err := phys.Derive(con.PhysInput())
	if err != nil {
		log.Fatal(err.Error())
	}

	if verbose {
		logDerived(par)
	}

	ps, err := seedMesh(ctx, con, par)
	if err != nil {
		log.Fatal(err.Error())
	}

	s, err := sim.New(ctx, par, con.SimOptions(), ps)
	if err != nil {
		log.Fatal(err.Error())
	}

	if con.TrackFile != "" {
		parts, err := sim.LoadParticles(con.TrackFile)
		if err != nil {
			log.Printf("%v. Will not do particle tracking.", err)
		} else {
			log.Printf("Will do particle tracking with %d particles.",
				len(parts))
			s.Track(parts)
		}
	}

	if con.OutFile != "" {
		s.AddSink(&sim.PlotSink{Prefix: con.OutFile})
	}
	s.AddSink(sim.SinkFunc(func(snap *sim.Snapshot) error {
		log.Println(sim.StatusString(snap.Mesh, snap.Time, par.Rotations))
		return nil
	}))

	if con.HaissinskiIterations > 0 {
		if _, err := s.Haissinski(con.HaissinskiIterations); err != nil {
			log.Fatal(err.Error())
		}
	}

	if _, err := s.Run(); err != nil {
		log.Fatal(err.Error())
	}
	log.Println("Finished.")
}

func logDerived(par *phys.Params) {
	log.Printf("Synchrotron frequency: %e Hz", par.SyncFreqRing)
	log.Printf("Natural bunch length: %e m", par.BunchLength)
	log.Printf("Doing %.1f simulation steps per revolution period.",
		1/par.RevolutionPart)
	log.Printf("Maximum rotation offset is %.3f (should be < 1).",
		math.Tan(par.Angle)*float64(par.GridSize)/2)
	if par.Shielding > 0 {
		log.Printf("Shielding parameter: %.3f", par.Shielding)
		log.Printf("CSR strength: %.3f", par.CSRStrength)
		log.Printf("BBT (scaling-law) threshold current at %e A.",
			par.ThresholdCur*par.IsoScale)
	}
}

// seedMesh builds mesh1: from a square text grid when StartDistFile is
// set, as a unit Gaussian otherwise.
func seedMesh(ctx *device.Context, con *io.SimulationConfig,
	par *phys.Params) (*mesh.PhaseSpace, error) {

	charge := par.BunchCharge
	current := par.BunchCurrent

	if con.StartDistFile == "" {
		if con.GridSize == 0 {
			return nil, fmt.Errorf(
				"Give a start distribution file or a grid size > 0.")
		}
		return mesh.NewGaussian(ctx, con.GridSize,
			par.QMin, par.QMax, par.PMin, par.PMax,
			charge, current, par.BunchLength, par.DeltaE,
			con.StartDistZoom), nil
	}

	log.Printf("Reading initial distribution from '%s'.", con.StartDistFile)
	if con.GridSize == 0 {
		return nil, fmt.Errorf(
			"GridSize must be set to match the start distribution grid.")
	}
	cols := make([]int, con.GridSize)
	for i := range cols {
		cols[i] = i
	}
	grid, err := table.ReadTable(con.StartDistFile, cols, nil)
	if err != nil {
		return nil, err
	}
	return mesh.NewFromData(ctx, grid,
		par.QMin, par.QMax, par.PMin, par.PMax,
		charge, current, par.BunchLength, par.DeltaE)
}
