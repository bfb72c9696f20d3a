package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hsmooth/config"
	"github.com/pthm-cable/hsmooth/particles"
	"github.com/pthm-cable/hsmooth/smoothing"
)

// ParticleRow is one row of particles.csv.
type ParticleRow struct {
	ID         int     `csv:"id"`
	X          float64 `csv:"x"`
	Y          float64 `csv:"y"`
	M          float64 `csv:"m"`
	H          float64 `csv:"h"`
	Support    float64 `csv:"support"`
	Rho        float64 `csv:"rho"`
	Neighbours int     `csv:"neighbours"`
	Iterations int     `csv:"iterations"`
	Converged  bool    `csv:"converged"`
}

// NeighbourRow is one particle pair of neighbours.csv.
type NeighbourRow struct {
	I int `csv:"i"`
	J int `csv:"j"`
}

// neighbourBatch is the number of particles whose pairs are marshaled at once.
const neighbourBatch = 1024

// OutputManager writes run results to an output directory.
type OutputManager struct {
	dir      string
	perfFile *os.File

	perfHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	return &OutputManager{dir: dir, perfFile: f}, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteParticles writes the per-particle result to particles.csv.
func (om *OutputManager) WriteParticles(set *particles.Set, res *smoothing.Result) error {
	if om == nil {
		return nil
	}

	rows := make([]ParticleRow, len(res.H))
	for i := range rows {
		p := set.Positions[i]
		rows[i] = ParticleRow{
			ID:         i,
			X:          p.X,
			Y:          p.Y,
			M:          set.Masses[i],
			H:          res.H[i],
			Support:    res.Support[i],
			Rho:        res.Rho[i],
			Neighbours: len(res.Neighbours[i]),
			Iterations: res.Diagnostics.Iterations[i],
			Converged:  res.Diagnostics.Converged[i],
		}
	}
	return om.writeFile("particles.csv", rows)
}

// WriteNeighbours writes every neighbour pair (i, j) to neighbours.csv,
// ordered by i and then by distance.
func (om *OutputManager) WriteNeighbours(res *smoothing.Result) error {
	if om == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(om.dir, "neighbours.csv"))
	if err != nil {
		return fmt.Errorf("creating neighbours.csv: %w", err)
	}
	defer f.Close()

	var rows []NeighbourRow
	header := true
	flush := func() error {
		if len(rows) == 0 && !header {
			return nil
		}
		var err error
		if header {
			err = gocsv.Marshal(rows, f)
			header = false
		} else {
			err = gocsv.MarshalWithoutHeaders(rows, f)
		}
		rows = rows[:0]
		if err != nil {
			return fmt.Errorf("writing neighbours: %w", err)
		}
		return nil
	}

	for i, nb := range res.Neighbours {
		for _, j := range nb {
			rows = append(rows, NeighbourRow{I: i, J: j})
		}
		if (i+1)%neighbourBatch == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	return f.Close()
}

// WriteStats writes the solve summary to stats.csv.
func (om *OutputManager) WriteStats(stats SolveStats) error {
	if om == nil {
		return nil
	}
	return om.writeFile("stats.csv", []SolveStatsCSV{stats.ToCSV()})
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV()}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	return nil
}

func (om *OutputManager) writeFile(name string, records any) error {
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := gocsv.Marshal(records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil || om.perfFile == nil {
		return nil
	}
	return om.perfFile.Close()
}
