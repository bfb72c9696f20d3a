package particles

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r2"
)

// Record is one row of a particle CSV file.
type Record struct {
	X float64 `csv:"x"`
	Y float64 `csv:"y"`
	M float64 `csv:"m"`
}

// ReadCSV reads particles from CSV with an x,y,m header. For 1D sets the y
// column may be omitted.
func ReadCSV(r io.Reader, ndim int) (*Set, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parsing particle csv: %w", err)
	}

	pos := make([]r2.Vec, len(records))
	masses := make([]float64, len(records))
	for i, rec := range records {
		pos[i] = r2.Vec{X: rec.X, Y: rec.Y}
		if ndim == 1 {
			pos[i].Y = 0
		}
		masses[i] = rec.M
	}
	return NewSet(ndim, pos, masses)
}

// ReadCSVFile reads a particle CSV file from disk.
func ReadCSVFile(path string, ndim int) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening particle file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, ndim)
}

// WriteCSV writes the set in the format read by ReadCSV.
func WriteCSV(w io.Writer, s *Set) error {
	records := make([]Record, s.Len())
	for i, p := range s.Positions {
		records[i] = Record{X: p.X, Y: p.Y, M: s.Masses[i]}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing particle csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes the set to a file, replacing any existing one.
func WriteCSVFile(path string, s *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating particle file: %w", err)
	}
	if err := WriteCSV(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
