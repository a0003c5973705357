package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

func WriteJSON(w io.Writer, rec *Recording) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rec)
}

func ExportJSON(path string, rec *Recording) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, rec) })
}

// WriteCSV writes one row per sample: t, steps, position components,
// velocity components and energy when known.
func WriteCSV(w io.Writer, rec *Recording) error {
	cw := csv.NewWriter(w)

	if len(rec.Samples) == 0 {
		cw.Flush()
		return cw.Error()
	}

	first := rec.Samples[0]
	header := []string{"t", "steps"}
	for i := range first.X {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := range first.V {
		header = append(header, fmt.Sprintf("v%d", i))
	}
	withEnergy := first.Energy != nil
	if withEnergy {
		header = append(header, "energy")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range rec.Samples {
		row := []string{formatFloat(s.T), strconv.FormatUint(s.Steps, 10)}
		for _, val := range s.X {
			row = append(row, formatFloat(val))
		}
		for _, val := range s.V {
			row = append(row, formatFloat(val))
		}
		if withEnergy {
			e := 0.0
			if s.Energy != nil {
				e = *s.Energy
			}
			row = append(row, formatFloat(e))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, rec *Recording) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, rec) })
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
