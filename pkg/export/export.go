// Package export writes keyword records as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apamidi800/rank-export/pkg/keyword"
)

// ErrNoOutput is returned when no output path is configured.
var ErrNoOutput = errors.New("output path is required")

// BaseColumns is the fixed header of every export.
var BaseColumns = []string{
	keyword.FieldName,
	keyword.FieldDate,
	keyword.FieldHighestTrueRank,
	keyword.FieldHighestWebRank,
	keyword.FieldHighestRankURL,
	keyword.FieldHighestLocalRank,
	keyword.FieldHighestNewsRank,
	keyword.FieldHighestImageRank,
	keyword.FieldHighestVideoRank,
	keyword.FieldAvgSearchVolume,
	keyword.FieldCompetitors,
}

// EngineDeviceColumns carry the defaulted engine and device fields.
var EngineDeviceColumns = []string{keyword.FieldEngine, keyword.FieldDevice}

// Columns returns the export header.
func Columns(engineDevice bool) []string {
	columns := append([]string(nil), BaseColumns...)
	if engineDevice {
		columns = append(columns, EngineDeviceColumns...)
	}
	return columns
}

// Write writes the header and one row per record to w.
// Fields missing from a record are written empty and fields not in columns
// are dropped. It returns the number of records written.
func Write(w io.Writer, columns []string, records []keyword.Record) (int, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for i, record := range records {
		for j, column := range columns {
			row[j] = record.String(column)
		}
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write record %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}

	return len(records), nil
}

// WriteFile writes the export to path, replacing any existing file.
// Data goes to a temporary file in the same directory first, so path is
// either the complete new export or untouched.
func WriteFile(path string, columns []string, records []keyword.Record) (n int, err error) {
	if path == "" {
		return 0, ErrNoOutput
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err = Write(tmp, columns, records)
	if err != nil {
		return 0, err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename to %s: %w", path, err)
	}

	return n, nil
}
