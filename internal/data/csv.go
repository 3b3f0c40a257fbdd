package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"caiso-pipeline/internal/model"
)

// DecodeCSV reads a headered CSV stream into a raw table. Rows shorter or
// longer than the header are tolerated; the table's accessors treat missing
// cells as empty.
func DecodeCSV(r io.Reader) (*model.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV payload")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, record)
	}
	return model.NewRawTable(header, rows), nil
}

// LoadRawCSV decodes a raw table from a local CSV file. Used by the replay
// command to run the pipeline without touching the network.
func LoadRawCSV(path string) (*model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}
