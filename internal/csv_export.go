package internal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
)

// WriteSubmissionsCSV writes one row per submission with the schema's fields
// as columns, after id and the timestamps.
func WriteSubmissionsCSV(w io.Writer, schema *dynform.Schema, subs []*dynform.Submission) error {
	fields := schema.Fields()
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(fields)+3)
	header = append(header, "id", "createdAt", "updatedAt")
	for _, f := range fields {
		header = append(header, f.Info().Label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(header))
	for _, s := range subs {
		row[0] = s.ID.String()
		row[1] = s.CreatedAt.UTC().Format(time.RFC3339Nano)
		row[2] = ""
		if s.UpdatedAt != nil {
			row[2] = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
		}
		for i, f := range fields {
			row[i+3] = csvCell(s.Data.Get(f.Info().ID))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvCell(v dynform.Value) string {
	if v.IsNil() {
		return ""
	}
	list, ok := v.AsList()
	if !ok {
		return v.String()
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = csvCell(item)
	}
	return strings.Join(parts, "; ")
}

// ExportFileName names a CSV export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("submissions_%s.csv", t.Format("2006-01-02"))
}
