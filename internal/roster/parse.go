package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when the roster file extension is not a
// supported tabular format. Ingestion aborts on it.
var ErrUnsupportedFormat = errors.New("unsupported roster file format")

// columnAliases maps lowercased header names to payload fields. The export
// tooling is not consistent about header casing, so matching is
// case-insensitive.
var columnAliases = map[string]string{
	"displayname":     FieldDisplayName,
	"title":           FieldTitle,
	"department":      FieldDepartment,
	"company":         FieldCompany,
	"telephonenumber": FieldTelephoneNumber,
	"upn":             FieldUPN,
	"oupath":          FieldOUPath,
}

// ParseFile reads a roster export and returns one record per data row.
// Supported formats are CSV and TSV, selected by extension; anything else
// (including spreadsheet formats that must be exported first) yields
// ErrUnsupportedFormat.
func ParseFile(path string) ([]Record, error) {
	var comma rune
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		comma = ','
	case ".tsv":
		comma = '\t'
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse roster file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Map header columns to record fields; unknown columns are ignored.
	fieldByColumn := make(map[int]string)
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if field, ok := columnAliases[key]; ok {
			fieldByColumn[i] = field
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var rec Record
		for i, cell := range row {
			field, ok := fieldByColumn[i]
			if !ok {
				continue
			}
			setField(&rec, field, strings.TrimSpace(cell))
		}
		records = append(records, rec)
	}
	return records, nil
}

func setField(rec *Record, field, value string) {
	switch field {
	case FieldDisplayName:
		rec.DisplayName = value
	case FieldTitle:
		rec.Title = value
	case FieldDepartment:
		rec.Department = value
	case FieldCompany:
		rec.Company = value
	case FieldTelephoneNumber:
		rec.TelephoneNumber = value
	case FieldUPN:
		rec.UPN = value
	case FieldOUPath:
		rec.OUPath = value
	}
}
