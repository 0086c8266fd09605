package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const utf8BOM = "\ufeff"

// Load reads a CSV file with a header row and binds it to schema. A header
// missing any field the schema requires fails with ErrSchemaMismatch.
func Load(path string, schema *Schema) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s table %s: %w", schema.Table, path, err)
	}
	defer file.Close()

	t, err := Read(file, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s table %s: %w", schema.Table, path, err)
	}
	return t, nil
}

// Read parses CSV from r. Header names are kept verbatim (trailing spaces
// included) apart from a leading byte order mark. A row too short to hold
// every required field fails with ErrSchemaMismatch; other missing trailing
// fields read as blank.
func Read(r io.Reader, schema *Schema) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: table %s is empty", ErrSchemaMismatch, schema.Table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	if err := schema.CheckHeader(header); err != nil {
		return nil, err
	}
	required := requiredIndexes(schema, header)

	t := &Table{Schema: schema, Header: header}
	for {
		values, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(t.Records)+1, err)
		}
		for _, req := range required {
			if req.index >= len(values) {
				return nil, fmt.Errorf("%w: table %s row %d has no field %q",
					ErrSchemaMismatch, schema.Table, len(t.Records)+1, req.field)
			}
		}
		t.Records = append(t.Records, NewRecord(schema, header, values))
	}
	return t, nil
}

type fieldIndex struct {
	field string
	index int
}

// requiredIndexes locates the schema's required fields in header.
func requiredIndexes(schema *Schema, header []string) []fieldIndex {
	var out []fieldIndex
	for _, f := range schema.Required() {
		for i, h := range header {
			if h == f {
				out = append(out, fieldIndex{field: f, index: i})
				break
			}
		}
	}
	return out
}

// Write stores rows under the given columns, creating parent directories.
// Cells absent from a row are written blank.
func Write(path string, columns []string, rows []map[string]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteTo(file, columns, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// WriteTo encodes rows as CSV to w.
func WriteTo(w io.Writer, columns []string, rows []map[string]string) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
