package table

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when a table lacks a field its schema binds.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Schema binds the semantic roles of one logical table to its field names.
type Schema struct {
	Table  string // short tag, e.g. "partos"
	Prefix string // output column prefix, e.g. "PARTOS-"

	IDField        string
	NameField      string
	DateField      string // anchor date for a base table, event date otherwise
	CommunityField string // optional

	DayFirst bool

	// ComputedID marks tables whose identifier is derived rather than read;
	// IDField then names the synthetic field inserted by the loader.
	ComputedID bool
}

// Column returns field prefixed for output.
func (s *Schema) Column(field string) string {
	return s.Prefix + field
}

// Required lists the fields that must be present in the table header.
func (s *Schema) Required() []string {
	var fields []string
	if !s.ComputedID && s.IDField != "" {
		fields = append(fields, s.IDField)
	}
	for _, f := range []string{s.NameField, s.DateField, s.CommunityField} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// CheckHeader verifies header carries every required field.
func (s *Schema) CheckHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, f := range s.Required() {
		if !present[f] {
			return fmt.Errorf("%w: table %s has no field %q", ErrSchemaMismatch, s.Table, f)
		}
	}
	return nil
}
