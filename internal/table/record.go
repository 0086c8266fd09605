package table

// Record is one read-only row of a table. Role accessors resolve through the
// schema the record was loaded with.
type Record struct {
	schema *Schema
	header []string
	values map[string]string
}

// NewRecord builds a record from parallel header and value slices. Missing
// trailing values are stored as blanks.
func NewRecord(schema *Schema, header []string, values []string) Record {
	m := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(values) {
			m[h] = values[i]
		} else {
			m[h] = ""
		}
	}
	return Record{schema: schema, header: header, values: m}
}

// FromMap builds a record whose field order is header.
func FromMap(schema *Schema, header []string, values map[string]string) Record {
	m := make(map[string]string, len(header))
	for _, h := range header {
		m[h] = values[h]
	}
	return Record{schema: schema, header: header, values: m}
}

func (r Record) Schema() *Schema { return r.schema }

func (r Record) ID() string { return r.values[r.schema.IDField] }
func (r Record) Name() string { return r.values[r.schema.NameField] }
func (r Record) Date() string { return r.values[r.schema.DateField] }
func (r Record) Community() string { return r.values[r.schema.CommunityField] }

// Get returns the value of field and whether the record has it.
func (r Record) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// withField returns a copy of r with field prepended to the header.
func (r Record) withField(field, value string) Record {
	header := make([]string, 0, len(r.header)+1)
	header = append(header, field)
	for _, h := range r.header {
		if h != field {
			header = append(header, h)
		}
	}
	values := make(map[string]string, len(r.values)+1)
	for k, v := range r.values {
		values[k] = v
	}
	values[field] = value
	return Record{schema: r.schema, header: header, values: values}
}

// Table is a loaded dataset: its schema, header and rows in input order.
type Table struct {
	Schema  *Schema
	Header  []string
	Records []Record
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Records)
}
