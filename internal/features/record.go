package features

import (
	"fmt"
	"strings"
)

// Schema is an ordered, closed set of feature names.
type Schema struct {
	names []string
	index map[string]int
}

func newSchema(names []string) *Schema {
	s := &Schema{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, name := range s.names {
		s.index[name] = i
	}
	return s
}

// NewSchema builds a Schema from registered feature names.
func NewSchema(names ...string) (*Schema, error) {
	if err := CheckNames(names); err != nil {
		return nil, err
	}
	return newSchema(names), nil
}

// Names returns the feature names in order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of features.
func (s *Schema) Len() int {
	return len(s.names)
}

// Index returns the position of name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Equal reports whether both schemas list the same names in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil || len(s.names) != len(other.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != other.names[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	return "[" + strings.Join(s.names, " ") + "]"
}

// Record holds one value per feature of its Schema.
type Record struct {
	schema *Schema
	values []int
}

// NewRecord builds a Record from values aligned with schema.
func NewRecord(schema *Schema, values ...int) (Record, error) {
	if schema == nil {
		return Record{}, fmt.Errorf("features: nil schema")
	}
	if len(values) != schema.Len() {
		return Record{}, fmt.Errorf("features: %d values for schema %s", len(values), schema)
	}
	return Record{schema: schema, values: append([]int(nil), values...)}, nil
}

// Schema returns the record's schema.
func (r Record) Schema() *Schema {
	return r.schema
}

// Get returns the value of the named feature.
func (r Record) Get(name string) (int, bool) {
	if r.schema == nil {
		return 0, false
	}
	i := r.schema.Index(name)
	if i < 0 {
		return 0, false
	}
	return r.values[i], true
}

// At returns the value at position i of the schema.
func (r Record) At(i int) int {
	return r.values[i]
}

// Len returns the number of values.
func (r Record) Len() int {
	return len(r.values)
}

// Each calls fn for every feature in schema order.
func (r Record) Each(fn func(name string, value int)) {
	if r.schema == nil {
		return
	}
	for i, name := range r.schema.names {
		fn(name, r.values[i])
	}
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	r.Each(func(name string, value int) {
		if b.Len() > 1 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d", name, value)
	})
	b.WriteByte('}')
	return b.String()
}
