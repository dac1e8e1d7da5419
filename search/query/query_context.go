package query

import (
	"github.com/larose/sharedtext/search/index"
)

type QueryField struct {
	name  string
	terms [][]byte

	termOrdinals map[string]int
}

// QueryContext collects the distinct terms of a query, per field, while it
// is compiled. Every compiled term node refers to its term by the
// (field ordinal, term ordinal) pair returned by RegisterTerm.
type QueryContext struct {
	Schema *index.Schema
	Fields []*QueryField

	fieldOrdinals map[string]int
}

func NewQueryContext(schema *index.Schema) *QueryContext {
	return &QueryContext{
		Schema:        schema,
		Fields:        make([]*QueryField, 0, 4),
		fieldOrdinals: make(map[string]int, 4),
	}
}

// indexedField resolves fieldName and checks that it has postings.
func (c *QueryContext) indexedField(fieldName string) (*index.FieldEntry, error) {
	field, exists := c.Schema.Field(fieldName)
	if !exists || !field.IsIndexed() {
		return nil, &index.FieldError{Field: fieldName, Err: index.ErrFieldNotFound}
	}

	return field, nil
}

func (c *QueryContext) RegisterTerm(fieldName string, term []byte) (int, int) {
	fieldOrdinal, exists := c.fieldOrdinals[fieldName]
	if !exists {
		fieldOrdinal = len(c.Fields)
		c.fieldOrdinals[fieldName] = fieldOrdinal
		c.Fields = append(c.Fields, &QueryField{
			name:         fieldName,
			termOrdinals: make(map[string]int),
		})
	}

	field := c.Fields[fieldOrdinal]

	termOrdinal, exists := field.termOrdinals[string(term)]
	if !exists {
		termOrdinal = len(field.terms)
		field.termOrdinals[string(term)] = termOrdinal
		field.terms = append(field.terms, term)
	}

	return fieldOrdinal, termOrdinal
}
