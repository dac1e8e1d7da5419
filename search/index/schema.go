package index

type TextOptions struct {
	// Name of the analyzer in the index TokenizerManager.
	Tokenizer string
	Positions bool
	Norms     bool
}

type NumericOptions struct {
	Indexed bool
	Fast    bool
}

type FieldEntry struct {
	Name    string
	Type    FieldType
	Text    TextOptions
	Numeric NumericOptions
}

func (entry *FieldEntry) IsIndexed() bool {
	switch entry.Type {
	case TextFieldType:
		return true
	case U64FieldType:
		return entry.Numeric.Indexed
	default:
		return false
	}
}

func (entry *FieldEntry) IsFast() bool {
	return entry.Type == U64FieldType && entry.Numeric.Fast
}

func (entry *FieldEntry) HasPositions() bool {
	return entry.Type == TextFieldType && entry.Text.Positions
}

func (entry *FieldEntry) HasNorms() bool {
	return entry.Type == TextFieldType && entry.Text.Norms
}

// Schema is immutable once built and safe to share.
type Schema struct {
	fields []*FieldEntry
	byName map[string]*FieldEntry
}

type SchemaBuilder struct {
	fields []*FieldEntry
}

func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{fields: make([]*FieldEntry, 0, 4)}
}

func (builder *SchemaBuilder) AddTextField(name string, options TextOptions) *SchemaBuilder {
	builder.fields = append(builder.fields, &FieldEntry{Name: name, Type: TextFieldType, Text: options})
	return builder
}

func (builder *SchemaBuilder) AddU64Field(name string, options NumericOptions) *SchemaBuilder {
	builder.fields = append(builder.fields, &FieldEntry{Name: name, Type: U64FieldType, Numeric: options})
	return builder
}

// Build panics on a duplicated field name, which is a programming error.
func (builder *SchemaBuilder) Build() *Schema {
	byName := make(map[string]*FieldEntry, len(builder.fields))
	for _, field := range builder.fields {
		if _, exists := byName[field.Name]; exists {
			panic("duplicate field in schema: " + field.Name)
		}
		byName[field.Name] = field
	}

	return &Schema{
		fields: builder.fields,
		byName: byName,
	}
}

func (schema *Schema) Field(name string) (*FieldEntry, bool) {
	entry, exists := schema.byName[name]
	return entry, exists
}

func (schema *Schema) Fields() []*FieldEntry {
	return schema.fields
}
