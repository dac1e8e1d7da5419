package index

type FieldType int

type DocumentId uint32

const (
	TextFieldType FieldType = iota
	U64FieldType
)

func (t FieldType) String() string {
	switch t {
	case TextFieldType:
		return "text"
	case U64FieldType:
		return "u64"
	default:
		return "unknown"
	}
}

type Field struct {
	FieldType FieldType
	Name      string
	Value     []byte
	U64       uint64
}

func NewTextField(name string, text []byte) Field {
	return Field{FieldType: TextFieldType, Name: name, Value: text}
}

func NewU64Field(name string, value uint64) Field {
	return Field{FieldType: U64FieldType, Name: name, U64: value}
}

type Document []Field

// Rough heap footprint while the document waits in the writer buffer.
const documentOverhead = 64

func (doc Document) sizeInBytes() int {
	size := documentOverhead
	for _, field := range doc {
		size += len(field.Name) + len(field.Value) + 32
	}

	return size
}
