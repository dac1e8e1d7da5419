package sharedtext

import (
	"github.com/larose/sharedtext/search/index"
)

// Reserved field names of the shared schema.
const (
	ShardField   = "_shard_id"
	LocalIdField = "_local_doc_id"
)

// Fields names the three fields of a shared schema.
type Fields struct {
	Text    string
	Shard   string
	LocalId string
}

// BuildSchema lays out the shared schema: the tokenized text field with
// positions for phrase queries and no norms since nothing is ranked, the
// shard id indexed for filtering and deleting, and the local id as a fast
// column only.
func BuildSchema(textField string, tokenizer string) (*index.Schema, Fields) {
	schema := index.NewSchemaBuilder().
		AddTextField(textField, index.TextOptions{Tokenizer: tokenizer, Positions: true}).
		AddU64Field(ShardField, index.NumericOptions{Indexed: true, Fast: true}).
		AddU64Field(LocalIdField, index.NumericOptions{Fast: true}).
		Build()

	return schema, Fields{
		Text:    textField,
		Shard:   ShardField,
		LocalId: LocalIdField,
	}
}
