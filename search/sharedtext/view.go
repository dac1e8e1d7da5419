package sharedtext

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// TextMatcher answers text queries over the rows [0, rowCount) of one shard.
type TextMatcher interface {
	MatchQuery(text string, minimumShouldMatch int) (*roaring.Bitmap, error)
	PhraseMatchQuery(text string, slop uint32) (*roaring.Bitmap, error)
	IsNotNull() *roaring.Bitmap
}

// ShardView binds a SharedIndex to one shard and its row count.
type ShardView struct {
	index    *SharedIndex
	shard    uint64
	rowCount uint64
}

var _ TextMatcher = (*ShardView)(nil)

func NewShardView(index *SharedIndex, shard uint64, rowCount uint64) *ShardView {
	return &ShardView{
		index:    index,
		shard:    shard,
		rowCount: rowCount,
	}
}

func (v *ShardView) Shard() uint64 {
	return v.shard
}

func (v *ShardView) SetRowCount(rowCount uint64) {
	v.rowCount = rowCount
}

func (v *ShardView) MatchQuery(text string, minimumShouldMatch int) (*roaring.Bitmap, error) {
	return v.index.MatchQuery(v.shard, text, minimumShouldMatch, v.rowCount)
}

func (v *ShardView) PhraseMatchQuery(text string, slop uint32) (*roaring.Bitmap, error) {
	return v.index.PhraseMatchQuery(v.shard, text, slop, v.rowCount)
}

// IsNotNull marks every row of the shard. Null texts are skipped on insert
// and leave no trace in the index.
func (v *ShardView) IsNotNull() *roaring.Bitmap {
	bitmap := roaring.New()
	bitmap.AddRange(0, min(v.rowCount, maxRowCount))
	return bitmap
}
