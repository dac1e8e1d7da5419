package analyzer

import (
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
)

// SimpleTokenizer splits on whitespace and punctuation and lowercases every
// rune on the way, so it needs no lowercase filter.
type SimpleTokenizer struct {
}

func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{}
}

func runesToBytes(rs []rune) []byte {
	size := 0
	for _, r := range rs {
		size += utf8.RuneLen(r)
	}

	out := make([]byte, size)

	count := 0
	for _, r := range rs {
		count += utf8.EncodeRune(out[count:], r)
	}

	return out
}

func (t *SimpleTokenizer) Tokenize(input []byte) analysis.TokenStream {
	stream := make(analysis.TokenStream, 0, len(input)/6+1)
	tokenBuffer := make([]rune, 0, 32)
	tokenStart := 0
	position := 1

	emit := func(end int) {
		stream = append(stream, &analysis.Token{
			Term:     runesToBytes(tokenBuffer),
			Start:    tokenStart,
			End:      end,
			Position: position,
			Type:     analysis.AlphaNumeric,
		})
		position++
		tokenBuffer = tokenBuffer[:0]
	}

	inputIndex := 0
	for inputIndex < len(input) {
		r, size := utf8.DecodeRune(input[inputIndex:])

		// TODO: apply unicode normalization before lowercasing
		normalizedRune := unicode.ToLower(r)

		if unicode.IsSpace(normalizedRune) || unicode.IsPunct(normalizedRune) {
			if len(tokenBuffer) > 0 {
				emit(inputIndex)
			}
		} else {
			if len(tokenBuffer) == 0 {
				tokenStart = inputIndex
			}
			tokenBuffer = append(tokenBuffer, normalizedRune)
		}

		inputIndex += size
	}

	if len(tokenBuffer) > 0 {
		emit(len(input))
	}

	return stream
}
