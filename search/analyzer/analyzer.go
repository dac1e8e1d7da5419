// Package analyzer builds text analyzers from JSON analyzer params on top of
// the bleve analysis components.
//
// Accepted params:
//
//	{}                                   standard analyzer
//	{"type": "english"}                  unicode words, lowercase, english stop words, porter stemmer
//	{"tokenizer": "whitespace", "filter": ["lowercase", {"type": "length", "max": 40}]}
package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/character"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

const (
	TypeStandard   = "standard"
	TypeEnglish    = "english"
	TypeWhitespace = "whitespace"
	TypeSimple     = "simple"
)

var ErrInvalidParams = errors.New("invalid analyzer params")

type Params struct {
	Type      string            `json:"type"`
	Tokenizer string            `json:"tokenizer"`
	Filter    []json.RawMessage `json:"filter"`
}

type filterParams struct {
	Type      string   `json:"type"`
	StopWords []string `json:"stop_words"`
	Min       int      `json:"min"`
	Max       int      `json:"max"`
	Language  string   `json:"language"`
}

// Standard splits on unicode word boundaries and lowercases. It is the
// fallback when a field's analyzer cannot be resolved.
func Standard() analysis.Analyzer {
	return &analysis.DefaultAnalyzer{
		Tokenizer:    bleveunicode.NewUnicodeTokenizer(),
		TokenFilters: []analysis.TokenFilter{lowercase.NewLowerCaseFilter()},
	}
}

func Whitespace() analysis.Analyzer {
	return &analysis.DefaultAnalyzer{Tokenizer: newWhitespaceTokenizer()}
}

func Simple() analysis.Analyzer {
	return &analysis.DefaultAnalyzer{Tokenizer: NewSimpleTokenizer()}
}

func English() (analysis.Analyzer, error) {
	stopFilter, err := englishStopFilter()
	if err != nil {
		return nil, err
	}

	return &analysis.DefaultAnalyzer{
		Tokenizer: bleveunicode.NewUnicodeTokenizer(),
		TokenFilters: []analysis.TokenFilter{
			lowercase.NewLowerCaseFilter(),
			stopFilter,
			porter.NewPorterStemmer(),
		},
	}, nil
}

// New builds an analyzer from JSON params. An empty string selects the
// standard analyzer.
func New(params string) (analysis.Analyzer, error) {
	if strings.TrimSpace(params) == "" {
		return Standard(), nil
	}

	var p Params
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	return Build(p)
}

func Build(p Params) (analysis.Analyzer, error) {
	if p.Type != "" {
		if p.Tokenizer != "" || len(p.Filter) > 0 {
			return nil, fmt.Errorf("%w: type %q cannot be combined with tokenizer or filter", ErrInvalidParams, p.Type)
		}

		switch p.Type {
		case TypeStandard:
			return Standard(), nil
		case TypeEnglish:
			return English()
		case TypeWhitespace:
			return Whitespace(), nil
		case TypeSimple:
			return Simple(), nil
		default:
			return nil, fmt.Errorf("%w: unknown analyzer type %q", ErrInvalidParams, p.Type)
		}
	}

	if p.Tokenizer == "" && len(p.Filter) == 0 {
		return Standard(), nil
	}

	tokenizer, err := buildTokenizer(p.Tokenizer)
	if err != nil {
		return nil, err
	}

	filters := make([]analysis.TokenFilter, 0, len(p.Filter))
	for _, raw := range p.Filter {
		filter, err := buildFilter(raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}

	return &analysis.DefaultAnalyzer{
		Tokenizer:    tokenizer,
		TokenFilters: filters,
	}, nil
}

func buildTokenizer(name string) (analysis.Tokenizer, error) {
	switch name {
	case "", "standard", "unicode":
		return bleveunicode.NewUnicodeTokenizer(), nil
	case "whitespace":
		return newWhitespaceTokenizer(), nil
	case "letter":
		return character.NewCharacterTokenizer(unicode.IsLetter), nil
	case "simple":
		return NewSimpleTokenizer(), nil
	default:
		return nil, fmt.Errorf("%w: unknown tokenizer %q", ErrInvalidParams, name)
	}
}

func newWhitespaceTokenizer() analysis.Tokenizer {
	return character.NewCharacterTokenizer(func(r rune) bool {
		return !unicode.IsSpace(r)
	})
}

// A filter is either a bare name or an object with a "type" key.
func buildFilter(raw json.RawMessage) (analysis.TokenFilter, error) {
	var p filterParams

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		p.Type = name
	} else if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: filter: %v", ErrInvalidParams, err)
	}

	switch p.Type {
	case "lowercase":
		return lowercase.NewLowerCaseFilter(), nil
	case "stop":
		if len(p.StopWords) == 0 {
			return englishStopFilter()
		}

		tokens := analysis.NewTokenMap()
		for _, word := range p.StopWords {
			tokens.AddToken(word)
		}
		return stop.NewStopTokensFilter(tokens), nil
	case "length":
		if p.Min < 0 || p.Max < 0 || (p.Max > 0 && p.Min > p.Max) {
			return nil, fmt.Errorf("%w: length filter min=%d max=%d", ErrInvalidParams, p.Min, p.Max)
		}
		return length.NewLengthFilter(p.Min, p.Max), nil
	case "stemmer":
		if p.Language != "" && p.Language != "english" {
			return nil, fmt.Errorf("%w: unsupported stemmer language %q", ErrInvalidParams, p.Language)
		}
		return porter.NewPorterStemmer(), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidParams, p.Type)
	}
}

func englishStopFilter() (analysis.TokenFilter, error) {
	tokens := analysis.NewTokenMap()
	if err := tokens.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, err
	}

	return stop.NewStopTokensFilter(tokens), nil
}
