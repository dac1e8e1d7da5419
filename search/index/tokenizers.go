package index

import (
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/larose/sharedtext/search/analyzer"
)

const DefaultTokenizer = "default"

// TokenizerManager maps tokenizer names used in the schema to analyzers.
// It is shared by the writer and every reader of an index.
type TokenizerManager struct {
	mutex     sync.RWMutex
	analyzers map[string]analysis.Analyzer
}

func NewTokenizerManager() *TokenizerManager {
	manager := &TokenizerManager{
		analyzers: make(map[string]analysis.Analyzer, 8),
	}

	manager.Register(DefaultTokenizer, analyzer.Standard())
	manager.Register(analyzer.TypeWhitespace, analyzer.Whitespace())
	manager.Register(analyzer.TypeSimple, analyzer.Simple())

	return manager
}

// Register replaces any analyzer previously registered under name.
func (manager *TokenizerManager) Register(name string, a analysis.Analyzer) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	manager.analyzers[name] = a
}

func (manager *TokenizerManager) Get(name string) (analysis.Analyzer, bool) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	a, exists := manager.analyzers[name]
	return a, exists
}
