package query

type MatchType byte

const (
	Should MatchType = iota
	Must
	MustNot
)

type BooleanClause struct {
	Type MatchType
	Node Node
}

// BooleanNode matches documents satisfying every Must clause, none of the
// MustNot clauses and at least MinimumShouldMatch Should clauses. Without
// Must clauses at least one Should clause has to match. With Must clauses
// and MinimumShouldMatch at zero, Should clauses do not restrict matching.
type BooleanNode struct {
	Clauses            []*BooleanClause
	MinimumShouldMatch int
}

func (n *BooleanNode) Compile(context *QueryContext) (CompiledNode, error) {
	if len(n.Clauses) == 1 {
		clause := n.Clauses[0]
		if clause.Type == Must || (clause.Type == Should && n.MinimumShouldMatch <= 1) {
			return clause.Node.Compile(context)
		}
	}

	compiled := &CompiledBooleanNode{minimumShouldMatch: n.MinimumShouldMatch}

	for _, clause := range n.Clauses {
		childNode, err := clause.Node.Compile(context)
		if err != nil {
			return nil, err
		}

		switch clause.Type {
		case Must:
			compiled.musts = append(compiled.musts, childNode)
		case MustNot:
			compiled.mustNots = append(compiled.mustNots, childNode)
		default:
			compiled.shoulds = append(compiled.shoulds, childNode)
		}
	}

	return compiled, nil
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// CompiledBooleanNode
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type CompiledBooleanNode struct {
	musts              []CompiledNode
	shoulds            []CompiledNode
	mustNots           []CompiledNode
	minimumShouldMatch int
}

func (n *CompiledBooleanNode) CreateDocIterator(context *ExecutionContext, segmentIndex int) (DocIterator, error) {
	required := make([]DocIterator, 0, len(n.musts)+1)
	for _, childNode := range n.musts {
		it, err := childNode.CreateDocIterator(context, segmentIndex)
		if err != nil {
			return nil, err
		}

		if it == nil {
			return nil, nil
		}

		required = append(required, it)
	}

	minimumShouldMatch := n.minimumShouldMatch
	if len(n.musts) == 0 {
		minimumShouldMatch = max(minimumShouldMatch, 1)
	}

	if minimumShouldMatch > 0 {
		shoulds, err := createDocIterators(n.shoulds, context, segmentIndex)
		if err != nil {
			return nil, err
		}

		if len(shoulds) < minimumShouldMatch {
			return nil, nil
		}

		if len(shoulds) == 1 {
			required = append(required, shoulds[0])
		} else {
			required = append(required, newDisjunctionDocIterator(shoulds, minimumShouldMatch))
		}
	}

	if len(required) == 0 {
		return nil, nil
	}

	var include DocIterator
	if len(required) == 1 {
		include = required[0]
	} else {
		include = newConjunctionDocIterator(required)
	}

	excluded, err := createDocIterators(n.mustNots, context, segmentIndex)
	if err != nil {
		return nil, err
	}

	if len(excluded) == 0 {
		return include, nil
	}

	return newExclusionDocIterator(include, excluded), nil
}

// createDocIterators skips the nodes that match nothing in the segment.
func createDocIterators(nodes []CompiledNode, context *ExecutionContext, segmentIndex int) ([]DocIterator, error) {
	iterators := make([]DocIterator, 0, len(nodes))
	for _, node := range nodes {
		it, err := node.CreateDocIterator(context, segmentIndex)
		if err != nil {
			return nil, err
		}

		if it != nil {
			iterators = append(iterators, it)
		}
	}

	return iterators, nil
}
