package blaze

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY AST: A Closed Sum of Five Node Kinds
// ═══════════════════════════════════════════════════════════════════════════════
// QueryNode is a tagged variant, not a class hierarchy: exactly five
// concrete types implement it, and the unexported marker method prevents
// any type outside this package from claiming membership. Walkers use a type
// switch instead of virtual dispatch - the set of cases is closed, so a
// switch can list every one of them.
// ═══════════════════════════════════════════════════════════════════════════════

// QueryNode is implemented by exactly TermNode, PhraseNode, AndNode,
// OrNode, and NotNode.
type QueryNode interface {
	queryNode()
}

// TermNode matches a single bare keyword.
type TermNode struct {
	Term string
}

// PhraseNode matches a quoted multi-word phrase, stored verbatim.
type PhraseNode struct {
	Phrase string
}

// AndNode requires both children to contribute to the term bag.
type AndNode struct {
	Left, Right QueryNode
}

// OrNode matches either child; the term-bag walk collects terms from both.
type OrNode struct {
	Left, Right QueryNode
}

// NotNode negates its child. Per spec §9 open question 2, SearchService's
// default walk still collects the child's terms (a permissive evaluator);
// NOT only carries exclusionary weight in StrictQuery (query.go).
type NotNode struct {
	Child QueryNode
}

func (TermNode) queryNode()   {}
func (PhraseNode) queryNode() {}
func (AndNode) queryNode()    {}
func (OrNode) queryNode()     {}
func (NotNode) queryNode()    {}

// collectTermText walks an AST and returns every TermNode/PhraseNode's raw
// text, in left-to-right order, regardless of the operators connecting
// them - this is SearchService's permissive term-bag collection (spec §4.7
// step 1): AndNode/OrNode/NotNode all recurse into every child without
// applying Boolean semantics at this layer.
func collectTermText(node QueryNode) []string {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case TermNode:
		return []string{n.Term}
	case PhraseNode:
		return []string{n.Phrase}
	case AndNode:
		return append(collectTermText(n.Left), collectTermText(n.Right)...)
	case OrNode:
		return append(collectTermText(n.Left), collectTermText(n.Right)...)
	case NotNode:
		return collectTermText(n.Child)
	default:
		return nil
	}
}
