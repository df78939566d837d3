package kestrel

// Param is one captured dynamic or wildcard value from a successful
// search, borrowing from the input string passed to [Router.Search].
type Param struct {
	Name  string
	Value string
}

// searchResult is the internal outcome of a single-dimension trie search.
type searchResult struct {
	leaf   uint64
	params []Param
}

// searcher holds the state threaded through a single dimension search:
// the decoded input, the active segment delimiter, the constraint
// predicates available to evaluate against captured values, and a bound on
// how many wildcard backtrack attempts the traversal may make.
//
// Backtracks over wildcard matches by recursion, popping the captured
// parameter on each failed branch rather than retrying the whole search,
// generalized from a single regexp-constrained wildcard to the
// named constraint registry, with an explicit, user-configurable bound on
// backtrack attempts exposed as [WithMaxBacktrackDepth].
type searcher struct {
	s            string
	delim        byte
	predicates   map[string]Predicate
	maxBacktrack uint32
	backtracks   uint32
	params       []Param
}

// search runs a depth-first, chronologically backtracking traversal of the
// trie rooted at root against s, using delim as the segment boundary byte
// ('/' for path, '.' for authority). maxParams pre-sizes the capture buffer
// to the caller's expected upper bound ([WithMaxParams]), so a typical
// search never reallocates it. It returns ok=false (no error) on no-match,
// and a non-nil error only when the backtrack budget is exhausted.
func search(root *node, s string, delim byte, predicates map[string]Predicate, maxBacktrack, maxParams uint32) (searchResult, bool, error) {
	st := &searcher{s: s, delim: delim, predicates: predicates, maxBacktrack: maxBacktrack, params: make([]Param, 0, maxParams)}
	leaf, ok, err := st.run(root, 0)
	if !ok || err != nil {
		return searchResult{}, false, err
	}
	params := make([]Param, len(st.params))
	copy(params, st.params)
	return searchResult{leaf: leaf, params: params}, true, nil
}

func (st *searcher) satisfies(constraint, value string) bool {
	if constraint == "" {
		return true
	}
	pred, ok := st.predicates[constraint]
	if !ok {
		return false
	}
	return pred(value)
}

func (st *searcher) boundary(cursor int) int {
	for i := cursor; i < len(st.s); i++ {
		if st.s[i] == st.delim {
			return i
		}
	}
	return len(st.s)
}

// wildcardEnds enumerates candidate end positions for an infix wildcard
// starting at cursor, greediest first: the whole remainder, then each
// preceding segment boundary in descending order, down to (but not
// including) cursor itself so the captured value is never empty.
func (st *searcher) wildcardEnds(cursor int) []int {
	ends := make([]int, 0, 4)
	ends = append(ends, len(st.s))
	for i := len(st.s) - 1; i > cursor; i-- {
		if st.s[i] == st.delim {
			ends = append(ends, i)
		}
	}
	return ends
}

func (st *searcher) run(n *node, cursor int) (uint64, bool, error) {
	if cursor == len(st.s) && n.data != nil {
		return *n.data, true, nil
	}

	if cursor < len(st.s) {
		if c := n.getStaticEdge(st.s[cursor]); c != nil && hasPrefixAt(st.s, cursor, c.prefix) {
			if leaf, ok, err := st.run(c, cursor+len(c.prefix)); ok || err != nil {
				return leaf, ok, err
			}
		}
	}

	end := st.boundary(cursor)
	for _, c := range n.dynamic {
		value := st.s[cursor:end]
		if value == "" || !st.satisfies(c.constraint, value) {
			continue
		}
		st.params = append(st.params, Param{Name: c.name, Value: value})
		leaf, ok, err := st.run(c, end)
		if ok || err != nil {
			return leaf, ok, err
		}
		st.params = st.params[:len(st.params)-1]
	}

	for _, c := range n.wildcard {
		for _, wend := range st.wildcardEnds(cursor) {
			value := st.s[cursor:wend]
			if value == "" || !st.satisfies(c.constraint, value) {
				continue
			}
			st.backtracks++
			if st.maxBacktrack > 0 && st.backtracks > st.maxBacktrack {
				return 0, false, &SearchError{Err: ErrBacktrackLimitExceeded}
			}
			st.params = append(st.params, Param{Name: c.name, Value: value})
			leaf, ok, err := st.run(c, wend)
			if ok || err != nil {
				return leaf, ok, err
			}
			st.params = st.params[:len(st.params)-1]
		}
	}

	if c := n.endWildcard; c != nil {
		value := st.s[cursor:]
		if st.satisfies(c.constraint, value) {
			st.params = append(st.params, Param{Name: c.name, Value: value})
			leaf, ok, err := st.run(c, len(st.s))
			if ok || err != nil {
				return leaf, ok, err
			}
			st.params = st.params[:len(st.params)-1]
		}
	}

	return 0, false, nil
}

func hasPrefixAt(s string, cursor int, prefix string) bool {
	if len(s)-cursor < len(prefix) {
		return false
	}
	return s[cursor:cursor+len(prefix)] == prefix
}

// SearchError reports that a search aborted before reaching a verdict,
// distinct from an ordinary no-match (which is not an error).
type SearchError struct {
	Err error
}

func (e *SearchError) Error() string { return e.Err.Error() }
func (e *SearchError) Unwrap() error { return e.Err }
