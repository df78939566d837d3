package kestrel

// walkForInsert threads a reversed Template's parts (next-to-consume at the
// end of the slice) through the trie rooted at root, creating edges as
// needed, and returns the terminal node plus every node visited along the
// way (root first), for the caller to assign data to and recompute
// priorities over. It returns ErrConstraintConflict if a dynamic or
// wildcard edge already exists at the same position under the same name
// but a different constraint.
//
// The terminal node's data is deliberately left untouched: a dimension
// trie (authority, path) is shared across every chain that uses the same
// template, so whether a fresh leaf id is needed or an existing one is
// reused is the caller's decision (see chain.go's find-or-create leaf
// resolution), not this walk's.
//
// Splits a static node on the longest common byte prefix when a new parts
// sequence diverges partway through an existing edge, generalized from a
// single bytes-only edge type to the three typed edge kinds (static,
// dynamic, wildcard) this trie supports.
func walkForInsert(root *node, parts []Part) (terminal *node, visited []*node, err error) {
	walk := root
	visited = []*node{root}

	for len(parts) > 0 {
		p := parts[len(parts)-1]
		parts = parts[:len(parts)-1]

		switch p.Kind {
		case KindStatic:
			next, remaining, serr := insertStatic(walk, p.Bytes)
			if serr != nil {
				return nil, nil, serr
			}
			walk = next
			if remaining != "" {
				parts = append(parts, Part{Kind: KindStatic, Bytes: remaining})
			}
		case KindDynamic:
			child := walk.getDynamicEdge(p.Name, p.Constraint)
			if child == nil {
				if conflictingConstraint(walk.dynamic, p.Name, p.Constraint) {
					return nil, nil, &InsertError{Err: ErrConstraintConflict}
				}
				child = newLeafNode(nodeDynamic, p.Name, p.Constraint)
				walk.addDynamicEdge(child)
			}
			walk = child
		case KindWildcard:
			if len(parts) == 0 {
				if walk.endWildcard == nil {
					walk.endWildcard = newLeafNode(nodeEndWildcard, p.Name, p.Constraint)
				} else if walk.endWildcard.name != p.Name || walk.endWildcard.constraint != p.Constraint {
					return nil, nil, &InsertError{Err: ErrConstraintConflict}
				}
				walk = walk.endWildcard
			} else {
				child := walk.getWildcardEdge(p.Name, p.Constraint)
				if child == nil {
					if conflictingConstraint(walk.wildcard, p.Name, p.Constraint) {
						return nil, nil, &InsertError{Err: ErrConstraintConflict}
					}
					child = newLeafNode(nodeWildcard, p.Name, p.Constraint)
					walk.addWildcardEdge(child)
				}
				walk = child
			}
		}
		visited = append(visited, walk)
	}

	return walk, visited, nil
}

// recomputeVisited updates priority bottom-up over a walkForInsert path,
// deepest node first so each parent sees its children's already-current
// priority.
func recomputeVisited(visited []*node) {
	for i := len(visited) - 1; i >= 0; i-- {
		visited[i].recomputePriority()
	}
}

// conflictingConstraint reports whether edges already contains a node with
// the given name but a different constraint, which would make the new
// edge's position ambiguous between two incompatible predicates for the
// same captured name.
func conflictingConstraint(edges []*node, name, constraint string) bool {
	for _, c := range edges {
		if c.name == name && c.constraint != constraint {
			return true
		}
	}
	return false
}

// insertStatic walks from parent looking for (or creating) a static edge
// for bytes, splitting an existing edge at the shared-prefix boundary when
// necessary. It returns the node reached and any suffix of bytes not yet
// consumed by that node's own prefix (to be re-pushed as a fresh Static
// part by the caller).
func insertStatic(parent *node, bytes string) (reached *node, remaining string, err error) {
	c := parent.getStaticEdge(bytes[0])
	if c == nil {
		child := &node{kind: nodeStatic, prefix: bytes}
		parent.addStaticEdge(child)
		return child, "", nil
	}

	n := commonPrefixLen(c.prefix, bytes)
	switch {
	case n == len(c.prefix) && n == len(bytes):
		// Exact match: walk into the existing edge.
		return c, "", nil
	case n == len(c.prefix):
		// c.prefix is a strict prefix of bytes: descend into c and retry
		// with the remaining suffix.
		return c, bytes[n:], nil
	case n == len(bytes):
		// bytes is a strict prefix of c.prefix: split c at n, inserting a
		// new intermediate node that owns bytes and demotes c to a child
		// keyed by c.prefix[n:].
		mid := splitStatic(parent, c, n)
		return mid, "", nil
	default:
		// Partial overlap: split at the common prefix, producing a branch
		// point with two static children (the old suffix and the new one).
		mid := splitStatic(parent, c, n)
		sibling :=&node{kind: nodeStatic, prefix: bytes[n:]}
		mid.addStaticEdge(sibling)
		return sibling, "", nil
	}
}

// splitStatic splits c at offset k: a new node takes c's prefix[:k] and
// becomes the parent's edge; c keeps prefix[k:] and all of its original
// children and data, now reachable as the new node's sole static child.
func splitStatic(parent, c *node, k int) *node {
	mid := &node{kind: nodeStatic, prefix: c.prefix[:k]}
	parent.replaceStaticEdge(c.prefix[0], mid)
	c.prefix = c.prefix[k:]
	mid.static = []*node{c}
	return mid
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
