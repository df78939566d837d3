package kestrel

// chainKey identifies one fully-qualified route: which authority template
// matched (0 means "no authority requirement"), which path template
// matched, and which method matched (0 means "any method"). The 0 sentinels
// stand in for an optional dimension that was left unspecified at insert
// time.
type chainKey struct {
	authority uint64
	path      uint64
	method    uint64
}

// chainIndex is the forward (key -> id) and reverse (id -> key) mapping that
// joins the three independently-searched dimension tries into a single
// handler lookup. The teacher has no authority dimension at this layer —
// only a per-method root array (node.go:roots) — which is the model
// generalized here to "join independent dimension tries by intersecting
// their leaf ids."
type chainIndex struct {
	byKey  map[chainKey]uint64
	byID   map[uint64]chainKey
	nextID uint64
}

func newChainIndex() *chainIndex {
	return &chainIndex{byKey: make(map[chainKey]uint64), byID: make(map[uint64]chainKey)}
}

func (c *chainIndex) insert(key chainKey) (uint64, error) {
	if _, exists := c.byKey[key]; exists {
		return 0, ErrDuplicateChain
	}
	c.nextID++
	id := c.nextID
	c.byKey[key] = id
	c.byID[id] = key
	return id, nil
}

func (c *chainIndex) remove(key chainKey) (uint64, bool) {
	id, ok := c.byKey[key]
	if !ok {
		return 0, false
	}
	delete(c.byKey, key)
	delete(c.byID, id)
	return id, true
}

// refcounts tracks how many live chains reference a given dimension leaf,
// so a shared authority or path node is only pruned from its trie once the
// last chain using it is deleted.
type refcounts map[uint64]int

func (r refcounts) retain(leaf uint64) {
	r[leaf]++
}

// release decrements leaf's refcount and reports whether it dropped to
// zero (the caller should then prune the corresponding trie node).
func (r refcounts) release(leaf uint64) bool {
	r[leaf]--
	if r[leaf] <= 0 {
		delete(r, leaf)
		return true
	}
	return false
}

// methodTable assigns a stable, unique integer to every distinct method
// string a route has been registered with; a leaf id of 0 is reserved for
// "matches any method" (an empty methods list). There is no trie here:
// method matching is exact-string equality, so a plain interning table
// plays the role the byte-matched trie would for this dimension.
type methodTable struct {
	ids  map[string]uint64
	next uint64
}

func newMethodTable() *methodTable {
	return &methodTable{ids: make(map[string]uint64)}
}

// lookup finds method's interned leaf without creating one, for delete and
// search paths that must not register a method merely by querying it.
func (m *methodTable) lookup(method string) (uint64, bool) {
	if method == "" {
		return 0, true
	}
	id, ok := m.ids[method]
	return id, ok
}

func (m *methodTable) leaf(method string) uint64 {
	if method == "" {
		return 0
	}
	if id, ok := m.ids[method]; ok {
		return id
	}
	m.next++
	m.ids[method] = m.next
	return m.next
}

// idAllocator hands out leaf ids, reusing ids freed by delete before
// minting new ones, per the data model's "deletion frees the id for
// reuse" invariant.
type idAllocator struct {
	next uint64
	free []uint64
}

func (a *idAllocator) alloc() uint64 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	a.next++
	return a.next
}

func (a *idAllocator) release(id uint64) {
	a.free = append(a.free, id)
}

// resolveLeaf finds or creates the trie leaf for parts under root: if the
// exact same template was already inserted (by this or any other chain
// sharing the dimension), its existing leaf id is reused; otherwise a new
// one is minted from alloc. This is what lets many chains share one
// authority or path template — duplicate-route rejection happens at the
// chain layer (see Router.Insert), not by forbidding template reuse across
// chains outright (see DESIGN.md).
func resolveLeaf(root *node, parts []Part, alloc *idAllocator) (leaf uint64, created bool, err error) {
	term, visited, err := walkForInsert(root, parts)
	if err != nil {
		return 0, false, err
	}
	if term.data != nil {
		return *term.data, false, nil
	}
	id := alloc.alloc()
	term.data = &id
	recomputeVisited(visited)
	return id, true, nil
}

// releaseLeaf decrements refs for leaf and, if it was the last chain using
// it, deletes it from root's trie, pruning the now-dead branch and
// returning the id to alloc's free list.
func releaseLeaf(root *node, parts []Part, leaf uint64, refs refcounts, alloc *idAllocator) bool {
	if !refs.release(leaf) {
		return false
	}
	if err := deleteParts(root, cloneParts(parts), leaf); err != nil {
		return false
	}
	alloc.release(leaf)
	return true
}

// cloneParts copies parts so a destructive stack-pop walk (insert, delete)
// never aliases a slice the caller intends to reuse.
func cloneParts(parts []Part) []Part {
	cp := make([]Part, len(parts))
	copy(cp, parts)
	return cp
}
