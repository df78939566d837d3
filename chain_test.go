package kestrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainIndexInsertAndDuplicate(t *testing.T) {
	ci := newChainIndex()
	key := chainKey{path: 1}

	id, err := ci.insert(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	_, err = ci.insert(key)
	assert.ErrorIs(t, err, ErrDuplicateChain)
}

func TestChainIndexRemove(t *testing.T) {
	ci := newChainIndex()
	key := chainKey{path: 1, method: 2}
	id, err := ci.insert(key)
	require.NoError(t, err)

	gotID, ok := ci.remove(key)
	require.True(t, ok)
	assert.Equal(t, id, gotID)

	_, ok = ci.remove(key)
	assert.False(t, ok, "removing an already-removed key must report false")

	_, err = ci.insert(key)
	assert.NoError(t, err, "a removed key must be insertable again")
}

func TestRefcountsRetainRelease(t *testing.T) {
	r := make(refcounts)
	r.retain(1)
	r.retain(1)

	assert.False(t, r.release(1), "two retains must require two releases before pruning")
	assert.True(t, r.release(1), "the second release must report the refcount reaching zero")
	_, exists := r[1]
	assert.False(t, exists)
}

func TestMethodTableInternAndLookup(t *testing.T) {
	m := newMethodTable()

	getLeaf, ok := m.lookup("GET")
	assert.False(t, ok, "lookup must not create an entry for an unseen method")
	assert.Equal(t, uint64(0), getLeaf)

	id := m.leaf("GET")
	assert.NotEqual(t, uint64(0), id)
	assert.Equal(t, id, m.leaf("GET"), "interning the same method twice must return the same id")

	gotID, ok := m.lookup("GET")
	require.True(t, ok)
	assert.Equal(t, id, gotID)

	anyID, ok := m.lookup("")
	require.True(t, ok)
	assert.Equal(t, uint64(0), anyID, "the empty method string is the reserved any-method sentinel")
	assert.Equal(t, uint64(0), m.leaf(""))
}

func TestIdAllocatorReusesFreedIds(t *testing.T) {
	a := &idAllocator{}
	first := a.alloc()
	second := a.alloc()
	assert.NotEqual(t, first, second)

	a.release(first)
	reused := a.alloc()
	assert.Equal(t, first, reused, "a freed id must be handed out again before minting a new one")

	third := a.alloc()
	assert.NotEqual(t, second, third)
	assert.NotEqual(t, first, third)
}

func TestResolveLeafFindOrCreate(t *testing.T) {
	root := &node{}
	alloc := &idAllocator{}

	leaf1, created1, err := resolveLeaf(root, partsOf(Part{Kind: KindStatic, Bytes: "/users"}), alloc)
	require.NoError(t, err)
	assert.True(t, created1)

	leaf2, created2, err := resolveLeaf(root, partsOf(Part{Kind: KindStatic, Bytes: "/users"}), alloc)
	require.NoError(t, err)
	assert.False(t, created2, "inserting the identical template twice must reuse the existing leaf")
	assert.Equal(t, leaf1, leaf2)
}

func TestReleaseLeafPrunesOnlyAfterLastReference(t *testing.T) {
	root := &node{}
	alloc := &idAllocator{}
	refs := make(refcounts)

	parts := partsOf(Part{Kind: KindStatic, Bytes: "/users"})
	leaf, _, err := resolveLeaf(root, cloneParts(parts), alloc)
	require.NoError(t, err)
	refs.retain(leaf)
	refs.retain(leaf)

	pruned := releaseLeaf(root, parts, leaf, refs, alloc)
	assert.False(t, pruned, "a second retaining chain must keep the leaf alive")
	_, err = findLeaf(root, cloneParts(parts))
	assert.NoError(t, err)

	pruned = releaseLeaf(root, parts, leaf, refs, alloc)
	assert.True(t, pruned)
	_, err = findLeaf(root, cloneParts(parts))
	assert.ErrorIs(t, err, ErrNotFound)

	reused := alloc.alloc()
	assert.Equal(t, leaf, reused, "the pruned leaf's id must return to the allocator's free list")
}
