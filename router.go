package kestrel

import (
	"github.com/kestrel-route/kestrel/decode"
	"github.com/kestrel-route/kestrel/internal/asciiutil"
)

// Route describes one entry to insert or remove: a required path
// template, an optional authority (host) template, and an optional set of
// methods. An empty Authority matches any host; an empty Methods matches
// any method.
type Route struct {
	Authority string
	Path      string
	Methods   []string
}

// Match is the outcome of a successful [Router.Search]: the handler
// registered for the resolved chain, plus every captured dynamic and
// wildcard parameter. Values in Params borrow from the strings passed to
// Search; callers that retain a Match past the call must copy them.
type Match[T any] struct {
	Handler T
	Params  []Param
}

// chainRecord is everything the router needs to remember about one
// resolved (authority?, path, method?) tuple: the handler it was
// registered with, plus the raw route text it was registered under.
// Delete re-derives the dimension parts it needs by re-parsing the
// caller's route text, but still needs the original text itself so a
// delete request written in a different, if textually-equivalent, form
// (an optional group expanded one way at insert, written out plainly at
// delete) is rejected as a mismatch rather than silently accepted.
type chainRecord[T any] struct {
	handler           T
	insertedPath      string
	insertedAuthority string
}

// Router matches a decoded (authority, path, method) triple against a set
// of inserted [Route]s and returns the handler of type T registered for
// the best match, plus any captured parameters.
//
// One compressed trie each for authority and path, plus an exact-match
// method table, joined by a chain index rather than a single per-method
// root array, since this router also matches on authority.
type Router[T any] struct {
	cfg config

	pathRoot      *node
	authorityRoot *node

	pathAlloc      *idAllocator
	authorityAlloc *idAllocator
	pathRefs       refcounts
	authorityRefs  refcounts

	methods *methodTable
	chains  *chainIndex

	constraints *constraintRegistry

	chainRecords map[uint64]chainRecord[T]
}

// New creates an empty Router with the default constraint registry
// (numeric, alpha, alphanumeric) and the given options applied.
func New[T any](opts ...Option) *Router[T] {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(&cfg)
	}
	return &Router[T]{
		cfg:            cfg,
		pathRoot:       &node{kind: nodeStatic},
		authorityRoot:  &node{kind: nodeStatic},
		pathAlloc:      &idAllocator{},
		authorityAlloc: &idAllocator{},
		pathRefs:       make(refcounts),
		authorityRefs:  make(refcounts),
		methods:        newMethodTable(),
		chains:         newChainIndex(),
		constraints:    newConstraintRegistry(),
		chainRecords:   make(map[uint64]chainRecord[T]),
	}
}

// Constraint registers a named predicate, consulted both when validating
// future inserts (an unrecognized constraint name in a template is
// rejected as [ErrUnknownConstraint]) and during search. Re-registering an
// existing name, including one of the three built-ins, is
// [ErrDuplicateConstraint].
func (r *Router[T]) Constraint(name string, pred Predicate) error {
	if err := r.constraints.register(name, pred); err != nil {
		return err
	}
	r.logConstraintRegistered(name)
	return nil
}

func dedupeMethods(methods []string) []string {
	if len(methods) == 0 {
		return []string{""}
	}
	seen := make(map[string]bool, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (r *Router[T]) validateConstraints(pattern string, parts []Part) error {
	for _, p := range parts {
		if p.Constraint != "" && !r.constraints.has(p.Constraint) {
			return &InsertError{Err: ErrUnknownConstraint, Pattern: pattern, Conflict: p.Constraint}
		}
	}
	return nil
}

// Insert parses route, validates it, and registers handler for every
// (authority?, path-alternative, method) combination it expands to
// (optional groups in Path multiply the number of path alternatives;
// Methods multiplies again). Either every combination is registered, or
// none are: a failure partway through unwinds everything this call had
// already committed, per the atomic-insert guarantee.
func (r *Router[T]) Insert(route Route, handler T) error {
	if route.Path == "" {
		return &InsertError{Err: ErrMissingRoute}
	}

	pathAlts, err := parseTemplates(dimPath, route.Path, false)
	if err != nil {
		return err
	}
	for _, alt := range pathAlts {
		if err := r.validateConstraints(route.Path, alt.Parts); err != nil {
			return err
		}
	}

	hasAuthority := route.Authority != ""
	var authTmpl Template
	if hasAuthority {
		authAlts, err := parseTemplates(dimAuthority, route.Authority, r.cfg.strictAuthorityEncoding)
		if err != nil {
			return err
		}
		authTmpl = authAlts[0]
		if err := r.validateConstraints(route.Authority, authTmpl.Parts); err != nil {
			return err
		}
	}

	methodList := dedupeMethods(route.Methods)
	simple := !hasAuthority && len(route.Methods) == 0 && len(pathAlts) == 1

	var authLeaf uint64
	var authCreated bool
	if hasAuthority {
		authLeaf, authCreated, err = resolveLeaf(r.authorityRoot, cloneParts(authTmpl.Parts), r.authorityAlloc)
		if err != nil {
			annotate(err, route.Authority)
			return err
		}
	}

	resolved := make([]pathResolution, 0, len(pathAlts))
	for _, alt := range pathAlts {
		leaf, created, err := resolveLeaf(r.pathRoot, cloneParts(alt.Parts), r.pathAlloc)
		if err != nil {
			annotate(err, route.Path)
			r.discardUnreferenced(resolved, hasAuthority, authLeaf, authCreated, authTmpl.Parts)
			return err
		}
		resolved = append(resolved, pathResolution{leaf: leaf, created: created, parts: alt.Parts})
	}

	type committedChain struct {
		id        uint64
		key       chainKey
		pathParts []Part
	}
	var commits []committedChain

	rollback := func() {
		for i := len(commits) - 1; i >= 0; i-- {
			c := commits[i]
			r.chains.remove(c.key)
			delete(r.chainRecords, c.id)
			releaseLeaf(r.pathRoot, c.pathParts, c.key.path, r.pathRefs, r.pathAlloc)
			if c.key.authority != 0 {
				releaseLeaf(r.authorityRoot, authTmpl.Parts, c.key.authority, r.authorityRefs, r.authorityAlloc)
			}
		}
		for _, alt := range resolved {
			if alt.created {
				if _, live := r.pathRefs[alt.leaf]; !live {
					_ = deleteParts(r.pathRoot, cloneParts(alt.parts), alt.leaf)
					r.pathAlloc.release(alt.leaf)
				}
			}
		}
		if hasAuthority && authCreated {
			if _, live := r.authorityRefs[authLeaf]; !live {
				_ = deleteParts(r.authorityRoot, cloneParts(authTmpl.Parts), authLeaf)
				r.authorityAlloc.release(authLeaf)
			}
		}
	}

	for _, alt := range resolved {
		for _, m := range methodList {
			methodLeaf := r.methods.leaf(m)
			key := chainKey{authority: authLeaf, path: alt.leaf, method: methodLeaf}
			id, cerr := r.chains.insert(key)
			if cerr != nil {
				reason := error(ErrDuplicateChain)
				if simple {
					reason = ErrDuplicateRoute
				}
				r.logInsertConflict(route.Path, reason)
				rollback()
				return &InsertError{Err: reason, Pattern: route.Path}
			}
			r.pathRefs.retain(alt.leaf)
			if authLeaf != 0 {
				r.authorityRefs.retain(authLeaf)
			}
			r.chainRecords[id] = chainRecord[T]{handler: handler, insertedPath: route.Path, insertedAuthority: route.Authority}
			commits = append(commits, committedChain{id: id, key: key, pathParts: alt.parts})
		}
	}

	return nil
}

// annotate fills in the Pattern field of an *InsertError returned by a
// dimension resolve, so the caller sees which route text it came from.
func annotate(err error, pattern string) {
	if ie, ok := err.(*InsertError); ok {
		ie.Pattern = pattern
	}
}

// pathResolution records one path alternative's resolved dimension leaf,
// for either committing (Insert's method loop) or discarding (cleanup
// when a later alternative fails to resolve at all).
type pathResolution struct {
	leaf    uint64
	created bool
	parts   []Part
}

// discardUnreferenced deletes any leaf created earlier in this Insert call
// that no chain ever committed to, used when a later alternative's resolve
// itself fails (so the method loop that would normally perform this
// cleanup via rollback never runs).
func (r *Router[T]) discardUnreferenced(alts []pathResolution, hasAuthority bool, authLeaf uint64, authCreated bool, authParts []Part) {
	for _, alt := range alts {
		if alt.created {
			_ = deleteParts(r.pathRoot, cloneParts(alt.parts), alt.leaf)
			r.pathAlloc.release(alt.leaf)
		}
	}
	if hasAuthority && authCreated {
		_ = deleteParts(r.authorityRoot, cloneParts(authParts), authLeaf)
		r.authorityAlloc.release(authLeaf)
	}
}

// Delete removes route: every (authority?, path-alternative, method)
// combination it names must already exist under the exact raw template
// text it was inserted with, or the call fails and leaves the router
// unchanged. A combination that simply doesn't exist is [ErrNotFound]; one
// that exists but was registered under different route text — most often
// an optional group written out differently, e.g. deleting "/users/{id}/"
// when the route was inserted as "/users/{id}(/)" — is [ErrMismatch].
func (r *Router[T]) Delete(route Route) error {
	if route.Path == "" {
		return &DeleteError{Err: ErrMissingRoute, Pattern: route.Path}
	}

	pathAlts, err := parseTemplates(dimPath, route.Path, false)
	if err != nil {
		return &DeleteError{Err: ErrNotFound, Pattern: route.Path}
	}

	hasAuthority := route.Authority != ""
	var authTmpl Template
	var authLeaf uint64
	if hasAuthority {
		authAlts, err := parseTemplates(dimAuthority, route.Authority, r.cfg.strictAuthorityEncoding)
		if err != nil {
			return &DeleteError{Err: ErrNotFound, Pattern: route.Authority}
		}
		authTmpl = authAlts[0]
		authLeaf, err = findLeaf(r.authorityRoot, cloneParts(authTmpl.Parts))
		if err != nil {
			return &DeleteError{Err: ErrNotFound, Pattern: route.Authority}
		}
	}

	methodList := dedupeMethods(route.Methods)

	type target struct {
		key       chainKey
		id        uint64
		pathParts []Part
	}
	targets := make([]target, 0, len(pathAlts)*len(methodList))

	for _, alt := range pathAlts {
		pathLeaf, err := findLeaf(r.pathRoot, cloneParts(alt.Parts))
		if err != nil {
			return &DeleteError{Err: ErrNotFound, Pattern: route.Path}
		}
		for _, m := range methodList {
			methodLeaf, ok := r.methods.lookup(m)
			if !ok {
				return &DeleteError{Err: ErrNotFound, Pattern: route.Path}
			}
			key := chainKey{authority: authLeaf, path: pathLeaf, method: methodLeaf}
			id, ok := r.chains.byKey[key]
			if !ok {
				return &DeleteError{Err: ErrNotFound, Pattern: route.Path}
			}
			rec := r.chainRecords[id]
			if rec.insertedPath != route.Path {
				return &DeleteError{Err: ErrMismatch, Pattern: route.Path, InsertedText: rec.insertedPath}
			}
			if rec.insertedAuthority != route.Authority {
				return &DeleteError{Err: ErrMismatch, Pattern: route.Authority, InsertedText: rec.insertedAuthority}
			}
			targets = append(targets, target{key: key, id: id, pathParts: alt.Parts})
		}
	}

	for _, t := range targets {
		r.chains.remove(t.key)
		delete(r.chainRecords, t.id)
		if pruned := releaseLeaf(r.pathRoot, t.pathParts, t.key.path, r.pathRefs, r.pathAlloc); pruned {
			r.logLeafPruned("path", t.key.path)
		}
		if hasAuthority {
			if pruned := releaseLeaf(r.authorityRoot, authTmpl.Parts, authLeaf, r.authorityRefs, r.authorityAlloc); pruned {
				r.logLeafPruned("authority", authLeaf)
			}
		}
	}

	return nil
}

// Search decodes authority (if non-empty) and path, then resolves the
// chain for (authority, path, method) in priority order: authority-specific
// before authority-any, method-specific before method-any. It returns
// ok=false (no error) on no match; a non-nil error means decoding failed
// or the search aborted on a resource budget.
func (r *Router[T]) Search(authority, path, method string) (Match[T], bool, error) {
	decodedPath, err := decode.Percent(path)
	if err != nil {
		return Match[T]{}, false, decodePercentError(err)
	}

	var decodedAuthority string
	var haveAuthority bool
	if authority != "" {
		decodedAuthority, err = decode.Punycode(asciiutil.NormalizeAuthority(authority))
		if err != nil {
			return Match[T]{}, false, decodePunyError(err)
		}
		haveAuthority = true
	}

	pathResult, ok, err := search(r.pathRoot, decodedPath, '/', r.constraints.predicates, r.cfg.maxBacktrackDepth, r.cfg.maxParams)
	if err != nil || !ok {
		return Match[T]{}, false, err
	}

	var authorityLeaf uint64
	var authorityParams []Param
	var authorityMatched bool
	if haveAuthority {
		authResult, ok, err := search(r.authorityRoot, decodedAuthority, '.', r.constraints.predicates, r.cfg.maxBacktrackDepth, r.cfg.maxParams)
		if err != nil {
			return Match[T]{}, false, err
		}
		if ok {
			authorityLeaf = authResult.leaf
			authorityParams = authResult.params
			authorityMatched = true
		}
	}

	methodLeaf, _ := r.methods.lookup(method)

	candidates := chainCandidates(authorityLeaf, authorityMatched, methodLeaf, method != "")
	for _, key := range candidates {
		key.path = pathResult.leaf
		id, ok := r.chains.byKey[key]
		if !ok {
			continue
		}
		rec := r.chainRecords[id]
		params := make([]Param, 0, len(authorityParams)+len(pathResult.params))
		params = append(params, authorityParams...)
		params = append(params, pathResult.params...)
		return Match[T]{Handler: rec.handler, Params: params}, true, nil
	}

	return Match[T]{}, false, nil
}

// chainCandidates enumerates the (authority, method) pairs to probe, in
// priority order: authority-specific before authority-any (only when an
// authority search actually matched), method-specific before method-any.
// path is filled in by the caller for each candidate.
func chainCandidates(authorityLeaf uint64, haveAuthorityMatch bool, methodLeaf uint64, haveMethod bool) []chainKey {
	var authorities []uint64
	if haveAuthorityMatch {
		authorities = append(authorities, authorityLeaf)
	}
	authorities = append(authorities, 0)

	var methodsToTry []uint64
	if haveMethod {
		methodsToTry = append(methodsToTry, methodLeaf)
	}
	methodsToTry = append(methodsToTry, 0)

	out := make([]chainKey, 0, len(authorities)*len(methodsToTry))
	for _, a := range authorities {
		for _, m := range methodsToTry {
			out = append(out, chainKey{authority: a, method: m})
		}
	}
	return out
}

func decodePercentError(err error) error {
	pe, ok := err.(*decode.Error)
	if !ok {
		return err
	}
	return &DecodeError{Err: ErrInvalidEncoding, Detail: pe.Triple, Span: Span{Offset: pe.Position, Length: len(pe.Triple)}}
}

func decodePunyError(err error) error {
	pe, ok := err.(*decode.PunyError)
	if !ok {
		return err
	}
	sentinel := ErrUnexpectedEnd
	switch pe.Kind {
	case decode.PunyOverflow:
		sentinel = ErrOverflow
	case decode.PunyInvalidBasicCodePoint:
		sentinel = ErrInvalidBasicCodePoint
	case decode.PunyInvalidCodePoint:
		sentinel = ErrInvalidCodePoint
	}
	return &DecodeError{Err: sentinel, Span: Span{Offset: pe.Position, Length: 1}}
}
