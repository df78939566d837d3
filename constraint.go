package kestrel

// Predicate tests whether a captured parameter value satisfies a named
// constraint. It receives the raw (already percent- or punycode-decoded)
// captured bytes as a string.
type Predicate func(value string) bool

// constraintRegistry is a name -> Predicate table consulted at insert time
// (to validate that every constraint referenced by a template is
// registered) and at search time (to evaluate captured values).
//
// A small named registry of reusable predicates consulted during route
// resolution, operating on a captured value string rather than a request.
type constraintRegistry struct {
	predicates map[string]Predicate
}

func newConstraintRegistry() *constraintRegistry {
	r := &constraintRegistry{predicates: make(map[string]Predicate)}
	r.predicates["numeric"] = isNumeric
	r.predicates["alpha"] = isAlpha
	r.predicates["alphanumeric"] = isAlphanumeric
	return r
}

// register adds name, failing with ErrDuplicateConstraint if it is already
// registered (including the three builtins, which may not be overridden).
func (r *constraintRegistry) register(name string, pred Predicate) error {
	if _, exists := r.predicates[name]; exists {
		return ErrDuplicateConstraint
	}
	r.predicates[name] = pred
	return nil
}

func (r *constraintRegistry) has(name string) bool {
	_, ok := r.predicates[name]
	return ok
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
