// Package parse turns a route template into one or more [Template] values:
// the path grammar expands optional groups into every subset alternative
// and tokenizes `{name}`/`{*name}`/`{name:constraint}` placeholders; the
// authority grammar is the same placeholder syntax without groups, delimited
// by `.` instead of `/`. Both report errors as a byte span into the
// original template text, via a two-stage expand-then-tokenize pipeline in
// place of a single-pass state machine.
package parse

import "strings"

// PartKind identifies the variant of a [Part].
type PartKind uint8

const (
	PartStatic PartKind = iota
	PartDynamic
	PartWildcard
)

// Part is one token of a parsed template, in left-to-right order.
type Part struct {
	Bytes      string
	Name       string
	Constraint string
	Kind       PartKind
}

// Template is a single expanded, tokenized alternative. Parts are in
// left-to-right (forward) order; callers that want the reversed,
// stack-pop order the trie consumes reverse it themselves.
type Template struct {
	Source string
	Parts  []Part
}

const (
	pathForbidden      = ":*{}()/"
	authorityForbidden = ":*{}."
)

// Path parses a path template, expanding every optional group `(...)` into
// its own fully tokenized alternative. For k top-level groups (and their
// nested groups) it returns up to 2^k alternatives; an alternative whose
// expansion is empty is rewritten to "/".
func Path(template string) ([]Template, error) {
	if template == "" {
		return nil, &Error{Kind: Empty}
	}

	pieces, err := buildPieces(template, 0)
	if err != nil {
		return nil, err
	}

	alts := expand(pieces)
	out := make([]Template, 0, len(alts))
	for _, alt := range alts {
		text, offsets := flatten(alt)
		if text == "" {
			text = "/"
			offsets = []int{0}
		}
		if text[0] != '/' {
			return nil, &Error{Kind: MissingLeadingSlash, Offset: offsets[0], Length: 1}
		}
		tmpl, err := tokenize(text, offsets, pathForbidden)
		if err != nil {
			return nil, err
		}
		tmpl.Source = text
		out = append(out, tmpl)
	}
	return out, nil
}

// Authority parses an authority template. It has no group syntax; `.` is
// the segment delimiter and is forbidden inside parameter and constraint
// names (in place of path's `/`).
func Authority(template string) (Template, error) {
	if template == "" {
		return Template{}, &Error{Kind: Empty}
	}
	offsets := make([]int, len(template))
	for i := range offsets {
		offsets[i] = i
	}
	tmpl, err := tokenize(template, offsets, authorityForbidden)
	if err != nil {
		return Template{}, err
	}
	tmpl.Source = template
	return tmpl, nil
}

// frag is a contiguous run of raw template text (escapes not yet resolved)
// together with the byte offset of frag.text[0] in the original template.
type frag struct {
	text   string
	offset int
}

// piece is either a literal frag or an optional group containing its own
// sub-sequence of pieces, recursively.
type piece struct {
	lit   frag
	group []piece
	isGrp bool
}

// buildPieces splits s into a flat sequence of literal fragments and
// (possibly nested) optional groups, validating parenthesis balance.
// base is the offset of s[0] in the original template, for error spans.
func buildPieces(s string, base int) ([]piece, error) {
	var pieces []piece
	litStart := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 < len(s) {
				i += 2
			} else {
				i++
			}
		case c == '(':
			if i > litStart {
				pieces = append(pieces, piece{lit: frag{text: s[litStart:i], offset: base + litStart}})
			}
			j := matchParen(s, i)
			if j < 0 {
				return nil, &Error{Kind: UnbalancedParenthesis, Offset: base + i, Length: 1}
			}
			inner := s[i+1 : j]
			if inner == "" {
				return nil, &Error{Kind: EmptyParentheses, Offset: base + i, Length: j - i + 1}
			}
			sub, err := buildPieces(inner, base+i+1)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, piece{group: sub, isGrp: true})
			i = j + 1
			litStart = i
		case c == ')':
			return nil, &Error{Kind: UnbalancedParenthesis, Offset: base + i, Length: 1}
		default:
			i++
		}
	}
	if i > litStart {
		pieces = append(pieces, piece{lit: frag{text: s[litStart:i], offset: base + litStart}})
	}
	return pieces, nil
}

// matchParen returns the index of the ')' matching the '(' at s[open],
// honoring nesting and backslash escapes, or -1 if unbalanced.
func matchParen(s string, open int) int {
	depth := 1
	j := open + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j
			}
		}
		j++
	}
	return -1
}

// expand turns a piece sequence into every subset alternative: each group
// independently contributes either nothing or its own (recursively
// expanded) alternatives, and alternatives from successive pieces combine
// by concatenation (cross product).
func expand(pieces []piece) [][]frag {
	result := [][]frag{{}}
	for _, p := range pieces {
		var options [][]frag
		if !p.isGrp {
			options = [][]frag{{p.lit}}
		} else {
			sub := expand(p.group)
			options = make([][]frag, 0, len(sub)+1)
			options = append(options, nil)
			options = append(options, sub...)
		}
		next := make([][]frag, 0, len(result)*len(options))
		for _, r := range result {
			for _, o := range options {
				combined := make([]frag, 0, len(r)+len(o))
				combined = append(combined, r...)
				combined = append(combined, o...)
				next = append(next, combined)
			}
		}
		result = next
	}
	return result
}

// flatten concatenates an alternative's fragments into one string plus a
// parallel slice mapping each byte of that string back to its offset in
// the original template.
func flatten(frags []frag) (string, []int) {
	var sb strings.Builder
	var offsets []int
	for _, f := range frags {
		sb.WriteString(f.text)
		for i := 0; i < len(f.text); i++ {
			offsets = append(offsets, f.offset+i)
		}
	}
	return sb.String(), offsets
}

// tokenize scans already-group-expanded template text into literal and
// parameter parts. offsets[i] is the original-template byte offset of
// text[i]; forbidden lists the bytes parameter and constraint names may
// not contain (the grammars differ only in this set and in whether groups
// were present upstream).
func tokenize(text string, offsets []int, forbidden string) (Template, error) {
	var parts []Part
	var sb strings.Builder
	names := make(map[string]bool)
	justClosedParam := false

	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, Part{Kind: PartStatic, Bytes: sb.String()})
			sb.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '\\':
			if i+1 < len(text) {
				sb.WriteByte(text[i+1])
				i += 2
			} else {
				sb.WriteByte('\\')
				i++
			}
			justClosedParam = false
		case '}':
			return Template{}, &Error{Kind: UnbalancedBrace, Offset: offsets[i], Length: 1}
		case '{':
			if justClosedParam && sb.Len() == 0 {
				return Template{}, &Error{Kind: TouchingParameters, Offset: offsets[i], Length: 1}
			}
			flush()
			end := findBraceClose(text, i)
			if end < 0 {
				return Template{}, &Error{Kind: UnbalancedBrace, Offset: offsets[i], Length: 1}
			}
			inner := text[i+1 : end]
			if inner == "" {
				return Template{}, &Error{Kind: EmptyBraces, Offset: offsets[i], Length: end - i + 1}
			}
			part, err := parseParam(inner, offsets[i+1:end], forbidden)
			if err != nil {
				return Template{}, err
			}
			if names[part.Name] {
				return Template{}, &Error{Kind: DuplicateParameter, Offset: offsets[i+1], Length: len(part.Name), Name: part.Name}
			}
			names[part.Name] = true
			parts = append(parts, part)
			justClosedParam = true
			i = end + 1
		default:
			sb.WriteByte(c)
			justClosedParam = false
			i++
		}
	}
	flush()
	return Template{Parts: parts}, nil
}

// findBraceClose returns the index of the '}' matching the '{' at
// text[open], honoring backslash escapes and rejecting nested braces.
func findBraceClose(text string, open int) int {
	i := open + 1
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case '}':
			return i
		case '{':
			return -1
		}
		i++
	}
	return -1
}

// parseParam interprets the contents of a "{...}" placeholder: an optional
// leading '*' marks a wildcard, an optional ":constraint" suffix names a
// registered predicate.
func parseParam(inner string, offs []int, forbidden string) (Part, error) {
	isWildcard := false
	s := inner
	so := offs
	if s[0] == '*' {
		isWildcard = true
		s = s[1:]
		so = so[1:]
	}

	colon := strings.IndexByte(s, ':')
	var name, constraint string
	var nameOffs, consOffs []int
	if colon < 0 {
		name, nameOffs = s, so
	} else {
		name, nameOffs = s[:colon], so[:colon]
		constraint, consOffs = s[colon+1:], so[colon+1:]
	}

	if name == "" {
		kind := EmptyParameter
		if isWildcard {
			kind = EmptyWildcard
		}
		return Part{}, &Error{Kind: kind, Offset: offs[0], Length: 1}
	}
	for i := 0; i < len(name); i++ {
		if strings.IndexByte(forbidden, name[i]) >= 0 {
			return Part{}, &Error{Kind: InvalidParameter, Offset: nameOffs[i], Length: 1}
		}
	}

	if colon >= 0 {
		if constraint == "" {
			return Part{}, &Error{Kind: EmptyConstraint, Offset: so[colon], Length: 1}
		}
		for i := 0; i < len(constraint); i++ {
			if strings.IndexByte(forbidden, constraint[i]) >= 0 {
				return Part{}, &Error{Kind: InvalidConstraint, Offset: consOffs[i], Length: 1}
			}
		}
	}

	kind := PartDynamic
	if isWildcard {
		kind = PartWildcard
	}
	return Part{Kind: kind, Name: name, Constraint: constraint}, nil
}
