package kestrel

import (
	"github.com/kestrel-route/kestrel/internal/asciiutil"
	"github.com/kestrel-route/kestrel/parse"
)

// dimension distinguishes which grammar and forbidden-character set a
// template string is parsed under.
type dimension uint8

const (
	dimPath dimension = iota
	dimAuthority
)

// parseKind maps a parse.Kind to the sentinel this package exposes for it,
// so callers only ever need to errors.Is against the kestrel-level
// sentinels regardless of which package actually detected the violation.
func parseKind(k parse.Kind) error {
	switch k {
	case parse.Empty:
		return ErrEmpty
	case parse.MissingLeadingSlash:
		return ErrMissingLeadingSlash
	case parse.EmptyBraces:
		return ErrEmptyBraces
	case parse.UnbalancedBrace:
		return ErrUnbalancedBrace
	case parse.EmptyParentheses:
		return ErrEmptyParentheses
	case parse.UnbalancedParenthesis:
		return ErrUnbalancedParen
	case parse.EmptyParameter:
		return ErrEmptyParameter
	case parse.InvalidParameter:
		return ErrInvalidParameter
	case parse.DuplicateParameter:
		return ErrDuplicateParameter
	case parse.EmptyWildcard:
		return ErrEmptyWildcard
	case parse.EmptyConstraint:
		return ErrEmptyConstraint
	case parse.InvalidConstraint:
		return ErrInvalidConstraint
	case parse.TouchingParameters:
		return ErrTouchingParameters
	default:
		return ErrInvalidParameter
	}
}

// toTemplateError adapts a *parse.Error, wrapping the text it was raised
// against for [TemplateError.Render].
func toTemplateError(raw string, err error) error {
	pe, ok := err.(*parse.Error)
	if !ok {
		return err
	}
	return &TemplateError{
		Err:      parseKind(pe.Kind),
		Template: raw,
		Detail:   pe.Name,
		Span:     Span{Offset: pe.Offset, Length: pe.Length},
	}
}

// toTemplate converts a parse.Template (forward order) into the trie's
// reversed [Template] form.
func toTemplate(t parse.Template) Template {
	parts := make([]Part, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = Part{Bytes: p.Bytes, Name: p.Name, Constraint: p.Constraint, Kind: Kind(p.Kind)}
	}
	return reversed(t.Source, parts)
}

// looksEncoded reports whether raw contains a percent-encoding triple
// (path) or a punycode ACE label prefix (authority), either of which means
// the caller handed the router an encoded template instead of its decoded
// form. Route templates must be supplied decoded; an encoded one is
// rejected as EncodedPath / EncodedAuthority, not silently re-decoded.
func looksEncoded(dim dimension, raw string) bool {
	switch dim {
	case dimPath:
		for i := 0; i+2 < len(raw); i++ {
			if raw[i] == '%' && isHex(raw[i+1]) && isHex(raw[i+2]) {
				return true
			}
		}
		return false
	default:
		start := 0
		for i := 0; i <= len(raw); i++ {
			if i == len(raw) || raw[i] == '.' {
				label := raw[start:i]
				if hasACEPrefix(label) {
					return true
				}
				start = i + 1
			}
		}
		return false
	}
}

func hasACEPrefix(label string) bool {
	if len(label) < 4 {
		return false
	}
	return (label[0] == 'x' || label[0] == 'X') &&
		(label[1] == 'n' || label[1] == 'N') &&
		label[2] == '-' && label[3] == '-'
}

func isHex(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// parseTemplates parses raw under dim, returning every expanded alternative
// (path templates may expand to many via optional groups; authority always
// yields exactly one) as reversed [Template] values ready for trie
// insertion, or a *TemplateError. strictAuthority is ignored for dimPath;
// for dimAuthority it also rejects an ACE ("xn--") encoded label, per
// [WithStrictAuthorityEncoding].
func parseTemplates(dim dimension, raw string, strictAuthority bool) ([]Template, error) {
	reject := false
	switch {
	case dim == dimPath:
		reject = looksEncoded(dim, raw)
	case strictAuthority:
		reject = looksEncoded(dim, raw)
	}
	if reject {
		if dim == dimPath {
			return nil, &InsertError{Err: ErrEncodedPath, Pattern: raw}
		}
		return nil, &InsertError{Err: ErrEncodedAuthority, Pattern: raw}
	}

	if dim == dimPath {
		alts, err := parse.Path(raw)
		if err != nil {
			return nil, toTemplateError(raw, err)
		}
		out := make([]Template, len(alts))
		for i, a := range alts {
			out[i] = toTemplate(a)
		}
		return out, nil
	}

	alt, err := parse.Authority(raw)
	if err != nil {
		return nil, toTemplateError(raw, err)
	}
	lowercaseStaticParts(alt.Parts)
	return []Template{toTemplate(alt)}, nil
}

// lowercaseStaticParts folds the literal bytes of every static part to
// ASCII lowercase in place, so an authority template's static edges match
// search input normalized by [asciiutil.NormalizeAuthority] regardless of
// how the template or the request host was cased.
func lowercaseStaticParts(parts []parse.Part) {
	for i, p := range parts {
		if p.Kind == parse.PartStatic {
			parts[i].Bytes = asciiutil.ToLowerASCII(p.Bytes)
		}
	}
}
