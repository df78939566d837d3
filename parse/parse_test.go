package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathStaticTemplate(t *testing.T) {
	alts, err := Path("/users")
	require.NoError(t, err)
	require.Len(t, alts, 1)
	require.Len(t, alts[0].Parts, 1)
	assert.Equal(t, Part{Kind: PartStatic, Bytes: "/users"}, alts[0].Parts[0])
}

func TestPathDynamicAndWildcardAndConstraint(t *testing.T) {
	alts, err := Path("/users/{id:numeric}/files/{*rest}")
	require.NoError(t, err)
	require.Len(t, alts, 1)
	parts := alts[0].Parts
	require.Len(t, parts, 4)
	assert.Equal(t, Part{Kind: PartStatic, Bytes: "/users/"}, parts[0])
	assert.Equal(t, Part{Kind: PartDynamic, Name: "id", Constraint: "numeric"}, parts[1])
	assert.Equal(t, Part{Kind: PartStatic, Bytes: "/files/"}, parts[2])
	assert.Equal(t, Part{Kind: PartWildcard, Name: "rest"}, parts[3])
}

func TestPathOptionalGroupExpandsToFourAlternatives(t *testing.T) {
	alts, err := Path("/a(/b)(/c)")
	require.NoError(t, err)
	require.Len(t, alts, 4)

	sources := make(map[string]bool, len(alts))
	for _, a := range alts {
		sources[a.Source] = true
	}
	assert.True(t, sources["/a"])
	assert.True(t, sources["/a/b"])
	assert.True(t, sources["/a/c"])
	assert.True(t, sources["/a/b/c"])
}

func TestPathNestedOptionalGroup(t *testing.T) {
	alts, err := Path("/a(/b(/c))")
	require.NoError(t, err)
	sources := make(map[string]bool, len(alts))
	for _, a := range alts {
		sources[a.Source] = true
	}
	assert.Len(t, alts, 3, "an inner group nested in an outer one contributes one extra alternative, not a second independent factor")
	assert.True(t, sources["/a"])
	assert.True(t, sources["/a/b"])
	assert.True(t, sources["/a/b/c"])
	assert.False(t, sources["/a/c"], "the inner group cannot appear without its enclosing group")
}

func TestPathEmptyExpansionBecomesRoot(t *testing.T) {
	alts, err := Path("(/a)")
	require.NoError(t, err)
	require.Len(t, alts, 2)
	sources := make(map[string]bool, len(alts))
	for _, a := range alts {
		sources[a.Source] = true
	}
	assert.True(t, sources["/"])
	assert.True(t, sources["/a"])
}

func TestPathEscapedBraceAndParen(t *testing.T) {
	alts, err := Path(`/a\(literal\)\{x\}`)
	require.NoError(t, err)
	require.Len(t, alts, 1)
	require.Len(t, alts[0].Parts, 1)
	assert.Equal(t, "/a(literal){x}", alts[0].Parts[0].Bytes)
}

func TestPathTouchingParametersRejected(t *testing.T) {
	_, err := Path("/{a}{b}")
	require.Error(t, err)
	pe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, TouchingParameters, pe.Kind)
}

func TestPathDuplicateParameterRejected(t *testing.T) {
	_, err := Path("/{id}/{id}")
	require.Error(t, err)
	pe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, DuplicateParameter, pe.Kind)
	assert.Equal(t, "id", pe.Name)
}

func TestPathErrorKinds(t *testing.T) {
	cases := []struct {
		name     string
		template string
		wantKind Kind
	}{
		{"empty", "", Empty},
		{"missing leading slash", "users", MissingLeadingSlash},
		{"empty braces", "/{}", EmptyBraces},
		{"unbalanced brace open", "/{id", UnbalancedBrace},
		{"unbalanced brace close", "/id}", UnbalancedBrace},
		{"empty parentheses", "/a()", EmptyParentheses},
		{"unbalanced parenthesis", "/a(b", UnbalancedParenthesis},
		{"empty parameter", "/{:numeric}", EmptyParameter},
		{"invalid parameter", "/{a/b}", InvalidParameter},
		{"empty wildcard", "/{*}", EmptyWildcard},
		{"empty constraint", "/{id:}", EmptyConstraint},
		{"invalid constraint", "/{id:a/b}", InvalidConstraint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Path(tc.template)
			require.Error(t, err)
			pe, ok := err.(*Error)
			require.True(t, ok)
			assert.Equal(t, tc.wantKind, pe.Kind)
		})
	}
}

func TestAuthorityStaticAndDynamic(t *testing.T) {
	tmpl, err := Authority("{tenant}.example.com")
	require.NoError(t, err)
	require.Len(t, tmpl.Parts, 2)
	assert.Equal(t, Part{Kind: PartDynamic, Name: "tenant"}, tmpl.Parts[0])
	assert.Equal(t, Part{Kind: PartStatic, Bytes: ".example.com"}, tmpl.Parts[1])
}

func TestAuthorityForbidsDotInParameterName(t *testing.T) {
	_, err := Authority("{a.b}.example.com")
	require.Error(t, err)
	pe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InvalidParameter, pe.Kind)
}

func TestAuthorityEmptyRejected(t *testing.T) {
	_, err := Authority("")
	require.Error(t, err)
	pe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, Empty, pe.Kind)
}

func TestAuthorityHasNoGroupSyntax(t *testing.T) {
	tmpl, err := Authority("a(b).com")
	require.NoError(t, err)
	require.Len(t, tmpl.Parts, 1)
	assert.Equal(t, "a(b).com", tmpl.Parts[0].Bytes, "parentheses are ordinary literal bytes in an authority template")
}
