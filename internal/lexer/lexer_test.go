package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/diag"
	"whistle/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	lx := New(0, src, 0, diag.BagReporter{Bag: bag, Stage: diag.StagePreprocess})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexFunction(t *testing.T) {
	toks, bag := lexAll(t, "fn main() { return 0; }")
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.RParen, token.LBrace,
		token.KwReturn, token.IntLit, token.Semicolon, token.RBrace, token.EOF,
	}, kinds(toks))
	assert.Equal(t, "main", toks[1].Text)
	assert.Equal(t, uint32(3), toks[1].Span.Start)
	assert.Equal(t, uint32(7), toks[1].Span.End)
}

func TestLexOperators(t *testing.T) {
	toks, bag := lexAll(t, "a <= b && c != d || !e == f >= g % h")
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, []token.Kind{
		token.Ident, token.LtEq, token.Ident, token.AndAnd, token.Ident, token.BangEq,
		token.Ident, token.OrOr, token.Bang, token.Ident, token.EqEq, token.Ident,
		token.GtEq, token.Ident, token.Percent, token.Ident, token.EOF,
	}, kinds(toks))
}

func TestLexCommentsAndDirectives(t *testing.T) {
	src := "// line\n#define N 10\n/* block\n */ x # y"
	toks, bag := lexAll(t, src)
	assert.Equal(t, []token.Kind{token.Directive, token.Ident, token.Invalid, token.Ident, token.EOF}, kinds(toks))
	assert.Equal(t, "#define N 10", toks[0].Text)
	require.Equal(t, 1, bag.Len(), "# in the middle of a line is not a directive")
	assert.Equal(t, diag.LexUnknownChar, bag.Items()[0].Code)
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unterminated string", `"abc`, diag.LexUnterminatedString},
		{"string across newline", "\"abc\nx\"", diag.LexUnterminatedString},
		{"unterminated comment", "/* abc", diag.LexUnterminatedBlock},
		{"bad number", "12ab", diag.LexBadNumber},
		{"unknown char", "@", diag.LexUnknownChar},
		{"utf8 char", "é", diag.LexUnknownChar},
		{"bad escape", `"a\q"`, diag.LexBadEscape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lexAll(t, tt.src)
			require.GreaterOrEqual(t, bag.Len(), 1)
			assert.Equal(t, tt.code, bag.Items()[0].Code)
			assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
		})
	}
}

func TestLexBaseOffset(t *testing.T) {
	bag := diag.NewBag()
	toks := New(2, "x", 40, diag.BagReporter{Bag: bag}).All()
	assert.Equal(t, uint32(40), toks[0].Span.Start)
	assert.Equal(t, uint32(2), uint32(toks[0].Span.File))
}

func TestUnquote(t *testing.T) {
	got, err := Unquote(`"a\tb\n\x41\\\""`)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nA\\\"", got)

	_, err = Unquote(`"\q"`)
	assert.Error(t, err)
	_, err = Unquote(`"\x4"`)
	assert.Error(t, err)
	_, err = Unquote(`abc`)
	assert.Error(t, err)
}
