package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/diag"
	"whistle/internal/token"
)

func run(t *testing.T, src string) (*token.Stream, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	p := New(diag.BagReporter{Bag: bag, Stage: diag.StagePreprocess})
	return p.Process(0, src), bag
}

func texts(s *token.Stream) []string {
	out := make([]string, 0, len(s.Tokens))
	for _, tok := range s.Tokens {
		if tok.Kind == token.EOF {
			break
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestDefineExpands(t *testing.T) {
	s, bag := run(t, "#define LIMIT 10 + 2\nreturn LIMIT;")
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, []string{"return", "10", "+", "2", ";"}, texts(s))
	// expanded tokens point at the use site
	assert.Equal(t, s.Tokens[1].Span, s.Tokens[2].Span)
	assert.Equal(t, uint32(28), s.Tokens[1].Span.Start)
}

func TestMacroOnlyAfterDefinition(t *testing.T) {
	s, bag := run(t, "N\n#define N 1\nN\n#undef N\nN")
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, []string{"N", "1", "N"}, texts(s))
}

func TestNestedAndSelfReferentialMacros(t *testing.T) {
	s, bag := run(t, "#define A B + A\n#define B 2\nA")
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, []string{"2", "+", "A"}, texts(s))
}

func TestDirectiveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
		sev  diag.Severity
	}{
		{"unknown directive", "#include \"x\"", diag.PreUnknownDirective, diag.SevError},
		{"missing name", "#define", diag.PreMalformedDefine, diag.SevError},
		{"function-like", "#define F(x) x", diag.PreMalformedDefine, diag.SevError},
		{"redefinition", "#define A 1\n#define A 2", diag.PreMacroRedefined, diag.SevWarning},
		{"undef unknown", "#undef Z", diag.PreUndefUnknown, diag.SevWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := run(t, tt.src)
			require.Equal(t, 1, bag.Len())
			assert.Equal(t, tt.code, bag.Items()[0].Code)
			assert.Equal(t, tt.sev, bag.Items()[0].Severity)
			assert.Equal(t, diag.StagePreprocess, bag.Items()[0].Stage)
		})
	}
}

func TestStreamAlwaysEndsWithEOF(t *testing.T) {
	s, _ := run(t, "")
	require.Equal(t, 1, s.Len())
	assert.Equal(t, token.EOF, s.Tokens[0].Kind)
}
