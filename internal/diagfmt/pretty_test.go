package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/diag"
	"whistle/internal/source"
)

func fixture() (*source.FileSet, []diag.Diagnostic) {
	fs := source.NewFileSet()
	id := fs.Add("/home/user/project/src/main.wh", []byte("fn main() {\n\treturn missing;\n}\n"), source.FileVirtual)
	return fs, []diag.Diagnostic{
		diag.New(diag.StageCheck, diag.SevError, diag.SemaUnresolvedSymbol,
			source.Span{File: id, Start: 20, End: 27}, `unresolved name "missing"`),
		diag.NewUnlocated(diag.StageGenerate, diag.SevWarning, diag.GenMissingEntry, "no function named main"),
	}
}

func TestPrettyLayout(t *testing.T) {
	fs, diags := fixture()
	var buf bytes.Buffer
	Pretty(&buf, diags, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})

	want := "main.wh:2:9: ERROR SEM3005: unresolved name \"missing\"\n" +
		"1 | fn main() {\n" +
		"2 | \treturn missing;\n" +
		"  | \t       ^~~~~~~\n" +
		"main.wh: WARNING GEN4001: no function named main\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyPathModesAndLimit(t *testing.T) {
	fs, diags := fixture()

	var buf bytes.Buffer
	Pretty(&buf, diags, fs, PrettyOpts{PathMode: PathModeAbsolute, Max: 1})
	assert.Contains(t, buf.String(), "/home/user/project/src/main.wh:2:9:")
	assert.Contains(t, buf.String(), "... and 1 more")
	assert.NotContains(t, buf.String(), "GEN4001")
}

func TestPrettyColor(t *testing.T) {
	fs, diags := fixture()
	var plain, colored bytes.Buffer
	Pretty(&plain, diags, fs, PrettyOpts{})
	Pretty(&colored, diags, fs, PrettyOpts{Color: true})
	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
}

func TestJSON(t *testing.T) {
	fs, diags := fixture()
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, diags, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Diagnostics, 2)
	first := out.Diagnostics[0]
	assert.Equal(t, "check", first.Stage)
	assert.Equal(t, "SEM3005", first.Code)
	require.NotNil(t, first.Location)
	assert.Equal(t, "main.wh", first.Location.File)
	assert.Equal(t, uint32(2), first.Location.StartLine)
	assert.Equal(t, uint32(9), first.Location.StartCol)
	assert.Nil(t, out.Diagnostics[1].Location)
}

func TestParsePathMode(t *testing.T) {
	m, ok := ParsePathMode("basename")
	assert.True(t, ok)
	assert.Equal(t, PathModeBasename, m)
	_, ok = ParsePathMode("sideways")
	assert.False(t, ok)
}
