package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddUnit(NewUnit("a.whi", "ab\ncd\n\nef"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{2, LineCol{Line: 1, Col: 3}},
		{3, LineCol{Line: 2, Col: 1}},
		{4, LineCol{Line: 2, Col: 2}},
		{6, LineCol{Line: 3, Col: 1}},
		{7, LineCol{Line: 4, Col: 1}},
		{9, LineCol{Line: 4, Col: 3}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		assert.Equal(t, tt.want, start, "offset %d", tt.off)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddUnit(NewUnit("a.whi", "first\nsecond\nthird"))
	f := fs.Get(id)
	require.NotNil(t, f)

	assert.Equal(t, "first", f.GetLine(1))
	assert.Equal(t, "second", f.GetLine(2))
	assert.Equal(t, "third", f.GetLine(3))
	assert.Equal(t, "", f.GetLine(4))
	assert.Equal(t, "", f.GetLine(0))
}

func TestUnknownFileResolvesToZero(t *testing.T) {
	fs := NewFileSet()
	start, end := fs.Resolve(Span{File: 7, Start: 1, End: 2})
	assert.Equal(t, LineCol{}, start)
	assert.Equal(t, LineCol{}, end)
	assert.Nil(t, fs.Get(7))
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	assert.True(t, changed)
	assert.Equal(t, "a\nb\rc", string(out))

	out, had := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	assert.True(t, had)
	assert.Equal(t, "x", string(out))
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 6}
	b := Span{File: 1, Start: 2, End: 5}
	assert.Equal(t, Span{File: 1, Start: 2, End: 6}, a.Cover(b))
	assert.Equal(t, a, a.Cover(Span{File: 2, Start: 0, End: 10}))
}
