package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyChanges(t *testing.T) {
	text := "fn main() {\n\treturn 0;\n}\n"
	got := applyChanges(text, []textDocumentContentChangeEvent{{
		Range: &lspRange{Start: position{Line: 1, Character: 8}, End: position{Line: 1, Character: 9}},
		Text:  "42",
	}})
	assert.Equal(t, "fn main() {\n\treturn 42;\n}\n", got)

	got = applyChanges(got, []textDocumentContentChangeEvent{
		{Text: "replaced"},
		{Range: &lspRange{Start: position{Line: 0, Character: 0}, End: position{Line: 0, Character: 0}}, Text: "// "},
	})
	assert.Equal(t, "// replaced", got)

	got = applyChanges("abc", []textDocumentContentChangeEvent{{
		Range: &lspRange{Start: position{Line: 9, Character: 0}, End: position{Line: 9, Character: 4}},
		Text:  "!",
	}})
	assert.Equal(t, "abc!", got, "positions past the end clamp")
}

func TestLineIndexUTF16(t *testing.T) {
	text := "a\"\U0001F600\"b\nπx"
	li := newLineIndex(text)

	// The emoji takes two UTF-16 units and four bytes.
	bOff := len("a\"\U0001F600\"")
	assert.Equal(t, position{Line: 0, Character: 5}, li.position(bOff))
	assert.Equal(t, bOff, li.offset(position{Line: 0, Character: 5}))

	xOff := len("a\"\U0001F600\"b\nπ")
	assert.Equal(t, position{Line: 1, Character: 1}, li.position(xOff))
	assert.Equal(t, xOff, li.offset(position{Line: 1, Character: 1}))

	assert.Equal(t, position{Line: 1, Character: 2}, li.position(len(text)+10))
	assert.Equal(t, len("a\"\U0001F600\"b"), li.offset(position{Line: 0, Character: 99}))
}
