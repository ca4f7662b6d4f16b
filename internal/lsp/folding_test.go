package lsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldingRangesBraces(t *testing.T) {
	src := strings.Join([]string{
		"fn main() {",
		"    val s = \"{\";",
		"    if true {",
		"        print(s);",
		"    }",
		"    while false { }",
		"}",
		"}",
	}, "\n")
	ranges := buildFoldingRanges(src)
	assert.Equal(t, []foldingRange{
		{StartLine: 0, EndLine: 6},
		{StartLine: 2, EndLine: 4},
	}, ranges)
}
