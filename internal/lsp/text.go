package lsp

import (
	"sort"
	"unicode/utf8"
)

// applyChanges folds didChange events into text. Events without a range
// replace the whole document.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		idx := newLineIndex(text)
		start := idx.offset(change.Range.Start)
		end := idx.offset(change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// lineIndex converts between byte offsets and LSP positions, which count
// UTF-16 code units.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{text: text, starts: starts}
}

func (li *lineIndex) lineEnd(line int) int {
	if line+1 < len(li.starts) {
		return li.starts[line+1] - 1
	}
	return len(li.text)
}

// offset clamps pos into the text.
func (li *lineIndex) offset(pos position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(li.starts) {
		return len(li.text)
	}
	off := li.starts[pos.Line]
	end := li.lineEnd(pos.Line)
	units := 0
	for off < end && units < pos.Character {
		r, size := utf8.DecodeRuneInString(li.text[off:end])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		off += size
	}
	return off
}

func (li *lineIndex) position(offset int) position {
	offset = max(0, min(offset, len(li.text)))
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	units := 0
	for off := li.starts[line]; off < offset; {
		r, size := utf8.DecodeRuneInString(li.text[off:offset])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += size
	}
	return position{Line: line, Character: units}
}

func (li *lineIndex) rangeOf(start, end int) lspRange {
	return lspRange{Start: li.position(start), End: li.position(end)}
}
