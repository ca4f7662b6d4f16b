package lsp

import (
	"encoding/json"
	"sort"

	"whistle/internal/diag"
	"whistle/internal/lexer"
	"whistle/internal/token"
)

func (s *Server) handleFoldingRange(msg *rpcMessage) error {
	var params foldingRangeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	st, ok := s.store.Get(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []foldingRange{})
	}
	return s.sendResponse(msg.ID, buildFoldingRanges(st.Text))
}

// buildFoldingRanges folds every brace pair spanning more than one line.
// Unbalanced braces are ignored.
func buildFoldingRanges(text string) []foldingRange {
	toks := lexer.New(0, text, 0, diag.BagReporter{Bag: diag.NewBag()}).All()
	li := newLineIndex(text)
	stack := make([]int, 0, 8)
	ranges := make([]foldingRange, 0)
	for _, tok := range toks {
		switch tok.Kind {
		case token.LBrace:
			stack = append(stack, li.position(offset(tok.Span.Start)).Line)
		case token.RBrace:
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			end := li.position(offset(tok.Span.Start)).Line
			if start >= end {
				continue
			}
			ranges = append(ranges, foldingRange{StartLine: start, EndLine: end})
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].StartLine == ranges[j].StartLine {
			return ranges[i].EndLine < ranges[j].EndLine
		}
		return ranges[i].StartLine < ranges[j].StartLine
	})
	return ranges
}
