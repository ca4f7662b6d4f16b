// Package token defines lexical token kinds for the whistle frontend.
// Invariants:
//   - Token.Text is the source text covered by Token.Span, except for
//     tokens produced by macro expansion, whose Span points at the use site.
//   - Built-in type names (i32, bool, none) are identifiers; they are
//     recognised by the checker, not the lexer.
//   - Preprocessor directives are lexed as a single Directive token that
//     spans the whole line.
package token
