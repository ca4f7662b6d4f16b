// Package diag defines the diagnostic model shared by every compilation stage.
//
// A Diagnostic records which stage produced it, how severe it is, a stable
// numeric Code, a short human message and, optionally, the source span it
// refers to. Stages emit diagnostics through a Reporter so they never depend
// on how diagnostics are stored; BagReporter appends them to a Bag, which
// preserves emission order.
//
// Package diag does not format or print anything. Rendering lives in
// internal/diagfmt and in the LSP server.
package diag
