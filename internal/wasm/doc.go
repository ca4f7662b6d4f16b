// Package wasm encodes, decodes and disassembles WebAssembly binary
// modules.
//
// The decoder accepts the MVP binary format plus sign-extension,
// saturating truncation, bulk memory and reference instructions. Anything
// it cannot account for is rejected with an error wrapping ErrMalformed;
// it never panics on hostile input.
package wasm
