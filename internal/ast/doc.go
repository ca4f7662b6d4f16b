// Package ast defines the syntax tree produced by the parser.
//
// The tree is annotated in place by the checker: expressions receive a
// Type, names are bound to local slots and calls to their targets. Code
// generation reads only annotated trees.
package ast
