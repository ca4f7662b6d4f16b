package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/ast"
	"whistle/internal/diag"
	"whistle/internal/preprocess"
	"whistle/internal/token"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	stream := preprocess.New(diag.BagReporter{Bag: bag, Stage: diag.StagePreprocess}).Process(0, src)
	require.False(t, bag.HasErrors(), "preprocess: %v", bag.Items())
	file, ok := ParseFile(stream, diag.BagReporter{Bag: bag, Stage: diag.StageParse})
	if ok {
		require.NotNil(t, file)
	} else {
		require.Nil(t, file)
	}
	return file, bag
}

func TestParseFunctions(t *testing.T) {
	file, bag := parse(t, `
fn add(a: i32, b: i32,): i32 { return a + b; }
export fn main() { print("hi"); return 0; }
fn nothing(): none { return; }
`)
	require.Equal(t, 0, bag.Len())
	require.Len(t, file.Funcs, 3)

	add := file.Funcs[0]
	assert.Equal(t, "add", add.Name.Name)
	require.Len(t, add.Params, 2)
	assert.Equal(t, "b", add.Params[1].Name.Name)
	assert.Equal(t, "i32", add.Params[1].Type.Name)
	assert.Equal(t, "i32", add.Result.Name)

	main := file.Func("main")
	require.NotNil(t, main)
	assert.True(t, main.Export)
	assert.Nil(t, main.Result)
	require.Len(t, main.Body.Stmts, 2)
	call := main.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.Call)
	assert.Equal(t, "print", call.Callee.Name)
	assert.Equal(t, "hi", call.Args[0].(*ast.StringLit).Value)

	ret := file.Func("nothing").Body.Stmts[0].(*ast.ReturnStmt)
	assert.Nil(t, ret.Value)
}

func TestParsePrecedence(t *testing.T) {
	file, bag := parse(t, "fn main() { return 1 + 2 * 3 - -4 < 5 || !true && x == 1; }")
	require.Equal(t, 0, bag.Len())
	ret := file.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt)

	or := ret.Value.(*ast.Binary)
	require.Equal(t, token.OrOr, or.Op)
	lt := or.X.(*ast.Binary)
	require.Equal(t, token.Lt, lt.Op)
	sub := lt.X.(*ast.Binary)
	require.Equal(t, token.Minus, sub.Op)
	add := sub.X.(*ast.Binary)
	require.Equal(t, token.Plus, add.Op)
	assert.Equal(t, token.Star, add.Y.(*ast.Binary).Op)
	assert.Equal(t, token.Minus, sub.Y.(*ast.Unary).Op)

	and := or.Y.(*ast.Binary)
	require.Equal(t, token.AndAnd, and.Op)
	assert.Equal(t, token.Bang, and.X.(*ast.Unary).Op)
	assert.Equal(t, token.EqEq, and.Y.(*ast.Binary).Op)
}

func TestParseStatements(t *testing.T) {
	file, bag := parse(t, `
fn main() {
	var i: i32 = 0;
	val limit = 10;
	while i < limit {
		if i == 3 { i = i + 2; continue; } else if i > 8 { break; } else { i = i + 1; }
	}
	{ print_i32(i); }
	return i;
}`)
	require.Equal(t, 0, bag.Len())
	stmts := file.Funcs[0].Body.Stmts
	require.Len(t, stmts, 5)

	v := stmts[0].(*ast.VarStmt)
	assert.True(t, v.Mutable)
	assert.Equal(t, "i32", v.Type.Name)
	assert.False(t, stmts[1].(*ast.VarStmt).Mutable)

	loop := stmts[2].(*ast.WhileStmt)
	ifs := loop.Body.Stmts[0].(*ast.IfStmt)
	assign := ifs.Then.Stmts[0].(*ast.AssignStmt)
	assert.Equal(t, "i", assign.Target.Name)
	assert.IsType(t, &ast.ContinueStmt{}, ifs.Then.Stmts[1])
	elif := ifs.Else.(*ast.IfStmt)
	assert.IsType(t, &ast.BreakStmt{}, elif.Then.Stmts[0])
	assert.IsType(t, &ast.Block{}, elif.Else)
	assert.IsType(t, &ast.Block{}, stmts[3])
}

func TestParseIntLiterals(t *testing.T) {
	file, bag := parse(t, "fn main() { return 1_000 + 99999999999999999999999; }")
	require.Equal(t, 0, bag.Len())
	bin := file.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt).Value.(*ast.Binary)
	assert.Equal(t, uint64(1000), bin.X.(*ast.IntLit).Value)
	assert.True(t, bin.Y.(*ast.IntLit).Overflow)
}

func TestMacroExpansionFeedsParser(t *testing.T) {
	file, bag := parse(t, "#define ANSWER 40 + 2\nfn main() { return ANSWER; }")
	require.Equal(t, 0, bag.Len())
	ret := file.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt)
	assert.Equal(t, token.Plus, ret.Value.(*ast.Binary).Op)
}

func TestParseErrorsStopAtFirst(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing semicolon", "fn main() { return 0 }", diag.SynExpectSemicolon},
		{"top level junk", "var x = 1;", diag.SynUnexpectedToken},
		{"unclosed block", "fn main() { return 0;", diag.SynUnclosedBrace},
		{"unclosed call", "fn main() { f(1, 2", diag.SynUnclosedParen},
		{"missing expression", "fn main() { return +; }", diag.SynExpectExpression},
		{"bad assignment", "fn main() { 1 = 2; }", diag.SynInvalidAssign},
		{"missing param type", "fn f(a) {}", diag.SynExpectType},
		{"missing name", "fn (a: i32) {}", diag.SynExpectIdentifier},
		{"many errors", "fn main() { return 0 } fn g( {", diag.SynExpectSemicolon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := parse(t, tt.src)
			require.Equal(t, 1, bag.Len())
			d := bag.Items()[0]
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, diag.StageParse, d.Stage)
			assert.True(t, d.IsError())
		})
	}
}

func TestSemicolonErrorPointsAfterLastToken(t *testing.T) {
	_, bag := parse(t, "fn main() { return 0")
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.SynExpectSemicolon, d.Code)
	assert.Equal(t, uint32(20), d.Primary.Start)
}
