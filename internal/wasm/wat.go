package wasm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToText decodes b and renders it in the WebAssembly text format. The
// output is deterministic: the same bytes always produce the same text.
func ToText(b []byte) (string, error) {
	m, err := Decode(b)
	if err != nil {
		return "", err
	}
	return m.Text()
}

// Text renders a decoded module. Instructions are printed flat, one per
// line, with nested blocks indented.
func (m *Module) Text() (string, error) {
	w := &watWriter{}
	w.line(0, "(module")
	for i, ft := range m.Types {
		w.line(1, fmt.Sprintf("(type (;%d;) (func%s))", i, signature(ft)))
	}

	var funcIdx, tableIdx, memIdx, globalIdx int
	for _, imp := range m.Imports {
		var desc string
		switch imp.Kind {
		case ExternFunc:
			desc = fmt.Sprintf("(func (;%d;) (type %d))", funcIdx, imp.TypeIndex)
			funcIdx++
		case ExternTable:
			desc = fmt.Sprintf("(table (;%d;) %s %s)", tableIdx, limits(imp.Table.Limits), imp.Table.Elem)
			tableIdx++
		case ExternMemory:
			desc = fmt.Sprintf("(memory (;%d;) %s)", memIdx, limits(imp.Memory))
			memIdx++
		case ExternGlobal:
			desc = fmt.Sprintf("(global (;%d;) %s)", globalIdx, globalType(imp.Global))
			globalIdx++
		}
		w.line(1, fmt.Sprintf("(import %s %s %s)", quote([]byte(imp.Module)), quote([]byte(imp.Name)), desc))
	}

	for i, typeIdx := range m.Funcs {
		if err := w.function(funcIdx, typeIdx, m.Types[typeIdx], m.Codes[i]); err != nil {
			return "", err
		}
		funcIdx++
	}
	for _, t := range m.Tables {
		w.line(1, fmt.Sprintf("(table (;%d;) %s %s)", tableIdx, limits(t.Limits), t.Elem))
		tableIdx++
	}
	for _, l := range m.Memories {
		w.line(1, fmt.Sprintf("(memory (;%d;) %s)", memIdx, limits(l)))
		memIdx++
	}
	for _, g := range m.Globals {
		init, err := constText(g.Init)
		if err != nil {
			return "", err
		}
		w.line(1, fmt.Sprintf("(global (;%d;) %s %s)", globalIdx, globalType(g.Type), init))
		globalIdx++
	}
	for _, e := range m.Exports {
		w.line(1, fmt.Sprintf("(export %s (%s %d))", quote([]byte(e.Name)), e.Kind, e.Index))
	}
	if m.Start != nil {
		w.line(1, fmt.Sprintf("(start %d)", *m.Start))
	}
	for i, e := range m.Elems {
		w.line(1, fmt.Sprintf("(elem (;%d;) (@raw %s))", i, quote(e.Raw)))
	}
	for i, d := range m.Data {
		switch {
		case d.Passive:
			w.line(1, fmt.Sprintf("(data (;%d;) %s)", i, quote(d.Init)))
		default:
			offset, err := constText(d.Offset)
			if err != nil {
				return "", err
			}
			mem := ""
			if d.Memory != 0 {
				mem = fmt.Sprintf(" (memory %d)", d.Memory)
			}
			w.line(1, fmt.Sprintf("(data (;%d;)%s %s %s)", i, mem, offset, quote(d.Init)))
		}
	}
	for _, c := range m.Customs {
		w.line(1, fmt.Sprintf("(@custom %s %s)", quote([]byte(c.Name)), quote(c.Data)))
	}
	w.close()
	return w.String(), nil
}

type watWriter struct {
	strings.Builder
}

func (w *watWriter) line(indent int, s string) {
	if w.Len() > 0 {
		w.WriteByte('\n')
	}
	w.WriteString(strings.Repeat("  ", indent))
	w.WriteString(s)
}

func (w *watWriter) close() {
	w.WriteString(")\n")
}

func (w *watWriter) function(idx int, typeIdx uint32, ft FuncType, code Code) error {
	instrs, err := DecodeBody(code.Body)
	if err != nil {
		return err
	}
	w.line(1, fmt.Sprintf("(func (;%d;) (type %d)%s", idx, typeIdx, signature(ft)))
	if len(code.Locals) > 0 {
		var locals []string
		for _, l := range code.Locals {
			for i := uint32(0); i < l.Count; i++ {
				locals = append(locals, l.Type.String())
			}
		}
		w.line(2, "(local "+strings.Join(locals, " ")+")")
	}
	depth := 0
	// the final end closes the function and is rendered as ')'
	for _, in := range instrs[:len(instrs)-1] {
		switch in.Op {
		case OpEnd:
			depth--
			w.line(2+depth, "end")
			continue
		case OpElse:
			w.line(2+depth-1, "else")
			continue
		}
		w.line(2+depth, instrText(in, depth))
		if in.Op == OpBlock || in.Op == OpLoop || in.Op == OpIf {
			depth++
		}
	}
	w.WriteByte(')')
	return nil
}

func signature(ft FuncType) string {
	var b strings.Builder
	if len(ft.Params) > 0 {
		b.WriteString(" (param")
		for _, p := range ft.Params {
			b.WriteString(" " + p.String())
		}
		b.WriteByte(')')
	}
	if len(ft.Results) > 0 {
		b.WriteString(" (result")
		for _, r := range ft.Results {
			b.WriteString(" " + r.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}

func limits(l Limits) string {
	if l.HasMax {
		return fmt.Sprintf("%d %d", l.Min, l.Max)
	}
	return strconv.FormatUint(uint64(l.Min), 10)
}

func globalType(g GlobalType) string {
	if g.Mutable {
		return "(mut " + g.Type.String() + ")"
	}
	return g.Type.String()
}

func constText(expr []byte) (string, error) {
	instrs, err := DecodeBody(expr)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(instrs)-1)
	for _, in := range instrs[:len(instrs)-1] {
		parts = append(parts, instrText(in, 0))
	}
	return "(" + strings.Join(parts, " ") + ")", nil
}

func instrText(in Instr, depth int) string {
	switch in.imm {
	case immNone, immMemIdx, immMemCopy:
		return in.Name
	case immBlock:
		s := in.Name
		switch {
		case in.BlockIndex:
			s += fmt.Sprintf(" (type %d)", in.Block)
		case byte(in.Block) != BlockEmpty:
			s += " (result " + ValType(in.Block).String() + ")"
		}
		return fmt.Sprintf("%s  ;; label = @%d", s, depth+1)
	case immMemArg:
		s := in.Name
		if in.Args[1] != 0 {
			s += fmt.Sprintf(" offset=%d", in.Args[1])
		}
		if in.Args[0] != ops[in.Op].align {
			s += fmt.Sprintf(" align=%d", uint64(1)<<min(in.Args[0], 63))
		}
		return s
	case immI32, immI64:
		return in.Name + " " + strconv.FormatInt(in.Int, 10)
	case immF32:
		return in.Name + " " + floatText(float64(math.Float32frombits(uint32(in.Bits))), 32)
	case immF64:
		return in.Name + " " + floatText(math.Float64frombits(in.Bits), 64)
	case immSelectT:
		return in.Name + " (result " + in.Types[0].String() + ")"
	case immRefType:
		if in.Types[0] == FuncRef {
			return in.Name + " func"
		}
		return in.Name + " extern"
	case immCallIndirect:
		if in.Args[1] != 0 {
			return fmt.Sprintf("%s %d (type %d)", in.Name, in.Args[1], in.Args[0])
		}
		return fmt.Sprintf("%s (type %d)", in.Name, in.Args[0])
	case immTableInit:
		if in.Args[1] != 0 {
			return fmt.Sprintf("%s %d %d", in.Name, in.Args[1], in.Args[0])
		}
		return fmt.Sprintf("%s %d", in.Name, in.Args[0])
	}
	parts := make([]string, 0, len(in.Args)+1)
	parts = append(parts, in.Name)
	for _, a := range in.Args {
		parts = append(parts, strconv.FormatUint(uint64(a), 10))
	}
	return strings.Join(parts, " ")
}

func floatText(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// quote renders bytes as a text-format string literal.
func quote(b []byte) string {
	const hex = "0123456789abcdef"
	var s strings.Builder
	s.WriteByte('"')
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			s.WriteByte('\\')
			s.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			s.WriteByte(c)
		default:
			s.WriteByte('\\')
			s.WriteByte(hex[c>>4])
			s.WriteByte(hex[c&0xf])
		}
	}
	s.WriteByte('"')
	return s.String()
}
