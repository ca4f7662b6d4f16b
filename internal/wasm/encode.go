package wasm

import (
	"fmt"

	"fortio.org/safecast"
)

const (
	secCustom    byte = 0
	secType      byte = 1
	secImport    byte = 2
	secFunction  byte = 3
	secTable     byte = 4
	secMemory    byte = 5
	secGlobal    byte = 6
	secExport    byte = 7
	secStart     byte = 8
	secElement   byte = 9
	secCode      byte = 10
	secData      byte = 11
	secDataCount byte = 12
)

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("wasm: length overflow: %w", err))
	}
	return v
}

func appendU32(b []byte, v uint32) []byte {
	return AppendUleb128(b, uint64(v))
}

func appendLen(b []byte, n int) []byte {
	return appendU32(b, u32(n))
}

func appendName(b []byte, s string) []byte {
	b = appendLen(b, len(s))
	return append(b, s...)
}

func appendLimits(b []byte, l Limits) []byte {
	if l.HasMax {
		b = append(b, 0x01)
		b = appendU32(b, l.Min)
		return appendU32(b, l.Max)
	}
	b = append(b, 0x00)
	return appendU32(b, l.Min)
}

func appendSection(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = appendLen(out, len(payload))
	return append(out, payload...)
}

// Encode serializes the module. Empty sections are omitted; custom
// sections are appended at the end.
func (m *Module) Encode() []byte {
	out := make([]byte, 0, 256)
	out = append(out, magic...)
	out = append(out, version...)

	if len(m.Types) > 0 {
		p := appendLen(nil, len(m.Types))
		for _, ft := range m.Types {
			p = append(p, 0x60)
			p = appendLen(p, len(ft.Params))
			for _, t := range ft.Params {
				p = append(p, byte(t))
			}
			p = appendLen(p, len(ft.Results))
			for _, t := range ft.Results {
				p = append(p, byte(t))
			}
		}
		out = appendSection(out, secType, p)
	}
	if len(m.Imports) > 0 {
		p := appendLen(nil, len(m.Imports))
		for _, imp := range m.Imports {
			p = appendName(p, imp.Module)
			p = appendName(p, imp.Name)
			p = append(p, byte(imp.Kind))
			switch imp.Kind {
			case ExternFunc:
				p = appendU32(p, imp.TypeIndex)
			case ExternTable:
				p = append(p, byte(imp.Table.Elem))
				p = appendLimits(p, imp.Table.Limits)
			case ExternMemory:
				p = appendLimits(p, imp.Memory)
			case ExternGlobal:
				p = append(p, byte(imp.Global.Type), boolByte(imp.Global.Mutable))
			}
		}
		out = appendSection(out, secImport, p)
	}
	if len(m.Funcs) > 0 {
		p := appendLen(nil, len(m.Funcs))
		for _, idx := range m.Funcs {
			p = appendU32(p, idx)
		}
		out = appendSection(out, secFunction, p)
	}
	if len(m.Tables) > 0 {
		p := appendLen(nil, len(m.Tables))
		for _, t := range m.Tables {
			p = append(p, byte(t.Elem))
			p = appendLimits(p, t.Limits)
		}
		out = appendSection(out, secTable, p)
	}
	if len(m.Memories) > 0 {
		p := appendLen(nil, len(m.Memories))
		for _, l := range m.Memories {
			p = appendLimits(p, l)
		}
		out = appendSection(out, secMemory, p)
	}
	if len(m.Globals) > 0 {
		p := appendLen(nil, len(m.Globals))
		for _, g := range m.Globals {
			p = append(p, byte(g.Type.Type), boolByte(g.Type.Mutable))
			p = append(p, g.Init...)
		}
		out = appendSection(out, secGlobal, p)
	}
	if len(m.Exports) > 0 {
		p := appendLen(nil, len(m.Exports))
		for _, e := range m.Exports {
			p = appendName(p, e.Name)
			p = append(p, byte(e.Kind))
			p = appendU32(p, e.Index)
		}
		out = appendSection(out, secExport, p)
	}
	if m.Start != nil {
		out = appendSection(out, secStart, appendU32(nil, *m.Start))
	}
	if len(m.Elems) > 0 {
		p := appendLen(nil, len(m.Elems))
		for _, e := range m.Elems {
			p = append(p, e.Raw...)
		}
		out = appendSection(out, secElement, p)
	}
	if m.DataCount != nil {
		out = appendSection(out, secDataCount, appendU32(nil, *m.DataCount))
	}
	if len(m.Codes) > 0 {
		p := appendLen(nil, len(m.Codes))
		for _, c := range m.Codes {
			body := appendLen(nil, len(c.Locals))
			for _, l := range c.Locals {
				body = appendU32(body, l.Count)
				body = append(body, byte(l.Type))
			}
			body = append(body, c.Body...)
			p = appendLen(p, len(body))
			p = append(p, body...)
		}
		out = appendSection(out, secCode, p)
	}
	if len(m.Data) > 0 {
		p := appendLen(nil, len(m.Data))
		for _, d := range m.Data {
			switch {
			case d.Passive:
				p = append(p, 0x01)
			case d.Memory != 0:
				p = append(p, 0x02)
				p = appendU32(p, d.Memory)
				p = append(p, d.Offset...)
			default:
				p = append(p, 0x00)
				p = append(p, d.Offset...)
			}
			p = appendLen(p, len(d.Init))
			p = append(p, d.Init...)
		}
		out = appendSection(out, secData, p)
	}
	for _, c := range m.Customs {
		out = appendSection(out, secCustom, append(appendName(nil, c.Name), c.Data...))
	}
	return out
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// ConstI32 returns the constant expression `i32.const v; end`.
func ConstI32(v int32) []byte {
	b := []byte{OpI32Const}
	b = AppendSleb128(b, int64(v))
	return append(b, OpEnd)
}
