package wasm

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Decode parses a binary module. Every failure wraps ErrMalformed.
func Decode(b []byte) (*Module, error) {
	if len(b) < 8 || !bytes.Equal(b[:4], magic) {
		return nil, fmt.Errorf("%w: missing magic header", ErrMalformed)
	}
	if !bytes.Equal(b[4:8], version) {
		return nil, fmt.Errorf("%w: unsupported version %x", ErrMalformed, b[4:8])
	}
	r := &byteReader{b: b, off: 8}
	m := &Module{}
	var (
		last      byte
		funcCount = -1
	)
	for !r.eof() {
		id, err := r.byte()
		if err != nil {
			return nil, err
		}
		size, err := r.u32()
		if err != nil {
			return nil, err
		}
		payload, err := r.bytes(size)
		if err != nil {
			return nil, err
		}
		if id != secCustom {
			if sectionOrder(id) <= sectionOrder(last) {
				return nil, fmt.Errorf("%w: section %d out of order", ErrMalformed, id)
			}
			last = id
		}
		sr := &byteReader{b: payload}
		if err := m.decodeSection(id, sr); err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
		if !sr.eof() {
			return nil, fmt.Errorf("%w: section %d has %d trailing bytes", ErrMalformed, id, len(payload)-sr.off)
		}
		if id == secFunction {
			funcCount = len(m.Funcs)
		}
	}
	if funcCount < 0 {
		funcCount = 0
	}
	if funcCount != len(m.Codes) {
		return nil, fmt.Errorf("%w: %d functions but %d bodies", ErrMalformed, funcCount, len(m.Codes))
	}
	if m.DataCount != nil && int(*m.DataCount) != len(m.Data) {
		return nil, fmt.Errorf("%w: data count %d does not match %d segments", ErrMalformed, *m.DataCount, len(m.Data))
	}
	if err := m.checkIndices(); err != nil {
		return nil, err
	}
	return m, nil
}

// sectionOrder ranks known sections; data count sits between element and
// code.
func sectionOrder(id byte) int {
	switch id {
	case secDataCount:
		return 10
	case secCode:
		return 11
	case secData:
		return 12
	case 0:
		return 0
	}
	return int(id)
}

func (m *Module) decodeSection(id byte, r *byteReader) error {
	switch id {
	case secCustom:
		name, err := r.name()
		if err != nil {
			return err
		}
		if !utf8.ValidString(name) {
			return fmt.Errorf("%w: custom section name is not UTF-8", ErrMalformed)
		}
		m.Customs = append(m.Customs, Custom{Name: name, Data: r.b[r.off:]})
		r.off = len(r.b)
		return nil
	case secType:
		return vec(r, func() error {
			form, err := r.byte()
			if err != nil {
				return err
			}
			if form != 0x60 {
				return fmt.Errorf("%w: bad function type form 0x%02x", ErrMalformed, form)
			}
			params, err := valTypes(r)
			if err != nil {
				return err
			}
			results, err := valTypes(r)
			if err != nil {
				return err
			}
			m.Types = append(m.Types, FuncType{Params: params, Results: results})
			return nil
		})
	case secImport:
		return vec(r, func() error {
			imp, err := decodeImport(r)
			if err != nil {
				return err
			}
			m.Imports = append(m.Imports, imp)
			return nil
		})
	case secFunction:
		return vec(r, func() error {
			idx, err := r.u32()
			m.Funcs = append(m.Funcs, idx)
			return err
		})
	case secTable:
		return vec(r, func() error {
			t, err := decodeTable(r)
			m.Tables = append(m.Tables, t)
			return err
		})
	case secMemory:
		return vec(r, func() error {
			l, err := decodeLimits(r)
			m.Memories = append(m.Memories, l)
			return err
		})
	case secGlobal:
		return vec(r, func() error {
			gt, err := decodeGlobalType(r)
			if err != nil {
				return err
			}
			init, err := constExpr(r)
			if err != nil {
				return err
			}
			m.Globals = append(m.Globals, Global{Type: gt, Init: init})
			return nil
		})
	case secExport:
		seen := map[string]bool{}
		return vec(r, func() error {
			name, err := r.name()
			if err != nil {
				return err
			}
			if seen[name] {
				return fmt.Errorf("%w: duplicate export %q", ErrMalformed, name)
			}
			seen[name] = true
			kind, err := r.byte()
			if err != nil {
				return err
			}
			if kind > byte(ExternGlobal) {
				return fmt.Errorf("%w: bad export kind %d", ErrMalformed, kind)
			}
			idx, err := r.u32()
			m.Exports = append(m.Exports, Export{Name: name, Kind: ExternKind(kind), Index: idx})
			return err
		})
	case secStart:
		idx, err := r.u32()
		m.Start = &idx
		return err
	case secElement:
		return vec(r, func() error {
			start := r.off
			if err := skipElem(r); err != nil {
				return err
			}
			m.Elems = append(m.Elems, Elem{Raw: r.b[start:r.off]})
			return nil
		})
	case secDataCount:
		n, err := r.u32()
		m.DataCount = &n
		return err
	case secCode:
		return vec(r, func() error {
			size, err := r.u32()
			if err != nil {
				return err
			}
			body, err := r.bytes(size)
			if err != nil {
				return err
			}
			code, err := decodeCode(body)
			if err != nil {
				return err
			}
			m.Codes = append(m.Codes, code)
			return nil
		})
	case secData:
		return vec(r, func() error {
			d, err := decodeData(r)
			m.Data = append(m.Data, d)
			return err
		})
	}
	return fmt.Errorf("%w: unknown section id %d", ErrMalformed, id)
}

// vec reads a count and calls item that many times. The count is bounded
// by the remaining bytes so hostile counts fail fast.
func vec(r *byteReader, item func() error) error {
	n, err := r.u32()
	if err != nil {
		return err
	}
	if uint64(n) > uint64(len(r.b)-r.off) {
		return fmt.Errorf("%w: vector length %d exceeds section", ErrMalformed, n)
	}
	for i := uint32(0); i < n; i++ {
		if err := item(); err != nil {
			return err
		}
	}
	return nil
}

func valTypes(r *byteReader) ([]ValType, error) {
	var out []ValType
	err := vec(r, func() error {
		t, err := r.byte()
		if err != nil {
			return err
		}
		if !validValType(t) {
			return fmt.Errorf("%w: invalid value type 0x%02x", ErrMalformed, t)
		}
		out = append(out, ValType(t))
		return nil
	})
	return out, err
}

func decodeLimits(r *byteReader) (Limits, error) {
	flag, err := r.byte()
	if err != nil {
		return Limits{}, err
	}
	var l Limits
	switch flag {
	case 0x00:
	case 0x01:
		l.HasMax = true
	default:
		return Limits{}, fmt.Errorf("%w: bad limits flag 0x%02x", ErrMalformed, flag)
	}
	if l.Min, err = r.u32(); err != nil {
		return Limits{}, err
	}
	if l.HasMax {
		if l.Max, err = r.u32(); err != nil {
			return Limits{}, err
		}
		if l.Max < l.Min {
			return Limits{}, fmt.Errorf("%w: limits max %d below min %d", ErrMalformed, l.Max, l.Min)
		}
	}
	return l, nil
}

func decodeTable(r *byteReader) (Table, error) {
	t, err := r.byte()
	if err != nil {
		return Table{}, err
	}
	if !validRefType(t) {
		return Table{}, fmt.Errorf("%w: bad table element type 0x%02x", ErrMalformed, t)
	}
	l, err := decodeLimits(r)
	return Table{Elem: ValType(t), Limits: l}, err
}

func decodeGlobalType(r *byteReader) (GlobalType, error) {
	t, err := r.byte()
	if err != nil {
		return GlobalType{}, err
	}
	if !validValType(t) {
		return GlobalType{}, fmt.Errorf("%w: invalid value type 0x%02x", ErrMalformed, t)
	}
	mut, err := r.byte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("%w: bad mutability 0x%02x", ErrMalformed, mut)
	}
	return GlobalType{Type: ValType(t), Mutable: mut == 1}, nil
}

func decodeImport(r *byteReader) (Import, error) {
	var (
		imp Import
		err error
	)
	if imp.Module, err = r.name(); err != nil {
		return imp, err
	}
	if imp.Name, err = r.name(); err != nil {
		return imp, err
	}
	kind, err := r.byte()
	if err != nil {
		return imp, err
	}
	imp.Kind = ExternKind(kind)
	switch imp.Kind {
	case ExternFunc:
		imp.TypeIndex, err = r.u32()
	case ExternTable:
		imp.Table, err = decodeTable(r)
	case ExternMemory:
		imp.Memory, err = decodeLimits(r)
	case ExternGlobal:
		imp.Global, err = decodeGlobalType(r)
	default:
		err = fmt.Errorf("%w: bad import kind %d", ErrMalformed, kind)
	}
	return imp, err
}

// constExpr reads instructions up to and including the terminating end.
func constExpr(r *byteReader) ([]byte, error) {
	start := r.off
	for {
		in, err := r.instr()
		if err != nil {
			return nil, err
		}
		switch in.Op {
		case OpEnd:
			return r.b[start:r.off], nil
		case OpI32Const, OpI64Const, 0x43, 0x44, OpGlobalGet, 0xd0, 0xd2,
			OpI32Add, OpI32Sub, OpI32Mul, 0x7c, 0x7d, 0x7e:
		default:
			return nil, fmt.Errorf("%w: %s not allowed in constant expression", ErrMalformed, in.Name)
		}
	}
}

func skipElem(r *byteReader) error {
	flags, err := r.u32()
	if err != nil {
		return err
	}
	if flags > 7 {
		return fmt.Errorf("%w: bad element segment flags %d", ErrMalformed, flags)
	}
	passiveOrDeclared := flags&0x1 != 0
	explicitTable := flags&0x2 != 0
	usesExprs := flags&0x4 != 0
	if !passiveOrDeclared {
		if explicitTable {
			if _, err := r.u32(); err != nil {
				return err
			}
		}
		if _, err := constExpr(r); err != nil {
			return err
		}
	}
	if passiveOrDeclared || explicitTable {
		// elemkind or reftype
		if _, err := r.byte(); err != nil {
			return err
		}
	}
	return vec(r, func() error {
		if usesExprs {
			_, err := constExpr(r)
			return err
		}
		_, err := r.u32()
		return err
	})
}

func decodeCode(body []byte) (Code, error) {
	r := &byteReader{b: body}
	var (
		code  Code
		total uint64
	)
	err := vec(r, func() error {
		n, err := r.u32()
		if err != nil {
			return err
		}
		total += uint64(n)
		if total > 50000 {
			return fmt.Errorf("%w: too many locals", ErrMalformed)
		}
		t, err := r.byte()
		if err != nil {
			return err
		}
		if !validValType(t) {
			return fmt.Errorf("%w: invalid local type 0x%02x", ErrMalformed, t)
		}
		code.Locals = append(code.Locals, LocalEntry{Count: n, Type: ValType(t)})
		return nil
	})
	if err != nil {
		return Code{}, err
	}
	code.Body = body[r.off:]
	if _, err := DecodeBody(code.Body); err != nil {
		return Code{}, err
	}
	return code, nil
}

func decodeData(r *byteReader) (Data, error) {
	flags, err := r.u32()
	if err != nil {
		return Data{}, err
	}
	var d Data
	switch flags {
	case 0:
		d.Offset, err = constExpr(r)
	case 1:
		d.Passive = true
	case 2:
		if d.Memory, err = r.u32(); err == nil {
			d.Offset, err = constExpr(r)
		}
	default:
		return Data{}, fmt.Errorf("%w: bad data segment flags %d", ErrMalformed, flags)
	}
	if err != nil {
		return Data{}, err
	}
	n, err := r.u32()
	if err != nil {
		return Data{}, err
	}
	d.Init, err = r.bytes(n)
	return d, err
}

func (m *Module) checkIndices() error {
	for _, imp := range m.Imports {
		if imp.Kind == ExternFunc && int(imp.TypeIndex) >= len(m.Types) {
			return fmt.Errorf("%w: import %s.%s uses unknown type %d", ErrMalformed, imp.Module, imp.Name, imp.TypeIndex)
		}
	}
	for i, t := range m.Funcs {
		if int(t) >= len(m.Types) {
			return fmt.Errorf("%w: function %d uses unknown type %d", ErrMalformed, i, t)
		}
	}
	limits := map[ExternKind]int{
		ExternFunc:   m.NumImported(ExternFunc) + len(m.Funcs),
		ExternTable:  m.NumImported(ExternTable) + len(m.Tables),
		ExternMemory: m.NumImported(ExternMemory) + len(m.Memories),
		ExternGlobal: m.NumImported(ExternGlobal) + len(m.Globals),
	}
	for _, e := range m.Exports {
		if int(e.Index) >= limits[e.Kind] {
			return fmt.Errorf("%w: export %q refers to unknown %s %d", ErrMalformed, e.Name, e.Kind, e.Index)
		}
	}
	if m.Start != nil && int(*m.Start) >= limits[ExternFunc] {
		return fmt.Errorf("%w: start function %d out of range", ErrMalformed, *m.Start)
	}
	return nil
}
