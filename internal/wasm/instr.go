package wasm

import (
	"encoding/binary"
	"fmt"
)

// Instr is one decoded instruction.
type Instr struct {
	Op   byte
	Sub  uint32 // sub-opcode after the 0xfc prefix
	Name string
	imm  immKind

	// Args holds index immediates in encoding order. For memory access it
	// is {align, offset}; for br_table the labels followed by the default.
	Args []uint32
	// Int is the i32/i64 constant; Bits the raw float constant.
	Int  int64
	Bits uint64
	// Block is the block type: BlockEmpty, a value type byte, or a type
	// index when BlockIndex is set.
	Block      int64
	BlockIndex bool
	Types      []ValType
}

type byteReader struct {
	b   []byte
	off int
}

func (r *byteReader) eof() bool { return r.off >= len(r.b) }

func (r *byteReader) byte() (byte, error) {
	if r.off >= len(r.b) {
		return 0, fmt.Errorf("%w: unexpected end at offset %d", ErrMalformed, r.off)
	}
	c := r.b[r.off]
	r.off++
	return c, nil
}

func (r *byteReader) bytes(n uint32) ([]byte, error) {
	if uint64(n) > uint64(len(r.b)-r.off) {
		return nil, fmt.Errorf("%w: length %d out of bounds at offset %d", ErrMalformed, n, r.off)
	}
	out := r.b[r.off : r.off+int(n)]
	r.off += int(n)
	return out, nil
}

func (r *byteReader) u32() (uint32, error) {
	v, n, err := readUleb(r.b[r.off:], 32)
	if err != nil {
		return 0, fmt.Errorf("%w at offset %d", err, r.off)
	}
	r.off += n
	return uint32(v), nil
}

func (r *byteReader) s32() (int64, error) {
	v, n, err := readSleb(r.b[r.off:], 32)
	if err != nil {
		return 0, fmt.Errorf("%w at offset %d", err, r.off)
	}
	r.off += n
	return v, nil
}

func (r *byteReader) s64() (int64, error) {
	v, n, err := readSleb(r.b[r.off:], 64)
	if err != nil {
		return 0, fmt.Errorf("%w at offset %d", err, r.off)
	}
	r.off += n
	return v, nil
}

func (r *byteReader) name() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *byteReader) instr() (Instr, error) {
	op, err := r.byte()
	if err != nil {
		return Instr{}, err
	}
	in := Instr{Op: op}
	var info opInfo
	if op == opPrefixFC {
		sub, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		p, ok := prefixedOps[sub]
		if !ok {
			return Instr{}, fmt.Errorf("%w: unknown opcode 0xfc %d at offset %d", ErrMalformed, sub, r.off)
		}
		in.Sub = sub
		info = p
	} else {
		p, ok := ops[op]
		if !ok {
			return Instr{}, fmt.Errorf("%w: unknown opcode 0x%02x at offset %d", ErrMalformed, op, r.off-1)
		}
		info = p
	}
	in.Name = info.name
	in.imm = info.imm
	if err := r.immediates(&in); err != nil {
		return Instr{}, err
	}
	return in, nil
}

func (r *byteReader) immediates(in *Instr) error {
	switch in.imm {
	case immNone:
		return nil
	case immBlock:
		return r.blockType(in)
	case immLabel, immFunc, immLocal, immGlobal, immTable, immData, immElem:
		return r.indices(in, 1)
	case immCallIndirect, immTableInit, immTableCopy:
		return r.indices(in, 2)
	case immMemArg:
		return r.indices(in, 2)
	case immMemIdx:
		return r.zeroBytes(1)
	case immMemInit:
		if err := r.indices(in, 1); err != nil {
			return err
		}
		return r.zeroBytes(1)
	case immMemCopy:
		return r.zeroBytes(2)
	case immBrTable:
		n, err := r.u32()
		if err != nil {
			return err
		}
		if uint64(n) > uint64(len(r.b)-r.off) {
			return fmt.Errorf("%w: br_table too long", ErrMalformed)
		}
		return r.indices(in, int(n)+1)
	case immI32:
		v, err := r.s32()
		in.Int = v
		return err
	case immI64:
		v, err := r.s64()
		in.Int = v
		return err
	case immF32:
		b, err := r.bytes(4)
		if err != nil {
			return err
		}
		in.Bits = uint64(binary.LittleEndian.Uint32(b))
		return nil
	case immF64:
		b, err := r.bytes(8)
		if err != nil {
			return err
		}
		in.Bits = binary.LittleEndian.Uint64(b)
		return nil
	case immSelectT:
		n, err := r.u32()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%w: select expects one type, got %d", ErrMalformed, n)
		}
		t, err := r.byte()
		if err != nil {
			return err
		}
		if !validValType(t) {
			return fmt.Errorf("%w: invalid value type 0x%02x", ErrMalformed, t)
		}
		in.Types = []ValType{ValType(t)}
		return nil
	case immRefType:
		t, err := r.byte()
		if err != nil {
			return err
		}
		if !validRefType(t) {
			return fmt.Errorf("%w: invalid reference type 0x%02x", ErrMalformed, t)
		}
		in.Types = []ValType{ValType(t)}
		return nil
	}
	return fmt.Errorf("%w: unsupported immediate", ErrMalformed)
}

func (r *byteReader) indices(in *Instr, n int) error {
	in.Args = make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.u32()
		if err != nil {
			return err
		}
		in.Args = append(in.Args, v)
	}
	return nil
}

func (r *byteReader) zeroBytes(n int) error {
	for i := 0; i < n; i++ {
		c, err := r.byte()
		if err != nil {
			return err
		}
		if c != 0 {
			return fmt.Errorf("%w: expected zero byte at offset %d", ErrMalformed, r.off-1)
		}
	}
	return nil
}

func (r *byteReader) blockType(in *Instr) error {
	if r.eof() {
		return fmt.Errorf("%w: missing block type", ErrMalformed)
	}
	c := r.b[r.off]
	if c == BlockEmpty || validValType(c) {
		r.off++
		in.Block = int64(c)
		return nil
	}
	v, n, err := readSleb(r.b[r.off:], 33)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: invalid block type at offset %d", ErrMalformed, r.off)
	}
	r.off += n
	in.Block = v
	in.BlockIndex = true
	return nil
}

// DecodeBody decodes a function body or constant expression and checks
// that blocks are balanced and the sequence ends with the closing end.
func DecodeBody(body []byte) ([]Instr, error) {
	r := &byteReader{b: body}
	var (
		out   []Instr
		stack = []byte{0} // open constructs; 0 is the function itself
	)
	for !r.eof() {
		in, err := r.instr()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		if in.Op == opPrefixFC {
			continue
		}
		switch in.Op {
		case OpBlock, OpLoop, OpIf:
			stack = append(stack, in.Op)
		case OpElse:
			if stack[len(stack)-1] != OpIf {
				return nil, fmt.Errorf("%w: else without if at offset %d", ErrMalformed, r.off-1)
			}
			stack[len(stack)-1] = OpElse
		case OpEnd:
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				if !r.eof() {
					return nil, fmt.Errorf("%w: trailing bytes after end at offset %d", ErrMalformed, r.off)
				}
				return out, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: body not terminated by end", ErrMalformed)
}
