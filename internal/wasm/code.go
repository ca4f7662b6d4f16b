package wasm

// Body accumulates the instructions of one function.
type Body struct {
	b []byte
}

// Bytes returns the encoded instructions, terminated by end.
func (c *Body) Bytes() []byte {
	out := make([]byte, len(c.b), len(c.b)+1)
	copy(out, c.b)
	return append(out, OpEnd)
}

// Op appends an instruction without immediates.
func (c *Body) Op(op byte) *Body {
	c.b = append(c.b, op)
	return c
}

func (c *Body) I32Const(v int32) *Body {
	c.b = append(c.b, OpI32Const)
	c.b = AppendSleb128(c.b, int64(v))
	return c
}

func (c *Body) index(op byte, idx uint32) *Body {
	c.b = append(c.b, op)
	c.b = appendU32(c.b, idx)
	return c
}

func (c *Body) LocalGet(idx uint32) *Body { return c.index(OpLocalGet, idx) }
func (c *Body) LocalSet(idx uint32) *Body { return c.index(OpLocalSet, idx) }
func (c *Body) LocalTee(idx uint32) *Body { return c.index(OpLocalTee, idx) }
func (c *Body) Call(idx uint32) *Body     { return c.index(OpCall, idx) }
func (c *Body) Br(depth uint32) *Body     { return c.index(OpBr, depth) }
func (c *Body) BrIf(depth uint32) *Body   { return c.index(OpBrIf, depth) }

// Block opens block, loop or if with an optional single result.
func (c *Body) Block(op byte, result *ValType) *Body {
	c.b = append(c.b, op)
	if result == nil {
		c.b = append(c.b, BlockEmpty)
	} else {
		c.b = append(c.b, byte(*result))
	}
	return c
}

func (c *Body) Else() *Body { return c.Op(OpElse) }
func (c *Body) End() *Body  { return c.Op(OpEnd) }
