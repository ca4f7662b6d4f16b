package wasm

// Opcodes emitted by this module's encoder helpers.
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0b
	OpBr          byte = 0x0c
	OpBrIf        byte = 0x0d
	OpBrTable     byte = 0x0e
	OpReturn      byte = 0x0f
	OpCall        byte = 0x10
	OpDrop        byte = 0x1a
	OpSelect      byte = 0x1b
	OpLocalGet    byte = 0x20
	OpLocalSet    byte = 0x21
	OpLocalTee    byte = 0x22
	OpGlobalGet   byte = 0x23
	OpGlobalSet   byte = 0x24
	OpI32Load     byte = 0x28
	OpI32Store    byte = 0x36
	OpI32Const    byte = 0x41
	OpI64Const    byte = 0x42
	OpI32Eqz      byte = 0x45
	OpI32Eq       byte = 0x46
	OpI32Ne       byte = 0x47
	OpI32LtS      byte = 0x48
	OpI32GtS      byte = 0x4a
	OpI32LeS      byte = 0x4c
	OpI32GeS      byte = 0x4e
	OpI32Add      byte = 0x6a
	OpI32Sub      byte = 0x6b
	OpI32Mul      byte = 0x6c
	OpI32DivS     byte = 0x6d
	OpI32RemS     byte = 0x6f
	OpI32And      byte = 0x71
	OpI32Or       byte = 0x72
	OpI32Xor      byte = 0x73

	opPrefixFC byte = 0xfc

	// BlockEmpty is the block type of a block without results.
	BlockEmpty byte = 0x40
)

type immKind uint8

const (
	immNone immKind = iota
	immBlock
	immLabel
	immBrTable
	immFunc
	immCallIndirect
	immLocal
	immGlobal
	immTable
	immMemArg
	immMemIdx // single reserved memory index byte
	immI32
	immI64
	immF32
	immF64
	immSelectT
	immRefType
	immData
	immElem
	immMemInit   // dataidx, memidx
	immMemCopy   // memidx, memidx
	immTableInit // elemidx, tableidx
	immTableCopy // tableidx, tableidx
)

type opInfo struct {
	name string
	imm  immKind
	// align is log2 of the natural alignment of memory accesses.
	align uint32
}

var ops = map[byte]opInfo{
	0x00: {name: "unreachable"},
	0x01: {name: "nop"},
	0x02: {name: "block", imm: immBlock},
	0x03: {name: "loop", imm: immBlock},
	0x04: {name: "if", imm: immBlock},
	0x05: {name: "else"},
	0x0b: {name: "end"},
	0x0c: {name: "br", imm: immLabel},
	0x0d: {name: "br_if", imm: immLabel},
	0x0e: {name: "br_table", imm: immBrTable},
	0x0f: {name: "return"},
	0x10: {name: "call", imm: immFunc},
	0x11: {name: "call_indirect", imm: immCallIndirect},
	0x1a: {name: "drop"},
	0x1b: {name: "select"},
	0x1c: {name: "select", imm: immSelectT},
	0x20: {name: "local.get", imm: immLocal},
	0x21: {name: "local.set", imm: immLocal},
	0x22: {name: "local.tee", imm: immLocal},
	0x23: {name: "global.get", imm: immGlobal},
	0x24: {name: "global.set", imm: immGlobal},
	0x25: {name: "table.get", imm: immTable},
	0x26: {name: "table.set", imm: immTable},
	0x28: {name: "i32.load", imm: immMemArg, align: 2},
	0x29: {name: "i64.load", imm: immMemArg, align: 3},
	0x2a: {name: "f32.load", imm: immMemArg, align: 2},
	0x2b: {name: "f64.load", imm: immMemArg, align: 3},
	0x2c: {name: "i32.load8_s", imm: immMemArg, align: 0},
	0x2d: {name: "i32.load8_u", imm: immMemArg, align: 0},
	0x2e: {name: "i32.load16_s", imm: immMemArg, align: 1},
	0x2f: {name: "i32.load16_u", imm: immMemArg, align: 1},
	0x30: {name: "i64.load8_s", imm: immMemArg, align: 0},
	0x31: {name: "i64.load8_u", imm: immMemArg, align: 0},
	0x32: {name: "i64.load16_s", imm: immMemArg, align: 1},
	0x33: {name: "i64.load16_u", imm: immMemArg, align: 1},
	0x34: {name: "i64.load32_s", imm: immMemArg, align: 2},
	0x35: {name: "i64.load32_u", imm: immMemArg, align: 2},
	0x36: {name: "i32.store", imm: immMemArg, align: 2},
	0x37: {name: "i64.store", imm: immMemArg, align: 3},
	0x38: {name: "f32.store", imm: immMemArg, align: 2},
	0x39: {name: "f64.store", imm: immMemArg, align: 3},
	0x3a: {name: "i32.store8", imm: immMemArg, align: 0},
	0x3b: {name: "i32.store16", imm: immMemArg, align: 1},
	0x3c: {name: "i64.store8", imm: immMemArg, align: 0},
	0x3d: {name: "i64.store16", imm: immMemArg, align: 1},
	0x3e: {name: "i64.store32", imm: immMemArg, align: 2},
	0x3f: {name: "memory.size", imm: immMemIdx},
	0x40: {name: "memory.grow", imm: immMemIdx},
	0x41: {name: "i32.const", imm: immI32},
	0x42: {name: "i64.const", imm: immI64},
	0x43: {name: "f32.const", imm: immF32},
	0x44: {name: "f64.const", imm: immF64},
	0xd0: {name: "ref.null", imm: immRefType},
	0xd1: {name: "ref.is_null"},
	0xd2: {name: "ref.func", imm: immFunc},
}

var prefixedOps = map[uint32]opInfo{
	0:  {name: "i32.trunc_sat_f32_s"},
	1:  {name: "i32.trunc_sat_f32_u"},
	2:  {name: "i32.trunc_sat_f64_s"},
	3:  {name: "i32.trunc_sat_f64_u"},
	4:  {name: "i64.trunc_sat_f32_s"},
	5:  {name: "i64.trunc_sat_f32_u"},
	6:  {name: "i64.trunc_sat_f64_s"},
	7:  {name: "i64.trunc_sat_f64_u"},
	8:  {name: "memory.init", imm: immMemInit},
	9:  {name: "data.drop", imm: immData},
	10: {name: "memory.copy", imm: immMemCopy},
	11: {name: "memory.fill", imm: immMemIdx},
	12: {name: "table.init", imm: immTableInit},
	13: {name: "elem.drop", imm: immElem},
	14: {name: "table.copy", imm: immTableCopy},
	15: {name: "table.grow", imm: immTable},
	16: {name: "table.size", imm: immTable},
	17: {name: "table.fill", imm: immTable},
}

// Plain numeric instructions 0x45..0xc4 take no immediates.
var numericNames = [...]string{
	"i32.eqz", "i32.eq", "i32.ne", "i32.lt_s", "i32.lt_u", "i32.gt_s", "i32.gt_u", "i32.le_s", "i32.le_u", "i32.ge_s", "i32.ge_u",
	"i64.eqz", "i64.eq", "i64.ne", "i64.lt_s", "i64.lt_u", "i64.gt_s", "i64.gt_u", "i64.le_s", "i64.le_u", "i64.ge_s", "i64.ge_u",
	"f32.eq", "f32.ne", "f32.lt", "f32.gt", "f32.le", "f32.ge",
	"f64.eq", "f64.ne", "f64.lt", "f64.gt", "f64.le", "f64.ge",
	"i32.clz", "i32.ctz", "i32.popcnt", "i32.add", "i32.sub", "i32.mul", "i32.div_s", "i32.div_u", "i32.rem_s", "i32.rem_u",
	"i32.and", "i32.or", "i32.xor", "i32.shl", "i32.shr_s", "i32.shr_u", "i32.rotl", "i32.rotr",
	"i64.clz", "i64.ctz", "i64.popcnt", "i64.add", "i64.sub", "i64.mul", "i64.div_s", "i64.div_u", "i64.rem_s", "i64.rem_u",
	"i64.and", "i64.or", "i64.xor", "i64.shl", "i64.shr_s", "i64.shr_u", "i64.rotl", "i64.rotr",
	"f32.abs", "f32.neg", "f32.ceil", "f32.floor", "f32.trunc", "f32.nearest", "f32.sqrt",
	"f32.add", "f32.sub", "f32.mul", "f32.div", "f32.min", "f32.max", "f32.copysign",
	"f64.abs", "f64.neg", "f64.ceil", "f64.floor", "f64.trunc", "f64.nearest", "f64.sqrt",
	"f64.add", "f64.sub", "f64.mul", "f64.div", "f64.min", "f64.max", "f64.copysign",
	"i32.wrap_i64", "i32.trunc_f32_s", "i32.trunc_f32_u", "i32.trunc_f64_s", "i32.trunc_f64_u",
	"i64.extend_i32_s", "i64.extend_i32_u", "i64.trunc_f32_s", "i64.trunc_f32_u", "i64.trunc_f64_s", "i64.trunc_f64_u",
	"f32.convert_i32_s", "f32.convert_i32_u", "f32.convert_i64_s", "f32.convert_i64_u", "f32.demote_f64",
	"f64.convert_i32_s", "f64.convert_i32_u", "f64.convert_i64_s", "f64.convert_i64_u", "f64.promote_f32",
	"i32.reinterpret_f32", "i64.reinterpret_f64", "f32.reinterpret_i32", "f64.reinterpret_i64",
	"i32.extend8_s", "i32.extend16_s", "i64.extend8_s", "i64.extend16_s", "i64.extend32_s",
}

func init() {
	for i, name := range numericNames {
		ops[byte(0x45+i)] = opInfo{name: name}
	}
}
