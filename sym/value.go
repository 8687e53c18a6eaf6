//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package sym implements the symbolic memory model: width-tagged
// bitvector terms, predicates over them, and a byte-granular memory
// arena with allocation, pointer, and footprint tracking.
package sym

import (
	"fmt"
	"strings"

	"github.com/markkurossi/text/superscript"
)

// Op specifies a term operation.
type Op byte

// Term operations.
const (
	OpConst Op = iota
	OpVar
	OpApp
	OpExtract
	OpConcat
	OpAdd
	OpSub
	OpMul
	OpUdiv
	OpUmod
)

var ops = map[Op]string{
	OpConst:   "const",
	OpVar:     "var",
	OpApp:     "app",
	OpExtract: "extract",
	OpConcat:  "concat",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpUdiv:    "udiv",
	OpUmod:    "umod",
}

func (op Op) String() string {
	name, ok := ops[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Op %d}", op)
}

// Value is a bitvector term. Scalar constants and arithmetic are
// limited to 64 bits; wider values are built as concatenations of
// byte-sized terms.
type Value struct {
	Op      Op
	Bits    int
	K       uint64 // OpConst: the value, little-endian byte order
	Name    string // OpVar: variable name, OpApp: function name
	Version int32  // OpVar: distinguishes same-named variables
	Off     int    // OpExtract: byte offset into Args[0]
	Args    []*Value
}

// Const creates a scalar constant term of the given width.
func Const(k uint64, bits int) *Value {
	if bits < 1 || bits > 64 {
		panic(fmt.Sprintf("sym: invalid constant width %d", bits))
	}
	if bits < 64 {
		k &= 1<<uint(bits) - 1
	}
	return &Value{
		Op:   OpConst,
		Bits: bits,
		K:    k,
	}
}

// Bool32 constants used as status codes.
var (
	Zero32 = Const(0, 32)
	One32  = Const(1, 32)
)

// Apply creates an application of the uninterpreted function name. The
// result width must be given explicitly since the function is not
// interpreted here.
func Apply(name string, bits int, args ...*Value) *Value {
	return &Value{
		Op:   OpApp,
		Bits: bits,
		Name: name,
		Args: args,
	}
}

// Extract creates the byte-sized term selecting byte off of v, byte 0
// being the least significant.
func Extract(v *Value, off int) *Value {
	if off < 0 || (off+1)*8 > v.Bits {
		panic(fmt.Sprintf("sym: extract byte %d of %d-bit value", off, v.Bits))
	}
	switch v.Op {
	case OpConst:
		return Const(v.K>>uint(off*8), 8)

	case OpExtract:
		return Extract(v.Args[0], v.Off+off)

	case OpConcat:
		for _, arg := range v.Args {
			n := arg.Bits / 8
			if off < n {
				return Extract(arg, off)
			}
			off -= n
		}

	default:
		if v.Bits == 8 && off == 0 {
			return v
		}
	}
	return &Value{
		Op:   OpExtract,
		Bits: 8,
		Off:  off,
		Args: []*Value{v},
	}
}

// Concat concatenates the argument terms, the first argument becoming
// the least significant bytes. All arguments must be byte aligned.
func Concat(args ...*Value) *Value {
	var bits int
	allConst := true
	for _, arg := range args {
		if arg.Bits%8 != 0 {
			panic("sym: concat of non-byte-aligned value")
		}
		bits += arg.Bits
		if arg.Op != OpConst {
			allConst = false
		}
	}
	if len(args) == 1 {
		return args[0]
	}
	// Sequential extracts covering one base value fold to the base.
	if args[0].Op == OpExtract && args[0].Off == 0 {
		base := args[0].Args[0]
		folds := len(args)*8 == base.Bits
		for idx, arg := range args {
			if !folds {
				break
			}
			folds = arg.Op == OpExtract && arg.Off == idx &&
				arg.Args[0].Equal(base)
		}
		if folds {
			return base
		}
	}
	if allConst && bits <= 64 {
		var k uint64
		var shift uint
		for _, arg := range args {
			k |= arg.K << shift
			shift += uint(arg.Bits)
		}
		return Const(k, bits)
	}
	return &Value{
		Op:   OpConcat,
		Bits: bits,
		Args: args,
	}
}

func binop(op Op, a, b *Value) *Value {
	if a.Bits != b.Bits {
		panic(fmt.Sprintf("sym: %s of %d-bit and %d-bit values",
			op, a.Bits, b.Bits))
	}
	if a.Bits > 64 {
		panic(fmt.Sprintf("sym: %s of %d-bit values", op, a.Bits))
	}
	if a.Op == OpConst && b.Op == OpConst {
		var k uint64
		switch op {
		case OpAdd:
			k = a.K + b.K
		case OpSub:
			k = a.K - b.K
		case OpMul:
			k = a.K * b.K
		case OpUdiv:
			if b.K == 0 {
				panic("sym: division by zero")
			}
			k = a.K / b.K
		case OpUmod:
			if b.K == 0 {
				panic("sym: division by zero")
			}
			k = a.K % b.K
		}
		return Const(k, a.Bits)
	}
	return &Value{
		Op:   op,
		Bits: a.Bits,
		Args: []*Value{a, b},
	}
}

// Add creates a wrapping unsigned addition term.
func Add(a, b *Value) *Value {
	if b.Op == OpConst && b.K == 0 {
		return a
	}
	if a.Op == OpConst && a.K == 0 {
		return b
	}
	// (x+c1)+c2 and (x-c1)+c2 chain into one operation.
	if b.Op == OpConst && b.Bits == a.Bits &&
		len(a.Args) == 2 && a.Args[1].Op == OpConst {
		switch a.Op {
		case OpAdd:
			return Add(a.Args[0], Const(a.Args[1].K+b.K, a.Bits))
		case OpSub:
			if a.Args[1].K >= b.K {
				return Sub(a.Args[0], Const(a.Args[1].K-b.K, a.Bits))
			}
			return Add(a.Args[0], Const(b.K-a.Args[1].K, a.Bits))
		}
	}
	return binop(OpAdd, a, b)
}

// Sub creates a wrapping unsigned subtraction term.
func Sub(a, b *Value) *Value {
	if b.Op == OpConst && b.K == 0 {
		return a
	}
	// (x-c1)-c2 and (x+c1)-c2 chain into one operation.
	if b.Op == OpConst && b.Bits == a.Bits &&
		len(a.Args) == 2 && a.Args[1].Op == OpConst {
		switch a.Op {
		case OpSub:
			return Sub(a.Args[0], Const(a.Args[1].K+b.K, a.Bits))
		case OpAdd:
			if a.Args[1].K >= b.K {
				return Add(a.Args[0], Const(a.Args[1].K-b.K, a.Bits))
			}
			return Sub(a.Args[0], Const(b.K-a.Args[1].K, a.Bits))
		}
	}
	return binop(OpSub, a, b)
}

// Mul creates a wrapping unsigned multiplication term.
func Mul(a, b *Value) *Value {
	if a.Op == OpConst && a.K == 1 {
		return b
	}
	if b.Op == OpConst && b.K == 1 {
		return a
	}
	return binop(OpMul, a, b)
}

// Udiv creates an unsigned division term. Division by a zero constant
// panics; symbolic divisors are not folded.
func Udiv(a, b *Value) *Value {
	if b.Op == OpConst && b.K == 1 {
		return a
	}
	return binop(OpUdiv, a, b)
}

// Umod creates an unsigned modulo term.
func Umod(a, b *Value) *Value {
	if b.Op == OpConst && b.K == 1 {
		return Const(0, a.Bits)
	}
	return binop(OpUmod, a, b)
}

// ConstUint returns the value as a constant integer.
func (v *Value) ConstUint() (uint64, bool) {
	if v.Op != OpConst {
		return 0, false
	}
	return v.K, true
}

// Equal tests the terms for structural equality.
func (v *Value) Equal(o *Value) bool {
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	if v.Op != o.Op || v.Bits != o.Bits {
		return false
	}
	switch v.Op {
	case OpConst:
		return v.K == o.K
	case OpVar:
		return v.Name == o.Name && v.Version == o.Version
	case OpApp:
		if v.Name != o.Name {
			return false
		}
	case OpExtract:
		if v.Off != o.Off {
			return false
		}
	}
	if len(v.Args) != len(o.Args) {
		return false
	}
	for idx, arg := range v.Args {
		if !arg.Equal(o.Args[idx]) {
			return false
		}
	}
	return true
}

func (v *Value) String() string {
	switch v.Op {
	case OpConst:
		if v.Bits > 32 {
			return fmt.Sprintf("0x%x", v.K)
		}
		return fmt.Sprintf("%d", v.K)

	case OpVar:
		if v.Version > 0 {
			return v.Name + superscript.Itoa(int(v.Version))
		}
		return v.Name

	case OpApp:
		parts := make([]string, len(v.Args))
		for idx, arg := range v.Args {
			parts[idx] = arg.String()
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(parts, ", "))

	case OpExtract:
		return fmt.Sprintf("%s[%d]", v.Args[0], v.Off)

	case OpConcat:
		parts := make([]string, len(v.Args))
		for idx, arg := range v.Args {
			parts[idx] = arg.String()
		}
		return "(" + strings.Join(parts, "++") + ")"

	case OpAdd, OpSub, OpMul, OpUdiv, OpUmod:
		var sym string
		switch v.Op {
		case OpAdd:
			sym = "+"
		case OpSub:
			sym = "-"
		case OpMul:
			sym = "*"
		case OpUdiv:
			sym = "/"
		case OpUmod:
			sym = "%"
		}
		return fmt.Sprintf("(%s %s %s)", v.Args[0], sym, v.Args[1])

	default:
		return fmt.Sprintf("{Op %d}", v.Op)
	}
}

// Bytes is a byte vector: a sequence of byte-sized terms.
type Bytes []*Value

// ConstBytes creates a byte vector of constant terms.
func ConstBytes(data []byte) Bytes {
	b := make(Bytes, len(data))
	for idx, d := range data {
		b[idx] = Const(uint64(d), 8)
	}
	return b
}

// ExtractBytes returns n byte terms extracted from v starting at byte
// offset off.
func ExtractBytes(v *Value, off, n int) Bytes {
	b := make(Bytes, n)
	for idx := 0; idx < n; idx++ {
		b[idx] = Extract(v, off+idx)
	}
	return b
}

// U32LE combines a 4-byte vector into a 32-bit term, little-endian.
func U32LE(b Bytes) *Value {
	if len(b) != 4 {
		panic(fmt.Sprintf("sym: U32LE of %d bytes", len(b)))
	}
	return Concat(b[0], b[1], b[2], b[3])
}

// U32Bytes splits a 32-bit term into its 4-byte vector, little-endian.
func U32Bytes(v *Value) Bytes {
	if v.Bits != 32 {
		panic(fmt.Sprintf("sym: U32Bytes of %d-bit value", v.Bits))
	}
	return ExtractBytes(v, 0, 4)
}

// U32BE combines a 4-byte vector into a 32-bit term, big-endian.
func U32BE(b Bytes) *Value {
	if len(b) != 4 {
		panic(fmt.Sprintf("sym: U32BE of %d bytes", len(b)))
	}
	return Concat(b[3], b[2], b[1], b[0])
}

// U32BEBytes splits a 32-bit term into its 4-byte vector, big-endian.
func U32BEBytes(v *Value) Bytes {
	if v.Bits != 32 {
		panic(fmt.Sprintf("sym: U32BEBytes of %d-bit value", v.Bits))
	}
	return Bytes{Extract(v, 3), Extract(v, 2), Extract(v, 1), Extract(v, 0)}
}

func (b Bytes) String() string {
	parts := make([]string, len(b))
	for idx, v := range b {
		parts[idx] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Slice returns the sub-vector [from,to).
func (b Bytes) Slice(from, to int) Bytes {
	return b[from:to]
}
