//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sym

import (
	"errors"
	"fmt"
)

// Evaluation errors.
var (
	ErrUnbound  = errors.New("sym: unbound variable")
	ErrNoInterp = errors.New("sym: no interpretation")
)

// VarKey identifies a variable.
type VarKey struct {
	Name    string
	Version int32
}

// Key returns the variable identity of v.
func Key(v *Value) VarKey {
	if v.Op != OpVar {
		panic(fmt.Sprintf("sym: key of %s term", v.Op))
	}
	return VarKey{
		Name:    v.Name,
		Version: v.Version,
	}
}

func (k VarKey) String() string {
	v := &Value{
		Op:      OpVar,
		Name:    k.Name,
		Version: k.Version,
	}
	return v.String()
}

// Env binds variables to concrete values, little-endian byte strings.
type Env map[VarKey][]byte

// SetUint binds the variable to the scalar value.
func (env Env) SetUint(v *Value, k uint64) {
	data := make([]byte, v.Bits/8)
	for idx := range data {
		data[idx] = byte(k >> uint(idx*8))
	}
	env[Key(v)] = data
}

// SetBytes binds the variable to the byte string.
func (env Env) SetBytes(v *Value, data []byte) {
	if len(data)*8 != v.Bits {
		panic(fmt.Sprintf("sym: binding %d bytes to %d-bit variable",
			len(data), v.Bits))
	}
	env[Key(v)] = data
}

// Interp gives concrete interpretations to applied function names.
type Interp map[string]func(args ...[]byte) ([]byte, error)

func toUint(data []byte) uint64 {
	var k uint64
	for idx := len(data) - 1; idx >= 0; idx-- {
		k = k<<8 | uint64(data[idx])
	}
	return k
}

func fromUint(k uint64, bits int) []byte {
	data := make([]byte, bits/8)
	for idx := range data {
		data[idx] = byte(k >> uint(idx*8))
	}
	return data
}

// Eval evaluates the term to a concrete little-endian byte string
// under the variable bindings env and the function interpretations in.
func Eval(v *Value, env Env, in Interp) ([]byte, error) {
	switch v.Op {
	case OpConst:
		return fromUint(v.K, v.Bits), nil

	case OpVar:
		data, ok := env[Key(v)]
		if !ok {
			return nil, fmt.Errorf("sym: %s: %w", v, ErrUnbound)
		}
		return data, nil

	case OpApp:
		fn, ok := in[v.Name]
		if !ok {
			return nil, fmt.Errorf("sym: %s: %w", v.Name, ErrNoInterp)
		}
		args := make([][]byte, len(v.Args))
		for idx, arg := range v.Args {
			data, err := Eval(arg, env, in)
			if err != nil {
				return nil, err
			}
			args[idx] = data
		}
		result, err := fn(args...)
		if err != nil {
			return nil, fmt.Errorf("sym: %s: %w", v.Name, err)
		}
		if len(result)*8 != v.Bits {
			return nil, fmt.Errorf("sym: %s returned %d bytes, expected %d",
				v.Name, len(result), v.Bits/8)
		}
		return result, nil

	case OpExtract:
		data, err := Eval(v.Args[0], env, in)
		if err != nil {
			return nil, err
		}
		return data[v.Off : v.Off+1], nil

	case OpConcat:
		var data []byte
		for _, arg := range v.Args {
			d, err := Eval(arg, env, in)
			if err != nil {
				return nil, err
			}
			data = append(data, d...)
		}
		return data, nil

	case OpAdd, OpSub, OpMul, OpUdiv, OpUmod:
		a, err := EvalUint(v.Args[0], env, in)
		if err != nil {
			return nil, err
		}
		b, err := EvalUint(v.Args[1], env, in)
		if err != nil {
			return nil, err
		}
		var k uint64
		switch v.Op {
		case OpAdd:
			k = a + b
		case OpSub:
			k = a - b
		case OpMul:
			k = a * b
		case OpUdiv:
			if b == 0 {
				return nil, fmt.Errorf("sym: division by zero")
			}
			k = a / b
		case OpUmod:
			if b == 0 {
				return nil, fmt.Errorf("sym: division by zero")
			}
			k = a % b
		}
		if v.Bits < 64 {
			k &= 1<<uint(v.Bits) - 1
		}
		return fromUint(k, v.Bits), nil

	default:
		return nil, fmt.Errorf("sym: eval of %s term", v.Op)
	}
}

// EvalUint evaluates the term to a scalar.
func EvalUint(v *Value, env Env, in Interp) (uint64, error) {
	if v.Bits > 64 {
		return 0, fmt.Errorf("sym: %d-bit value as scalar", v.Bits)
	}
	data, err := Eval(v, env, in)
	if err != nil {
		return 0, err
	}
	return toUint(data), nil
}

// EvalBytes evaluates the byte vector to a concrete byte string.
func EvalBytes(b Bytes, env Env, in Interp) ([]byte, error) {
	data := make([]byte, len(b))
	for idx, v := range b {
		d, err := Eval(v, env, in)
		if err != nil {
			return nil, err
		}
		data[idx] = d[0]
	}
	return data, nil
}

func bytesEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for idx, d := range a {
		if d != b[idx] {
			return false
		}
	}
	return true
}

func bytesUlt(a, b []byte) bool {
	return toUint(a) < toUint(b)
}

// EvalPred evaluates the predicate under the bindings.
func EvalPred(p *Pred, env Env, in Interp) (bool, error) {
	switch p.Op {
	case PredTrue:
		return true, nil
	case PredFalse:
		return false, nil

	case PredEq, PredNe, PredUlt, PredUle:
		x, err := Eval(p.X, env, in)
		if err != nil {
			return false, err
		}
		y, err := Eval(p.Y, env, in)
		if err != nil {
			return false, err
		}
		switch p.Op {
		case PredEq:
			return bytesEq(x, y), nil
		case PredNe:
			return !bytesEq(x, y), nil
		case PredUlt:
			return bytesUlt(x, y), nil
		default:
			return !bytesUlt(y, x), nil
		}

	case PredAnd:
		a, err := EvalPred(p.A, env, in)
		if err != nil {
			return false, err
		}
		if !a {
			return false, nil
		}
		return EvalPred(p.B, env, in)

	case PredOr:
		a, err := EvalPred(p.A, env, in)
		if err != nil {
			return false, err
		}
		if a {
			return true, nil
		}
		return EvalPred(p.B, env, in)

	case PredNot:
		a, err := EvalPred(p.A, env, in)
		if err != nil {
			return false, err
		}
		return !a, nil

	default:
		return false, fmt.Errorf("sym: eval of %s predicate", p.Op)
	}
}

// Vars collects the free variables of the term into set.
func Vars(v *Value, set map[VarKey]*Value) {
	switch v.Op {
	case OpVar:
		set[Key(v)] = v
	default:
		for _, arg := range v.Args {
			Vars(arg, set)
		}
	}
}

// PredVars collects the free variables of the predicate into set.
func PredVars(p *Pred, set map[VarKey]*Value) {
	if p.X != nil {
		Vars(p.X, set)
	}
	if p.Y != nil {
		Vars(p.Y, set)
	}
	if p.A != nil {
		PredVars(p.A, set)
	}
	if p.B != nil {
		PredVars(p.B, set)
	}
}

// Subst rewrites the term, replacing variables by their bindings in
// env. The result is rebuilt with the term constructors so constant
// bindings fold.
func Subst(v *Value, env map[VarKey]*Value) *Value {
	switch v.Op {
	case OpConst:
		return v

	case OpVar:
		b, ok := env[Key(v)]
		if !ok {
			return v
		}
		if b.Bits != v.Bits {
			panic(fmt.Sprintf("sym: substituting %d-bit term for %s",
				b.Bits, v))
		}
		return b

	case OpApp:
		args := make([]*Value, len(v.Args))
		for idx, arg := range v.Args {
			args[idx] = Subst(arg, env)
		}
		return Apply(v.Name, v.Bits, args...)

	case OpExtract:
		return Extract(Subst(v.Args[0], env), v.Off)

	case OpConcat:
		args := make([]*Value, len(v.Args))
		for idx, arg := range v.Args {
			args[idx] = Subst(arg, env)
		}
		return Concat(args...)

	case OpAdd, OpSub, OpMul, OpUdiv, OpUmod:
		a := Subst(v.Args[0], env)
		b := Subst(v.Args[1], env)
		switch v.Op {
		case OpAdd:
			return Add(a, b)
		case OpSub:
			return Sub(a, b)
		case OpMul:
			return Mul(a, b)
		case OpUdiv:
			return Udiv(a, b)
		default:
			return Umod(a, b)
		}

	default:
		panic(fmt.Sprintf("sym: subst of %s term", v.Op))
	}
}

// SubstPred rewrites the predicate, replacing variables by their
// bindings in env.
func SubstPred(p *Pred, env map[VarKey]*Value) *Pred {
	switch p.Op {
	case PredTrue, PredFalse:
		return p
	case PredEq:
		return Eq(Subst(p.X, env), Subst(p.Y, env))
	case PredNe:
		return Ne(Subst(p.X, env), Subst(p.Y, env))
	case PredUlt:
		return Ult(Subst(p.X, env), Subst(p.Y, env))
	case PredUle:
		return Ule(Subst(p.X, env), Subst(p.Y, env))
	case PredAnd:
		return And(SubstPred(p.A, env), SubstPred(p.B, env))
	case PredOr:
		return Or(SubstPred(p.A, env), SubstPred(p.B, env))
	case PredNot:
		return Not(SubstPred(p.A, env))
	default:
		panic(fmt.Sprintf("sym: subst of %s predicate", p.Op))
	}
}
