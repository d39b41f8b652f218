package interpreter

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"sandpiper/interpreter-go/pkg/runtime"
)

// maxExponent bounds integer ** so guest code cannot allocate unbounded
// big.Int results in one step.
const maxExponent = 1 << 20

// maxShift bounds << and >> the same way.
const maxShift = 1 << 16

func (i *Interpreter) unaryOp(op string, v runtime.Value) (runtime.Value, error) {
	switch op {
	case "not":
		return runtime.BoolValue{Val: !runtime.Truthy(v)}, nil
	case "-":
		switch val := v.(type) {
		case runtime.IntValue:
			return runtime.IntValue{Val: new(big.Int).Neg(val.Val)}, nil
		case runtime.FloatValue:
			return runtime.FloatValue{Val: -val.Val}, nil
		case runtime.BoolValue:
			if val.Val {
				return runtime.NewInt(-1), nil
			}
			return runtime.NewInt(0), nil
		}
	case "+":
		switch v.(type) {
		case runtime.IntValue, runtime.FloatValue, runtime.BoolValue:
			return v, nil
		}
	case "~":
		if val, ok := v.(runtime.IntValue); ok {
			return runtime.IntValue{Val: new(big.Int).Not(val.Val)}, nil
		}
	}
	return nil, i.raise("TypeError", "bad operand type for unary %s: '%s'", op, v.Kind())
}

func asInt(v runtime.Value) (*big.Int, bool) {
	switch val := v.(type) {
	case runtime.IntValue:
		return val.Val, true
	case runtime.BoolValue:
		if val.Val {
			return big.NewInt(1), true
		}
		return big.NewInt(0), true
	default:
		return nil, false
	}
}

func asFloat(v runtime.Value) (float64, bool) {
	switch val := v.(type) {
	case runtime.FloatValue:
		return val.Val, true
	case runtime.IntValue:
		f, _ := new(big.Float).SetInt(val.Val).Float64()
		return f, true
	case runtime.BoolValue:
		if val.Val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// floorDiv implements floor division with the sign semantics of the guest
// language (quotient rounds toward negative infinity).
func floorDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (a.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

func floorMod(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, new(big.Int).Mul(floorDiv(a, b), b))
}

func (i *Interpreter) binaryOp(op string, left, right runtime.Value) (runtime.Value, error) {
	// Integer-integer fast path (bool promotes to int).
	if a, ok := asInt(left); ok {
		if b, ok := asInt(right); ok {
			return i.intOp(op, a, b)
		}
	}
	if af, ok := asFloat(left); ok {
		if bf, ok := asFloat(right); ok {
			return i.floatOp(op, af, bf)
		}
	}

	switch op {
	case "+":
		switch l := left.(type) {
		case runtime.StringValue:
			if r, ok := right.(runtime.StringValue); ok {
				return runtime.StringValue{Val: l.Val + r.Val}, nil
			}
			return nil, i.raise("TypeError", "can only concatenate str (not \"%s\") to str", right.Kind())
		case *runtime.ListValue:
			if r, ok := right.(*runtime.ListValue); ok {
				out := make([]runtime.Value, 0, len(l.Elements)+len(r.Elements))
				out = append(out, l.Elements...)
				out = append(out, r.Elements...)
				return &runtime.ListValue{Elements: out}, nil
			}
		case *runtime.TupleValue:
			if r, ok := right.(*runtime.TupleValue); ok {
				out := make([]runtime.Value, 0, len(l.Elements)+len(r.Elements))
				out = append(out, l.Elements...)
				out = append(out, r.Elements...)
				return &runtime.TupleValue{Elements: out}, nil
			}
		}
	case "*":
		if v, err, ok := i.repeatOp(left, right); ok {
			return v, err
		}
		if v, err, ok := i.repeatOp(right, left); ok {
			return v, err
		}
	case "%":
		if l, ok := left.(runtime.StringValue); ok {
			return i.percentFormat(l.Val, right)
		}
	case "|":
		if l, ok := left.(*runtime.SetValue); ok {
			if r, ok := right.(*runtime.SetValue); ok {
				return setUnion(l, r)
			}
		}
		if l, ok := left.(*runtime.DictValue); ok {
			if r, ok := right.(*runtime.DictValue); ok {
				out := runtime.NewDict()
				out.Update(l)
				out.Update(r)
				return out, nil
			}
		}
	case "&":
		if l, ok := left.(*runtime.SetValue); ok {
			if r, ok := right.(*runtime.SetValue); ok {
				return setIntersection(l, r)
			}
		}
	case "-":
		if l, ok := left.(*runtime.SetValue); ok {
			if r, ok := right.(*runtime.SetValue); ok {
				return setDifference(l, r)
			}
		}
	case "^":
		if l, ok := left.(*runtime.SetValue); ok {
			if r, ok := right.(*runtime.SetValue); ok {
				return setSymmetricDifference(l, r)
			}
		}
	}
	return nil, i.raise("TypeError", "unsupported operand type(s) for %s: '%s' and '%s'", op, left.Kind(), right.Kind())
}

// repeatOp handles sequence * int in either operand order.
func (i *Interpreter) repeatOp(seq, count runtime.Value) (runtime.Value, error, bool) {
	n, ok := asInt(count)
	if !ok {
		return nil, nil, false
	}
	if !n.IsInt64() {
		return nil, i.raise("OverflowError", "repeat count too large"), true
	}
	times := n.Int64()
	if times < 0 {
		times = 0
	}
	switch s := seq.(type) {
	case runtime.StringValue:
		if int64(len(s.Val))*times > 1<<24 {
			return nil, i.raise("OverflowError", "repeated string is too long"), true
		}
		return runtime.StringValue{Val: strings.Repeat(s.Val, int(times))}, nil, true
	case *runtime.ListValue:
		out := make([]runtime.Value, 0, int(times)*len(s.Elements))
		for k := int64(0); k < times; k++ {
			out = append(out, s.Elements...)
		}
		return &runtime.ListValue{Elements: out}, nil, true
	case *runtime.TupleValue:
		out := make([]runtime.Value, 0, int(times)*len(s.Elements))
		for k := int64(0); k < times; k++ {
			out = append(out, s.Elements...)
		}
		return &runtime.TupleValue{Elements: out}, nil, true
	default:
		return nil, nil, false
	}
}

func (i *Interpreter) intOp(op string, a, b *big.Int) (runtime.Value, error) {
	switch op {
	case "+":
		return runtime.IntValue{Val: new(big.Int).Add(a, b)}, nil
	case "-":
		return runtime.IntValue{Val: new(big.Int).Sub(a, b)}, nil
	case "*":
		return runtime.IntValue{Val: new(big.Int).Mul(a, b)}, nil
	case "/":
		if b.Sign() == 0 {
			return nil, i.raise("ZeroDivisionError", "division by zero")
		}
		af, _ := new(big.Float).SetInt(a).Float64()
		bf, _ := new(big.Float).SetInt(b).Float64()
		return runtime.FloatValue{Val: af / bf}, nil
	case "//":
		if b.Sign() == 0 {
			return nil, i.raise("ZeroDivisionError", "integer division or modulo by zero")
		}
		return runtime.IntValue{Val: floorDiv(a, b)}, nil
	case "%":
		if b.Sign() == 0 {
			return nil, i.raise("ZeroDivisionError", "integer division or modulo by zero")
		}
		return runtime.IntValue{Val: floorMod(a, b)}, nil
	case "**":
		if b.Sign() < 0 {
			af, _ := new(big.Float).SetInt(a).Float64()
			bf, _ := new(big.Float).SetInt(b).Float64()
			return runtime.FloatValue{Val: math.Pow(af, bf)}, nil
		}
		if !b.IsInt64() || b.Int64() > maxExponent {
			return nil, i.raise("OverflowError", "exponent too large")
		}
		return runtime.IntValue{Val: new(big.Int).Exp(a, b, nil)}, nil
	case "|":
		return runtime.IntValue{Val: new(big.Int).Or(a, b)}, nil
	case "&":
		return runtime.IntValue{Val: new(big.Int).And(a, b)}, nil
	case "^":
		return runtime.IntValue{Val: new(big.Int).Xor(a, b)}, nil
	case "<<":
		return i.shiftOp(a, b, true)
	case ">>":
		return i.shiftOp(a, b, false)
	default:
		return nil, i.raise("TypeError", "unsupported operand type(s) for %s: 'int' and 'int'", op)
	}
}

func (i *Interpreter) shiftOp(a, b *big.Int, left bool) (runtime.Value, error) {
	if b.Sign() < 0 {
		return nil, i.raise("ValueError", "negative shift count")
	}
	if !b.IsInt64() || b.Int64() > maxShift {
		return nil, i.raise("OverflowError", "shift count too large")
	}
	n := uint(b.Int64())
	if left {
		return runtime.IntValue{Val: new(big.Int).Lsh(a, n)}, nil
	}
	return runtime.IntValue{Val: new(big.Int).Rsh(a, n)}, nil
}

func (i *Interpreter) floatOp(op string, a, b float64) (runtime.Value, error) {
	switch op {
	case "+":
		return runtime.FloatValue{Val: a + b}, nil
	case "-":
		return runtime.FloatValue{Val: a - b}, nil
	case "*":
		return runtime.FloatValue{Val: a * b}, nil
	case "/":
		if b == 0 {
			return nil, i.raise("ZeroDivisionError", "float division by zero")
		}
		return runtime.FloatValue{Val: a / b}, nil
	case "//":
		if b == 0 {
			return nil, i.raise("ZeroDivisionError", "float floor division by zero")
		}
		return runtime.FloatValue{Val: math.Floor(a / b)}, nil
	case "%":
		if b == 0 {
			return nil, i.raise("ZeroDivisionError", "float modulo")
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return runtime.FloatValue{Val: m}, nil
	case "**":
		return runtime.FloatValue{Val: math.Pow(a, b)}, nil
	default:
		return nil, i.raise("TypeError", "unsupported operand type(s) for %s: 'float' and 'float'", op)
	}
}

// percentFormat implements the % operator on format strings well enough for
// the common %s/%d/%f cases.
func (i *Interpreter) percentFormat(format string, arg runtime.Value) (runtime.Value, error) {
	args := []runtime.Value{arg}
	if tup, ok := arg.(*runtime.TupleValue); ok {
		args = tup.Elements
	}
	var out strings.Builder
	next := 0
	for k := 0; k < len(format); k++ {
		c := format[k]
		if c != '%' {
			out.WriteByte(c)
			continue
		}
		k++
		if k >= len(format) {
			return nil, i.raise("ValueError", "incomplete format")
		}
		if format[k] == '%' {
			out.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return nil, i.raise("TypeError", "not enough arguments for format string")
		}
		v := args[next]
		next++
		switch format[k] {
		case 's':
			out.WriteString(runtime.Str(v))
		case 'r':
			out.WriteString(runtime.Repr(v))
		case 'd':
			n, ok := asInt(v)
			if !ok {
				if f, isF := v.(runtime.FloatValue); isF {
					n = big.NewInt(int64(f.Val))
					ok = true
				}
			}
			if !ok {
				return nil, i.raise("TypeError", "%%d format: a number is required, not %s", v.Kind())
			}
			out.WriteString(n.String())
		case 'f':
			f, ok := asFloat(v)
			if !ok {
				return nil, i.raise("TypeError", "must be real number, not %s", v.Kind())
			}
			out.WriteString(strconv.FormatFloat(f, 'f', 6, 64))
		default:
			return nil, i.raise("ValueError", "unsupported format character '%c'", format[k])
		}
	}
	if next < len(args) {
		return nil, i.raise("TypeError", "not all arguments converted during string formatting")
	}
	return runtime.StringValue{Val: out.String()}, nil
}

// orderCompare returns -1/0/1 for <, ==, > and an error for unordered pairs.
func (i *Interpreter) orderCompare(left, right runtime.Value) (int, error) {
	if a, ok := asInt(left); ok {
		if b, ok := asInt(right); ok {
			return a.Cmp(b), nil
		}
	}
	if af, ok := asFloat(left); ok {
		if bf, ok := asFloat(right); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if a, ok := left.(runtime.StringValue); ok {
		if b, ok := right.(runtime.StringValue); ok {
			return strings.Compare(a.Val, b.Val), nil
		}
	}
	la, aok := sequenceElements(left)
	lb, bok := sequenceElements(right)
	if aok && bok && left.Kind() == right.Kind() {
		for idx := 0; idx < len(la) && idx < len(lb); idx++ {
			cmp, err := i.orderCompare(la[idx], lb[idx])
			if err != nil {
				return 0, err
			}
			if cmp != 0 {
				return cmp, nil
			}
		}
		switch {
		case len(la) < len(lb):
			return -1, nil
		case len(la) > len(lb):
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, i.raise("TypeError", "'<' not supported between instances of '%s' and '%s'", left.Kind(), right.Kind())
}

func sequenceElements(v runtime.Value) ([]runtime.Value, bool) {
	switch s := v.(type) {
	case *runtime.ListValue:
		return s.Elements, true
	case *runtime.TupleValue:
		return s.Elements, true
	default:
		return nil, false
	}
}

// compareOp evaluates one link of a comparison chain.
func (i *Interpreter) compareOp(op string, left, right runtime.Value) (bool, error) {
	switch op {
	case "==":
		return runtime.Equal(left, right), nil
	case "!=":
		return !runtime.Equal(left, right), nil
	case "is":
		return valueIs(left, right), nil
	case "is not":
		return !valueIs(left, right), nil
	case "in":
		return i.contains(right, left)
	case "not in":
		ok, err := i.contains(right, left)
		return !ok, err
	case "<", "<=", ">", ">=":
		cmp, err := i.orderCompare(left, right)
		if err != nil {
			return false, err
		}
		switch op {
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	default:
		return false, i.raise("TypeError", "unknown comparison operator '%s'", op)
	}
}

// valueIs approximates identity: reference equality for heap values, value
// equality for immutable scalars.
func valueIs(a, b runtime.Value) bool {
	switch av := a.(type) {
	case runtime.NoneValue:
		_, ok := b.(runtime.NoneValue)
		return ok
	case runtime.BoolValue:
		bv, ok := b.(runtime.BoolValue)
		return ok && av.Val == bv.Val
	case *runtime.ListValue:
		bv, ok := b.(*runtime.ListValue)
		return ok && av == bv
	case *runtime.TupleValue:
		bv, ok := b.(*runtime.TupleValue)
		return ok && av == bv
	case *runtime.DictValue:
		bv, ok := b.(*runtime.DictValue)
		return ok && av == bv
	case *runtime.SetValue:
		bv, ok := b.(*runtime.SetValue)
		return ok && av == bv
	case *runtime.InstanceValue:
		bv, ok := b.(*runtime.InstanceValue)
		return ok && av == bv
	case *runtime.FunctionValue:
		bv, ok := b.(*runtime.FunctionValue)
		return ok && av == bv
	default:
		return runtime.Equal(a, b)
	}
}

func (i *Interpreter) contains(container, item runtime.Value) (bool, error) {
	switch c := container.(type) {
	case runtime.StringValue:
		s, ok := item.(runtime.StringValue)
		if !ok {
			return false, i.raise("TypeError", "'in <string>' requires string as left operand, not %s", item.Kind())
		}
		return strings.Contains(c.Val, s.Val), nil
	case *runtime.DictValue:
		_, found, err := c.Get(item)
		if err != nil {
			return false, err
		}
		return found, nil
	case *runtime.SetValue:
		return c.Contains(item)
	default:
		values, err := i.iterate(container)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if runtime.Equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	}
}

func setUnion(a, b *runtime.SetValue) (runtime.Value, error) {
	out := runtime.NewSet()
	for _, v := range a.Elements() {
		if err := out.Add(v); err != nil {
			return nil, err
		}
	}
	for _, v := range b.Elements() {
		if err := out.Add(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func setIntersection(a, b *runtime.SetValue) (runtime.Value, error) {
	out := runtime.NewSet()
	for _, v := range a.Elements() {
		ok, err := b.Contains(v)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := out.Add(v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func setDifference(a, b *runtime.SetValue) (runtime.Value, error) {
	out := runtime.NewSet()
	for _, v := range a.Elements() {
		ok, err := b.Contains(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := out.Add(v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func setSymmetricDifference(a, b *runtime.SetValue) (runtime.Value, error) {
	left, err := setDifference(a, b)
	if err != nil {
		return nil, err
	}
	right, err := setDifference(b, a)
	if err != nil {
		return nil, err
	}
	return setUnion(left.(*runtime.SetValue), right.(*runtime.SetValue))
}
