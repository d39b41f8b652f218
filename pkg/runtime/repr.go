package runtime

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Truthy implements guest truthiness: empty containers, zero numbers, empty
// strings and None are false.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case NoneValue:
		return false
	case BoolValue:
		return val.Val
	case IntValue:
		return val.Val.Sign() != 0
	case FloatValue:
		return val.Val != 0
	case StringValue:
		return val.Val != ""
	case *ListValue:
		return len(val.Elements) > 0
	case *TupleValue:
		return len(val.Elements) > 0
	case *DictValue:
		return val.Len() > 0
	case *SetValue:
		return val.Len() > 0
	case RangeValue:
		return val.Len() > 0
	default:
		return true
	}
}

// Equal implements guest `==` for the value model. Int/float compare
// numerically; containers compare element-wise.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case BoolValue:
		if bv, ok := b.(BoolValue); ok {
			return av.Val == bv.Val
		}
		return numericEqual(a, b)
	case IntValue, FloatValue:
		return numericEqual(a, b)
	case StringValue:
		if bv, ok := b.(StringValue); ok {
			return av.Val == bv.Val
		}
		return false
	case *ListValue:
		bv, ok := b.(*ListValue)
		return ok && sequenceEqual(av.Elements, bv.Elements)
	case *TupleValue:
		bv, ok := b.(*TupleValue)
		return ok && sequenceEqual(av.Elements, bv.Elements)
	case *DictValue:
		bv, ok := b.(*DictValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, item := range av.Items() {
			other, found, err := bv.Get(item.Elements[0])
			if err != nil || !found || !Equal(item.Elements[1], other) {
				return false
			}
		}
		return true
	case *SetValue:
		bv, ok := b.(*SetValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, el := range av.Elements() {
			found, err := bv.Contains(el)
			if err != nil || !found {
				return false
			}
		}
		return true
	case RangeValue:
		bv, ok := b.(RangeValue)
		return ok && av == bv
	default:
		return a == b
	}
}

func numericEqual(a, b Value) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	ai, aInt := a.(IntValue)
	bi, bInt := b.(IntValue)
	if aInt && bInt {
		return ai.Val.Cmp(bi.Val) == 0
	}
	return af == bf
}

func toFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case IntValue:
		f, _ := new(big.Float).SetInt(val.Val).Float64()
		return f, true
	case FloatValue:
		return val.Val, true
	case BoolValue:
		if val.Val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func sequenceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Str renders a value the way guest `str()` would.
func Str(v Value) string {
	switch val := v.(type) {
	case StringValue:
		return val.Val
	case *ExceptionValue:
		return val.Message
	default:
		return Repr(v)
	}
}

// Repr renders a value the way guest `repr()` would.
func Repr(v Value) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case NoneValue:
		return "None"
	case BoolValue:
		if val.Val {
			return "True"
		}
		return "False"
	case IntValue:
		return val.Val.String()
	case FloatValue:
		s := strconv.FormatFloat(val.Val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case StringValue:
		return "'" + strings.ReplaceAll(val.Val, "'", "\\'") + "'"
	case *ListValue:
		return "[" + joinRepr(val.Elements) + "]"
	case *TupleValue:
		if len(val.Elements) == 1 {
			return "(" + Repr(val.Elements[0]) + ",)"
		}
		return "(" + joinRepr(val.Elements) + ")"
	case *SetValue:
		if val.Len() == 0 {
			return "set()"
		}
		return "{" + joinRepr(val.Elements()) + "}"
	case *DictValue:
		parts := make([]string, 0, val.Len())
		for _, item := range val.Items() {
			parts = append(parts, Repr(item.Elements[0])+": "+Repr(item.Elements[1]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case RangeValue:
		if val.Step == 1 {
			return fmt.Sprintf("range(%d, %d)", val.Start, val.Stop)
		}
		return fmt.Sprintf("range(%d, %d, %d)", val.Start, val.Stop, val.Step)
	case *FunctionValue:
		return fmt.Sprintf("<function %s>", val.Name)
	case *BoundMethodValue:
		return fmt.Sprintf("<bound method %s>", val.Method.Name)
	case NativeFunctionValue:
		return fmt.Sprintf("<built-in function %s>", val.Name)
	case *ClassValue:
		return fmt.Sprintf("<class '%s'>", val.Name)
	case *InstanceValue:
		return fmt.Sprintf("<%s object>", val.Class.Name)
	case *ExceptionValue:
		return fmt.Sprintf("%s(%s)", val.TypeName(), "'"+val.Message+"'")
	case *ExceptionGroupValue:
		return fmt.Sprintf("ExceptionGroup('%s', %d members)", val.Message, len(val.Members))
	case *GeneratorValue:
		return fmt.Sprintf("<generator %s>", val.Name)
	case *CoroutineValue:
		return fmt.Sprintf("<coroutine %s>", val.Name)
	case *ModuleValue:
		return fmt.Sprintf("<module '%s'>", val.Name)
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}

func joinRepr(values []Value) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, Repr(v))
	}
	return strings.Join(parts, ", ")
}

// Export converts a value into plain Go data suitable for JSON transport.
// Ints that fit in 64 bits export as int64, wider ints as decimal strings;
// dict keys are stringified with Str.
func Export(v Value) any {
	switch val := v.(type) {
	case nil, NoneValue:
		return nil
	case BoolValue:
		return val.Val
	case IntValue:
		if val.Val.IsInt64() {
			return val.Val.Int64()
		}
		return val.Val.String()
	case FloatValue:
		return val.Val
	case StringValue:
		return val.Val
	case *ListValue:
		return exportSlice(val.Elements)
	case *TupleValue:
		return exportSlice(val.Elements)
	case *SetValue:
		return exportSlice(val.Elements())
	case RangeValue:
		out := make([]any, 0, val.Len())
		for i, n := val.Start, val.Len(); int64(len(out)) < n; i += val.Step {
			out = append(out, i)
		}
		return out
	case *DictValue:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			out[Str(item.Elements[0])] = Export(item.Elements[1])
		}
		return out
	case *InstanceValue:
		out := make(map[string]any, len(val.Attributes))
		for k, attr := range val.Attributes {
			out[k] = Export(attr)
		}
		return out
	default:
		return Repr(v)
	}
}

func exportSlice(values []Value) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, Export(v))
	}
	return out
}
