package sandbox

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"

	"sandpiper/interpreter-go/pkg/runtime"
)

// exceptionNames lists the guest exception classes the sandbox exposes,
// mapped to their base class ("" marks the root).
var exceptionNames = [][2]string{
	{"BaseException", ""},
	{"Exception", "BaseException"},
	{"ArithmeticError", "Exception"},
	{"ZeroDivisionError", "ArithmeticError"},
	{"ValueError", "Exception"},
	{"TypeError", "Exception"},
	{"NameError", "Exception"},
	{"AttributeError", "Exception"},
	{"KeyError", "Exception"},
	{"IndexError", "Exception"},
	{"RuntimeError", "Exception"},
	{"NotImplementedError", "RuntimeError"},
	{"StopIteration", "Exception"},
	{"AssertionError", "Exception"},
	{"ImportError", "Exception"},
	{"TimeoutError", "Exception"},
	{"ExceptionGroup", "Exception"},
}

// NewExceptionClasses builds a fresh exception hierarchy for one run.
func NewExceptionClasses() map[string]*runtime.ClassValue {
	classes := make(map[string]*runtime.ClassValue, len(exceptionNames))
	for _, pair := range exceptionNames {
		cls := &runtime.ClassValue{
			Name:        pair[0],
			Attributes:  make(map[string]runtime.Value),
			IsException: true,
		}
		if base, ok := classes[pair[1]]; ok {
			cls.Bases = []*runtime.ClassValue{base}
		}
		classes[pair[0]] = cls
	}
	return classes
}

// NewBuiltins assembles the restricted builtin table for one run. The set is
// a fixed, explicit list; nothing is discovered by reflection. File access
// is only present when the policy disables OS restriction.
func NewBuiltins(policy *Policy) map[string]runtime.Value {
	table := make(map[string]runtime.Value, 48)
	for name, cls := range NewExceptionClasses() {
		table[name] = cls
	}
	register := func(name string, impl runtime.NativeFunc) {
		table[name] = runtime.NativeFunctionValue{Name: name, Impl: impl}
	}

	register("print", builtinPrint)
	register("len", builtinLen)
	register("range", builtinRange)
	register("abs", builtinAbs)
	register("min", builtinMin)
	register("max", builtinMax)
	register("sum", builtinSum)
	register("sorted", builtinSorted)
	register("reversed", builtinReversed)
	register("enumerate", builtinEnumerate)
	register("zip", builtinZip)
	register("list", builtinList)
	register("tuple", builtinTuple)
	register("dict", builtinDict)
	register("set", builtinSet)
	register("str", builtinStr)
	register("repr", builtinRepr)
	register("int", builtinInt)
	register("float", builtinFloat)
	register("bool", builtinBool)
	register("round", builtinRound)
	register("any", builtinAny)
	register("all", builtinAll)
	register("type", builtinType)
	register("isinstance", builtinIsinstance)
	register("next", builtinNext)
	register("map", builtinMap)
	register("filter", builtinFilter)
	register("getattr", builtinGetattr)
	register("hasattr", builtinHasattr)

	if policy != nil && !policy.RestrictOS {
		register("open", builtinOpen)
	}
	return table
}

func wantArgs(name string, args []runtime.Value, minimum, maximum int) error {
	if len(args) < minimum || (maximum >= 0 && len(args) > maximum) {
		if minimum == maximum {
			return runtime.Errorf("TypeError", "%s() takes %d argument(s), got %d", name, minimum, len(args))
		}
		return runtime.Errorf("TypeError", "%s() takes %d to %d arguments, got %d", name, minimum, maximum, len(args))
	}
	return nil
}

func builtinPrint(ctx *runtime.NativeCallContext, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	sep := " "
	end := "\n"
	if v, ok := kwargs["sep"]; ok {
		if s, ok := v.(runtime.StringValue); ok {
			sep = s.Val
		}
	}
	if v, ok := kwargs["end"]; ok {
		if s, ok := v.(runtime.StringValue); ok {
			end = s.Val
		}
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, runtime.Str(a))
	}
	if ctx.Stdout != nil {
		ctx.Stdout.WriteString(strings.Join(parts, sep))
		ctx.Stdout.WriteString(end)
	}
	return runtime.NoneValue{}, nil
}

func builtinLen(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case runtime.StringValue:
		return runtime.NewInt(int64(len([]rune(v.Val)))), nil
	case *runtime.ListValue:
		return runtime.NewInt(int64(len(v.Elements))), nil
	case *runtime.TupleValue:
		return runtime.NewInt(int64(len(v.Elements))), nil
	case *runtime.DictValue:
		return runtime.NewInt(int64(v.Len())), nil
	case *runtime.SetValue:
		return runtime.NewInt(int64(v.Len())), nil
	case runtime.RangeValue:
		return runtime.NewInt(v.Len()), nil
	default:
		return nil, runtime.Errorf("TypeError", "object of type '%s' has no len()", args[0].Kind())
	}
}

func intArg(name string, v runtime.Value) (int64, error) {
	switch val := v.(type) {
	case runtime.IntValue:
		if !val.Val.IsInt64() {
			return 0, runtime.Errorf("ValueError", "%s: integer out of range", name)
		}
		return val.Val.Int64(), nil
	case runtime.BoolValue:
		if val.Val {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, runtime.Errorf("TypeError", "%s: expected int, got %s", name, v.Kind())
	}
}

func builtinRange(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("range", args, 1, 3); err != nil {
		return nil, err
	}
	nums := make([]int64, 0, 3)
	for _, a := range args {
		n, err := intArg("range", a)
		if err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		return runtime.RangeValue{Start: 0, Stop: nums[0], Step: 1}, nil
	case 2:
		return runtime.RangeValue{Start: nums[0], Stop: nums[1], Step: 1}, nil
	default:
		if nums[2] == 0 {
			return nil, runtime.Errorf("ValueError", "range() arg 3 must not be zero")
		}
		return runtime.RangeValue{Start: nums[0], Stop: nums[1], Step: nums[2]}, nil
	}
}

func builtinAbs(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("abs", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case runtime.IntValue:
		return runtime.IntValue{Val: new(big.Int).Abs(v.Val)}, nil
	case runtime.FloatValue:
		if v.Val < 0 {
			return runtime.FloatValue{Val: -v.Val}, nil
		}
		return v, nil
	default:
		return nil, runtime.Errorf("TypeError", "bad operand type for abs(): '%s'", args[0].Kind())
	}
}

func compareNumbers(a, b runtime.Value) (int, error) {
	ai, aok := a.(runtime.IntValue)
	bi, bok := b.(runtime.IntValue)
	if aok && bok {
		return ai.Val.Cmp(bi.Val), nil
	}
	as, sok := a.(runtime.StringValue)
	bs, tok := b.(runtime.StringValue)
	if sok && tok {
		return strings.Compare(as.Val, bs.Val), nil
	}
	af, aok2 := numericFloat(a)
	bf, bok2 := numericFloat(b)
	if aok2 && bok2 {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, runtime.Errorf("TypeError", "'<' not supported between instances of '%s' and '%s'", a.Kind(), b.Kind())
}

func numericFloat(v runtime.Value) (float64, bool) {
	switch val := v.(type) {
	case runtime.IntValue:
		f, _ := new(big.Float).SetInt(val.Val).Float64()
		return f, true
	case runtime.FloatValue:
		return val.Val, true
	default:
		return 0, false
	}
}

func extremum(name string, ctx *runtime.NativeCallContext, args []runtime.Value, wantMax bool) (runtime.Value, error) {
	if len(args) == 0 {
		return nil, runtime.Errorf("TypeError", "%s expected at least 1 argument, got 0", name)
	}
	values := args
	if len(args) == 1 {
		drained, err := ctx.Iter(args[0])
		if err != nil {
			return nil, err
		}
		values = drained
	}
	if len(values) == 0 {
		return nil, runtime.Errorf("ValueError", "%s() arg is an empty sequence", name)
	}
	best := values[0]
	for _, v := range values[1:] {
		cmp, err := compareNumbers(v, best)
		if err != nil {
			return nil, err
		}
		if (wantMax && cmp > 0) || (!wantMax && cmp < 0) {
			best = v
		}
	}
	return best, nil
}

func builtinMin(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	return extremum("min", ctx, args, false)
}

func builtinMax(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	return extremum("max", ctx, args, true)
}

func builtinSum(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("sum", args, 1, 2); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	var acc runtime.Value = runtime.NewInt(0)
	if len(args) == 2 {
		acc = args[1]
	}
	for _, v := range values {
		switch a := acc.(type) {
		case runtime.IntValue:
			if b, ok := v.(runtime.IntValue); ok {
				acc = runtime.IntValue{Val: new(big.Int).Add(a.Val, b.Val)}
				continue
			}
		}
		af, aok := numericFloat(acc)
		bf, bok := numericFloat(v)
		if !aok || !bok {
			return nil, runtime.Errorf("TypeError", "unsupported operand type(s) for +: '%s' and '%s'", acc.Kind(), v.Kind())
		}
		acc = runtime.FloatValue{Val: af + bf}
	}
	return acc, nil
}

func builtinSorted(ctx *runtime.NativeCallContext, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("sorted", args, 1, 1); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	out := append([]runtime.Value(nil), values...)
	keys := out
	if keyFn, ok := kwargs["key"]; ok {
		keys = make([]runtime.Value, len(out))
		for i, v := range out {
			k, err := ctx.Invoke(keyFn, []runtime.Value{v}, nil)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
	}
	reverse := false
	if rev, ok := kwargs["reverse"]; ok {
		reverse = runtime.Truthy(rev)
	}
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		cmp, err := compareNumbers(keys[i], keys[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinReversed(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("reversed", args, 1, 1); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Value, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinEnumerate(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("enumerate", args, 1, 2); err != nil {
		return nil, err
	}
	start := int64(0)
	if len(args) == 2 {
		var err error
		start, err = intArg("enumerate", args[1])
		if err != nil {
			return nil, err
		}
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Value, 0, len(values))
	for i, v := range values {
		out = append(out, &runtime.TupleValue{Elements: []runtime.Value{runtime.NewInt(start + int64(i)), v}})
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinZip(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return &runtime.ListValue{}, nil
	}
	columns := make([][]runtime.Value, len(args))
	shortest := -1
	for i, a := range args {
		vals, err := ctx.Iter(a)
		if err != nil {
			return nil, err
		}
		columns[i] = vals
		if shortest < 0 || len(vals) < shortest {
			shortest = len(vals)
		}
	}
	out := make([]runtime.Value, 0, shortest)
	for row := 0; row < shortest; row++ {
		tup := make([]runtime.Value, len(columns))
		for col := range columns {
			tup[col] = columns[col][row]
		}
		out = append(out, &runtime.TupleValue{Elements: tup})
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinList(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("list", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return &runtime.ListValue{}, nil
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	return &runtime.ListValue{Elements: append([]runtime.Value(nil), values...)}, nil
}

func builtinTuple(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("tuple", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return &runtime.TupleValue{}, nil
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	return &runtime.TupleValue{Elements: append([]runtime.Value(nil), values...)}, nil
}

func builtinDict(ctx *runtime.NativeCallContext, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("dict", args, 0, 1); err != nil {
		return nil, err
	}
	out := runtime.NewDict()
	if len(args) == 1 {
		if src, ok := args[0].(*runtime.DictValue); ok {
			out.Update(src)
		} else {
			pairs, err := ctx.Iter(args[0])
			if err != nil {
				return nil, err
			}
			for _, p := range pairs {
				pair, err := ctx.Iter(p)
				if err != nil || len(pair) != 2 {
					return nil, runtime.Errorf("ValueError", "dict update sequence element is not a pair")
				}
				if err := out.Set(pair[0], pair[1]); err != nil {
					return nil, err
				}
			}
		}
	}
	for name, v := range kwargs {
		if err := out.Set(runtime.StringValue{Val: name}, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func builtinSet(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("set", args, 0, 1); err != nil {
		return nil, err
	}
	out := runtime.NewSet()
	if len(args) == 1 {
		values, err := ctx.Iter(args[0])
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if err := out.Add(v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func builtinStr(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return runtime.StringValue{}, nil
	}
	return runtime.StringValue{Val: runtime.Str(args[0])}, nil
}

func builtinRepr(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("repr", args, 1, 1); err != nil {
		return nil, err
	}
	return runtime.StringValue{Val: runtime.Repr(args[0])}, nil
}

func builtinInt(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("int", args, 0, 2); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return runtime.NewInt(0), nil
	}
	switch v := args[0].(type) {
	case runtime.IntValue:
		return v, nil
	case runtime.BoolValue:
		if v.Val {
			return runtime.NewInt(1), nil
		}
		return runtime.NewInt(0), nil
	case runtime.FloatValue:
		return runtime.NewInt(int64(v.Val)), nil
	case runtime.StringValue:
		base := 10
		if len(args) == 2 {
			b, err := intArg("int", args[1])
			if err != nil {
				return nil, err
			}
			base = int(b)
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(v.Val), base)
		if !ok {
			return nil, runtime.Errorf("ValueError", "invalid literal for int() with base %d: '%s'", base, v.Val)
		}
		return runtime.IntValue{Val: n}, nil
	default:
		return nil, runtime.Errorf("TypeError", "int() argument must be a string or a number, not '%s'", args[0].Kind())
	}
}

func builtinFloat(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return runtime.FloatValue{}, nil
	}
	switch v := args[0].(type) {
	case runtime.FloatValue:
		return v, nil
	case runtime.IntValue:
		f, _ := new(big.Float).SetInt(v.Val).Float64()
		return runtime.FloatValue{Val: f}, nil
	case runtime.StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Val), 64)
		if err != nil {
			return nil, runtime.Errorf("ValueError", "could not convert string to float: '%s'", v.Val)
		}
		return runtime.FloatValue{Val: f}, nil
	default:
		return nil, runtime.Errorf("TypeError", "float() argument must be a string or a number, not '%s'", args[0].Kind())
	}
}

func builtinBool(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("bool", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return runtime.BoolValue{}, nil
	}
	return runtime.BoolValue{Val: runtime.Truthy(args[0])}, nil
}

func builtinRound(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("round", args, 1, 2); err != nil {
		return nil, err
	}
	f, ok := numericFloat(args[0])
	if !ok {
		return nil, runtime.Errorf("TypeError", "type %s doesn't define round()", args[0].Kind())
	}
	digits := int64(0)
	if len(args) == 2 {
		var err error
		digits, err = intArg("round", args[1])
		if err != nil {
			return nil, err
		}
	}
	shift := 1.0
	for i := int64(0); i < digits; i++ {
		shift *= 10
	}
	rounded := float64(int64(f*shift+copysign(0.5, f))) / shift
	if len(args) == 1 {
		if _, isInt := args[0].(runtime.IntValue); isInt {
			return args[0], nil
		}
		return runtime.NewInt(int64(rounded)), nil
	}
	return runtime.FloatValue{Val: rounded}, nil
}

func copysign(mag, sign float64) float64 {
	if sign < 0 {
		return -mag
	}
	return mag
}

func builtinAny(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("any", args, 1, 1); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if runtime.Truthy(v) {
			return runtime.BoolValue{Val: true}, nil
		}
	}
	return runtime.BoolValue{Val: false}, nil
}

func builtinAll(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("all", args, 1, 1); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[0])
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if !runtime.Truthy(v) {
			return runtime.BoolValue{Val: false}, nil
		}
	}
	return runtime.BoolValue{Val: true}, nil
}

func builtinType(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("type", args, 1, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *runtime.InstanceValue:
		return v.Class, nil
	case *runtime.ExceptionValue:
		if v.Class != nil {
			return v.Class, nil
		}
	}
	return runtime.StringValue{Val: fmt.Sprintf("<class '%s'>", args[0].Kind())}, nil
}

func builtinIsinstance(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("isinstance", args, 2, 2); err != nil {
		return nil, err
	}
	classes := []runtime.Value{args[1]}
	if tup, ok := args[1].(*runtime.TupleValue); ok {
		classes = tup.Elements
	}
	for _, c := range classes {
		if Isinstance(args[0], c) {
			return runtime.BoolValue{Val: true}, nil
		}
	}
	return runtime.BoolValue{Val: false}, nil
}

// Isinstance implements the type-compatibility test shared by isinstance(),
// except matching, and class patterns.
func Isinstance(v runtime.Value, class runtime.Value) bool {
	cls, ok := class.(*runtime.ClassValue)
	if !ok {
		// Builtin type constructors arrive as native functions; match on name.
		if nf, isNative := class.(runtime.NativeFunctionValue); isNative {
			return v.Kind().String() == nf.Name ||
				(nf.Name == "int" && v.Kind() == runtime.KindInt) ||
				(nf.Name == "float" && v.Kind() == runtime.KindFloat) ||
				(nf.Name == "str" && v.Kind() == runtime.KindString) ||
				(nf.Name == "bool" && v.Kind() == runtime.KindBool) ||
				(nf.Name == "list" && v.Kind() == runtime.KindList) ||
				(nf.Name == "tuple" && v.Kind() == runtime.KindTuple) ||
				(nf.Name == "dict" && v.Kind() == runtime.KindDict) ||
				(nf.Name == "set" && v.Kind() == runtime.KindSet)
		}
		return false
	}
	switch val := v.(type) {
	case *runtime.InstanceValue:
		return val.Class.IsSubclassOf(cls)
	case *runtime.ExceptionValue:
		return val.Class.IsSubclassOf(cls)
	case *runtime.ExceptionGroupValue:
		return val.Class.IsSubclassOf(cls)
	default:
		return false
	}
}

func builtinNext(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("next", args, 1, 2); err != nil {
		return nil, err
	}
	gen, ok := args[0].(*runtime.GeneratorValue)
	if !ok {
		return nil, runtime.Errorf("TypeError", "'%s' object is not an iterator", args[0].Kind())
	}
	v, more, err := gen.Next()
	if err != nil {
		return nil, err
	}
	if !more {
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, runtime.Errorf("StopIteration", "StopIteration")
	}
	return v, nil
}

func builtinMap(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("map", args, 2, 2); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[1])
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Value, 0, len(values))
	for _, v := range values {
		mapped, err := ctx.Invoke(args[0], []runtime.Value{v}, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinFilter(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("filter", args, 2, 2); err != nil {
		return nil, err
	}
	values, err := ctx.Iter(args[1])
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Value, 0, len(values))
	for _, v := range values {
		keep := runtime.Truthy(v)
		if _, isNone := args[0].(runtime.NoneValue); !isNone {
			res, err := ctx.Invoke(args[0], []runtime.Value{v}, nil)
			if err != nil {
				return nil, err
			}
			keep = runtime.Truthy(res)
		}
		if keep {
			out = append(out, v)
		}
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinGetattr(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("getattr", args, 2, 3); err != nil {
		return nil, err
	}
	name, ok := args[1].(runtime.StringValue)
	if !ok {
		return nil, runtime.Errorf("TypeError", "getattr(): attribute name must be string")
	}
	if inst, ok := args[0].(*runtime.InstanceValue); ok {
		if v, found := inst.Attributes[name.Val]; found {
			return v, nil
		}
		if v, found := inst.Class.Lookup(name.Val); found {
			return v, nil
		}
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return nil, runtime.Errorf("AttributeError", "'%s' object has no attribute '%s'", args[0].Kind(), name.Val)
}

func builtinHasattr(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("hasattr", args, 2, 2); err != nil {
		return nil, err
	}
	_, err := builtinGetattr(ctx, args, nil)
	return runtime.BoolValue{Val: err == nil}, nil
}

// builtinOpen is exposed only when the policy disables OS restriction.
func builtinOpen(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
	if err := wantArgs("open", args, 1, 2); err != nil {
		return nil, err
	}
	path, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, runtime.Errorf("TypeError", "open(): path must be string")
	}
	data, err := os.ReadFile(path.Val)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %v", err)
	}
	return runtime.StringValue{Val: string(data)}, nil
}
