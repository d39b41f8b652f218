package sandbox

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"sandpiper/interpreter-go/pkg/runtime"
)

// registeredModules maps importable module names to their constructors.
// A fresh module value is built per import so one run cannot poison another.
var registeredModules = map[string]func() *runtime.ModuleValue{
	"math":      newMathModule,
	"json":      newJSONModule,
	"random":    newRandomModule,
	"re":        newReModule,
	"datetime":  newDatetimeModule,
	"itertools": newItertoolsModule,
}

// RegisteredModuleNames reports every module the sandbox can materialize.
func RegisteredModuleNames() []string {
	names := make([]string, 0, len(registeredModules))
	for name := range registeredModules {
		names = append(names, name)
	}
	return names
}

func native(name string, impl runtime.NativeFunc) runtime.Value {
	return runtime.NativeFunctionValue{Name: name, Impl: impl}
}

func oneFloat(name string, args []runtime.Value) (float64, error) {
	if err := wantArgs(name, args, 1, 1); err != nil {
		return 0, err
	}
	f, ok := numericFloat(args[0])
	if !ok {
		return 0, runtime.Errorf("TypeError", "must be real number, not %s", args[0].Kind())
	}
	return f, nil
}

func floatFn(name string, fn func(float64) float64) runtime.Value {
	return native(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
		f, err := oneFloat(name, args)
		if err != nil {
			return nil, err
		}
		out := fn(f)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			return nil, runtime.Errorf("ValueError", "math domain error")
		}
		return runtime.FloatValue{Val: out}, nil
	})
}

func newMathModule() *runtime.ModuleValue {
	return &runtime.ModuleValue{
		Name: "math",
		Attributes: map[string]runtime.Value{
			"pi":    runtime.FloatValue{Val: math.Pi},
			"e":     runtime.FloatValue{Val: math.E},
			"inf":   runtime.FloatValue{Val: math.Inf(1)},
			"sqrt":  floatFn("sqrt", math.Sqrt),
			"sin":   floatFn("sin", math.Sin),
			"cos":   floatFn("cos", math.Cos),
			"tan":   floatFn("tan", math.Tan),
			"log":   floatFn("log", math.Log),
			"log2":  floatFn("log2", math.Log2),
			"log10": floatFn("log10", math.Log10),
			"exp":   floatFn("exp", math.Exp),
			"floor": native("floor", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				f, err := oneFloat("floor", args)
				if err != nil {
					return nil, err
				}
				return runtime.NewInt(int64(math.Floor(f))), nil
			}),
			"ceil": native("ceil", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				f, err := oneFloat("ceil", args)
				if err != nil {
					return nil, err
				}
				return runtime.NewInt(int64(math.Ceil(f))), nil
			}),
			"pow": native("pow", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("pow", args, 2, 2); err != nil {
					return nil, err
				}
				a, aok := numericFloat(args[0])
				b, bok := numericFloat(args[1])
				if !aok || !bok {
					return nil, runtime.Errorf("TypeError", "must be real number")
				}
				return runtime.FloatValue{Val: math.Pow(a, b)}, nil
			}),
			"gcd": native("gcd", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("gcd", args, 2, 2); err != nil {
					return nil, err
				}
				a, aok := args[0].(runtime.IntValue)
				b, bok := args[1].(runtime.IntValue)
				if !aok || !bok {
					return nil, runtime.Errorf("TypeError", "gcd() requires integers")
				}
				return runtime.IntValue{Val: new(big.Int).GCD(nil, nil, new(big.Int).Abs(a.Val), new(big.Int).Abs(b.Val))}, nil
			}),
		},
	}
}

func jsonToValue(v any) runtime.Value {
	switch val := v.(type) {
	case nil:
		return runtime.NoneValue{}
	case bool:
		return runtime.BoolValue{Val: val}
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return runtime.NewInt(int64(val))
		}
		return runtime.FloatValue{Val: val}
	case json.Number:
		if n, ok := new(big.Int).SetString(val.String(), 10); ok {
			return runtime.IntValue{Val: n}
		}
		f, _ := val.Float64()
		return runtime.FloatValue{Val: f}
	case string:
		return runtime.StringValue{Val: val}
	case []any:
		out := make([]runtime.Value, len(val))
		for i, e := range val {
			out[i] = jsonToValue(e)
		}
		return &runtime.ListValue{Elements: out}
	case map[string]any:
		out := runtime.NewDict()
		for _, k := range sortedKeys(val) {
			_ = out.Set(runtime.StringValue{Val: k}, jsonToValue(val[k]))
		}
		return out
	default:
		return runtime.StringValue{Val: fmt.Sprint(val)}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newJSONModule() *runtime.ModuleValue {
	return &runtime.ModuleValue{
		Name: "json",
		Attributes: map[string]runtime.Value{
			"dumps": native("dumps", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("dumps", args, 1, 1); err != nil {
					return nil, err
				}
				data, err := json.Marshal(runtime.Export(args[0]))
				if err != nil {
					return nil, runtime.Errorf("TypeError", "object is not JSON serializable")
				}
				return runtime.StringValue{Val: string(data)}, nil
			}),
			"loads": native("loads", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("loads", args, 1, 1); err != nil {
					return nil, err
				}
				src, ok := args[0].(runtime.StringValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "the JSON object must be str, not %s", args[0].Kind())
				}
				dec := json.NewDecoder(strings.NewReader(src.Val))
				dec.UseNumber()
				var parsed any
				if err := dec.Decode(&parsed); err != nil {
					return nil, runtime.Errorf("ValueError", "invalid JSON: %v", err)
				}
				return jsonToValue(parsed), nil
			}),
		},
	}
}

func newRandomModule() *runtime.ModuleValue {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &runtime.ModuleValue{
		Name: "random",
		Attributes: map[string]runtime.Value{
			"seed": native("seed", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("seed", args, 1, 1); err != nil {
					return nil, err
				}
				n, err := intArg("seed", args[0])
				if err != nil {
					return nil, err
				}
				rng = rand.New(rand.NewSource(n))
				return runtime.NoneValue{}, nil
			}),
			"random": native("random", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				return runtime.FloatValue{Val: rng.Float64()}, nil
			}),
			"randint": native("randint", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("randint", args, 2, 2); err != nil {
					return nil, err
				}
				lo, err := intArg("randint", args[0])
				if err != nil {
					return nil, err
				}
				hi, err := intArg("randint", args[1])
				if err != nil {
					return nil, err
				}
				if hi < lo {
					return nil, runtime.Errorf("ValueError", "empty range for randint()")
				}
				return runtime.NewInt(lo + rng.Int63n(hi-lo+1)), nil
			}),
			"choice": native("choice", func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("choice", args, 1, 1); err != nil {
					return nil, err
				}
				values, err := ctx.Iter(args[0])
				if err != nil {
					return nil, err
				}
				if len(values) == 0 {
					return nil, runtime.Errorf("IndexError", "cannot choose from an empty sequence")
				}
				return values[rng.Intn(len(values))], nil
			}),
			"shuffle": native("shuffle", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("shuffle", args, 1, 1); err != nil {
					return nil, err
				}
				list, ok := args[0].(*runtime.ListValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "shuffle() requires a list")
				}
				rng.Shuffle(len(list.Elements), func(i, j int) {
					list.Elements[i], list.Elements[j] = list.Elements[j], list.Elements[i]
				})
				return runtime.NoneValue{}, nil
			}),
		},
	}
}

func compilePattern(args []runtime.Value) (*regexp.Regexp, string, error) {
	if len(args) < 2 {
		return nil, "", runtime.Errorf("TypeError", "missing pattern or string argument")
	}
	pat, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, "", runtime.Errorf("TypeError", "pattern must be str, got %s", args[0].Kind())
	}
	subject, ok := args[1].(runtime.StringValue)
	if !ok {
		return nil, "", runtime.Errorf("TypeError", "expected string, got %s", args[1].Kind())
	}
	re, err := regexp.Compile(pat.Val)
	if err != nil {
		return nil, "", runtime.Errorf("ValueError", "invalid regular expression: %v", err)
	}
	return re, subject.Val, nil
}

func newReModule() *runtime.ModuleValue {
	return &runtime.ModuleValue{
		Name: "re",
		Attributes: map[string]runtime.Value{
			"match": native("match", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				re, subject, err := compilePattern(args)
				if err != nil {
					return nil, err
				}
				loc := re.FindStringIndex(subject)
				if loc == nil || loc[0] != 0 {
					return runtime.NoneValue{}, nil
				}
				return runtime.StringValue{Val: subject[loc[0]:loc[1]]}, nil
			}),
			"search": native("search", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				re, subject, err := compilePattern(args)
				if err != nil {
					return nil, err
				}
				found := re.FindString(subject)
				if found == "" && !re.MatchString(subject) {
					return runtime.NoneValue{}, nil
				}
				return runtime.StringValue{Val: found}, nil
			}),
			"findall": native("findall", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				re, subject, err := compilePattern(args)
				if err != nil {
					return nil, err
				}
				matches := re.FindAllString(subject, -1)
				out := make([]runtime.Value, len(matches))
				for i, m := range matches {
					out[i] = runtime.StringValue{Val: m}
				}
				return &runtime.ListValue{Elements: out}, nil
			}),
			"sub": native("sub", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("sub", args, 3, 3); err != nil {
					return nil, err
				}
				repl, ok := args[1].(runtime.StringValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "replacement must be str")
				}
				re, _, err := compilePattern([]runtime.Value{args[0], args[2]})
				if err != nil {
					return nil, err
				}
				subject := args[2].(runtime.StringValue)
				return runtime.StringValue{Val: re.ReplaceAllString(subject.Val, repl.Val)}, nil
			}),
			"split": native("split", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				re, subject, err := compilePattern(args)
				if err != nil {
					return nil, err
				}
				parts := re.Split(subject, -1)
				out := make([]runtime.Value, len(parts))
				for i, p := range parts {
					out[i] = runtime.StringValue{Val: p}
				}
				return &runtime.ListValue{Elements: out}, nil
			}),
		},
	}
}

func newDatetimeModule() *runtime.ModuleValue {
	return &runtime.ModuleValue{
		Name: "datetime",
		Attributes: map[string]runtime.Value{
			"now": native("now", func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				return runtime.StringValue{Val: time.Now().UTC().Format("2006-01-02T15:04:05")}, nil
			}),
			"timestamp": native("timestamp", func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				return runtime.FloatValue{Val: float64(time.Now().UnixNano()) / 1e9}, nil
			}),
			"strftime": native("strftime", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("strftime", args, 1, 1); err != nil {
					return nil, err
				}
				format, ok := args[0].(runtime.StringValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "strftime() format must be str")
				}
				replacer := strings.NewReplacer(
					"%Y", "2006", "%m", "01", "%d", "02",
					"%H", "15", "%M", "04", "%S", "05",
				)
				return runtime.StringValue{Val: time.Now().UTC().Format(replacer.Replace(format.Val))}, nil
			}),
		},
	}
}

func newItertoolsModule() *runtime.ModuleValue {
	return &runtime.ModuleValue{
		Name: "itertools",
		Attributes: map[string]runtime.Value{
			"chain": native("chain", func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				var out []runtime.Value
				for _, a := range args {
					values, err := ctx.Iter(a)
					if err != nil {
						return nil, err
					}
					out = append(out, values...)
				}
				return &runtime.ListValue{Elements: out}, nil
			}),
			"repeat": native("repeat", func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("repeat", args, 2, 2); err != nil {
					return nil, err
				}
				n, err := intArg("repeat", args[1])
				if err != nil {
					return nil, err
				}
				out := make([]runtime.Value, 0, n)
				for i := int64(0); i < n; i++ {
					out = append(out, args[0])
				}
				return &runtime.ListValue{Elements: out}, nil
			}),
			"product": native("product", func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				if err := wantArgs("product", args, 2, 2); err != nil {
					return nil, err
				}
				left, err := ctx.Iter(args[0])
				if err != nil {
					return nil, err
				}
				right, err := ctx.Iter(args[1])
				if err != nil {
					return nil, err
				}
				out := make([]runtime.Value, 0, len(left)*len(right))
				for _, a := range left {
					for _, b := range right {
						out = append(out, &runtime.TupleValue{Elements: []runtime.Value{a, b}})
					}
				}
				return &runtime.ListValue{Elements: out}, nil
			}),
		},
	}
}
