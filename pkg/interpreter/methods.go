package interpreter

import (
	"sort"
	"strings"

	"sandpiper/interpreter-go/pkg/runtime"
)

// lookupMethod resolves methods on builtin value kinds. Each lookup builds a
// closure bound to the receiver.
func (i *Interpreter) lookupMethod(recv runtime.Value, name string) (runtime.Value, bool) {
	switch r := recv.(type) {
	case runtime.StringValue:
		return i.stringMethod(r, name)
	case *runtime.ListValue:
		return i.listMethod(r, name)
	case *runtime.TupleValue:
		return i.tupleMethod(r, name)
	case *runtime.DictValue:
		return i.dictMethod(r, name)
	case *runtime.SetValue:
		return i.setMethod(r, name)
	default:
		return nil, false
	}
}

func method(name string, impl runtime.NativeFunc) (runtime.Value, bool) {
	return runtime.NativeFunctionValue{Name: name, Impl: impl}, true
}

func (i *Interpreter) stringMethod(s runtime.StringValue, name string) (runtime.Value, bool) {
	str := s.Val
	wantStrArg := func(args []runtime.Value, method string) (string, error) {
		if len(args) != 1 {
			return "", runtime.Errorf("TypeError", "%s() takes exactly one argument (%d given)", method, len(args))
		}
		v, ok := args[0].(runtime.StringValue)
		if !ok {
			return "", runtime.Errorf("TypeError", "%s() argument must be str, not %s", method, args[0].Kind())
		}
		return v.Val, nil
	}

	switch name {
	case "upper":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			return runtime.StringValue{Val: strings.ToUpper(str)}, nil
		})
	case "lower":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			return runtime.StringValue{Val: strings.ToLower(str)}, nil
		})
	case "capitalize":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if str == "" {
				return s, nil
			}
			return runtime.StringValue{Val: strings.ToUpper(str[:1]) + strings.ToLower(str[1:])}, nil
		})
	case "title":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			var out strings.Builder
			startWord := true
			for _, r := range strings.ToLower(str) {
				isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
				if startWord && isLetter {
					out.WriteString(strings.ToUpper(string(r)))
				} else {
					out.WriteRune(r)
				}
				startWord = !isLetter
			}
			return runtime.StringValue{Val: out.String()}, nil
		})
	case "strip", "lstrip", "rstrip":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			cutset := " \t\n\r\v\f"
			if len(args) == 1 {
				v, ok := args[0].(runtime.StringValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "%s arg must be None or str", name)
				}
				cutset = v.Val
			}
			switch name {
			case "lstrip":
				return runtime.StringValue{Val: strings.TrimLeft(str, cutset)}, nil
			case "rstrip":
				return runtime.StringValue{Val: strings.TrimRight(str, cutset)}, nil
			default:
				return runtime.StringValue{Val: strings.Trim(str, cutset)}, nil
			}
		})
	case "split":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			var parts []string
			if len(args) == 0 {
				parts = strings.Fields(str)
			} else {
				sep, ok := args[0].(runtime.StringValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "must be str or None, not %s", args[0].Kind())
				}
				if sep.Val == "" {
					return nil, runtime.Errorf("ValueError", "empty separator")
				}
				parts = strings.Split(str, sep.Val)
			}
			out := make([]runtime.Value, len(parts))
			for idx, p := range parts {
				out[idx] = runtime.StringValue{Val: p}
			}
			return &runtime.ListValue{Elements: out}, nil
		})
	case "join":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "join() takes exactly one argument (%d given)", len(args))
			}
			values, err := ctx.Iter(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(values))
			for idx, v := range values {
				sv, ok := v.(runtime.StringValue)
				if !ok {
					return nil, runtime.Errorf("TypeError", "sequence item %d: expected str instance, %s found", idx, v.Kind())
				}
				parts[idx] = sv.Val
			}
			return runtime.StringValue{Val: strings.Join(parts, str)}, nil
		})
	case "replace":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 2 {
				return nil, runtime.Errorf("TypeError", "replace() takes exactly two arguments (%d given)", len(args))
			}
			old, ok1 := args[0].(runtime.StringValue)
			new_, ok2 := args[1].(runtime.StringValue)
			if !ok1 || !ok2 {
				return nil, runtime.Errorf("TypeError", "replace() arguments must be str")
			}
			return runtime.StringValue{Val: strings.ReplaceAll(str, old.Val, new_.Val)}, nil
		})
	case "startswith":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			prefix, err := wantStrArg(args, name)
			if err != nil {
				return nil, err
			}
			return runtime.BoolValue{Val: strings.HasPrefix(str, prefix)}, nil
		})
	case "endswith":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			suffix, err := wantStrArg(args, name)
			if err != nil {
				return nil, err
			}
			return runtime.BoolValue{Val: strings.HasSuffix(str, suffix)}, nil
		})
	case "find":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			sub, err := wantStrArg(args, name)
			if err != nil {
				return nil, err
			}
			return runtime.NewInt(int64(strings.Index(str, sub))), nil
		})
	case "index":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			sub, err := wantStrArg(args, name)
			if err != nil {
				return nil, err
			}
			idx := strings.Index(str, sub)
			if idx < 0 {
				return nil, runtime.Errorf("ValueError", "substring not found")
			}
			return runtime.NewInt(int64(idx)), nil
		})
	case "count":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			sub, err := wantStrArg(args, name)
			if err != nil {
				return nil, err
			}
			return runtime.NewInt(int64(strings.Count(str, sub))), nil
		})
	case "isdigit":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			ok := str != ""
			for _, r := range str {
				if r < '0' || r > '9' {
					ok = false
					break
				}
			}
			return runtime.BoolValue{Val: ok}, nil
		})
	case "isalpha":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			ok := str != ""
			for _, r := range str {
				if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
					ok = false
					break
				}
			}
			return runtime.BoolValue{Val: ok}, nil
		})
	case "isspace":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			return runtime.BoolValue{Val: str != "" && strings.TrimSpace(str) == ""}, nil
		})
	case "zfill":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "zfill() takes exactly one argument")
			}
			width, ok := asInt(args[0])
			if !ok {
				return nil, runtime.Errorf("TypeError", "zfill() width must be int")
			}
			w := int(width.Int64())
			if len(str) >= w {
				return s, nil
			}
			return runtime.StringValue{Val: strings.Repeat("0", w-len(str)) + str}, nil
		})
	case "format":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
			return formatString(str, args, kwargs)
		})
	default:
		return nil, false
	}
}

// formatString implements positional {} / {0} and named {key} placeholders.
func formatString(format string, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	var out strings.Builder
	auto := 0
	for k := 0; k < len(format); k++ {
		c := format[k]
		if c == '{' && k+1 < len(format) && format[k+1] == '{' {
			out.WriteByte('{')
			k++
			continue
		}
		if c == '}' && k+1 < len(format) && format[k+1] == '}' {
			out.WriteByte('}')
			k++
			continue
		}
		if c != '{' {
			out.WriteByte(c)
			continue
		}
		end := strings.IndexByte(format[k:], '}')
		if end < 0 {
			return nil, runtime.Errorf("ValueError", "Single '{' encountered in format string")
		}
		field := format[k+1 : k+end]
		k += end
		var v runtime.Value
		switch {
		case field == "":
			if auto >= len(args) {
				return nil, runtime.Errorf("IndexError", "Replacement index %d out of range for positional args tuple", auto)
			}
			v = args[auto]
			auto++
		case isDigits(field):
			idx := 0
			for _, r := range field {
				idx = idx*10 + int(r-'0')
			}
			if idx >= len(args) {
				return nil, runtime.Errorf("IndexError", "Replacement index %d out of range for positional args tuple", idx)
			}
			v = args[idx]
		default:
			found, ok := kwargs[field]
			if !ok {
				return nil, runtime.Errorf("KeyError", "'%s'", field)
			}
			v = found
		}
		out.WriteString(runtime.Str(v))
	}
	return runtime.StringValue{Val: out.String()}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (i *Interpreter) listMethod(list *runtime.ListValue, name string) (runtime.Value, bool) {
	switch name {
	case "append":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "append() takes exactly one argument (%d given)", len(args))
			}
			list.Elements = append(list.Elements, args[0])
			return runtime.NoneValue{}, nil
		})
	case "extend":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "extend() takes exactly one argument (%d given)", len(args))
			}
			values, err := ctx.Iter(args[0])
			if err != nil {
				return nil, err
			}
			list.Elements = append(list.Elements, values...)
			return runtime.NoneValue{}, nil
		})
	case "insert":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 2 {
				return nil, runtime.Errorf("TypeError", "insert() takes exactly 2 arguments (%d given)", len(args))
			}
			n, ok := asInt(args[0])
			if !ok {
				return nil, runtime.Errorf("TypeError", "insert() index must be int")
			}
			idx := int(n.Int64())
			if idx < 0 {
				idx += len(list.Elements)
			}
			if idx < 0 {
				idx = 0
			}
			if idx > len(list.Elements) {
				idx = len(list.Elements)
			}
			list.Elements = append(list.Elements, nil)
			copy(list.Elements[idx+1:], list.Elements[idx:])
			list.Elements[idx] = args[1]
			return runtime.NoneValue{}, nil
		})
	case "pop":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(list.Elements) == 0 {
				return nil, runtime.Errorf("IndexError", "pop from empty list")
			}
			idx := len(list.Elements) - 1
			if len(args) == 1 {
				n, ok := asInt(args[0])
				if !ok {
					return nil, runtime.Errorf("TypeError", "pop() index must be int")
				}
				idx = int(n.Int64())
				if idx < 0 {
					idx += len(list.Elements)
				}
				if idx < 0 || idx >= len(list.Elements) {
					return nil, runtime.Errorf("IndexError", "pop index out of range")
				}
			}
			v := list.Elements[idx]
			list.Elements = append(list.Elements[:idx], list.Elements[idx+1:]...)
			return v, nil
		})
	case "remove":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "remove() takes exactly one argument (%d given)", len(args))
			}
			for idx, v := range list.Elements {
				if runtime.Equal(v, args[0]) {
					list.Elements = append(list.Elements[:idx], list.Elements[idx+1:]...)
					return runtime.NoneValue{}, nil
				}
			}
			return nil, runtime.Errorf("ValueError", "list.remove(x): x not in list")
		})
	case "index":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "index() takes exactly one argument (%d given)", len(args))
			}
			for idx, v := range list.Elements {
				if runtime.Equal(v, args[0]) {
					return runtime.NewInt(int64(idx)), nil
				}
			}
			return nil, runtime.Errorf("ValueError", "%s is not in list", runtime.Repr(args[0]))
		})
	case "count":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "count() takes exactly one argument (%d given)", len(args))
			}
			n := int64(0)
			for _, v := range list.Elements {
				if runtime.Equal(v, args[0]) {
					n++
				}
			}
			return runtime.NewInt(n), nil
		})
	case "sort":
		return method(name, func(ctx *runtime.NativeCallContext, _ []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
			keys := list.Elements
			if keyFn, ok := kwargs["key"]; ok {
				keys = make([]runtime.Value, len(list.Elements))
				for idx, v := range list.Elements {
					k, err := ctx.Invoke(keyFn, []runtime.Value{v}, nil)
					if err != nil {
						return nil, err
					}
					keys[idx] = k
				}
			}
			reverse := false
			if rev, ok := kwargs["reverse"]; ok {
				reverse = runtime.Truthy(rev)
			}
			type pair struct{ key, val runtime.Value }
			pairs := make([]pair, len(list.Elements))
			for idx := range list.Elements {
				pairs[idx] = pair{key: keys[idx], val: list.Elements[idx]}
			}
			var sortErr error
			sort.SliceStable(pairs, func(a, b int) bool {
				cmp, err := i.orderCompare(pairs[a].key, pairs[b].key)
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
			for idx := range pairs {
				list.Elements[idx] = pairs[idx].val
			}
			return runtime.NoneValue{}, nil
		})
	case "reverse":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			for a, b := 0, len(list.Elements)-1; a < b; a, b = a+1, b-1 {
				list.Elements[a], list.Elements[b] = list.Elements[b], list.Elements[a]
			}
			return runtime.NoneValue{}, nil
		})
	case "clear":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			list.Elements = nil
			return runtime.NoneValue{}, nil
		})
	case "copy":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			return &runtime.ListValue{Elements: append([]runtime.Value(nil), list.Elements...)}, nil
		})
	default:
		return nil, false
	}
}

func (i *Interpreter) tupleMethod(tup *runtime.TupleValue, name string) (runtime.Value, bool) {
	switch name {
	case "count":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "count() takes exactly one argument (%d given)", len(args))
			}
			n := int64(0)
			for _, v := range tup.Elements {
				if runtime.Equal(v, args[0]) {
					n++
				}
			}
			return runtime.NewInt(n), nil
		})
	case "index":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "index() takes exactly one argument (%d given)", len(args))
			}
			for idx, v := range tup.Elements {
				if runtime.Equal(v, args[0]) {
					return runtime.NewInt(int64(idx)), nil
				}
			}
			return nil, runtime.Errorf("ValueError", "tuple.index(x): x not in tuple")
		})
	default:
		return nil, false
	}
}

func (i *Interpreter) dictMethod(dict *runtime.DictValue, name string) (runtime.Value, bool) {
	switch name {
	case "get":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, runtime.Errorf("TypeError", "get expected at most 2 arguments, got %d", len(args))
			}
			v, found, err := dict.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return runtime.NoneValue{}, nil
		})
	case "keys":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			return &runtime.ListValue{Elements: dict.Keys()}, nil
		})
	case "values":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			var out []runtime.Value
			for _, key := range dict.Keys() {
				v, _, err := dict.Get(key)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return &runtime.ListValue{Elements: out}, nil
		})
	case "items":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			var out []runtime.Value
			for _, key := range dict.Keys() {
				v, _, err := dict.Get(key)
				if err != nil {
					return nil, err
				}
				out = append(out, &runtime.TupleValue{Elements: []runtime.Value{key, v}})
			}
			return &runtime.ListValue{Elements: out}, nil
		})
	case "pop":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, runtime.Errorf("TypeError", "pop expected at most 2 arguments, got %d", len(args))
			}
			v, found, err := dict.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				if _, err := dict.Delete(args[0]); err != nil {
					return nil, err
				}
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, runtime.Errorf("KeyError", "%s", runtime.Repr(args[0]))
		})
	case "update":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return nil, runtime.Errorf("TypeError", "update expected 1 argument, got %d", len(args))
			}
			src, ok := args[0].(*runtime.DictValue)
			if !ok {
				return nil, runtime.Errorf("TypeError", "update() argument must be dict, not %s", args[0].Kind())
			}
			dict.Update(src)
			return runtime.NoneValue{}, nil
		})
	case "setdefault":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, runtime.Errorf("TypeError", "setdefault expected at most 2 arguments, got %d", len(args))
			}
			v, found, err := dict.Get(args[0])
			if err != nil {
				return nil, err
			}
			if found {
				return v, nil
			}
			var fallback runtime.Value = runtime.NoneValue{}
			if len(args) == 2 {
				fallback = args[1]
			}
			if err := dict.Set(args[0], fallback); err != nil {
				return nil, err
			}
			return fallback, nil
		})
	case "clear":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			for _, key := range dict.Keys() {
				if _, err := dict.Delete(key); err != nil {
					return nil, err
				}
			}
			return runtime.NoneValue{}, nil
		})
	case "copy":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			out := runtime.NewDict()
			out.Update(dict)
			return out, nil
		})
	default:
		return nil, false
	}
}

func (i *Interpreter) setMethod(set *runtime.SetValue, name string) (runtime.Value, bool) {
	oneArg := func(args []runtime.Value) (runtime.Value, error) {
		if len(args) != 1 {
			return nil, runtime.Errorf("TypeError", "%s() takes exactly one argument (%d given)", name, len(args))
		}
		return args[0], nil
	}
	otherSet := func(ctx *runtime.NativeCallContext, args []runtime.Value) (*runtime.SetValue, error) {
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		if s, ok := arg.(*runtime.SetValue); ok {
			return s, nil
		}
		values, err := ctx.Iter(arg)
		if err != nil {
			return nil, err
		}
		out := runtime.NewSet()
		for _, v := range values {
			if err := out.Add(v); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	switch name {
	case "add":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			arg, err := oneArg(args)
			if err != nil {
				return nil, err
			}
			if err := set.Add(arg); err != nil {
				return nil, err
			}
			return runtime.NoneValue{}, nil
		})
	case "remove":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			arg, err := oneArg(args)
			if err != nil {
				return nil, err
			}
			found, err := set.Remove(arg)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, runtime.Errorf("KeyError", "%s", runtime.Repr(arg))
			}
			return runtime.NoneValue{}, nil
		})
	case "discard":
		return method(name, func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			arg, err := oneArg(args)
			if err != nil {
				return nil, err
			}
			if _, err := set.Remove(arg); err != nil {
				return nil, err
			}
			return runtime.NoneValue{}, nil
		})
	case "union":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			other, err := otherSet(ctx, args)
			if err != nil {
				return nil, err
			}
			return setUnion(set, other)
		})
	case "intersection":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			other, err := otherSet(ctx, args)
			if err != nil {
				return nil, err
			}
			return setIntersection(set, other)
		})
	case "difference":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			other, err := otherSet(ctx, args)
			if err != nil {
				return nil, err
			}
			return setDifference(set, other)
		})
	case "issubset":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			other, err := otherSet(ctx, args)
			if err != nil {
				return nil, err
			}
			for _, v := range set.Elements() {
				ok, err := other.Contains(v)
				if err != nil {
					return nil, err
				}
				if !ok {
					return runtime.BoolValue{Val: false}, nil
				}
			}
			return runtime.BoolValue{Val: true}, nil
		})
	case "issuperset":
		return method(name, func(ctx *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			other, err := otherSet(ctx, args)
			if err != nil {
				return nil, err
			}
			for _, v := range other.Elements() {
				ok, err := set.Contains(v)
				if err != nil {
					return nil, err
				}
				if !ok {
					return runtime.BoolValue{Val: false}, nil
				}
			}
			return runtime.BoolValue{Val: true}, nil
		})
	case "clear":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			for _, v := range set.Elements() {
				if _, err := set.Remove(v); err != nil {
					return nil, err
				}
			}
			return runtime.NoneValue{}, nil
		})
	case "copy":
		return method(name, func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			out := runtime.NewSet()
			for _, v := range set.Elements() {
				if err := out.Add(v); err != nil {
					return nil, err
				}
			}
			return out, nil
		})
	default:
		return nil, false
	}
}
