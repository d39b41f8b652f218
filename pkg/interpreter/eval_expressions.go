package interpreter

import (
	"strings"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
)

// evaluate runs one expression, stamping any failure with the node's source
// span on the way out. The innermost stamp wins; an error that already
// carries a location, for example one leaving a try body, passes unchanged.
func (i *Interpreter) evaluate(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	v, err := i.evaluateNode(expr, env)
	if err != nil {
		return nil, locateFailure(err, expr)
	}
	return v, nil
}

// evaluateNode dispatches over expression node types.
func (i *Interpreter) evaluateNode(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch node := expr.(type) {
	case *ast.Identifier:
		v, err := env.Get(node.Name)
		if err != nil {
			return nil, i.raise("NameError", "name '%s' is not defined", node.Name)
		}
		return v, nil

	case *ast.StringLiteral:
		return runtime.StringValue{Val: node.Value}, nil

	case *ast.FormattedString:
		var out strings.Builder
		for _, part := range node.Parts {
			if lit, ok := part.(*ast.StringLiteral); ok {
				out.WriteString(lit.Value)
				continue
			}
			v, err := i.evaluate(part, env)
			if err != nil {
				return nil, err
			}
			out.WriteString(runtime.Str(v))
		}
		return runtime.StringValue{Val: out.String()}, nil

	case *ast.IntegerLiteral:
		return runtime.IntValue{Val: runtime.CloneBigInt(node.Value)}, nil

	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: node.Value}, nil

	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: node.Value}, nil

	case *ast.NoneLiteral:
		return runtime.NoneValue{}, nil

	case *ast.ListLiteral:
		elements, err := i.evaluateElements(node.Elements, env)
		if err != nil {
			return nil, err
		}
		return &runtime.ListValue{Elements: elements}, nil

	case *ast.TupleLiteral:
		elements, err := i.evaluateElements(node.Elements, env)
		if err != nil {
			return nil, err
		}
		return &runtime.TupleValue{Elements: elements}, nil

	case *ast.SetLiteral:
		elements, err := i.evaluateElements(node.Elements, env)
		if err != nil {
			return nil, err
		}
		out := runtime.NewSet()
		for _, el := range elements {
			if err := out.Add(el); err != nil {
				return nil, i.asGuestError(err)
			}
		}
		return out, nil

	case *ast.DictLiteral:
		out := runtime.NewDict()
		for _, entry := range node.Entries {
			if entry.Key == nil {
				// **expansion
				v, err := i.evaluate(entry.Value, env)
				if err != nil {
					return nil, err
				}
				src, ok := v.(*runtime.DictValue)
				if !ok {
					return nil, i.raise("TypeError", "argument of type '%s' is not a mapping", v.Kind())
				}
				out.Update(src)
				continue
			}
			k, err := i.evaluate(entry.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := i.evaluate(entry.Value, env)
			if err != nil {
				return nil, err
			}
			if err := out.Set(k, v); err != nil {
				return nil, i.asGuestError(err)
			}
		}
		return out, nil

	case *ast.UnaryExpression:
		operand, err := i.evaluate(node.Operand, env)
		if err != nil {
			return nil, err
		}
		return i.unaryOp(node.Operator, operand)

	case *ast.BinaryExpression:
		if node.Operator == "and" || node.Operator == "or" {
			left, err := i.evaluate(node.Left, env)
			if err != nil {
				return nil, err
			}
			if node.Operator == "and" && !runtime.Truthy(left) {
				return left, nil
			}
			if node.Operator == "or" && runtime.Truthy(left) {
				return left, nil
			}
			return i.evaluate(node.Right, env)
		}
		left, err := i.evaluate(node.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.evaluate(node.Right, env)
		if err != nil {
			return nil, err
		}
		return i.binaryOp(node.Operator, left, right)

	case *ast.CompareExpression:
		left, err := i.evaluate(node.Left, env)
		if err != nil {
			return nil, err
		}
		for idx, op := range node.Operators {
			right, err := i.evaluate(node.Comparators[idx], env)
			if err != nil {
				return nil, err
			}
			ok, err := i.compareOp(op, left, right)
			if err != nil {
				return nil, err
			}
			if !ok {
				return runtime.BoolValue{Val: false}, nil
			}
			left = right
		}
		return runtime.BoolValue{Val: true}, nil

	case *ast.CallExpression:
		return i.evaluateCall(node, env)

	case *ast.AttributeExpression:
		obj, err := i.evaluate(node.Object, env)
		if err != nil {
			return nil, err
		}
		return i.getAttribute(obj, node.Attribute)

	case *ast.SubscriptExpression:
		obj, err := i.evaluate(node.Object, env)
		if err != nil {
			return nil, err
		}
		if slice, ok := node.Index.(*ast.SliceExpression); ok {
			sl, err := i.evaluateSlice(slice, env)
			if err != nil {
				return nil, err
			}
			return i.getSlice(obj, sl)
		}
		index, err := i.evaluate(node.Index, env)
		if err != nil {
			return nil, err
		}
		return i.getItem(obj, index)

	case *ast.SliceExpression:
		return i.evaluateSlice(node, env)

	case *ast.StarredExpression:
		return nil, i.raise("SyntaxError", "can't use starred expression here")

	case *ast.LambdaExpression:
		return &runtime.FunctionValue{
			Name:       "<lambda>",
			Params:     node.Params,
			LambdaBody: node.Body,
			Closure:    env,
		}, nil

	case *ast.ConditionalExpression:
		cond, err := i.evaluate(node.Condition, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return i.evaluate(node.Then, env)
		}
		return i.evaluate(node.Else, env)

	case *ast.NamedExpression:
		v, err := i.evaluate(node.Value, env)
		if err != nil {
			return nil, err
		}
		if err := env.Define(node.Target.Name, v); err != nil {
			return nil, i.asGuestError(err)
		}
		return v, nil

	case *ast.AwaitExpression:
		operand, err := i.evaluate(node.Operand, env)
		if err != nil {
			return nil, err
		}
		coro, ok := operand.(*runtime.CoroutineValue)
		if !ok {
			return nil, i.raise("TypeError", "object %s can't be used in 'await' expression", operand.Kind())
		}
		return i.awaitCoroutine(coro)

	case *ast.YieldExpression:
		return i.evaluateYield(node, env)

	case *ast.ListComprehension:
		return i.evaluateListComprehension(node, env)

	case *ast.SetComprehension:
		return i.evaluateSetComprehension(node, env)

	case *ast.DictComprehension:
		return i.evaluateDictComprehension(node, env)

	case *ast.GeneratorExpression:
		return i.evaluateGeneratorExpression(node, env), nil

	default:
		return nil, i.raise("RuntimeError", "cannot evaluate node type %s", expr.NodeType())
	}
}

// evaluateElements evaluates a literal's element list, expanding any
// *starred entries inline.
func (i *Interpreter) evaluateElements(exprs []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	out := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		if starred, ok := expr.(*ast.StarredExpression); ok {
			v, err := i.evaluate(starred.Value, env)
			if err != nil {
				return nil, err
			}
			values, err := i.iterate(v)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
			continue
		}
		v, err := i.evaluate(expr, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (i *Interpreter) evaluateYield(node *ast.YieldExpression, env *runtime.Environment) (runtime.Value, error) {
	if i.yieldFn == nil {
		return nil, i.raise("SyntaxError", "'yield' outside function")
	}
	if node.IsFrom {
		src, err := i.evaluate(node.Value, env)
		if err != nil {
			return nil, err
		}
		// A delegated generator is relayed one value per pull, never
		// drained up front, so delegating to an unbounded producer still
		// yields promptly.
		if gen, ok := src.(*runtime.GeneratorValue); ok {
			for {
				if err := i.checkDeadline(); err != nil {
					gen.Close()
					return nil, err
				}
				item, more, err := gen.Next()
				if err != nil {
					return nil, err
				}
				if !more {
					return runtime.NoneValue{}, nil
				}
				if err := i.yieldFn(item); err != nil {
					gen.Close()
					return nil, err
				}
			}
		}
		values, err := i.iterate(src)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if err := i.yieldFn(v); err != nil {
				return nil, err
			}
		}
		return runtime.NoneValue{}, nil
	}
	var v runtime.Value = runtime.NoneValue{}
	if node.Value != nil {
		var err error
		v, err = i.evaluate(node.Value, env)
		if err != nil {
			return nil, err
		}
	}
	if err := i.yieldFn(v); err != nil {
		return nil, err
	}
	return runtime.NoneValue{}, nil
}

func (i *Interpreter) evaluateSlice(node *ast.SliceExpression, env *runtime.Environment) (runtime.SliceValue, error) {
	part := func(e ast.Expression) (runtime.Value, error) {
		if e == nil {
			return runtime.NoneValue{}, nil
		}
		return i.evaluate(e, env)
	}
	low, err := part(node.Low)
	if err != nil {
		return runtime.SliceValue{}, err
	}
	high, err := part(node.High)
	if err != nil {
		return runtime.SliceValue{}, err
	}
	step, err := part(node.Step)
	if err != nil {
		return runtime.SliceValue{}, err
	}
	return runtime.SliceValue{Low: low, High: high, Step: step}, nil
}

//-----------------------------------------------------------------------------
// Subscripts and slices
//-----------------------------------------------------------------------------

func (i *Interpreter) indexOf(v runtime.Value, length int) (int, error) {
	n, ok := asInt(v)
	if !ok {
		return 0, i.raise("TypeError", "indices must be integers, not %s", v.Kind())
	}
	if !n.IsInt64() {
		return 0, i.raise("IndexError", "index out of range")
	}
	idx := n.Int64()
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return 0, i.raise("IndexError", "index out of range")
	}
	return int(idx), nil
}

func (i *Interpreter) getItem(obj, index runtime.Value) (runtime.Value, error) {
	switch c := obj.(type) {
	case *runtime.ListValue:
		idx, err := i.indexOf(index, len(c.Elements))
		if err != nil {
			return nil, err
		}
		return c.Elements[idx], nil
	case *runtime.TupleValue:
		idx, err := i.indexOf(index, len(c.Elements))
		if err != nil {
			return nil, err
		}
		return c.Elements[idx], nil
	case runtime.StringValue:
		runes := []rune(c.Val)
		idx, err := i.indexOf(index, len(runes))
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: string(runes[idx])}, nil
	case *runtime.DictValue:
		v, found, err := c.Get(index)
		if err != nil {
			return nil, i.asGuestError(err)
		}
		if !found {
			return nil, i.raise("KeyError", "%s", runtime.Repr(index))
		}
		return v, nil
	case runtime.RangeValue:
		idx, err := i.indexOf(index, int(c.Len()))
		if err != nil {
			return nil, err
		}
		return runtime.NewInt(c.Start + int64(idx)*c.Step), nil
	default:
		return nil, i.raise("TypeError", "'%s' object is not subscriptable", obj.Kind())
	}
}

// resolveSlice normalizes slice bounds against a sequence length.
func (i *Interpreter) resolveSlice(sl runtime.SliceValue, length int) (start, stop, step int, err error) {
	bound := func(v runtime.Value, fallback int) (int, error) {
		if _, isNone := v.(runtime.NoneValue); isNone || v == nil {
			return fallback, nil
		}
		n, ok := asInt(v)
		if !ok {
			return 0, i.raise("TypeError", "slice indices must be integers or None")
		}
		idx := int(n.Int64())
		if idx < 0 {
			idx += length
		}
		return idx, nil
	}
	step = 1
	if _, isNone := sl.Step.(runtime.NoneValue); !isNone && sl.Step != nil {
		n, ok := asInt(sl.Step)
		if !ok {
			return 0, 0, 0, i.raise("TypeError", "slice indices must be integers or None")
		}
		step = int(n.Int64())
		if step == 0 {
			return 0, 0, 0, i.raise("ValueError", "slice step cannot be zero")
		}
	}
	lowDefault, highDefault := 0, length
	if step < 0 {
		lowDefault, highDefault = length-1, -1
	}
	start, err = bound(sl.Low, lowDefault)
	if err != nil {
		return
	}
	stop, err = bound(sl.High, highDefault)
	if err != nil {
		return
	}
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	if step > 0 {
		start = clamp(start, 0, length)
		stop = clamp(stop, 0, length)
	} else {
		start = clamp(start, -1, length-1)
		if _, isNone := sl.High.(runtime.NoneValue); isNone || sl.High == nil {
			stop = -1
		} else {
			stop = clamp(stop, -1, length-1)
		}
	}
	return start, stop, step, nil
}

func sliceIndices(start, stop, step int) []int {
	var out []int
	if step > 0 {
		for k := start; k < stop; k += step {
			out = append(out, k)
		}
	} else {
		for k := start; k > stop; k += step {
			out = append(out, k)
		}
	}
	return out
}

func (i *Interpreter) getSlice(obj runtime.Value, sl runtime.SliceValue) (runtime.Value, error) {
	switch c := obj.(type) {
	case *runtime.ListValue:
		start, stop, step, err := i.resolveSlice(sl, len(c.Elements))
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, k := range sliceIndices(start, stop, step) {
			out = append(out, c.Elements[k])
		}
		return &runtime.ListValue{Elements: out}, nil
	case *runtime.TupleValue:
		start, stop, step, err := i.resolveSlice(sl, len(c.Elements))
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, k := range sliceIndices(start, stop, step) {
			out = append(out, c.Elements[k])
		}
		return &runtime.TupleValue{Elements: out}, nil
	case runtime.StringValue:
		runes := []rune(c.Val)
		start, stop, step, err := i.resolveSlice(sl, len(runes))
		if err != nil {
			return nil, err
		}
		var out strings.Builder
		for _, k := range sliceIndices(start, stop, step) {
			out.WriteRune(runes[k])
		}
		return runtime.StringValue{Val: out.String()}, nil
	default:
		return nil, i.raise("TypeError", "'%s' object is not subscriptable", obj.Kind())
	}
}

//-----------------------------------------------------------------------------
// Attribute access
//-----------------------------------------------------------------------------

func (i *Interpreter) getAttribute(obj runtime.Value, name string) (runtime.Value, error) {
	switch o := obj.(type) {
	case *runtime.InstanceValue:
		if v, ok := o.Attributes[name]; ok {
			return v, nil
		}
		if v, ok := o.Class.Lookup(name); ok {
			if fn, isFn := v.(*runtime.FunctionValue); isFn {
				return &runtime.BoundMethodValue{Receiver: o, Method: fn}, nil
			}
			return v, nil
		}
		return nil, i.raise("AttributeError", "'%s' object has no attribute '%s'", o.Class.Name, name)
	case *runtime.ClassValue:
		if v, ok := o.Lookup(name); ok {
			return v, nil
		}
		return nil, i.raise("AttributeError", "type object '%s' has no attribute '%s'", o.Name, name)
	case *runtime.ModuleValue:
		if v, ok := o.Attributes[name]; ok {
			return v, nil
		}
		return nil, i.raise("AttributeError", "module '%s' has no attribute '%s'", o.Name, name)
	case *runtime.ExceptionValue:
		switch name {
		case "args":
			return &runtime.TupleValue{Elements: append([]runtime.Value(nil), o.Args...)}, nil
		case "message":
			return runtime.StringValue{Val: o.Message}, nil
		}
		return nil, i.raise("AttributeError", "'%s' object has no attribute '%s'", o.TypeName(), name)
	case *runtime.ExceptionGroupValue:
		switch name {
		case "message":
			return runtime.StringValue{Val: o.Message}, nil
		case "exceptions":
			out := make([]runtime.Value, len(o.Members))
			for idx, m := range o.Members {
				out[idx] = m
			}
			return &runtime.TupleValue{Elements: out}, nil
		}
		return nil, i.raise("AttributeError", "'ExceptionGroup' object has no attribute '%s'", name)
	case *superProxy:
		for _, base := range o.class.Bases {
			if v, ok := base.Lookup(name); ok {
				if fn, isFn := v.(*runtime.FunctionValue); isFn {
					return &runtime.BoundMethodValue{Receiver: o.receiver, Method: fn}, nil
				}
				return v, nil
			}
		}
		return nil, i.raise("AttributeError", "'super' object has no attribute '%s'", name)
	case *runtime.GeneratorValue:
		if name == "close" {
			gen := o
			return runtime.NativeFunctionValue{Name: "close", Impl: func(_ *runtime.NativeCallContext, _ []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
				gen.Close()
				return runtime.NoneValue{}, nil
			}}, nil
		}
	}
	if method, ok := i.lookupMethod(obj, name); ok {
		return method, nil
	}
	return nil, i.raise("AttributeError", "'%s' object has no attribute '%s'", obj.Kind(), name)
}
