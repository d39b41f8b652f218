package interpreter

import (
	"context"
	"strings"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
)

// superProxy is the value returned by super(): attribute lookups skip the
// defining class and search its bases, binding methods to the receiver.
type superProxy struct {
	class    *runtime.ClassValue
	receiver runtime.Value
}

func (*superProxy) Kind() runtime.Kind { return runtime.KindInstance }

// Hidden frame bindings that make zero-argument super() resolvable.
const (
	hiddenClassBinding = "__class__"
	hiddenSelfBinding  = "__self__"
)

func (i *Interpreter) evaluateCall(node *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if id, ok := node.Func.(*ast.Identifier); ok && id.Name == "super" && !env.Has("super") {
		return i.resolveSuper(node, env)
	}
	callee, err := i.evaluate(node.Func, env)
	if err != nil {
		return nil, err
	}
	args, kwargs, err := i.evaluateArguments(node.Args, env)
	if err != nil {
		return nil, err
	}
	return i.callValue(callee, args, kwargs)
}

func (i *Interpreter) resolveSuper(node *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(node.Args) == 0 {
		clsVal, err := env.Get(hiddenClassBinding)
		if err != nil {
			return nil, i.raise("RuntimeError", "super(): no arguments and no enclosing method")
		}
		selfVal, err := env.Get(hiddenSelfBinding)
		if err != nil {
			return nil, i.raise("RuntimeError", "super(): no arguments and no enclosing method")
		}
		cls, ok := clsVal.(*runtime.ClassValue)
		if !ok {
			return nil, i.raise("RuntimeError", "super(): bad __class__ binding")
		}
		return &superProxy{class: cls, receiver: selfVal}, nil
	}
	if len(node.Args) != 2 {
		return nil, i.raise("TypeError", "super() takes 0 or 2 arguments")
	}
	clsVal, err := i.evaluate(node.Args[0].Value, env)
	if err != nil {
		return nil, err
	}
	selfVal, err := i.evaluate(node.Args[1].Value, env)
	if err != nil {
		return nil, err
	}
	cls, ok := clsVal.(*runtime.ClassValue)
	if !ok {
		return nil, i.raise("TypeError", "super() argument 1 must be a class")
	}
	return &superProxy{class: cls, receiver: selfVal}, nil
}

// evaluateArguments resolves a call's argument list into positional values
// and a keyword map, expanding * and ** arguments.
func (i *Interpreter) evaluateArguments(argNodes []*ast.Argument, env *runtime.Environment) ([]runtime.Value, map[string]runtime.Value, error) {
	var args []runtime.Value
	kwargs := make(map[string]runtime.Value)
	for _, arg := range argNodes {
		v, err := i.evaluate(arg.Value, env)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case arg.Star:
			values, err := i.iterate(v)
			if err != nil {
				return nil, nil, err
			}
			args = append(args, values...)
		case arg.DoubleStar:
			src, ok := v.(*runtime.DictValue)
			if !ok {
				return nil, nil, i.raise("TypeError", "argument after ** must be a mapping, not %s", v.Kind())
			}
			for _, key := range src.Keys() {
				name, ok := key.(runtime.StringValue)
				if !ok {
					return nil, nil, i.raise("TypeError", "keywords must be strings")
				}
				if _, dup := kwargs[name.Val]; dup {
					return nil, nil, i.raise("TypeError", "got multiple values for keyword argument '%s'", name.Val)
				}
				item, _, err := src.Get(key)
				if err != nil {
					return nil, nil, i.asGuestError(err)
				}
				kwargs[name.Val] = item
			}
		case arg.Name != "":
			if _, dup := kwargs[arg.Name]; dup {
				return nil, nil, i.raise("TypeError", "got multiple values for keyword argument '%s'", arg.Name)
			}
			kwargs[arg.Name] = v
		default:
			args = append(args, v)
		}
	}
	return args, kwargs, nil
}

// callValue dispatches a call over the callable kinds.
func (i *Interpreter) callValue(callee runtime.Value, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	if err := i.checkDeadline(); err != nil {
		return nil, err
	}
	switch fn := callee.(type) {
	case runtime.NativeFunctionValue:
		v, err := fn.Impl(i.nativeContext(i.globals), args, kwargs)
		if err != nil {
			return nil, i.asGuestError(err)
		}
		return v, nil
	case *runtime.FunctionValue:
		return i.callFunction(fn, args, kwargs, nil)
	case *runtime.BoundMethodValue:
		withSelf := append([]runtime.Value{fn.Receiver}, args...)
		return i.callFunction(fn.Method, withSelf, kwargs, fn.Receiver)
	case *runtime.ClassValue:
		return i.instantiate(fn, args, kwargs)
	default:
		return nil, i.raise("TypeError", "'%s' object is not callable", callee.Kind())
	}
}

func (i *Interpreter) callFunction(fn *runtime.FunctionValue, args []runtime.Value, kwargs map[string]runtime.Value, receiver runtime.Value) (runtime.Value, error) {
	if i.depth >= maxCallDepth {
		return nil, i.raise("RuntimeError", "maximum recursion depth exceeded")
	}
	env, err := i.bindParameters(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	if fn.DefiningClass != nil && receiver != nil {
		_ = env.Define(hiddenClassBinding, fn.DefiningClass)
		_ = env.Define(hiddenSelfBinding, receiver)
	}

	if fn.IsGenerator {
		return i.makeFunctionGenerator(fn, env), nil
	}
	if fn.IsAsync {
		return &runtime.CoroutineValue{Name: fn.Name, RunFn: func(ctx context.Context) (runtime.Value, error) {
			sub := i.fork()
			sub.ctx = ctx
			return sub.runFunctionBody(fn, env)
		}}, nil
	}
	return i.runFunctionBody(fn, env)
}

func (i *Interpreter) runFunctionBody(fn *runtime.FunctionValue, env *runtime.Environment) (runtime.Value, error) {
	i.depth++
	defer func() { i.depth-- }()

	if fn.LambdaBody != nil {
		return i.evaluate(fn.LambdaBody, env)
	}
	err := i.executeBlock(fn.Body, env)
	if ret, ok := err.(*returnSignal); ok {
		return ret.value, nil
	}
	if err != nil {
		return nil, err
	}
	return runtime.NoneValue{}, nil
}

// bindParameters implements the call binding protocol: positional slots,
// then keywords, then defaults, with *args and **kwargs catching overflow.
func (i *Interpreter) bindParameters(fn *runtime.FunctionValue, args []runtime.Value, kwargs map[string]runtime.Value) (*runtime.Environment, error) {
	env := runtime.NewEnvironment(fn.Closure)
	params := fn.Params
	if params == nil {
		params = &ast.ParameterList{}
	}
	name := fn.Name
	if name == "" {
		name = "<lambda>"
	}

	bound := make(map[string]bool, len(params.Positional))

	// Positional arguments fill positional slots in order.
	n := len(args)
	if n > len(params.Positional) && params.VarArg == nil {
		return nil, i.raise("TypeError", "%s() takes %d positional argument(s) but %d were given",
			name, len(params.Positional), n)
	}
	for idx, p := range params.Positional {
		if idx < n {
			_ = env.Define(p.Name, args[idx])
			bound[p.Name] = true
		}
	}
	if params.VarArg != nil {
		var rest []runtime.Value
		if n > len(params.Positional) {
			rest = append(rest, args[len(params.Positional):]...)
		}
		_ = env.Define(params.VarArg.Name, &runtime.TupleValue{Elements: rest})
	}

	// Keyword arguments bind by name, overflow goes to **kwargs.
	var overflow *runtime.DictValue
	if params.KwArg != nil {
		overflow = runtime.NewDict()
	}
	kwOnly := make(map[string]*ast.Parameter, len(params.KwOnly))
	for _, p := range params.KwOnly {
		kwOnly[p.Name] = p
	}
	positionalNames := make(map[string]bool, len(params.Positional))
	for _, p := range params.Positional {
		positionalNames[p.Name] = true
	}
	for key, v := range kwargs {
		switch {
		case positionalNames[key]:
			if bound[key] {
				return nil, i.raise("TypeError", "%s() got multiple values for argument '%s'", name, key)
			}
			_ = env.Define(key, v)
			bound[key] = true
		case kwOnly[key] != nil:
			_ = env.Define(key, v)
			bound[key] = true
		case overflow != nil:
			_ = overflow.Set(runtime.StringValue{Val: key}, v)
		default:
			return nil, i.raise("TypeError", "%s() got an unexpected keyword argument '%s'", name, key)
		}
	}
	if overflow != nil {
		_ = env.Define(params.KwArg.Name, overflow)
	}

	// Defaults fill the remaining slots. Slots with no default and no
	// argument are collected so one error names every missing parameter.
	var missing []string
	fillDefault := func(p *ast.Parameter) error {
		if bound[p.Name] || env.Has(p.Name) {
			return nil
		}
		if p.Default == nil {
			missing = append(missing, "'"+p.Name+"'")
			return nil
		}
		v, err := i.evaluate(p.Default, fn.Closure)
		if err != nil {
			return err
		}
		return env.Define(p.Name, v)
	}
	for idx, p := range params.Positional {
		if idx < n {
			continue
		}
		if err := fillDefault(p); err != nil {
			return nil, err
		}
	}
	for _, p := range params.KwOnly {
		if err := fillDefault(p); err != nil {
			return nil, err
		}
	}
	if len(missing) > 0 {
		word := "argument"
		if len(missing) > 1 {
			word = "arguments"
		}
		return nil, i.raise("TypeError", "%s() missing %d required %s: %s",
			name, len(missing), word, strings.Join(missing, ", "))
	}
	return env, nil
}

// instantiate builds an exception value for exception classes and a regular
// instance (running __init__) for everything else.
func (i *Interpreter) instantiate(cls *runtime.ClassValue, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	if cls.IsException {
		return i.constructException(cls, args)
	}
	inst := &runtime.InstanceValue{Class: cls, Attributes: make(map[string]runtime.Value)}
	if initVal, ok := cls.Lookup("__init__"); ok {
		init, isFn := initVal.(*runtime.FunctionValue)
		if !isFn {
			return nil, i.raise("TypeError", "__init__ must be a function")
		}
		withSelf := append([]runtime.Value{inst}, args...)
		if _, err := i.callFunction(init, withSelf, kwargs, inst); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kwargs) > 0 {
		return nil, i.raise("TypeError", "%s() takes no arguments", cls.Name)
	}
	return inst, nil
}

func (i *Interpreter) constructException(cls *runtime.ClassValue, args []runtime.Value) (runtime.Value, error) {
	if group, ok := i.classes["ExceptionGroup"]; ok && cls.IsSubclassOf(group) {
		if len(args) != 2 {
			return nil, i.raise("TypeError", "%s() takes a message and a sequence of exceptions", cls.Name)
		}
		msg, ok := args[0].(runtime.StringValue)
		if !ok {
			return nil, i.raise("TypeError", "%s() message must be a string", cls.Name)
		}
		items, err := i.iterate(args[1])
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, i.raise("TypeError", "second argument (exceptions) must be a non-empty sequence")
		}
		members := make([]*runtime.ExceptionValue, len(items))
		for idx, item := range items {
			exc, ok := item.(*runtime.ExceptionValue)
			if !ok {
				return nil, i.raise("ValueError", "item %d of second argument (exceptions) is not an exception", idx)
			}
			members[idx] = exc
		}
		return &runtime.ExceptionGroupValue{Class: cls, Message: msg.Val, Members: members}, nil
	}
	message := ""
	if len(args) > 0 {
		message = runtime.Str(args[0])
	}
	return &runtime.ExceptionValue{Class: cls, Args: args, Message: message}, nil
}
