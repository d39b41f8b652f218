package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
	"sandpiper/interpreter-go/pkg/sandbox"
)

// maxCallDepth bounds guest recursion so a runaway recursive function fails
// as a guest error instead of exhausting the host stack.
const maxCallDepth = 500

// Interpreter evaluates one guest program. It is single-use: build one per
// run so stdout capture and the builtin table stay isolated.
type Interpreter struct {
	ctx      context.Context
	policy   *sandbox.Policy
	stdout   *strings.Builder
	builtins *runtime.Environment
	globals  *runtime.Environment
	classes  map[string]*runtime.ClassValue

	// entryFrame is the local frame of an invoked entry point, kept for
	// the outcome's variable capture.
	entryFrame *runtime.Environment
	// awaitTimeout bounds each await when non-zero; the run deadline
	// still applies either way.
	awaitTimeout time.Duration
	// yieldFn is non-nil only while a generator body is running.
	yieldFn func(runtime.Value) error
	// handling is the stack of in-flight exceptions, for bare `raise`.
	handling []runtime.Value
	depth    int
}

// New builds an interpreter whose builtin frame is populated per the policy.
func New(ctx context.Context, policy *sandbox.Policy) *Interpreter {
	if ctx == nil {
		ctx = context.Background()
	}
	if policy == nil {
		policy = sandbox.NewPolicy(nil)
	}
	builtins := runtime.NewEnvironment(nil)
	classes := make(map[string]*runtime.ClassValue)
	for name, v := range sandbox.NewBuiltins(policy) {
		_ = builtins.Define(name, v)
		if cls, ok := v.(*runtime.ClassValue); ok {
			classes[name] = cls
		}
	}
	return &Interpreter{
		ctx:      ctx,
		policy:   policy,
		stdout:   &strings.Builder{},
		builtins: builtins,
		globals:  runtime.NewModuleEnvironment(builtins),
		classes:  classes,
	}
}

// Globals exposes the module frame, for REPL sessions and variable capture.
func (i *Interpreter) Globals() *runtime.Environment { return i.globals }

// Inject binds a host-provided value into the outermost frame, below module
// level. This is how embedders expose tool functions to guest code without
// granting an import.
func (i *Interpreter) Inject(name string, v runtime.Value) {
	_ = i.builtins.Define(name, v)
	if cls, ok := v.(*runtime.ClassValue); ok {
		i.classes[name] = cls
	}
}

// Stdout returns everything guest print() calls have emitted so far.
func (i *Interpreter) Stdout() string { return i.stdout.String() }

// EvaluateModule runs a module body in the module frame. The result is the
// value of the last top-level expression statement, or None.
func (i *Interpreter) EvaluateModule(mod *ast.Module) (runtime.Value, error) {
	var last runtime.Value = runtime.NoneValue{}
	for _, stmt := range mod.Body {
		v, err := i.execute(stmt, i.globals)
		if err != nil {
			return nil, err
		}
		if _, ok := stmt.(*ast.ExpressionStatement); ok && v != nil {
			last = v
		}
	}
	return last, nil
}

// fork clones the interpreter for a generator body goroutine. Shared state
// (stdout, globals, policy) is inherited; yield wiring is per-fork.
func (i *Interpreter) fork() *Interpreter {
	clone := *i
	clone.handling = append([]runtime.Value(nil), i.handling...)
	return &clone
}

// awaitCoroutine drives a coroutine under the run context, additionally
// bounded by the per-await deadline when one is configured. A per-await
// expiry surfaces as a catchable guest TimeoutError; the run deadline does
// not.
func (i *Interpreter) awaitCoroutine(coro *runtime.CoroutineValue) (runtime.Value, error) {
	ctx := i.ctx
	if i.awaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.awaitTimeout)
		defer cancel()
	}
	v, err := coro.Await(ctx)
	if err == context.DeadlineExceeded && i.ctx.Err() == nil {
		return nil, i.raise("TimeoutError", "await exceeded the %s per-operation deadline", i.awaitTimeout)
	}
	if err != nil {
		return nil, i.asGuestError(err)
	}
	return v, nil
}

// SetAwaitTimeout bounds each individual await in addition to the run
// deadline. Zero disables the per-await bound.
func (i *Interpreter) SetAwaitTimeout(d time.Duration) { i.awaitTimeout = d }

// checkDeadline polls the run context. Called at loop back-edges and call
// entries so unbounded guest work cannot outlive the deadline.
func (i *Interpreter) checkDeadline() error {
	select {
	case <-i.ctx.Done():
		return i.ctx.Err()
	default:
		return nil
	}
}

// classFor resolves a builtin exception class, materializing unknown names
// as direct Exception subclasses.
func (i *Interpreter) classFor(name string) *runtime.ClassValue {
	if cls, ok := i.classes[name]; ok {
		return cls
	}
	cls := &runtime.ClassValue{Name: name, Attributes: make(map[string]runtime.Value), IsException: true}
	if base, ok := i.classes["Exception"]; ok {
		cls.Bases = []*runtime.ClassValue{base}
	}
	i.classes[name] = cls
	return cls
}

// raise builds a guest exception signal of the named class.
func (i *Interpreter) raise(class, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &raiseSignal{exc: &runtime.ExceptionValue{
		Class:   i.classFor(class),
		Args:    []runtime.Value{runtime.StringValue{Val: msg}},
		Message: msg,
	}}
}

// asGuestError converts a host error into a raiseSignal. Tagged runtime
// errors keep their class; control signals and context errors pass through.
func (i *Interpreter) asGuestError(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *raiseSignal, *returnSignal, breakSignal, continueSignal:
		return err
	}
	if err == context.DeadlineExceeded || err == context.Canceled || err == errGeneratorClosed {
		return err
	}
	if tagged, ok := err.(*runtime.Error); ok {
		return i.raise(tagged.ClassName, "%s", tagged.Message)
	}
	return i.raise("RuntimeError", "%s", err.Error())
}

// nativeContext builds the host hooks handed to native builtins.
func (i *Interpreter) nativeContext(env *runtime.Environment) *runtime.NativeCallContext {
	return &runtime.NativeCallContext{
		Ctx:    i.ctx,
		Env:    env,
		Stdout: i.stdout,
		Invoke: func(fn runtime.Value, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
			return i.callValue(fn, args, kwargs)
		},
		Iter: i.iterate,
	}
}

// iterate drains any guest iterable into a slice. Generators are advanced
// under the run deadline.
func (i *Interpreter) iterate(v runtime.Value) ([]runtime.Value, error) {
	switch val := v.(type) {
	case *runtime.ListValue:
		return append([]runtime.Value(nil), val.Elements...), nil
	case *runtime.TupleValue:
		return append([]runtime.Value(nil), val.Elements...), nil
	case *runtime.SetValue:
		return val.Elements(), nil
	case *runtime.DictValue:
		return val.Keys(), nil
	case runtime.StringValue:
		runes := []rune(val.Val)
		out := make([]runtime.Value, len(runes))
		for idx, r := range runes {
			out[idx] = runtime.StringValue{Val: string(r)}
		}
		return out, nil
	case runtime.RangeValue:
		out := make([]runtime.Value, 0, val.Len())
		if val.Step > 0 {
			for n := val.Start; n < val.Stop; n += val.Step {
				out = append(out, runtime.NewInt(n))
			}
		} else if val.Step < 0 {
			for n := val.Start; n > val.Stop; n += val.Step {
				out = append(out, runtime.NewInt(n))
			}
		}
		return out, nil
	case *runtime.GeneratorValue:
		var out []runtime.Value
		for {
			if err := i.checkDeadline(); err != nil {
				return nil, err
			}
			item, ok, err := val.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return out, nil
			}
			out = append(out, item)
		}
	case *runtime.InstanceValue:
		if iterFn, ok := val.Class.Lookup("__iter__"); ok {
			if method, ok := iterFn.(*runtime.FunctionValue); ok {
				produced, err := i.callValue(&runtime.BoundMethodValue{Receiver: val, Method: method}, nil, nil)
				if err != nil {
					return nil, err
				}
				return i.iterate(produced)
			}
		}
		return nil, i.raise("TypeError", "'%s' object is not iterable", val.Class.Name)
	default:
		return nil, i.raise("TypeError", "'%s' object is not iterable", v.Kind())
	}
}
