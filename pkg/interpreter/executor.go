package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/parser"
	"sandpiper/interpreter-go/pkg/runtime"
	"sandpiper/interpreter-go/pkg/sandbox"
)

// DefaultTimeout guards runs whose caller does not set one.
const DefaultTimeout = 5 * time.Second

// ExecutionOutcome is the JSON-serializable record of one sandboxed run.
// Exactly one of Result and Error is meaningful: Error is empty on success.
type ExecutionOutcome struct {
	Result         any            `json:"result"`
	Error          string         `json:"error,omitempty"`
	ExecutionTime  float64        `json:"execution_time"`
	Stdout         string         `json:"stdout"`
	LocalVariables map[string]any `json:"local_variables,omitempty"`
}

// Options configures one Execute run.
type Options struct {
	// AllowedModules is the import allowlist. Ignored when Policy is set.
	AllowedModules []string
	// Policy overrides the allowlist-derived policy.
	Policy *sandbox.Policy
	// Timeout bounds the whole run; DefaultTimeout when zero.
	Timeout time.Duration
	// AwaitTimeout additionally bounds each await suspension. Zero
	// leaves only the run deadline in force.
	AwaitTimeout time.Duration
	// EntryPoint, when set, names a function to call after the module
	// body runs; its return value becomes the outcome result.
	EntryPoint string
	// EntryArgs are passed positionally to the entry point.
	EntryArgs []runtime.Value
	// EntryKwargs are passed by name to the entry point.
	EntryKwargs map[string]runtime.Value
	// Namespace is injected into the outermost frame before evaluation,
	// typically host tool functions.
	Namespace map[string]runtime.Value
	// FoldConstants enables the constant-folding pass before evaluation.
	FoldConstants bool
}

// Execute parses and runs source under the sandbox policy and a deadline,
// and always returns an outcome record; it never panics on guest failures.
func Execute(ctx context.Context, source string, opts Options) *ExecutionOutcome {
	start := time.Now()
	outcome := &ExecutionOutcome{}
	finish := func() *ExecutionOutcome {
		outcome.ExecutionTime = time.Since(start).Seconds()
		return outcome
	}

	mod, err := parser.Parse(source)
	if err != nil {
		outcome.Error = fmt.Sprintf("SyntaxError: %s", err.Error())
		return finish()
	}
	if opts.FoldConstants {
		mod = parser.FoldConstants(mod)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	policy := opts.Policy
	if policy == nil {
		policy = sandbox.NewPolicy(opts.AllowedModules)
	}
	interp := New(runCtx, policy)
	if opts.AwaitTimeout > 0 {
		interp.SetAwaitTimeout(opts.AwaitTimeout)
	}
	for name, v := range opts.Namespace {
		interp.Inject(name, v)
	}

	result, err := interp.EvaluateModule(mod)
	if err == nil && opts.EntryPoint != "" {
		result, err = interp.callEntryPoint(opts.EntryPoint, opts.EntryArgs, opts.EntryKwargs)
	}

	outcome.Stdout = interp.Stdout()
	outcome.LocalVariables = interp.captureLocals()
	if err != nil {
		outcome.Error = describeFailure(err, timeout, source)
		return finish()
	}
	outcome.Result = runtime.Export(result)
	return finish()
}

// Interpret is the library entry for callers that want values, not records:
// it parses and evaluates, returning the final value and a raw error.
func Interpret(ctx context.Context, source string, policy *sandbox.Policy) (runtime.Value, error) {
	mod, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return New(ctx, policy).EvaluateModule(mod)
}

// InterpretModule evaluates an already-parsed module.
func InterpretModule(ctx context.Context, mod *ast.Module, policy *sandbox.Policy) (runtime.Value, error) {
	return New(ctx, policy).EvaluateModule(mod)
}

func (i *Interpreter) callEntryPoint(name string, args []runtime.Value, kwargs map[string]runtime.Value) (runtime.Value, error) {
	fn, err := i.globals.Get(name)
	if err != nil {
		return nil, i.raise("NameError", "entry point '%s' is not defined", name)
	}
	// Plain guest functions are called with their frame held, so the
	// outcome can report the entry point's locals instead of the module's.
	if target, ok := fn.(*runtime.FunctionValue); ok && !target.IsGenerator {
		env, err := i.bindParameters(target, args, kwargs)
		if err != nil {
			return nil, err
		}
		i.entryFrame = env
		if target.IsAsync {
			sub := i.fork()
			v, err := sub.runFunctionBody(target, env)
			if err != nil {
				return nil, i.asGuestError(err)
			}
			return v, nil
		}
		return i.runFunctionBody(target, env)
	}
	result, err := i.callValue(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	// Async entry points are driven to completion.
	if coro, ok := result.(*runtime.CoroutineValue); ok {
		v, err := coro.Await(i.ctx)
		if err != nil {
			return nil, i.asGuestError(err)
		}
		return v, nil
	}
	return result, nil
}

// captureLocals snapshots the plain data bindings of the entry point's frame
// when one ran, otherwise the module frame. Callables, classes, and modules
// are skipped; so is anything JSON cannot express.
func (i *Interpreter) captureLocals() map[string]any {
	frame := i.globals
	if i.entryFrame != nil {
		frame = i.entryFrame
	}
	snapshot := frame.Snapshot()
	out := make(map[string]any, len(snapshot))
	for name, v := range snapshot {
		switch v.Kind() {
		case runtime.KindFunction, runtime.KindNativeFunction, runtime.KindBoundMethod,
			runtime.KindClass, runtime.KindModule, runtime.KindGenerator, runtime.KindCoroutine:
			continue
		}
		out[name] = runtime.Export(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// describeFailure renders an execution error for the outcome record. A
// located guest failure also carries the offending source line.
func describeFailure(err error, timeout time.Duration, source string) string {
	switch {
	case err == context.DeadlineExceeded:
		return fmt.Sprintf("Execution timed out after %s", timeout)
	case err == context.Canceled:
		return "Execution canceled"
	}
	switch sig := err.(type) {
	case *raiseSignal:
		msg := sig.Error()
		if line := sourceLine(source, sig.span.Start.Line); line != "" {
			msg += "\n    " + line
		}
		return msg
	case breakSignal, continueSignal:
		return fmt.Sprintf("SyntaxError: %s", sig.Error())
	case *returnSignal:
		return "SyntaxError: 'return' outside function"
	default:
		return err.Error()
	}
}

// sourceLine returns the trimmed text of a 1-based source line, empty when
// out of range.
func sourceLine(source string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}
