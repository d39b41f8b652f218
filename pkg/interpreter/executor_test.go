package interpreter

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandpiper/interpreter-go/pkg/runtime"
)

func TestExecuteExpressionResult(t *testing.T) {
	outcome := Execute(context.Background(), "x = 2 + 3 * 4\nx", Options{})
	require.Empty(t, outcome.Error)
	assert.Equal(t, int64(14), outcome.Result)
	assert.Equal(t, map[string]any{"x": int64(14)}, outcome.LocalVariables)
	assert.Greater(t, outcome.ExecutionTime, 0.0)
}

func TestExecuteSyntaxError(t *testing.T) {
	outcome := Execute(context.Background(), "def broken(:\n    pass", Options{})
	require.NotEmpty(t, outcome.Error)
	assert.Contains(t, outcome.Error, "SyntaxError")
	assert.Nil(t, outcome.Result)
}

func TestExecuteGuestException(t *testing.T) {
	outcome := Execute(context.Background(), "1 / 0", Options{})
	assert.Contains(t, outcome.Error, "ZeroDivisionError")
}

func TestExecuteErrorCarriesSourceLocation(t *testing.T) {
	source := "x = 1\ny = x / 0\n"
	outcome := Execute(context.Background(), source, Options{})
	require.NotEmpty(t, outcome.Error)
	assert.Contains(t, outcome.Error, "ZeroDivisionError")
	assert.Contains(t, outcome.Error, "(line 2, column")
	assert.Contains(t, outcome.Error, "y = x / 0")
}

func TestExecuteErrorKeepsInnermostLocation(t *testing.T) {
	source := "def f():\n    return 1 / 0\n\nf()\n"
	outcome := Execute(context.Background(), source, Options{})
	assert.Contains(t, outcome.Error, "(line 2,")
	assert.NotContains(t, outcome.Error, "line 4")
}

func TestExecuteStdoutCapture(t *testing.T) {
	source := "print('hello')\nprint('a', 'b', sep='-')\n"
	outcome := Execute(context.Background(), source, Options{})
	require.Empty(t, outcome.Error)
	assert.Equal(t, "hello\na-b\n", outcome.Stdout)
}

func TestExecuteStdoutSurvivesFailure(t *testing.T) {
	outcome := Execute(context.Background(), "print('before')\nraise ValueError('boom')", Options{})
	assert.Contains(t, outcome.Error, "ValueError: boom")
	assert.Equal(t, "before\n", outcome.Stdout)
}

func TestExecuteHandledExceptionIsNotAnError(t *testing.T) {
	source := "try:\n" +
		"    raise ValueError('bad input')\n" +
		"except ValueError:\n" +
		"    sentinel = 'recovered'\n" +
		"sentinel\n"
	outcome := Execute(context.Background(), source, Options{})
	require.Empty(t, outcome.Error)
	assert.Equal(t, "recovered", outcome.Result)
}

func TestExecuteImportDenied(t *testing.T) {
	outcome := Execute(context.Background(), "import socket", Options{})
	assert.Contains(t, outcome.Error, "ImportError")
	assert.Contains(t, outcome.Error, "not allowed")
}

func TestExecuteImportAllowed(t *testing.T) {
	outcome := Execute(context.Background(), "import math\nmath.floor(3.7)", Options{
		AllowedModules: []string{"math"},
	})
	require.Empty(t, outcome.Error)
	assert.Equal(t, int64(3), outcome.Result)
}

func TestExecuteTimeout(t *testing.T) {
	start := time.Now()
	outcome := Execute(context.Background(), "while True:\n    pass", Options{
		Timeout: 200 * time.Millisecond,
	})
	assert.Contains(t, outcome.Error, "Execution timed out after 200ms")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExecuteAwaitTimeoutIsCatchable(t *testing.T) {
	source := "async def spin():\n" +
		"    n = 0\n" +
		"    while True:\n" +
		"        n = n + 1\n" +
		"\n" +
		"async def main():\n" +
		"    try:\n" +
		"        await spin()\n" +
		"    except TimeoutError:\n" +
		"        return 'timed out'\n" +
		"    return 'finished'\n"
	outcome := Execute(context.Background(), source, Options{
		EntryPoint:   "main",
		AwaitTimeout: 100 * time.Millisecond,
	})
	require.Empty(t, outcome.Error)
	assert.Equal(t, "timed out", outcome.Result)
}

func TestExecuteCallerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	outcome := Execute(ctx, "while True:\n    pass", Options{})
	assert.Equal(t, "Execution canceled", outcome.Error)
}

func TestExecuteEntryPoint(t *testing.T) {
	source := "def main(a, b=10):\n    return a * b\n"
	outcome := Execute(context.Background(), source, Options{
		EntryPoint: "main",
		EntryArgs:  []runtime.Value{runtime.NewInt(4)},
	})
	require.Empty(t, outcome.Error)
	assert.Equal(t, int64(40), outcome.Result)
	// Locals are the entry point's frame, not the module's.
	assert.Equal(t, map[string]any{"a": int64(4), "b": int64(10)}, outcome.LocalVariables)
}

func TestExecuteEntryKwargs(t *testing.T) {
	source := "def main(a, b):\n    return a - b\n"
	outcome := Execute(context.Background(), source, Options{
		EntryPoint: "main",
		EntryKwargs: map[string]runtime.Value{
			"b": runtime.NewInt(3),
			"a": runtime.NewInt(10),
		},
	})
	require.Empty(t, outcome.Error)
	assert.Equal(t, int64(7), outcome.Result)
}

func TestExecuteInjectedNamespace(t *testing.T) {
	double := runtime.NativeFunctionValue{
		Name: "double",
		Impl: func(_ *runtime.NativeCallContext, args []runtime.Value, _ map[string]runtime.Value) (runtime.Value, error) {
			n := args[0].(runtime.IntValue)
			return runtime.IntValue{Val: new(big.Int).Lsh(n.Val, 1)}, nil
		},
	}
	outcome := Execute(context.Background(), "double(21)", Options{
		Namespace: map[string]runtime.Value{"double": double},
	})
	require.Empty(t, outcome.Error)
	assert.Equal(t, int64(42), outcome.Result)
	// Injected bindings live below module scope and are not reported as locals.
	assert.Nil(t, outcome.LocalVariables)
}

func TestExecuteEntryPointMissing(t *testing.T) {
	outcome := Execute(context.Background(), "x = 1", Options{EntryPoint: "main"})
	assert.Contains(t, outcome.Error, "NameError")
}

func TestExecuteAsyncEntryPoint(t *testing.T) {
	source := "async def main():\n    return 'done'\n"
	outcome := Execute(context.Background(), source, Options{EntryPoint: "main"})
	require.Empty(t, outcome.Error)
	assert.Equal(t, "done", outcome.Result)
}

func TestExecuteLocalsSkipCallables(t *testing.T) {
	source := "def helper():\n    pass\n\nvalue = [1, 2]\n"
	outcome := Execute(context.Background(), source, Options{})
	require.Empty(t, outcome.Error)
	assert.Equal(t, map[string]any{"value": []any{int64(1), int64(2)}}, outcome.LocalVariables)
}

func TestExecuteFoldConstantsOption(t *testing.T) {
	outcome := Execute(context.Background(), "2 ** 10 + 1", Options{FoldConstants: true})
	require.Empty(t, outcome.Error)
	assert.Equal(t, int64(1025), outcome.Result)
}

func TestExecuteOutcomeJSON(t *testing.T) {
	outcome := Execute(context.Background(), "print('ok')\n{'n': 1}", Options{})
	require.Empty(t, outcome.Error)

	data, err := json.Marshal(outcome)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ok\n", decoded["stdout"])
	assert.Equal(t, map[string]any{"n": float64(1)}, decoded["result"])
	assert.NotContains(t, decoded, "error")
}

func TestInterpretReturnsValue(t *testing.T) {
	v, err := Interpret(context.Background(), "'a' + 'b'", nil)
	require.NoError(t, err)
	sv, ok := v.(runtime.StringValue)
	require.True(t, ok)
	assert.Equal(t, "ab", sv.Val)
}
