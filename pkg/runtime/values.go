package runtime

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"sandpiper/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindTuple
	KindDict
	KindSet
	KindRange
	KindSlice
	KindFunction
	KindBoundMethod
	KindNativeFunction
	KindClass
	KindInstance
	KindException
	KindExceptionGroup
	KindGenerator
	KindCoroutine
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NoneType"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindDict:
		return "dict"
	case KindSet:
		return "set"
	case KindRange:
		return "range"
	case KindSlice:
		return "slice"
	case KindFunction:
		return "function"
	case KindBoundMethod:
		return "method"
	case KindNativeFunction:
		return "builtin_function_or_method"
	case KindClass:
		return "type"
	case KindInstance:
		return "object"
	case KindException:
		return "exception"
	case KindExceptionGroup:
		return "exception_group"
	case KindGenerator:
		return "generator"
	case KindCoroutine:
		return "coroutine"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NoneValue struct{}

func (NoneValue) Kind() Kind { return KindNone }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type IntValue struct {
	Val *big.Int
}

func (v IntValue) Kind() Kind { return KindInt }

// NewInt wraps a machine integer.
func NewInt(v int64) IntValue {
	return IntValue{Val: big.NewInt(v)}
}

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

type ListValue struct {
	Elements []Value
}

func (v *ListValue) Kind() Kind { return KindList }

type TupleValue struct {
	Elements []Value
}

func (v *TupleValue) Kind() Kind { return KindTuple }

// RangeValue mirrors the builtin range object.
type RangeValue struct {
	Start, Stop, Step int64
}

func (v RangeValue) Kind() Kind { return KindRange }

// Len returns the number of elements the range produces.
func (v RangeValue) Len() int64 {
	if v.Step == 0 {
		return 0
	}
	if v.Step > 0 {
		if v.Stop <= v.Start {
			return 0
		}
		return (v.Stop - v.Start + v.Step - 1) / v.Step
	}
	if v.Stop >= v.Start {
		return 0
	}
	step := -v.Step
	return (v.Start - v.Stop + step - 1) / step
}

// SliceValue is the runtime form of a subscript slice.
type SliceValue struct {
	Low, High, Step Value // each may be NoneValue
}

func (v SliceValue) Kind() Kind { return KindSlice }

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// FunctionValue is a user-defined callable: the defining node, its captured
// scope chain, and the pre-computed parameter specification. DefiningClass is
// a non-owning back-reference used for zero-argument super() resolution.
type FunctionValue struct {
	Name          string
	Params        *ast.ParameterList
	Body          []ast.Statement
	LambdaBody    ast.Expression // set instead of Body for lambdas
	Closure       *Environment
	IsAsync       bool
	IsGenerator   bool
	DefiningClass *ClassValue
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

type BoundMethodValue struct {
	Receiver Value
	Method   *FunctionValue
}

func (v *BoundMethodValue) Kind() Kind { return KindBoundMethod }

// NativeCallContext carries the host-side hooks a native function may use.
// Invoke calls back into the interpreter for guest callables (sorted key
// functions and the like); Iter drains any guest iterable.
type NativeCallContext struct {
	Ctx    context.Context
	Env    *Environment
	Stdout *strings.Builder
	Invoke func(fn Value, args []Value, kwargs map[string]Value) (Value, error)
	Iter   func(iterable Value) ([]Value, error)
}

type NativeFunc func(*NativeCallContext, []Value, map[string]Value) (Value, error)

type NativeFunctionValue struct {
	Name string
	Impl NativeFunc
}

func (v NativeFunctionValue) Kind() Kind { return KindNativeFunction }

//-----------------------------------------------------------------------------
// Classes, instances, exceptions
//-----------------------------------------------------------------------------

type ClassValue struct {
	Name        string
	Bases       []*ClassValue
	Attributes  map[string]Value
	IsException bool
}

func (v *ClassValue) Kind() Kind { return KindClass }

// IsSubclassOf walks the base chain (single chain per base, depth-first).
func (v *ClassValue) IsSubclassOf(other *ClassValue) bool {
	if v == nil || other == nil {
		return false
	}
	if v == other || v.Name == other.Name {
		return true
	}
	for _, base := range v.Bases {
		if base.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

// Lookup resolves an attribute on the class or its bases.
func (v *ClassValue) Lookup(name string) (Value, bool) {
	if v == nil {
		return nil, false
	}
	if val, ok := v.Attributes[name]; ok {
		return val, true
	}
	for _, base := range v.Bases {
		if val, ok := base.Lookup(name); ok {
			return val, true
		}
	}
	return nil, false
}

type InstanceValue struct {
	Class      *ClassValue
	Attributes map[string]Value
}

func (v *InstanceValue) Kind() Kind { return KindInstance }

// ExceptionValue is a raised guest failure.
type ExceptionValue struct {
	Class   *ClassValue
	Args    []Value
	Message string
}

func (v *ExceptionValue) Kind() Kind { return KindException }

func (v *ExceptionValue) TypeName() string {
	if v.Class != nil {
		return v.Class.Name
	}
	return "Exception"
}

// ExceptionGroupValue aggregates simultaneous failures for except* handling.
type ExceptionGroupValue struct {
	Class   *ClassValue
	Message string
	Members []*ExceptionValue
}

func (v *ExceptionGroupValue) Kind() Kind { return KindExceptionGroup }

//-----------------------------------------------------------------------------
// Producers
//-----------------------------------------------------------------------------

// GeneratorValue is a lazy producer advanced one yield at a time. NextFn is
// wired by the interpreter; after exhaustion Next keeps reporting done.
type GeneratorValue struct {
	Name      string
	IsAsync   bool
	NextFn    func() (Value, bool, error)
	CloseFn   func()
	exhausted bool
}

func (v *GeneratorValue) Kind() Kind { return KindGenerator }

// Next pulls the next value; ok is false once the producer is exhausted.
func (v *GeneratorValue) Next() (Value, bool, error) {
	if v.exhausted || v.NextFn == nil {
		return nil, false, nil
	}
	val, ok, err := v.NextFn()
	if !ok || err != nil {
		v.exhausted = true
	}
	return val, ok, err
}

// Close releases the producer without draining it.
func (v *GeneratorValue) Close() {
	if v.exhausted {
		return
	}
	v.exhausted = true
	if v.CloseFn != nil {
		v.CloseFn()
	}
}

// CoroutineValue is a suspended coroutine call: the body does not run until
// awaited, and awaiting twice is an error.
type CoroutineValue struct {
	Name    string
	RunFn   func(ctx context.Context) (Value, error)
	awaited bool
}

func (v *CoroutineValue) Kind() Kind { return KindCoroutine }

// Await drives the coroutine to completion exactly once.
func (v *CoroutineValue) Await(ctx context.Context) (Value, error) {
	if v.awaited {
		return nil, Errorf("RuntimeError", "coroutine '%s' was already awaited", v.Name)
	}
	v.awaited = true
	if v.RunFn == nil {
		return NoneValue{}, nil
	}
	return v.RunFn(ctx)
}

//-----------------------------------------------------------------------------
// Modules
//-----------------------------------------------------------------------------

type ModuleValue struct {
	Name       string
	Attributes map[string]Value
}

func (v *ModuleValue) Kind() Kind { return KindModule }

// CloneBigInt copies the provided big.Int pointer, tolerating nil.
func CloneBigInt(src *big.Int) *big.Int {
	if src == nil {
		return nil
	}
	return new(big.Int).Set(src)
}
