// Package interpreter walks the syntax tree and evaluates it against the
// runtime value model, under the import and builtin policy of the sandbox.
package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
)

// Control flow travels as error values. Loop and function boundaries check
// for these signal types and consume them; anything else keeps unwinding.

type breakSignal struct{}

func (breakSignal) Error() string { return "'break' outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "'continue' not properly in loop" }

type returnSignal struct {
	value runtime.Value
}

func (s *returnSignal) Error() string { return "'return' outside function" }

// raiseSignal carries a guest exception (or exception group) up the stack.
// Only this signal is visible to guest except handlers; host-level failures
// such as a deadline expiry unwind past them. The span is stamped by the
// first dispatcher boundary the signal crosses.
type raiseSignal struct {
	exc  runtime.Value // *runtime.ExceptionValue or *runtime.ExceptionGroupValue
	span ast.Span
}

func (s *raiseSignal) Error() string {
	base := s.describe()
	if s.span.IsZero() {
		return base
	}
	return fmt.Sprintf("%s (line %d, column %d)", base, s.span.Start.Line, s.span.Start.Column)
}

func (s *raiseSignal) describe() string {
	switch exc := s.exc.(type) {
	case *runtime.ExceptionValue:
		if exc.Message == "" {
			return exc.TypeName()
		}
		return fmt.Sprintf("%s: %s", exc.TypeName(), exc.Message)
	case *runtime.ExceptionGroupValue:
		name := "ExceptionGroup"
		if exc.Class != nil {
			name = exc.Class.Name
		}
		members := make([]string, len(exc.Members))
		for idx, m := range exc.Members {
			if m.Message == "" {
				members[idx] = m.TypeName()
			} else {
				members[idx] = fmt.Sprintf("%s: %s", m.TypeName(), m.Message)
			}
		}
		return fmt.Sprintf("%s: %s [%s]", name, exc.Message, strings.Join(members, ", "))
	default:
		return "exception"
	}
}

// locateFailure stamps a guest failure with the failing node's span, once.
// Host errors and already located signals pass through untouched, so an
// exception leaving a try body keeps its innermost location.
func locateFailure(err error, node ast.Node) error {
	sig, ok := err.(*raiseSignal)
	if !ok {
		return err
	}
	if sig.span.IsZero() {
		sig.span = node.NodeSpan()
	}
	return sig
}

// errGeneratorClosed aborts a suspended generator body when the consumer
// closes it without draining.
var errGeneratorClosed = errors.New("generator closed")
