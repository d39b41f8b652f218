package interpreter

import (
	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
)

// runComprehension drives nested for/if clauses over a dedicated scope and
// calls sink once per produced element position.
func (i *Interpreter) runComprehension(clauses []*ast.ComprehensionClause, env *runtime.Environment, sink func(scope *runtime.Environment) error) error {
	scope := runtime.NewEnvironment(env)
	return i.runClauses(clauses, scope, sink)
}

func (i *Interpreter) runClauses(clauses []*ast.ComprehensionClause, scope *runtime.Environment, sink func(scope *runtime.Environment) error) error {
	if len(clauses) == 0 {
		return sink(scope)
	}
	clause := clauses[0]
	iterable, err := i.evaluate(clause.Iterable, scope)
	if err != nil {
		return err
	}
	values, err := i.iterate(iterable)
	if err != nil {
		return err
	}
	for _, item := range values {
		if err := i.checkDeadline(); err != nil {
			return err
		}
		if err := i.assignTo(clause.Target, item, scope); err != nil {
			return err
		}
		keep := true
		for _, cond := range clause.Conditions {
			v, err := i.evaluate(cond, scope)
			if err != nil {
				return err
			}
			if !runtime.Truthy(v) {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		if err := i.runClauses(clauses[1:], scope, sink); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) evaluateListComprehension(node *ast.ListComprehension, env *runtime.Environment) (runtime.Value, error) {
	out := &runtime.ListValue{}
	err := i.runComprehension(node.Clauses, env, func(scope *runtime.Environment) error {
		v, err := i.evaluate(node.Element, scope)
		if err != nil {
			return err
		}
		out.Elements = append(out.Elements, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Interpreter) evaluateSetComprehension(node *ast.SetComprehension, env *runtime.Environment) (runtime.Value, error) {
	out := runtime.NewSet()
	err := i.runComprehension(node.Clauses, env, func(scope *runtime.Environment) error {
		v, err := i.evaluate(node.Element, scope)
		if err != nil {
			return err
		}
		return i.asGuestError(out.Add(v))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Interpreter) evaluateDictComprehension(node *ast.DictComprehension, env *runtime.Environment) (runtime.Value, error) {
	out := runtime.NewDict()
	err := i.runComprehension(node.Clauses, env, func(scope *runtime.Environment) error {
		k, err := i.evaluate(node.Key, scope)
		if err != nil {
			return err
		}
		v, err := i.evaluate(node.Value, scope)
		if err != nil {
			return err
		}
		return i.asGuestError(out.Set(k, v))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// evaluateGeneratorExpression builds a lazy producer over the clause chain.
func (i *Interpreter) evaluateGeneratorExpression(node *ast.GeneratorExpression, env *runtime.Environment) runtime.Value {
	return i.newGenerator("<genexpr>", false, func(sub *Interpreter) error {
		return sub.runComprehension(node.Clauses, env, func(scope *runtime.Environment) error {
			v, err := sub.evaluate(node.Element, scope)
			if err != nil {
				return err
			}
			return sub.yieldFn(v)
		})
	})
}
