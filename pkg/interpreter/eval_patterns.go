package interpreter

import (
	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
	"sandpiper/interpreter-go/pkg/sandbox"
)

// matchPattern tests a match-case pattern against a subject. Captures are
// collected into bindings and only committed by the caller on success.
func (i *Interpreter) matchPattern(pattern ast.Pattern, subject runtime.Value, env *runtime.Environment, bindings map[string]runtime.Value) (bool, error) {
	switch p := pattern.(type) {
	case *ast.ValuePattern:
		expected, err := i.evaluate(p.Value, env)
		if err != nil {
			return false, err
		}
		return runtime.Equal(subject, expected), nil

	case *ast.CapturePattern:
		bindings[p.Name] = subject
		return true, nil

	case *ast.WildcardPattern:
		return true, nil

	case *ast.SequencePattern:
		return i.matchSequence(p, subject, env, bindings)

	case *ast.MappingPattern:
		return i.matchMapping(p, subject, env, bindings)

	case *ast.ClassPattern:
		return i.matchClass(p, subject, env, bindings)

	case *ast.AsPattern:
		if p.Pattern != nil {
			ok, err := i.matchPattern(p.Pattern, subject, env, bindings)
			if err != nil || !ok {
				return ok, err
			}
		}
		bindings[p.Name] = subject
		return true, nil

	case *ast.OrPattern:
		for _, alt := range p.Alternatives {
			trial := make(map[string]runtime.Value)
			ok, err := i.matchPattern(alt, subject, env, trial)
			if err != nil {
				return false, err
			}
			if ok {
				for name, v := range trial {
					bindings[name] = v
				}
				return true, nil
			}
		}
		return false, nil

	case *ast.StarPattern:
		return false, i.raise("SyntaxError", "star pattern is only allowed inside a sequence pattern")

	default:
		return false, i.raise("RuntimeError", "cannot match pattern type %s", pattern.NodeType())
	}
}

func (i *Interpreter) matchSequence(p *ast.SequencePattern, subject runtime.Value, env *runtime.Environment, bindings map[string]runtime.Value) (bool, error) {
	// Strings are iterable but never match sequence patterns.
	var elements []runtime.Value
	switch s := subject.(type) {
	case *runtime.ListValue:
		elements = s.Elements
	case *runtime.TupleValue:
		elements = s.Elements
	default:
		return false, nil
	}

	starIdx := -1
	for idx, sub := range p.Elements {
		if _, ok := sub.(*ast.StarPattern); ok {
			if starIdx >= 0 {
				return false, i.raise("SyntaxError", "multiple starred patterns in sequence pattern")
			}
			starIdx = idx
		}
	}

	if starIdx < 0 {
		if len(elements) != len(p.Elements) {
			return false, nil
		}
		for idx, sub := range p.Elements {
			ok, err := i.matchPattern(sub, elements[idx], env, bindings)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	}

	fixed := len(p.Elements) - 1
	if len(elements) < fixed {
		return false, nil
	}
	for idx := 0; idx < starIdx; idx++ {
		ok, err := i.matchPattern(p.Elements[idx], elements[idx], env, bindings)
		if err != nil || !ok {
			return ok, err
		}
	}
	tail := len(p.Elements) - starIdx - 1
	star := p.Elements[starIdx].(*ast.StarPattern)
	if star.Name != "" {
		mid := elements[starIdx : len(elements)-tail]
		bindings[star.Name] = &runtime.ListValue{Elements: append([]runtime.Value(nil), mid...)}
	}
	for idx := 0; idx < tail; idx++ {
		ok, err := i.matchPattern(p.Elements[starIdx+1+idx], elements[len(elements)-tail+idx], env, bindings)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (i *Interpreter) matchMapping(p *ast.MappingPattern, subject runtime.Value, env *runtime.Environment, bindings map[string]runtime.Value) (bool, error) {
	dict, ok := subject.(*runtime.DictValue)
	if !ok {
		return false, nil
	}
	matchedKeys := make(map[string]bool)
	for _, entry := range p.Entries {
		key, err := i.evaluate(entry.Key, env)
		if err != nil {
			return false, err
		}
		v, found, err := dict.Get(key)
		if err != nil {
			return false, i.asGuestError(err)
		}
		if !found {
			return false, nil
		}
		ok, err := i.matchPattern(entry.Pattern, v, env, bindings)
		if err != nil || !ok {
			return ok, err
		}
		matchedKeys[runtime.Repr(key)] = true
	}
	if p.Rest != "" {
		rest := runtime.NewDict()
		for _, key := range dict.Keys() {
			if matchedKeys[runtime.Repr(key)] {
				continue
			}
			v, _, err := dict.Get(key)
			if err != nil {
				return false, i.asGuestError(err)
			}
			if err := rest.Set(key, v); err != nil {
				return false, i.asGuestError(err)
			}
		}
		bindings[p.Rest] = rest
	}
	return true, nil
}

func (i *Interpreter) matchClass(p *ast.ClassPattern, subject runtime.Value, env *runtime.Environment, bindings map[string]runtime.Value) (bool, error) {
	classVal, err := i.evaluate(p.Class, env)
	if err != nil {
		return false, err
	}
	if !sandbox.Isinstance(subject, classVal) {
		return false, nil
	}

	// Builtin constructors match the subject itself positionally: int(x)
	// captures the int into x.
	if _, isNative := classVal.(runtime.NativeFunctionValue); isNative {
		if len(p.Keyword) > 0 {
			return false, i.raise("TypeError", "keyword patterns are not supported for builtin types")
		}
		switch len(p.Positional) {
		case 0:
			return true, nil
		case 1:
			return i.matchPattern(p.Positional[0], subject, env, bindings)
		default:
			return false, i.raise("TypeError", "builtin type patterns accept at most 1 positional sub-pattern")
		}
	}

	cls := classVal.(*runtime.ClassValue)
	if len(p.Positional) > 0 {
		matchArgs, ok := cls.Lookup("__match_args__")
		if !ok {
			return false, i.raise("TypeError", "%s() accepts 0 positional sub-patterns", cls.Name)
		}
		names, err := i.iterate(matchArgs)
		if err != nil {
			return false, err
		}
		if len(p.Positional) > len(names) {
			return false, i.raise("TypeError", "%s() accepts %d positional sub-patterns (%d given)", cls.Name, len(names), len(p.Positional))
		}
		for idx, sub := range p.Positional {
			attrName, ok := names[idx].(runtime.StringValue)
			if !ok {
				return false, i.raise("TypeError", "__match_args__ elements must be strings")
			}
			attr, err := i.getAttribute(subject, attrName.Val)
			if err != nil {
				return false, nil
			}
			ok2, err := i.matchPattern(sub, attr, env, bindings)
			if err != nil || !ok2 {
				return ok2, err
			}
		}
	}
	for _, kw := range p.Keyword {
		attr, err := i.getAttribute(subject, kw.Name)
		if err != nil {
			return false, nil
		}
		ok, err := i.matchPattern(kw.Pattern, attr, env, bindings)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}
