package interpreter

import (
	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
)

// execute runs one statement, stamping any failure with the statement's
// source span when no inner expression stamped one already. Expression
// statements return their value so the module driver and REPL can surface
// it; other statements return nil.
func (i *Interpreter) execute(stmt ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	v, err := i.executeNode(stmt, env)
	if err != nil {
		return nil, locateFailure(err, stmt)
	}
	return v, nil
}

func (i *Interpreter) executeNode(stmt ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		return i.evaluate(node.Expression, env)

	case *ast.Assignment:
		value, err := i.evaluate(node.Value, env)
		if err != nil {
			return nil, err
		}
		for _, target := range node.Targets {
			if err := i.assignTo(target, value, env); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case *ast.AugmentedAssignment:
		return nil, i.executeAugmented(node, env)

	case *ast.FunctionDefinition:
		fn := &runtime.FunctionValue{
			Name:        node.Name,
			Params:      node.Params,
			Body:        node.Body,
			Closure:     env,
			IsAsync:     node.IsAsync,
			IsGenerator: node.IsGenerator,
		}
		return nil, i.asGuestError(env.Define(node.Name, fn))

	case *ast.ClassDefinition:
		return nil, i.executeClassDefinition(node, env)

	case *ast.ReturnStatement:
		var v runtime.Value = runtime.NoneValue{}
		if node.Value != nil {
			var err error
			v, err = i.evaluate(node.Value, env)
			if err != nil {
				return nil, err
			}
		}
		return nil, &returnSignal{value: v}

	case *ast.PassStatement:
		return nil, nil

	case *ast.BreakStatement:
		return nil, breakSignal{}

	case *ast.ContinueStatement:
		return nil, continueSignal{}

	case *ast.IfStatement:
		cond, err := i.evaluate(node.Condition, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return nil, i.executeBlock(node.Body, env)
		}
		return nil, i.executeBlock(node.Else, env)

	case *ast.WhileStatement:
		return nil, i.executeWhile(node, env)

	case *ast.ForStatement:
		return nil, i.executeFor(node, env)

	case *ast.TryStatement:
		return nil, i.executeTry(node, env)

	case *ast.RaiseStatement:
		return nil, i.executeRaise(node, env)

	case *ast.WithStatement:
		return nil, i.executeWith(node, env)

	case *ast.MatchStatement:
		return nil, i.executeMatch(node, env)

	case *ast.ImportStatement:
		for _, alias := range node.Modules {
			mod, err := i.policy.SafeImport(alias.Name)
			if err != nil {
				return nil, i.raise("ImportError", "%s", err.Error())
			}
			binding := alias.Name
			if alias.As != "" {
				binding = alias.As
			}
			if err := env.Define(binding, mod); err != nil {
				return nil, i.asGuestError(err)
			}
		}
		return nil, nil

	case *ast.ImportFromStatement:
		mod, err := i.policy.SafeImport(node.Module)
		if err != nil {
			return nil, i.raise("ImportError", "%s", err.Error())
		}
		for _, alias := range node.Names {
			v, ok := mod.Attributes[alias.Name]
			if !ok {
				return nil, i.raise("ImportError", "cannot import name '%s' from '%s'", alias.Name, node.Module)
			}
			binding := alias.Name
			if alias.As != "" {
				binding = alias.As
			}
			if err := env.Define(binding, v); err != nil {
				return nil, i.asGuestError(err)
			}
		}
		return nil, nil

	case *ast.GlobalStatement:
		env.DeclareGlobal(node.Names)
		return nil, nil

	case *ast.NonlocalStatement:
		if err := env.DeclareNonlocal(node.Names); err != nil {
			return nil, i.raise("SyntaxError", "%s", err.Error())
		}
		return nil, nil

	case *ast.AssertStatement:
		cond, err := i.evaluate(node.Condition, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return nil, nil
		}
		if node.Message != nil {
			msg, err := i.evaluate(node.Message, env)
			if err != nil {
				return nil, err
			}
			return nil, i.raise("AssertionError", "%s", runtime.Str(msg))
		}
		return nil, i.raise("AssertionError", "")

	case *ast.DeleteStatement:
		for _, target := range node.Targets {
			if err := i.deleteTarget(target, env); err != nil {
				return nil, err
			}
		}
		return nil, nil

	default:
		return nil, i.raise("RuntimeError", "cannot execute node type %s", stmt.NodeType())
	}
}

func (i *Interpreter) executeBlock(stmts []ast.Statement, env *runtime.Environment) error {
	for _, stmt := range stmts {
		if _, err := i.execute(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// Assignment targets
//-----------------------------------------------------------------------------

func (i *Interpreter) assignTo(target ast.Expression, value runtime.Value, env *runtime.Environment) error {
	switch t := target.(type) {
	case *ast.Identifier:
		return i.asGuestError(env.Define(t.Name, value))

	case *ast.AttributeExpression:
		obj, err := i.evaluate(t.Object, env)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *runtime.InstanceValue:
			o.Attributes[t.Attribute] = value
			return nil
		case *runtime.ClassValue:
			o.Attributes[t.Attribute] = value
			return nil
		default:
			return i.raise("AttributeError", "'%s' object attribute '%s' is read-only", obj.Kind(), t.Attribute)
		}

	case *ast.SubscriptExpression:
		obj, err := i.evaluate(t.Object, env)
		if err != nil {
			return err
		}
		index, err := i.evaluate(t.Index, env)
		if err != nil {
			return err
		}
		return i.setItem(obj, index, value)

	case *ast.TupleLiteral:
		return i.destructure(t.Elements, value, env)

	case *ast.ListLiteral:
		return i.destructure(t.Elements, value, env)

	case *ast.StarredExpression:
		return i.raise("SyntaxError", "starred assignment target must be in a list or tuple")

	default:
		return i.raise("SyntaxError", "cannot assign to %s", target.NodeType())
	}
}

// destructure unpacks an iterable across a (possibly starred) target list.
func (i *Interpreter) destructure(targets []ast.Expression, value runtime.Value, env *runtime.Environment) error {
	values, err := i.iterate(value)
	if err != nil {
		return err
	}
	starIdx := -1
	for idx, t := range targets {
		if _, ok := t.(*ast.StarredExpression); ok {
			if starIdx >= 0 {
				return i.raise("SyntaxError", "multiple starred expressions in assignment")
			}
			starIdx = idx
		}
	}
	if starIdx < 0 {
		if len(values) < len(targets) {
			return i.raise("ValueError", "not enough values to unpack (expected %d, got %d)", len(targets), len(values))
		}
		if len(values) > len(targets) {
			return i.raise("ValueError", "too many values to unpack (expected %d)", len(targets))
		}
		for idx, t := range targets {
			if err := i.assignTo(t, values[idx], env); err != nil {
				return err
			}
		}
		return nil
	}
	fixed := len(targets) - 1
	if len(values) < fixed {
		return i.raise("ValueError", "not enough values to unpack (expected at least %d, got %d)", fixed, len(values))
	}
	for idx := 0; idx < starIdx; idx++ {
		if err := i.assignTo(targets[idx], values[idx], env); err != nil {
			return err
		}
	}
	tail := len(targets) - starIdx - 1
	mid := values[starIdx : len(values)-tail]
	star := targets[starIdx].(*ast.StarredExpression)
	if err := i.assignTo(star.Value, &runtime.ListValue{Elements: append([]runtime.Value(nil), mid...)}, env); err != nil {
		return err
	}
	for idx := 0; idx < tail; idx++ {
		if err := i.assignTo(targets[starIdx+1+idx], values[len(values)-tail+idx], env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) setItem(obj, index, value runtime.Value) error {
	switch c := obj.(type) {
	case *runtime.ListValue:
		idx, err := i.indexOf(index, len(c.Elements))
		if err != nil {
			return err
		}
		c.Elements[idx] = value
		return nil
	case *runtime.DictValue:
		return i.asGuestError(c.Set(index, value))
	default:
		return i.raise("TypeError", "'%s' object does not support item assignment", obj.Kind())
	}
}

func (i *Interpreter) deleteTarget(target ast.Expression, env *runtime.Environment) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := env.Delete(t.Name); err != nil {
			return i.raise("NameError", "name '%s' is not defined", t.Name)
		}
		return nil
	case *ast.SubscriptExpression:
		obj, err := i.evaluate(t.Object, env)
		if err != nil {
			return err
		}
		index, err := i.evaluate(t.Index, env)
		if err != nil {
			return err
		}
		switch c := obj.(type) {
		case *runtime.DictValue:
			found, err := c.Delete(index)
			if err != nil {
				return i.asGuestError(err)
			}
			if !found {
				return i.raise("KeyError", "%s", runtime.Repr(index))
			}
			return nil
		case *runtime.ListValue:
			idx, err := i.indexOf(index, len(c.Elements))
			if err != nil {
				return err
			}
			c.Elements = append(c.Elements[:idx], c.Elements[idx+1:]...)
			return nil
		default:
			return i.raise("TypeError", "'%s' object doesn't support item deletion", obj.Kind())
		}
	case *ast.AttributeExpression:
		obj, err := i.evaluate(t.Object, env)
		if err != nil {
			return err
		}
		inst, ok := obj.(*runtime.InstanceValue)
		if !ok {
			return i.raise("AttributeError", "'%s' object attribute '%s' is read-only", obj.Kind(), t.Attribute)
		}
		if _, found := inst.Attributes[t.Attribute]; !found {
			return i.raise("AttributeError", "'%s' object has no attribute '%s'", inst.Class.Name, t.Attribute)
		}
		delete(inst.Attributes, t.Attribute)
		return nil
	default:
		return i.raise("SyntaxError", "cannot delete %s", target.NodeType())
	}
}

func (i *Interpreter) executeAugmented(node *ast.AugmentedAssignment, env *runtime.Environment) error {
	current, err := i.evaluate(node.Target, env)
	if err != nil {
		return err
	}
	operand, err := i.evaluate(node.Value, env)
	if err != nil {
		return err
	}
	// In-place list extension keeps aliases observing the mutation.
	if list, ok := current.(*runtime.ListValue); ok && node.Operator == "+" {
		values, err := i.iterate(operand)
		if err != nil {
			return err
		}
		list.Elements = append(list.Elements, values...)
		return nil
	}
	result, err := i.binaryOp(node.Operator, current, operand)
	if err != nil {
		return err
	}
	return i.assignTo(node.Target, result, env)
}

//-----------------------------------------------------------------------------
// Loops
//-----------------------------------------------------------------------------

func (i *Interpreter) executeWhile(node *ast.WhileStatement, env *runtime.Environment) error {
	broke := false
	for {
		if err := i.checkDeadline(); err != nil {
			return err
		}
		cond, err := i.evaluate(node.Condition, env)
		if err != nil {
			return err
		}
		if !runtime.Truthy(cond) {
			break
		}
		err = i.executeBlock(node.Body, env)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				broke = true
				break
			}
			if _, ok := err.(continueSignal); ok {
				continue
			}
			return err
		}
	}
	if !broke {
		return i.executeBlock(node.Else, env)
	}
	return nil
}

func (i *Interpreter) executeFor(node *ast.ForStatement, env *runtime.Environment) error {
	iterable, err := i.evaluate(node.Iterable, env)
	if err != nil {
		return err
	}
	broke := false
	step := func(item runtime.Value) (stop bool, err error) {
		if err := i.assignTo(node.Target, item, env); err != nil {
			return true, err
		}
		err = i.executeBlock(node.Body, env)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				broke = true
				return true, nil
			}
			if _, ok := err.(continueSignal); ok {
				return false, nil
			}
			return true, err
		}
		return false, nil
	}

	// Generators advance lazily so infinite producers still hit the
	// deadline check between elements.
	if gen, ok := iterable.(*runtime.GeneratorValue); ok {
		// An abandoned producer is closed so its goroutine does not park
		// until the run context ends.
		defer gen.Close()
		for {
			if err := i.checkDeadline(); err != nil {
				return err
			}
			item, more, err := gen.Next()
			if err != nil {
				return i.asGuestError(err)
			}
			if !more {
				break
			}
			stop, err := step(item)
			if err != nil {
				return err
			}
			if stop {
				break
			}
		}
	} else {
		values, err := i.iterate(iterable)
		if err != nil {
			return err
		}
		for _, item := range values {
			if err := i.checkDeadline(); err != nil {
				return err
			}
			stop, err := step(item)
			if err != nil {
				return err
			}
			if stop {
				break
			}
		}
	}
	if !broke {
		return i.executeBlock(node.Else, env)
	}
	return nil
}

//-----------------------------------------------------------------------------
// Exceptions
//-----------------------------------------------------------------------------

func (i *Interpreter) executeRaise(node *ast.RaiseStatement, env *runtime.Environment) error {
	if node.Value == nil {
		if len(i.handling) == 0 {
			return i.raise("RuntimeError", "No active exception to re-raise")
		}
		return &raiseSignal{exc: i.handling[len(i.handling)-1]}
	}
	v, err := i.evaluate(node.Value, env)
	if err != nil {
		return err
	}
	if node.Cause != nil {
		// The cause is evaluated for effect; chaining is not tracked.
		if _, err := i.evaluate(node.Cause, env); err != nil {
			return err
		}
	}
	switch exc := v.(type) {
	case *runtime.ExceptionValue:
		return &raiseSignal{exc: exc}
	case *runtime.ExceptionGroupValue:
		return &raiseSignal{exc: exc}
	case *runtime.ClassValue:
		if !exc.IsException {
			return i.raise("TypeError", "exceptions must derive from BaseException")
		}
		built, err := i.constructException(exc, nil)
		if err != nil {
			return err
		}
		return &raiseSignal{exc: built}
	default:
		return i.raise("TypeError", "exceptions must derive from BaseException")
	}
}

func (i *Interpreter) executeTry(node *ast.TryStatement, env *runtime.Environment) error {
	err := i.executeBlock(node.Body, env)
	if err == nil {
		err = i.executeBlock(node.Else, env)
	} else if rs, ok := err.(*raiseSignal); ok {
		if node.IsGroup {
			err = i.handleExceptGroup(node, rs, env)
		} else {
			err = i.handleExcept(node, rs, env)
		}
	}
	if len(node.Finally) > 0 {
		// A signal out of finally masks whatever was in flight.
		if ferr := i.executeBlock(node.Finally, env); ferr != nil {
			err = ferr
		}
	}
	return err
}

// handlerMatches reports whether a handler clause claims the exception.
func (i *Interpreter) handlerMatches(handler *ast.ExceptHandler, exc runtime.Value, env *runtime.Environment) (bool, error) {
	if len(handler.Types) == 0 {
		return true, nil
	}
	for _, typeExpr := range handler.Types {
		typeVal, err := i.evaluate(typeExpr, env)
		if err != nil {
			return false, err
		}
		cls, ok := typeVal.(*runtime.ClassValue)
		if !ok {
			return false, i.raise("TypeError", "catching classes that do not inherit from BaseException is not allowed")
		}
		if excMatchesClass(exc, cls) {
			return true, nil
		}
	}
	return false, nil
}

func excMatchesClass(exc runtime.Value, cls *runtime.ClassValue) bool {
	switch e := exc.(type) {
	case *runtime.ExceptionValue:
		return e.Class.IsSubclassOf(cls)
	case *runtime.ExceptionGroupValue:
		return e.Class.IsSubclassOf(cls)
	default:
		return false
	}
}

func (i *Interpreter) runHandlerBody(handler *ast.ExceptHandler, exc runtime.Value, env *runtime.Environment) error {
	if handler.Name != "" {
		if err := env.Define(handler.Name, exc); err != nil {
			return i.asGuestError(err)
		}
	}
	i.handling = append(i.handling, exc)
	err := i.executeBlock(handler.Body, env)
	i.handling = i.handling[:len(i.handling)-1]
	return err
}

func (i *Interpreter) handleExcept(node *ast.TryStatement, rs *raiseSignal, env *runtime.Environment) error {
	for _, handler := range node.Handlers {
		matched, err := i.handlerMatches(handler, rs.exc, env)
		if err != nil {
			return err
		}
		if matched {
			return i.runHandlerBody(handler, rs.exc, env)
		}
	}
	return rs
}

// handleExceptGroup distributes group members across except* handlers. Each
// handler that claims members runs once with a subgroup; unclaimed members
// are re-wrapped and re-raised after all handlers have run.
func (i *Interpreter) handleExceptGroup(node *ast.TryStatement, rs *raiseSignal, env *runtime.Environment) error {
	group, isGroup := rs.exc.(*runtime.ExceptionGroupValue)
	var members []*runtime.ExceptionValue
	if isGroup {
		members = append(members, group.Members...)
	} else if single, ok := rs.exc.(*runtime.ExceptionValue); ok {
		members = []*runtime.ExceptionValue{single}
	} else {
		return rs
	}

	groupClass := i.classFor("ExceptionGroup")
	groupMessage := ""
	if isGroup {
		if group.Class != nil {
			groupClass = group.Class
		}
		groupMessage = group.Message
	}

	for _, handler := range node.Handlers {
		var claimed []*runtime.ExceptionValue
		var rest []*runtime.ExceptionValue
		for _, m := range members {
			matched, err := i.handlerMatches(handler, m, env)
			if err != nil {
				return err
			}
			if matched {
				claimed = append(claimed, m)
			} else {
				rest = append(rest, m)
			}
		}
		if len(claimed) == 0 {
			continue
		}
		members = rest
		sub := &runtime.ExceptionGroupValue{Class: groupClass, Message: groupMessage, Members: claimed}
		if err := i.runHandlerBody(handler, sub, env); err != nil {
			return err
		}
	}

	switch {
	case len(members) == 0:
		return nil
	case !isGroup:
		return rs
	default:
		return &raiseSignal{exc: &runtime.ExceptionGroupValue{Class: groupClass, Message: groupMessage, Members: members}}
	}
}

//-----------------------------------------------------------------------------
// with, class, match
//-----------------------------------------------------------------------------

func (i *Interpreter) executeWith(node *ast.WithStatement, env *runtime.Environment) error {
	type exitEntry struct {
		receiver runtime.Value
		method   *runtime.FunctionValue
	}
	var exits []exitEntry

	enter := func(item *ast.WithItem) error {
		ctxVal, err := i.evaluate(item.Context, env)
		if err != nil {
			return err
		}
		bound := ctxVal
		if inst, ok := ctxVal.(*runtime.InstanceValue); ok {
			if enterVal, found := inst.Class.Lookup("__enter__"); found {
				enterFn, isFn := enterVal.(*runtime.FunctionValue)
				if !isFn {
					return i.raise("TypeError", "__enter__ must be a function")
				}
				bound, err = i.callFunction(enterFn, []runtime.Value{inst}, nil, inst)
				if err != nil {
					return err
				}
			}
			if exitVal, found := inst.Class.Lookup("__exit__"); found {
				if exitFn, isFn := exitVal.(*runtime.FunctionValue); isFn {
					exits = append(exits, exitEntry{receiver: inst, method: exitFn})
				}
			}
		}
		if item.Alias != nil {
			return i.assignTo(item.Alias, bound, env)
		}
		return nil
	}

	runExits := func(raised *raiseSignal) (suppressed bool, exitErr error) {
		for idx := len(exits) - 1; idx >= 0; idx-- {
			e := exits[idx]
			excArgs := []runtime.Value{runtime.NoneValue{}, runtime.NoneValue{}, runtime.NoneValue{}}
			if raised != nil {
				if exc, ok := raised.exc.(*runtime.ExceptionValue); ok {
					excArgs = []runtime.Value{exc.Class, exc, runtime.NoneValue{}}
				}
			}
			result, err := i.callFunction(e.method, append([]runtime.Value{e.receiver}, excArgs...), nil, e.receiver)
			if err != nil {
				return false, err
			}
			if raised != nil && runtime.Truthy(result) {
				suppressed = true
				raised = nil
			}
		}
		return suppressed, nil
	}

	for _, item := range node.Items {
		if err := enter(item); err != nil {
			// Contexts already entered still get their exit calls.
			rs, _ := err.(*raiseSignal)
			if _, exitErr := runExits(rs); exitErr != nil {
				return exitErr
			}
			return err
		}
	}

	bodyErr := i.executeBlock(node.Body, env)
	rs, _ := bodyErr.(*raiseSignal)
	suppressed, exitErr := runExits(rs)
	if exitErr != nil {
		return exitErr
	}
	if suppressed {
		return nil
	}
	return bodyErr
}

func (i *Interpreter) executeClassDefinition(node *ast.ClassDefinition, env *runtime.Environment) error {
	var bases []*runtime.ClassValue
	isException := false
	for _, baseExpr := range node.Bases {
		baseVal, err := i.evaluate(baseExpr, env)
		if err != nil {
			return err
		}
		base, ok := baseVal.(*runtime.ClassValue)
		if !ok {
			return i.raise("TypeError", "base must be a class, not '%s'", baseVal.Kind())
		}
		if base.IsException {
			isException = true
		}
		bases = append(bases, base)
	}

	classEnv := runtime.NewEnvironment(env)
	if err := i.executeBlock(node.Body, classEnv); err != nil {
		return err
	}

	cls := &runtime.ClassValue{
		Name:        node.Name,
		Bases:       bases,
		Attributes:  classEnv.Snapshot(),
		IsException: isException,
	}
	for _, v := range cls.Attributes {
		if fn, ok := v.(*runtime.FunctionValue); ok {
			fn.DefiningClass = cls
		}
	}
	if isException {
		i.classes[cls.Name] = cls
	}
	return i.asGuestError(env.Define(node.Name, cls))
}

func (i *Interpreter) executeMatch(node *ast.MatchStatement, env *runtime.Environment) error {
	subject, err := i.evaluate(node.Subject, env)
	if err != nil {
		return err
	}
	for _, matchCase := range node.Cases {
		bindings := make(map[string]runtime.Value)
		ok, err := i.matchPattern(matchCase.Pattern, subject, env, bindings)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		// The guard reads the candidate bindings from a trial frame;
		// nothing reaches the enclosing scope until a case wins.
		if matchCase.Guard != nil {
			trial := runtime.NewEnvironment(env)
			for name, v := range bindings {
				_ = trial.Define(name, v)
			}
			guard, err := i.evaluate(matchCase.Guard, trial)
			if err != nil {
				return err
			}
			if !runtime.Truthy(guard) {
				continue
			}
		}
		for name, v := range bindings {
			if err := env.Define(name, v); err != nil {
				return i.asGuestError(err)
			}
		}
		return i.executeBlock(matchCase.Body, env)
	}
	return nil
}
