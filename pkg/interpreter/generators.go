package interpreter

import (
	"sync"

	"sandpiper/interpreter-go/pkg/runtime"
)

type genItem struct {
	val runtime.Value
	err error
}

// newGenerator wires a lazy producer: the body runs in its own goroutine, one
// step per Next call, and parks at each yield until resumed or closed. The
// goroutine also watches the run context so abandoned producers unwind when
// the deadline fires.
func (i *Interpreter) newGenerator(name string, isAsync bool, run func(sub *Interpreter) error) *runtime.GeneratorValue {
	items := make(chan genItem)
	resume := make(chan bool)
	var once sync.Once
	started := false

	start := func() {
		go func() {
			defer close(items)
			select {
			case more := <-resume:
				if !more {
					return
				}
			case <-i.ctx.Done():
				return
			}
			sub := i.fork()
			sub.yieldFn = func(v runtime.Value) error {
				select {
				case items <- genItem{val: v}:
				case <-sub.ctx.Done():
					return sub.ctx.Err()
				}
				select {
				case more := <-resume:
					if !more {
						return errGeneratorClosed
					}
					return nil
				case <-sub.ctx.Done():
					return sub.ctx.Err()
				}
			}
			err := run(sub)
			if _, ok := err.(*returnSignal); ok {
				err = nil
			}
			if err != nil && err != errGeneratorClosed {
				select {
				case items <- genItem{err: err}:
				case <-i.ctx.Done():
				}
			}
		}()
	}

	return &runtime.GeneratorValue{
		Name:    name,
		IsAsync: isAsync,
		NextFn: func() (runtime.Value, bool, error) {
			once.Do(func() {
				started = true
				start()
			})
			select {
			case resume <- true:
			case <-i.ctx.Done():
				return nil, false, i.ctx.Err()
			}
			select {
			case item, ok := <-items:
				if !ok {
					return nil, false, nil
				}
				if item.err != nil {
					return nil, false, item.err
				}
				return item.val, true, nil
			case <-i.ctx.Done():
				return nil, false, i.ctx.Err()
			}
		},
		CloseFn: func() {
			if !started {
				return
			}
			select {
			case resume <- false:
			case <-items:
			case <-i.ctx.Done():
			}
		},
	}
}

// makeFunctionGenerator runs a generator function body as a producer; a
// return statement simply ends the stream.
func (i *Interpreter) makeFunctionGenerator(fn *runtime.FunctionValue, env *runtime.Environment) *runtime.GeneratorValue {
	return i.newGenerator(fn.Name, fn.IsAsync, func(sub *Interpreter) error {
		return sub.executeBlock(fn.Body, env)
	})
}
