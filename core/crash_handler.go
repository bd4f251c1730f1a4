package core

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic value and the stack at recovery
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RunSafe executes fn and converts a panic into a *PanicError
// Isolates per-vehicle and per-callback faults from the shared tick loop
func RunSafe(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

// Go runs fn in a new goroutine, reporting a recovered panic to onCrash
// onCrash may be nil, in which case the panic is swallowed
func Go(fn func(), onCrash func(error)) {
	go func() {
		if err := RunSafe(fn); err != nil && onCrash != nil {
			onCrash(err)
		}
	}()
}
