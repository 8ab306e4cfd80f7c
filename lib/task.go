package lib

import "sync/atomic"

// Task runs fn on its own goroutine so a coroutine can poll IsDone from the
// game loop instead of blocking a frame.
type Task[T any] struct {
	Result T
	Err    error
	done   atomic.Bool
}

func Go[T any](fn func() (T, error)) *Task[T] {
	task := &Task[T]{}
	go func() {
		defer task.done.Store(true)
		task.Result, task.Err = fn()
	}()
	return task
}

func (task *Task[T]) IsDone() bool { return task.done.Load() }
