package pumpexec

// Two ways of composing deferred work are provided.
//
// Await is a suspension point: when the awaited task is still pending the
// rest of the computation is posted back into the captured context once it
// settles, so it resumes on that context's goroutine.
//
// ContinueWith attaches the follow-up directly to the handle. Nothing is
// posted; the follow-up runs on whichever goroutine settles the task.

// RunOn posts a callback into sc that invokes factory with sc as its active
// context, and returns a task that settles with the factory's eventual
// result. Panics raised by the factory end up on the returned task.
func RunOn[T any](sc SynchronizationContext, factory func(SynchronizationContext) *Task[T]) *Task[T] {
	result := NewTask[T]()
	sc.Post(func(any) {
		link(result, invoke(func() *Task[T] { return factory(sc) }))
	}, nil)
	return result
}

// Await runs next with the value of t. If t is pending, the resumption is
// posted into sc when t settles. An error from t skips next.
func Await[T, U any](sc SynchronizationContext, t *Task[T], next func(T) *Task[U]) *Task[U] {
	result := NewTask[U]()
	resume := func(any) {
		v, err := t.Get()
		if err != nil {
			result.SetError(err)
			return
		}
		link(result, invoke(func() *Task[U] { return next(v) }))
	}

	if t.IsDone() {
		resume(nil)
		return result
	}
	t.OnCompleted(func() {
		sc.Post(resume, nil)
	})
	return result
}

// Yield returns a task settled by a callback posted into sc. Awaiting it
// always gives up the current turn of sc.
func Yield(sc SynchronizationContext) *Task[struct{}] {
	t := NewTask[struct{}]()
	sc.Post(func(any) {
		t.SetResult(struct{}{})
	}, nil)
	return t
}

// ContinueWith attaches fn to t. fn runs synchronously on the goroutine that
// settles t, or right away if t is already settled.
func ContinueWith[T, U any](t *Task[T], fn func(T, error) (U, error)) *Task[U] {
	result := NewTask[U]()
	t.OnCompleted(func() {
		v, err := t.Get()
		u, err := invokeContinuation(fn, v, err)
		result.complete(u, err)
	})
	return result
}

// link settles dst with the outcome of src.
func link[T any](dst, src *Task[T]) {
	src.OnCompleted(func() {
		v, err := src.Get()
		dst.complete(v, err)
	})
}

func invoke[T any](factory func() *Task[T]) (t *Task[T]) {
	defer func() {
		if r := recover(); r != nil {
			t = Failed[T](newPanicError(r))
		}
	}()
	t = factory()
	if t == nil {
		t = Failed[T](ErrNilTask)
	}
	return t
}

func invokeContinuation[T, U any](fn func(T, error) (U, error), v T, err error) (u U, outErr error) {
	defer func() {
		if r := recover(); r != nil {
			outErr = newPanicError(r)
		}
	}()
	return fn(v, err)
}
