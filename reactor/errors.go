package reactor

import "errors"

var (
	// ErrReadonlyDerived is returned when writing a derived value that was
	// created without a setter.
	ErrReadonlyDerived = errors.New("reactor: derived value has no setter")

	// ErrMissingGetter is returned when a derived pair has no getter.
	ErrMissingGetter = errors.New("reactor: derived value needs a getter")

	// ErrUnsupportedSource is returned by Watch for a source that is neither a
	// getter function nor a Traversable object.
	ErrUnsupportedSource = errors.New("reactor: unsupported watch source")

	// ErrMissingCallback is returned when a watcher is created without a callback.
	ErrMissingCallback = errors.New("reactor: watch needs a callback")

	// ErrNoTaskQueue is returned when a FlushPost watcher is created on a
	// system that was built without a task queue.
	ErrNoTaskQueue = errors.New("reactor: deferred flush needs a task queue")

	// ErrNilTarget is returned when a write is reported for a nil object.
	ErrNilTarget = errors.New("reactor: nil target")
)
