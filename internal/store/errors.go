package store

import "fmt"

// PersistenceError is returned when the backend rejects a write or remove.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CorruptDataError describes stored data that could not be decoded. It is
// only ever delivered to Store.OnCorrupt.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("stored results under %q are corrupt: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }
