package cmd

import (
	"fmt"
	"sync"
	"time"
)

// docMu guards Doc, CurrentElement and the element list.
// Only one tool request (or CLI action) may hold it at a time.
var docMu sync.Mutex

// withDoc serialises access to the shared document state.
// It waits up to 30 s for the lock; afterwards it returns an error so the
// caller can report "document busy".
func withDoc[R any](fn func() (R, error)) (R, error) {
	const timeout = 30 * time.Second
	var zero R

	locked := make(chan struct{})
	go func() {
		docMu.Lock()
		close(locked)
	}()

	select {
	case <-locked:
		defer docMu.Unlock()
		return fn()
	case <-time.After(timeout):
		// The pending goroutine still gets the lock eventually; release it
		// so a slow call does not wedge every later one.
		go func() {
			<-locked
			docMu.Unlock()
		}()
		return zero, fmt.Errorf("document busy: could not acquire lock within %s", timeout)
	}
}
