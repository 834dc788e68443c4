package embedding

import (
	"fmt"
	"sync"
)

// State is the lifecycle position of the embedding model.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Readiness tracks whether the model may be called. It is passed to the
// components that need it rather than kept as package state.
type Readiness struct {
	mu    sync.RWMutex
	state State
	err   error
}

// NewReadiness returns a tracker in the Uninitialized state.
func NewReadiness() *Readiness {
	return &Readiness{}
}

// State returns the current state.
func (r *Readiness) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Err returns the failure recorded by MarkFailed, if any.
func (r *Readiness) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Ready reports whether the model may be called.
func (r *Readiness) Ready() bool {
	return r.State() == Ready
}

// BeginLoading moves to Loading. It returns false if a load is already in
// progress or has succeeded.
func (r *Readiness) BeginLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Loading || r.state == Ready {
		return false
	}
	r.state = Loading
	r.err = nil
	return true
}

// MarkReady records a successful load.
func (r *Readiness) MarkReady() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Ready
	r.err = nil
}

// MarkFailed records a failed load.
func (r *Readiness) MarkFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Failed
	r.err = err
}
