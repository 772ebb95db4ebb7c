package data

import (
	"errors"
	"sync"
)

// Standard errors that store, source and server implementations should use.
var (
	// Path errors
	ErrInvalidPath = errors.New("coordtree: invalid path detected")

	// Node errors
	ErrNodeExists      = errors.New("coordtree: node already exists")
	ErrNoNode          = errors.New("coordtree: node does not exist")
	ErrNotEmpty        = errors.New("coordtree: node has children")
	ErrPayloadTooLarge = errors.New("coordtree: payload exceeds store limit")

	// Session errors
	ErrClosed         = errors.New("coordtree: session already closed")
	ErrConnectionLoss = errors.New("coordtree: connection to store lost")
	ErrUnsupported    = errors.New("coordtree: operation unsupported by store")

	// Server errors
	ErrServerRunning    = errors.New("coordtree: server already running")
	ErrServerNotRunning = errors.New("coordtree: server not running")

	// Source errors
	ErrSourceNotExist = errors.New("coordtree: source does not exist")

	// Encoding errors
	ErrSerialization = errors.New("coordtree: serialization failed")
)

// Errors collects independent failures and joins them into a single error.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = make([]error, 0)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
