package kmeta

import (
	"errors"
	"fmt"
)

var (
	// ErrListenerNotFound is returned when removing a listener token that
	// was never added or was already removed.
	ErrListenerNotFound = errors.New("listener not found")

	// ErrUpdatePending is returned by UpdateFuture.Result before the
	// future has resolved.
	ErrUpdatePending = errors.New("metadata update has not yet resolved")
)

// TopicError is the failure of a refresh whose response carried exactly one
// topic and that topic errored. Err is the kerr error for the topic's error
// code, so errors.Is against the kerr variables works through this type.
type TopicError struct {
	Topic string
	Err   error
}

func (e *TopicError) Error() string {
	return fmt.Sprintf("topic %q: %s", e.Topic, e.Err)
}

func (e *TopicError) Unwrap() error { return e.Err }
