package controller

import "fmt"

// HostError carries an error message the host reported for an operation. It
// is displayed verbatim; accumulated partial state is kept, not discarded.
type HostError struct {
	Op      string
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}
