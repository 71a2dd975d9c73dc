package upload

import (
	"fmt"
	"strings"
)

// PartError records a failed part PUT. It never stops the other parts.
type PartError struct {
	PartNumber int
	Err        error
}

func (e PartError) Error() string {
	return fmt.Sprintf("part %d: %v", e.PartNumber, e.Err)
}

func (e PartError) Unwrap() error { return e.Err }

// Error is returned by Coordinator.Upload when one or more parts failed.
// The multipart session has been aborted by the time it is returned.
type Error struct {
	Key      string
	UploadID string
	Parts    []PartError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Parts))
	for _, p := range e.Parts {
		msgs = append(msgs, p.Error())
	}
	return fmt.Sprintf("upload %s failed (%d parts): %s", e.Key, len(e.Parts), strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, len(e.Parts))
	for _, p := range e.Parts {
		out = append(out, p)
	}
	return out
}
