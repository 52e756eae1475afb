package recipient

import (
	"fmt"
)

// MissingRecipientError is returned by a Checker when a template names no
// recipients but they are required.
type MissingRecipientError struct {
	Comment string
}

// Error implements error.
func (e *MissingRecipientError) Error() string {
	msg := "No recipients specified, but are required."
	if e.Comment != "" {
		msg += " " + e.Comment
	}
	return msg
}

// BadRecipientError reports a recipient which is unusable in some manner.
type BadRecipientError struct {
	Recipient string
	Reason    string
}

// Error implements error.
func (e *BadRecipientError) Error() string {
	return fmt.Sprintf("Bad recipient '%s': %s", e.Recipient, e.Reason)
}
