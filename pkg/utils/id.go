package utils

import "github.com/google/uuid"

// GenThreadID returns a new thread identifier.
func GenThreadID() string {
	return "th_" + uuid.NewString()
}

// GenMessageID returns a new message identifier.
func GenMessageID() string {
	return "msg_" + uuid.NewString()
}

// GenComponentKey returns a new component key. Component keys are
// distinct from message ids even though component messages keep the
// two 1:1.
func GenComponentKey() string {
	return uuid.NewString()
}
