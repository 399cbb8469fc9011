package domain

import "errors"

// ErrAccessDenied is returned when a staff principal attempts to act on a
// conversation outside their scope, or to add a principal to a conversation
// type that principal may not join. Read paths never return it; they degrade
// to nil/empty results instead.
var ErrAccessDenied = errors.New("access denied")
