package registry

import (
	"strconv"
)

// Handle is a remote reference to an object.
// It is valid as long as the registry holds a live entry with the same ID and Token.
type Handle struct {
	ID    uint64
	Token string
}

// String implements fmt.Stringer. The token is never printed.
func (h Handle) String() string {
	return strconv.FormatUint(h.ID, 10)
}

// RemoveReason is the reason why an object was removed.
type RemoveReason int

// remove reasons.
const (
	ReasonReleased RemoveReason = iota
	ReasonExpired
	ReasonCascade
	ReasonShutdown
)

// String implements fmt.Stringer.
func (r RemoveReason) String() string {
	switch r {
	case ReasonReleased:
		return "released"
	case ReasonExpired:
		return "expired"
	case ReasonCascade:
		return "cascade"
	}
	return "shutdown"
}
