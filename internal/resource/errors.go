package resource

import "errors"

// Sentinel errors for resource operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, resource.ErrInvalidDuration) {
//	    // Reject the command without retrying
//	}
var (
	// ErrInvalidDuration indicates a command duration outside its allowed range.
	// It is returned before any request is made.
	ErrInvalidDuration = errors.New("resource: invalid duration")

	// ErrMalformedResponse indicates the store returned JSON of an unexpected shape.
	ErrMalformedResponse = errors.New("resource: malformed response")
)
