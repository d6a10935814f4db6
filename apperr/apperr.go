// apperr defines the error kinds shared across managers so that callers at
// the API boundary can map a failure to a stable user-visible code with
// errors.Is, regardless of how many times it was wrapped on the way up.
package apperr

import "errors"

var (
	// ErrValidation is returned on bad input, e.g. story content length out
	// of the 1..150 range. No network call is made once this fires.
	ErrValidation = errors.New("validation failed")

	// ErrModeration is returned when content matches the denylist. Like
	// ErrValidation it always fires before any external call.
	ErrModeration = errors.New("content rejected by moderation")

	// ErrEnhancement is returned when the prompt enhancement service fails
	// or responds with success=false.
	ErrEnhancement = errors.New("prompt enhancement failed")

	// ErrImageFetch is returned when the image generation service responds
	// non-2xx or with an empty payload.
	ErrImageFetch = errors.New("image generation failed")

	// ErrTimeout is returned when the image generation call exceeds its
	// bound. Kept distinct from ErrImageFetch so callers can tell a slow
	// renderer from a broken one.
	ErrTimeout = errors.New("image generation timed out")

	// ErrPersistence is returned when a document store operation fails.
	ErrPersistence = errors.New("document store operation failed")

	// ErrPartialGraphUpdate is returned when the second write of a
	// follow/unfollow pair fails. The graph is left asymmetric; there is no
	// compensating action.
	ErrPartialGraphUpdate = errors.New("social graph partially updated")

	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrForbidden is returned when a caller tries to mutate a document it
	// does not own.
	ErrForbidden = errors.New("not the document owner")
)

// Code maps an error to its stable wire code for the JSON error body.
// Unrecognized errors map to "internal".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrModeration):
		return "moderation"
	case errors.Is(err, ErrEnhancement):
		return "enhancement"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrImageFetch):
		return "image"
	case errors.Is(err, ErrPartialGraphUpdate):
		return "partial_graph_update"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
