package spaces

import "errors"

var (
	// ErrSpaceExists is returned by CreateSpace for an id already bound.
	ErrSpaceExists = errors.New("spaces: space already exists")
	// ErrUnknownSpace is returned when an operation names a space this
	// Manager has no state for.
	ErrUnknownSpace = errors.New("spaces: unknown space")
	// ErrNotAuthorized is returned when the acting member lacks the access
	// level a mutation requires (Manage, for membership/access changes).
	ErrNotAuthorized = errors.New("spaces: actor is not authorized for this change")
)
