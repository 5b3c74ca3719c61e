package entry

import "errors"

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrNotOwner      = errors.New("you do not own this entry")
)
