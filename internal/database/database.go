package database

import "errors"

// ErrContentNotFound is returned when a scheduled content item is not found.
var ErrContentNotFound = errors.New("scheduled content not found")
