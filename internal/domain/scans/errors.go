package scans

import "errors"

var (
	// ErrNotFound indicates no scan exists for the given ID.
	ErrNotFound = errors.New("scan not found")
	// ErrExists indicates a Create collided with an existing scan ID.
	ErrExists = errors.New("scan id already exists")
)
