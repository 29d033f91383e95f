package gtfs

import "errors"

var (
	// ErrInvalidArgument marks missing or malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a stop or route that could not be resolved.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable marks a failure of the backing store.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
