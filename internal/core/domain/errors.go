package domain

import "errors"

var (
	ErrUnknownRegion       = errors.New("unknown region")
	ErrUnknownMarker       = errors.New("marker is not on the map")
	ErrEmptyKeyword        = errors.New("search keyword must not be empty")
	ErrUnknownEvent        = errors.New("unknown event")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionClosed       = errors.New("session closed")
	ErrTooManySessions     = errors.New("too many open sessions")
	ErrNoRoute             = errors.New("no route found")
	ErrSceneUnavailable    = errors.New("street-level scene unavailable")
	ErrLocationUnavailable = errors.New("user location unavailable")
)
