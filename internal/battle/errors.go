package battle

import "errors"

// Engine error kinds. Evaluation degrades InvalidAction/MissingEntity
// to zero-valued results; advancement surfaces them and ends the
// battle instance. UnsupportedFormat is rejected before engine entry.
// StateInvariant always indicates an engine bug.
var (
	ErrInvalidAction     = errors.New("invalid action")
	ErrMissingEntity     = errors.New("missing entity")
	ErrUnsupportedFormat = errors.New("format not supported")
	ErrStateInvariant    = errors.New("state invariant violation")
)
