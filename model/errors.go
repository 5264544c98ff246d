package model

import "errors"

var (
	ErrPlanNotFound      = errors.New("plan does not exist")
	ErrOptionNotFound    = errors.New("option does not exist")
	ErrMalformedCallback = errors.New("malformed callback data")
	ErrUnknownAction     = errors.New("unknown callback action")
)

// Outcome reports whether a mutation found its target row. A NotFound
// outcome means nothing was changed, either because the row is missing or
// because the caller does not own it.
type Outcome int

const (
	NotFound Outcome = iota
	Found
)

func (o Outcome) Found() bool {
	return o == Found
}
