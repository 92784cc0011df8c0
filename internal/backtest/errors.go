package backtest

import (
	"errors"
	"fmt"
)

// ErrOutOfOrder is returned when an event arrives behind state that has
// already advanced past it. The affected token's run is aborted; the
// batch continues.
var ErrOutOfOrder = errors.New("event out of deterministic order")

// TokenError wraps a failure that aborted one token's simulation.
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %s: %v", e.Token, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }
