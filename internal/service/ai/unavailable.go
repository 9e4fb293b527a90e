package ai

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("answer service unavailable")

// UnavailableResolver stands in when no model is configured; every question fails resolution.
type UnavailableResolver struct {
	Reason string
}

func (u UnavailableResolver) Resolve(_ context.Context, question string) (Answer, error) {
	return Answer{}, &ResolutionError{
		Question: question,
		Stage:    StageInvoke,
		Err:      fmt.Errorf("%w: %s", ErrUnavailable, u.Reason),
	}
}
