package application

import (
	"context"
	"errors"
	"fmt"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// ErrValidation marks bad caller input. Wrap it with Validation.
var ErrValidation = errors.New("validation error")

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
