package xcerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hatfield-c/xcheck/xcerrors"
)

func TestCheckerErrorWithMessage(t *testing.T) {
	newErr := xcerrors.ErrImageNotFound.WithMessage("asdfqwerty")
	assert.Equal(t, "image not found: asdfqwerty", newErr.Error())
	assert.ErrorIs(t, newErr, xcerrors.ErrImageNotFound)
}

func TestCheckerErrorWrapError(t *testing.T) {
	originalErr := errors.New("no such file or directory")
	newErr := xcerrors.ErrImageNotFound.WrapError(originalErr)

	assert.Equal(t, "image not found: no such file or directory", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, xcerrors.ErrImageNotFound, "checker error not set as parent")
}
