package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("insert waitlist entry: %w", ErrDuplicateKey)

	assert.ErrorIs(t, wrapped, ErrDuplicateKey)
	assert.NotErrorIs(t, wrapped, ErrInvalidInput)
	assert.False(t, errors.Is(ErrInvalidInput, ErrDuplicateKey))
	assert.Contains(t, ErrDuplicateKey.Error(), "waitlist")
}
