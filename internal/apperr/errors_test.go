package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("job", "42")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad %s", "status")))
	assert.Equal(t, KindDuplicate, KindOf(DuplicateApplication("u", "j")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("load: %w", NotFound("user", "1"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(nil))
}

func TestDuplicateApplicationMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("submit: %w", DuplicateApplication("u1", "j1"))
	assert.ErrorIs(t, err, ErrDuplicateApplication)
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Internal("list jobs failed", errors.New("connection refused"))
	assert.Equal(t, "list jobs failed", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "internal error", Message(errors.New("raw")))
}

func TestDuplicateApplicationMessage(t *testing.T) {
	err := DuplicateApplication("u1", "j1")
	assert.Equal(t, "Already applied to this job", Message(err))
	assert.Contains(t, err.Error(), "user u1, job j1")
}
