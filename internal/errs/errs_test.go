package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedKind(t *testing.T) {
	err := Wrap(Transient, errors.New("connection reset"), "insert item")
	assert.True(t, Is(err, Transient))
	assert.False(t, Is(err, NotFound))
}

func TestIs_FalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), InvalidInput))
}

func TestKindOf_DefaultsToCorruptForForeignErrors(t *testing.T) {
	assert.Equal(t, Corrupt, KindOf(errors.New("unexpected")))
	assert.Equal(t, NotFound, KindOf(NotFoundf("missing %d", 1)))
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Corrupt, cause, "write item")
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(Timeout, cause, "wait")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestInvalidInputf_FormatsMessage(t *testing.T) {
	err := InvalidInputf("bad level %q for %s", "n9", "japanese")
	assert.Equal(t, InvalidInput, err.Kind)
	assert.Contains(t, err.Error(), fmt.Sprintf("bad level %q for %s", "n9", "japanese"))
}
