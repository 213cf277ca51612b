package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewKeyNotFoundError("income")
	assert.Equal(t, "KEY_NOT_FOUND: key is not defined in the record (key=income)", err.Error())

	err = NewDivisionByZeroError()
	assert.Equal(t, "DIVISION_BY_ZERO: value must be non-zero", err.Error())

	err = NewResourceFetchError("tables/2024.json", errors.New("boom"))
	assert.Equal(t, "RESOURCE_FETCH: resource could not be resolved (key=tables/2024.json): boom", err.Error())
}

func TestCodeOfWrapped(t *testing.T) {
	base := NewKeyAlreadyDefinedError("tax")
	wrapped := fmt.Errorf("run pipeline: %w", base)

	assert.Equal(t, ErrCodeKeyAlreadyDefined, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeKeyAlreadyDefined))
	assert.False(t, IsCode(wrapped, ErrCodeKeyNotFound))
	assert.Equal(t, "tax", KeyOf(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, "", KeyOf(nil))
}

func TestResourceFetchUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewResourceFetchError("p", cause)
	assert.ErrorIs(t, err, cause)
}

func TestNonMonotonicDetails(t *testing.T) {
	err := NewNonMonotonicTiersError(2, 100, 200)
	assert.Equal(t, "2", err.Details["index"])
	assert.Equal(t, "100", err.Details["boundary"])
	assert.Equal(t, "200", err.Details["prior"])
}
