package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
)

func TestNewBatchError(t *testing.T) {
	originalErr := errors.New("UNIQUE constraint failed: response_events.id")
	be := exception.NewBatchError("gorm", "failed to insert chunk", originalErr)

	assert.Equal(t, "gorm", be.Module)
	assert.Equal(t, "failed to insert chunk", be.Message)
	assert.Equal(t, originalErr, be.Unwrap())
	assert.True(t, errors.Is(be, originalErr))
	assert.Equal(t, "[gorm] failed to insert chunk: UNIQUE constraint failed: response_events.id", be.Error())
	assert.NotEmpty(t, be.StackTrace)
}

func TestNewBatchError_NoCause(t *testing.T) {
	be := exception.NewBatchError("loader", "chunk size must be positive", nil)
	assert.Nil(t, be.Unwrap())
	assert.Equal(t, "[loader] chunk size must be positive", be.Error())
}

func TestNewBatchErrorf(t *testing.T) {
	be1 := exception.NewBatchErrorf("loader", "chunk size must be positive, got %d", -1)
	assert.Nil(t, be1.Unwrap())
	assert.Equal(t, "chunk size must be positive, got -1", be1.Message)

	cause := errors.New("no such table: response_events")
	be2 := exception.NewBatchErrorf("gorm", "failed to insert into %s", "response_events", cause)
	assert.Equal(t, cause, be2.Unwrap())
	assert.Equal(t, "failed to insert into response_events", be2.Message)
}

func TestIsBatchErrorAndModuleOf(t *testing.T) {
	be := exception.NewBatchError("config", "bad value", nil)
	wrapped := fmt.Errorf("loading: %w", be)

	assert.True(t, exception.IsBatchError(wrapped))
	assert.Equal(t, "config", exception.ModuleOf(wrapped))
	assert.False(t, exception.IsBatchError(errors.New("plain")))
	assert.Equal(t, "", exception.ModuleOf(errors.New("plain")))
	assert.False(t, exception.IsBatchError(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "clean", exception.ExtractErrorMessage(exception.NewBatchError("m", "clean", errors.New("x"))))
	assert.Equal(t, "raw", exception.ExtractErrorMessage(errors.New("raw")))
}
