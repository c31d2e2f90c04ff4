package usecase

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
)

func newTestValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New()
	require.NoError(t, err)
	return v
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func ptr[T any](v T) *T { return &v }
