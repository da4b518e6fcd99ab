package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{"unauthorized", E(CodeUnauthorized, "op", "no", nil), http.StatusUnauthorized},
		{"forbidden", E(CodeForbidden, "op", "no", nil), http.StatusForbidden},
		{"not found", E(CodeNotFound, "op", "missing", nil), http.StatusNotFound},
		{"conflict", E(CodeConflict, "op", "dup", nil), http.StatusConflict},
		{"extraction", E(CodeExtraction, "op", "pdf", nil), http.StatusUnprocessableEntity},
		{"wrapped app error", fmt.Errorf("outer: %w", E(CodeForbidden, "op", "no", nil)), http.StatusForbidden},
		{"bare not found sentinel", ErrNotFound, http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_UnwrapAndMessage(t *testing.T) {
	err := E(CodeNotFound, "JobService.Get", "job not found", ErrNotFound)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
	assert.Equal(t, "JobService.Get: job not found: not found", err.Error())
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}
