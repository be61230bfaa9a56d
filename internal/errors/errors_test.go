package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NotFound("job not found")
		assert.Equal(t, "job not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Inference("model server unreachable", cause)
		assert.Equal(t, "model server unreachable: connection refused", err.Error())
	})
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "wrapped")
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nope"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "nope %d", 1))
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NotFoundf("job %s", "j1"), IsNotFound},
		{"conflict", Conflictf("job %s exists", "j1"), IsConflict},
		{"validation", ValidationField("jobId", "required"), IsValidation},
		{"inference", Inference("backend down", nil), IsInference},
		{"render", Render("renderer down", nil), IsRender},
		{"internal", Internal("oops"), IsInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
			assert.False(t, tc.check(errors.New("plain")))
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("submit: %w", Conflict("duplicate job"))
	assert.True(t, IsConflict(err))
	assert.Equal(t, ErrCodeConflict, GetCode(err))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "jobId", GetField(ValidationField("jobId", "required")))
	assert.Empty(t, GetField(errors.New("plain")))
	assert.Empty(t, GetField(Validation("no field")))
}
