package diffmerge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Code: ErrInternal, Message: "regions do not partition base"},
			want: "regions do not partition base",
		},
		{
			name: "with fields",
			err:  invalidArgument("match_main", "pattern too long", "length", 40, "max", 32),
			want: `match_main: pattern too long length="40" max="32"`,
		},
		{
			name: "with cause",
			err: &Error{
				Code:    ErrInvalidArgument,
				Op:      "patch_from_text",
				Message: "illegal escape",
				Fields:  []any{"line", "+%xy"},
				Err:     errors.New("bad escape"),
			},
			want: `patch_from_text: illegal escape line="+%xy": bad escape`,
		},
		{
			name: "odd field count drops the dangling key",
			err:  internalError("merge", "out of step", "base_index"),
			want: "merge: out of step",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("wrapped: %w", &Error{Code: ErrInvalidArgument, Op: "x", Message: "bad", Err: cause})

	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsInternal(err))
	assert.ErrorIs(t, err, cause)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "x", e.Op)

	assert.True(t, IsInternal(internalError("diff_main", "invalid input")))
	assert.False(t, IsInvalidArgument(errors.New("plain")))
}

func TestError_Field(t *testing.T) {
	err := invalidArgument("diff_from_delta", "invalid number", "param", "abc", "index", 2)

	v, ok := err.Field("param")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = err.Field("index")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = err.Field("missing")
	assert.False(t, ok)
}
