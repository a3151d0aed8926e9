package platformerrors_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

func TestNewError_CapturesStackAndInvocation(t *testing.T) {
	ctx := platformerrors.WithInvocationID(context.Background(), "inv-1")
	err := platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidInput, "bad number", nil)

	assert.Equal(t, "inv-1", err.InvocationID)
	assert.NotEmpty(t, err.UUID)
	assert.NotEmpty(t, err.Stack)
	assert.Equal(t, "[domain][INVALID_INPUT] bad number", err.Error())
}

func TestAsError_KeepsInnerType(t *testing.T) {
	ctx := context.Background()
	inner := platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "search failed", errors.New("timeout"))

	outer := platformerrors.AsError(ctx, platformerrors.LayerHandler, inner, "wiki")

	assert.Equal(t, platformerrors.ErrorTypeExternal, outer.Type)
	assert.True(t, errors.Is(outer, inner))
	assert.Nil(t, platformerrors.AsError(ctx, platformerrors.LayerHandler, nil, "noop"))
}

func TestTypeOf(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		err  error
		want platformerrors.ErrorType
	}{
		{
			name: "plain error is internal",
			err:  errors.New("boom"),
			want: platformerrors.ErrorTypeInternal,
		},
		{
			name: "wrapped check failure",
			err:  fmt.Errorf("ctx: %w", platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeCheckFailed, "nope", nil)),
			want: platformerrors.ErrorTypeCheckFailed,
		},
		{
			name: "empty result",
			err:  platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeEmptyResult, "nothing", nil),
			want: platformerrors.ErrorTypeEmptyResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, platformerrors.TypeOf(tt.err))
			assert.Equal(t, tt.want != platformerrors.ErrorTypeInternal, platformerrors.IsErrorType(tt.err, tt.want))
		})
	}
}

func TestFromPanic(t *testing.T) {
	stack := []byte("goroutine 1 [running]:\nmain.handler()")
	err := platformerrors.FromPanic(context.Background(), platformerrors.LayerDispatch, "index out of range", stack)

	require.NotNil(t, err)
	assert.Equal(t, platformerrors.ErrorTypeInternal, err.Type)
	assert.Equal(t, stack, err.Stack)
	assert.EqualError(t, err.Err, "index out of range")
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, platformerrors.IsUserFacing(platformerrors.ErrorTypeCheckFailed))
	assert.True(t, platformerrors.IsUserFacing(platformerrors.ErrorTypeInvalidInput))
	assert.False(t, platformerrors.IsUserFacing(platformerrors.ErrorTypeExternal))
	assert.False(t, platformerrors.IsUserFacing(platformerrors.ErrorTypeInternal))
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := platformerrors.WithInvocationID(context.Background(), "inv-9")
	err := platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
		"upsert guild prefix", errors.New("deadlock detected"), map[string]any{"guild_id": "g1"})
	platformerrors.LogError(logger, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "upsert guild prefix", entry["message"])
	assert.Equal(t, "deadlock detected", entry["error"])
	assert.Equal(t, err.UUID, entry["error_uuid"])
	assert.Equal(t, "DATABASE_ERROR", entry["error_type"])
	assert.Equal(t, "repository", entry["layer"])
	assert.Equal(t, "inv-9", entry["invocation_id"])
	assert.Equal(t, "g1", entry["guild_id"])

	buf.Reset()
	platformerrors.LogError(logger, nil)
	assert.Zero(t, buf.Len())
}

func TestWithFields_NilErrorLeavesEventAlone(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	platformerrors.WithFields(logger.Warn(), nil).Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "error_uuid")
	assert.Equal(t, "plain", entry["message"])
}

func TestGetErrorType(t *testing.T) {
	err := platformerrors.NewError(context.Background(), platformerrors.LayerGateway, platformerrors.ErrorTypeExternal, "gateway closed", nil)
	assert.Equal(t, platformerrors.ErrorTypeExternal, err.GetErrorType())
	assert.Equal(t, err.GetErrorType(), platformerrors.TypeOf(fmt.Errorf("wrap: %w", err)))
}
