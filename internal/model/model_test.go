package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBox_Valid(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{"ok", BoundingBox{X: 10, Y: 10, Width: 100, Height: 100}, true},
		{"zero offsets", BoundingBox{Width: 1, Height: 1}, true},
		{"negative x", BoundingBox{X: -1, Width: 1, Height: 1}, false},
		{"negative y", BoundingBox{Y: -1, Width: 1, Height: 1}, false},
		{"zero width", BoundingBox{Height: 1}, false},
		{"zero height", BoundingBox{Width: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.box.Valid())
		})
	}
}

func TestNewUpstreamError(t *testing.T) {
	rejected := fmt.Errorf("%w: bad image", ErrUpstreamRejected)
	err := NewUpstreamError(rejected)
	require.ErrorIs(t, err, ErrUpstreamRejected)
	require.NotErrorIs(t, err, ErrUpstreamUnavailable)

	// неклассифицированная причина становится Unavailable
	raw := errors.New("boom")
	err = NewUpstreamError(raw)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.ErrorIs(t, err, raw)
}

func TestNewStorageError(t *testing.T) {
	err := NewStorageError(fmt.Errorf("%w: quota", ErrStorageRejected))
	require.ErrorIs(t, err, ErrStorageRejected)

	raw := errors.New("conn reset")
	err = NewStorageError(raw)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.ErrorIs(t, err, raw)
}

func TestStageOf(t *testing.T) {
	require.Equal(t, StageValidation, StageOf(&ValidationError{Field: "image_url", Reason: "is required"}))
	require.Equal(t, StageRemoval, StageOf(fmt.Errorf("ctx: %w", NewUpstreamError(ErrUpstreamRejected))))
	require.Equal(t, StageStorage, StageOf(NewStorageError(ErrStorageUnavailable)))
	require.Equal(t, Stage(""), StageOf(errors.New("other")))
}

func TestValidationError_Is(t *testing.T) {
	err := error(&ValidationError{Field: "bounding_box", Reason: "must have positive area"})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "bounding_box")
}
