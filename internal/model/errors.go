package model

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageValidation Stage = "validation"
	StageRemoval    Stage = "removal"
	StageStorage    Stage = "storage"
)

var (
	ErrValidation          error = errors.New("invalid request")                               // 400
	ErrUpstreamUnavailable error = errors.New("background removal service is unavailable")     // 502
	ErrUpstreamRejected    error = errors.New("background removal service rejected the image") // 422
	ErrStorageUnavailable  error = errors.New("image storage is unavailable")                  // 503
	ErrStorageRejected     error = errors.New("image storage rejected the upload")             // 500
)

// ValidationError - некорректное или отсутствующее поле запроса
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UpstreamProcessingError wraps any failure of the background removal stage.
type UpstreamProcessingError struct {
	Err error
}

func (e *UpstreamProcessingError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", StageRemoval, e.Err)
}

func (e *UpstreamProcessingError) Unwrap() error {
	return e.Err
}

// StorageError wraps any failure of the upload stage. The processed bytes are already dropped when it is returned.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", StageStorage, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewUpstreamError гарантирует, что причина относится к одному из двух видов ошибок апстрима
func NewUpstreamError(cause error) *UpstreamProcessingError {
	if !errors.Is(cause, ErrUpstreamUnavailable) && !errors.Is(cause, ErrUpstreamRejected) {
		cause = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, cause)
	}
	return &UpstreamProcessingError{Err: cause}
}

// NewStorageError - то же самое для стадии загрузки
func NewStorageError(cause error) *StorageError {
	if !errors.Is(cause, ErrStorageUnavailable) && !errors.Is(cause, ErrStorageRejected) {
		cause = fmt.Errorf("%w: %w", ErrStorageUnavailable, cause)
	}
	return &StorageError{Err: cause}
}

// StageOf returns the pipeline stage an error belongs to, or "" for unclassified errors.
func StageOf(err error) Stage {
	var (
		vErr *ValidationError
		uErr *UpstreamProcessingError
		sErr *StorageError
	)
	switch {
	case errors.As(err, &vErr), errors.Is(err, ErrValidation):
		return StageValidation
	case errors.As(err, &uErr):
		return StageRemoval
	case errors.As(err, &sErr):
		return StageStorage
	default:
		return ""
	}
}
