package domain

import (
	"errors"
	"fmt"
)

// Ошибки валидации и состояния. Хендлеры сопоставляют их с HTTP-статусами
// через errors.Is, поэтому каждая категория — отдельное значение.
var (
	ErrInvalidRange        = errors.New("invalid startTime or endTime")
	ErrRangeExceedsSource  = errors.New("endTime exceeds video duration")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidExpiry       = errors.New("invalid expiry time")
	ErrDurationOutOfBounds = errors.New("video duration out of bounds")
	ErrVideoNotFound       = errors.New("video not found")
	ErrLinkNotFound        = errors.New("link not found")
	ErrLinkExpired         = errors.New("link expired")
	ErrMissingArtifact     = errors.New("video file is missing from storage")
	ErrMissingFilePath     = errors.New("video file path is missing")
	ErrTokenCollision      = errors.New("share token already exists")
)

// ProbeError — сбой чтения метаданных внешним движком.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe failed for %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TransformError — сбой обработки видео внешним движком.
// Stderr сохраняется для диагностики, наружу не отдаётся.
type TransformError struct {
	Op     string
	Err    error
	Stderr string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s transform failed: %v", e.Op, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// PersistenceError — сбой записи в хранилище метаданных.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
