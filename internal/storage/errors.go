package storage

import "errors"

var (
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
	ErrFilingNotFound    = errors.New("filing not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
