package repository

import "github.com/pkg/errors"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	// ErrConflict means the stored document changed since it was read.
	ErrConflict = errors.New("version conflict")
)
