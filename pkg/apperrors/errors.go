package apperrors

import "errors"

var (
	ErrConnectionFailed   = errors.New("connection failed")
	ErrUnsupportedBackend = errors.New("unsupported backend")
	ErrQueryFailed        = errors.New("query failed")
	ErrSchemaNotFound     = errors.New("schema not found")
	ErrUnsupportedCheck   = errors.New("check not supported on this backend")
	ErrInvalidParams      = errors.New("invalid check parameters")
)
