package proxy

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("file not found")
	ErrInvalidRange    = errors.New("range not satisfiable")
	ErrConfig          = errors.New("config error")
)
