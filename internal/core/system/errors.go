package system

import "errors"

var (
	ErrNilSystem               = errors.New("system is nil")
	ErrSystemAlreadyRegistered = errors.New("system already registered")
	ErrSystemNotFound          = errors.New("system not found")
	ErrInvalidDeltaTime        = errors.New("delta time must be positive")
)
