package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrMissingEntity   = errors.New("required entity is missing")
	ErrToolExecution   = errors.New("tool execution failed")
	ErrPersistence     = errors.New("persisted artifacts are unusable")
	ErrValidation      = errors.New("validation failed")
)
