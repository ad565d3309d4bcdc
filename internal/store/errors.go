package store

import "errors"

// Sentinel errors returned by store implementations
var (
	ErrNotFound       = errors.New("entity not found")
	ErrAlreadyRemoved = errors.New("entity already in trash")
	ErrNotRemoved     = errors.New("entity not in trash")
	ErrKindMismatch   = errors.New("entity has unexpected kind")
	ErrDuplicateUUID  = errors.New("entity with this uuid already exists")
	ErrInvalidImport  = errors.New("invalid import document")
)
