package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrTerminalState indicates a deployment update was rejected because the
// stored status is already terminal.
var ErrTerminalState = errors.New("repository: deployment already terminal")

// ErrVersionConflict indicates a concurrent writer claimed the same version
// number before the insert committed.
var ErrVersionConflict = errors.New("repository: version number conflict")
