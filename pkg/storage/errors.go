package storage

import (
	"errors"
)

var (
	// ErrCollision if an item already exists within the store.
	ErrCollision = errors.New("item already exists")

	// ErrNotFound if the requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCancelled if the request was cancelled before the datastore answered.
	ErrCancelled = errors.New("request has been cancelled")
)
