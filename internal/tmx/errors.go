package tmx

import "errors"

var (
	// ErrCancelled is returned when the user aborts a name-collision
	// decision. No storage mutation has happened when it is returned.
	ErrCancelled = errors.New("operation cancelled")

	// ErrUploadInProgress is returned when an upload is requested for a
	// document that already has one running.
	ErrUploadInProgress = errors.New("upload already in progress for this document")

	// ErrPathInvalid is returned when an upload request has an empty
	// target filename.
	ErrPathInvalid = errors.New("target filename is empty")
)
