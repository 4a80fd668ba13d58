package entity

import (
	"errors"
	"fmt"
)

var (
	// Validation failures, raised before any store is touched.
	ErrTextLength    = errors.New("post text must be between 1 and 180 characters")
	ErrMediaTooLarge = errors.New("media file must be smaller than 1 MiB")
	ErrTooManyFiles  = errors.New("only one media file is allowed per post")

	// ErrNotOwner is returned when the acting identity is not the post's
	// author. Mutations never degrade this to a silent no-op.
	ErrNotOwner = errors.New("post can only be modified by its author")

	ErrNotFound = errors.New("post not found")

	// ErrStoreUnavailable wraps a backend failure on the first step of a
	// sequence: nothing was mutated and the operation is safe to retry.
	ErrStoreUnavailable = errors.New("backend store unavailable")
)

type PartialReason string

const (
	// MediaUploadFailed: the metadata side of the operation succeeded but
	// the media side did not; the record never references a missing blob.
	MediaUploadFailed PartialReason = "media_upload_failed"

	// OrphanBlob: a blob was left behind with no record referencing it,
	// recoverable by the reconciliation sweep via the path convention.
	OrphanBlob PartialReason = "orphan_blob"
)

// PartialFailure reports an operation that mutated at least one store before
// a later step failed. The completed steps are not rolled back beyond what
// keeps the record free of dangling media references.
type PartialFailure struct {
	Reason PartialReason
	Err    error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("partial failure (%s): %v", e.Reason, e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}

// Message is the caller-facing summary of what did and did not happen.
func (e *PartialFailure) Message() string {
	switch e.Reason {
	case MediaUploadFailed:
		return "post saved, but the photo could not be stored"
	case OrphanBlob:
		return "post removed, but its photo could not be cleaned up"
	default:
		return "operation partially completed"
	}
}
