// Package apperrors defines the error categories the QA service exposes.
// Lower layers wrap concrete causes with fmt.Errorf("...: %w", Err...),
// and the transport layer maps categories to HTTP statuses via errors.Is.
package apperrors

import "errors"

var (
	// ErrInvalidInput marks bad caller input (wrong file type, empty extracted text).
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict marks a room that has already been ingested.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a missing room or a user with no rooms.
	ErrNotFound = errors.New("not found")

	// ErrExtraction marks a failed PDF text extraction.
	ErrExtraction = errors.New("extraction failed")

	// ErrInternal marks an unexpected store or model collaborator failure.
	ErrInternal = errors.New("internal error")
)
