// ABOUTME: Sentinel error kinds for the dominator engine
// ABOUTME: PreconditionViolation, CollaboratorFailure and InvariantViolation are all fatal, no retries

package graph

import "errors"

var (
	// ErrPreconditionViolation indicates the engine's stages were invoked
	// out of order (e.g. querying a Result before Run completed).
	ErrPreconditionViolation = errors.New("heaplens: precondition violation")

	// ErrCollaboratorFailure wraps an error returned by a HeapSource.
	ErrCollaboratorFailure = errors.New("heaplens: collaborator failure")

	// ErrInvariantViolation indicates an internal consistency check failed.
	// It always indicates a bug in the engine, never bad input.
	ErrInvariantViolation = errors.New("heaplens: invariant violation")
)
