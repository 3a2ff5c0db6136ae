package filehasher

import "errors"

const Namespace = "filehasher"

var (
	// ErrOptions marks any failure caused by user-supplied options:
	// malformed sizes, missing input, empty input file, unreadable metadata.
	// The CLI prompts usage when it observes this class.
	ErrOptions = errors.New(Namespace + ": invalid options")

	// ErrTooManyResults is reported by the ordered collector when the
	// in-memory result limit would be exceeded.
	ErrTooManyResults = errors.New(Namespace + ": too many results (try unordered output)")

	// ErrWorkerPanicked wraps a panic recovered from a worker function.
	ErrWorkerPanicked = errors.New(Namespace + ": worker panicked")

	// ErrMappingUnsupported is returned by mapped mode on platforms without
	// memory mapping support.
	ErrMappingUnsupported = errors.New(Namespace + ": memory mapping is not supported on this platform")
)
