package domain

import "errors"

var (
	// ErrNoSections means a sectioned document has no UPDATE markers.
	ErrNoSections = errors.New("no sections found")
	// ErrMalformedSectionDate rejects a whole document whose marker date is not YYYY-MM-DD.
	ErrMalformedSectionDate = errors.New("malformed section date")
	// ErrDuplicateSection is returned when a section is saved twice.
	ErrDuplicateSection = errors.New("section already persisted")
	// ErrDuplicateSummary is returned when a document summary is saved twice.
	ErrDuplicateSummary = errors.New("document summary already persisted")

	ErrContentTooLarge  = errors.New("content too large for summarizer")
	ErrDocumentNotFound = errors.New("document not found")
	ErrAccessDenied     = errors.New("document access denied")
	// ErrTransient marks collaborator failures that may succeed on retry.
	ErrTransient = errors.New("transient collaborator failure")

	ErrRunInProgress = errors.New("run already in progress")
)
