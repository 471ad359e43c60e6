package domain

import "errors"

var (
	// ErrIndexerUnavailable signals a transport or HTTP failure talking to
	// the remote video index. Distinct from a well-formed empty result.
	ErrIndexerUnavailable = errors.New("video index unavailable")
	// ErrDocumentNotFound signals a document id absent from the catalog listing.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSigning signals malformed storage credentials.
	// Not retryable without new credentials.
	ErrSigning = errors.New("storage signing failed")
	// ErrBadTimecode signals a timecode that is not HH:MM:SS[.fraction].
	ErrBadTimecode = errors.New("malformed timecode")
	// ErrUnknownMode signals a search mode outside {vision, speech}.
	ErrUnknownMode = errors.New("unknown search mode")
	// ErrNoSelection signals a playback request with no video selected.
	ErrNoSelection = errors.New("no video selected")
	// ErrNotInResults signals a selection of a document id that is not part
	// of the current result set.
	ErrNotInResults = errors.New("document not in current results")
)
