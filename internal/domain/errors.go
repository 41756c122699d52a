package domain

import "errors"

var (
	// ErrMalformedUpstreamResult marks a recognizer or diarizer record with
	// missing timestamps/text or start > end. Such records are dropped, the
	// rest of the result is kept.
	ErrMalformedUpstreamResult = errors.New("malformed upstream result")
	// ErrUnsupportedFormat marks an unknown response_format value.
	ErrUnsupportedFormat = errors.New("unsupported response format")
)
