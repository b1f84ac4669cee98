package conversation

import "errors"

var (
	// ErrClosed is returned by every call made after Close.
	ErrClosed = errors.New("conversation: closed")
	// ErrEstimationFailed wraps the cause of a failed or timed out estimation.
	ErrEstimationFailed = errors.New("conversation: estimation failed")

	errEmptyReply = errors.New("empty reply")
)
