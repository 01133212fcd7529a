package media

import (
	"errors"
	"fmt"
)

// Kind classifies failures for the HTTP layer.
type Kind string

const (
	KindInvalidRequest      Kind = "invalid_request"
	KindNotReady            Kind = "not_ready"
	KindMetadataUnavailable Kind = "metadata_unavailable"
	KindStreamFailure       Kind = "stream_failure"
)

// Client-facing messages. Extractor details never go here.
const (
	MsgURLRequired         = "URL is required"
	MsgDownloadParams      = "URL and format_id are required"
	MsgNotReady            = "Service is starting up, please try again shortly"
	MsgMetadataUnavailable = "Không thể lấy thông tin video. Vui lòng kiểm tra lại link."
	MsgDownloadFailed      = "Không thể tải video. Vui lòng thử lại."
)

// ErrAborted marks a download that failed after the response status was
// already sent. Only the connection can signal it now.
var ErrAborted = errors.New("download aborted after headers were sent")

// Error carries a Kind, a message safe to show clients, and the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func aborted(cause error) *Error {
	return newError(KindStreamFailure, MsgDownloadFailed, fmt.Errorf("%w: %v", ErrAborted, cause))
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgDownloadFailed
}
