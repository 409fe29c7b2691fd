package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the coarse failure class the orchestrator and UI branch on.
type ErrorKind string

const (
	// KindValidation covers input defects detected before any network call.
	KindValidation ErrorKind = "validation"
	// KindTransport covers transient network failures after retry exhaustion.
	KindTransport ErrorKind = "transport"
	// KindExtraction covers well-transported but unusable model responses.
	KindExtraction ErrorKind = "extraction"
	// KindPersistence covers history store failures.
	KindPersistence ErrorKind = "persistence"
)

// ErrorReason is the specific failure within a kind.
type ErrorReason string

const (
	ReasonUnsupportedFormat  ErrorReason = "unsupported_format"
	ReasonFileTooLarge       ErrorReason = "file_too_large"
	ReasonDurationExceeded   ErrorReason = "duration_exceeded"
	ReasonMetadataUnreadable ErrorReason = "metadata_unreadable"
	ReasonEmptyContent       ErrorReason = "empty_content"
	ReasonEncoding           ErrorReason = "encoding"
	ReasonServiceUnavailable ErrorReason = "service_unavailable"
	ReasonMalformedResponse  ErrorReason = "malformed_response"
	ReasonLengthOutOfRange   ErrorReason = "length_out_of_range"
	ReasonMissingHeading     ErrorReason = "missing_heading"
	ReasonHistoryRead        ErrorReason = "history_read"
	ReasonHistoryWrite       ErrorReason = "history_write"
)

// Error is the typed pipeline error. Callers inspect Kind and Reason via
// errors.As; the wrapped cause is preserved for logs.
type Error struct {
	Kind   ErrorKind
	Reason ErrorReason
	msg    string
	cause  error
}

func NewError(kind ErrorKind, reason ErrorReason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, msg: msg}
}

func WrapError(kind ErrorKind, reason ErrorReason, msg string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Kind, e.Reason, e.msg, e.cause)
	}
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Reason, e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// ReasonOf returns the reason code of err, or "" for untyped errors.
func ReasonOf(err error) ErrorReason {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return ""
}

var userMessages = map[ErrorReason]string{
	ReasonUnsupportedFormat:  "The file format is not supported. Upload an mp3, wav, m4a or txt file.",
	ReasonFileTooLarge:       "The file is too large to process.",
	ReasonDurationExceeded:   "The audio is longer than the allowed duration.",
	ReasonMetadataUnreadable: "The audio file could not be inspected. It may be corrupt.",
	ReasonEmptyContent:       "The file has no usable content.",
	ReasonEncoding:           "The file is not valid UTF-8 text.",
	ReasonServiceUnavailable: "The AI service is currently unavailable. Try again in a moment.",
	ReasonMalformedResponse:  "The AI service returned an unexpected response shape. Try again.",
	ReasonLengthOutOfRange:   "The generated text fell outside the allowed length. Try again.",
	ReasonMissingHeading:     "The generated blog post is missing a heading. Try again.",
	ReasonHistoryRead:        "Past results could not be read.",
	ReasonHistoryWrite:       "The result was generated but could not be saved to history.",
}

// UserMessage maps an error onto a human-readable category without exposing
// internal detail. Untyped errors collapse to a generic processing message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := userMessages[ReasonOf(err)]; ok {
		return msg
	}
	return "Processing failed. Check the input and try again."
}
