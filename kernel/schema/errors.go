package schema

import (
	"errors"
	"fmt"
)

// Error kinds. All of them abort the current document; the caller discards
// the mutable schema draft.
var (
	// ErrClient marks invalid user input, surfaced verbatim.
	ErrClient = errors.New("client error")

	// ErrMissingType marks a strict-mode field with no declared type.
	ErrMissingType = errors.New("missing type")

	// ErrSerialisation marks a value that cannot be encoded for its
	// declared type.
	ErrSerialisation = errors.New("serialisation error")

	// ErrSchemaCorrupt marks a persisted schema violating the feed
	// contract.
	ErrSchemaCorrupt = errors.New("schema corrupt")

	// ErrNotSupported marks a recognized keyword whose feature is disabled.
	ErrNotSupported = errors.New("not supported")

	// ErrKeywordTooLong marks a keyword term past the posting size limit.
	ErrKeywordTooLong = errors.New("keyword too long")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ClientErrorf builds an ErrClient with a formatted message.
func ClientErrorf(format string, args ...interface{}) error {
	return &kindError{kind: ErrClient, msg: fmt.Sprintf(format, args...)}
}

// MissingTypeErrorf builds an ErrMissingType.
func MissingTypeErrorf(format string, args ...interface{}) error {
	return &kindError{kind: ErrMissingType, msg: fmt.Sprintf(format, args...)}
}

// SerialisationErrorf builds an ErrSerialisation.
func SerialisationErrorf(format string, args ...interface{}) error {
	return &kindError{kind: ErrSerialisation, msg: fmt.Sprintf(format, args...)}
}

// SchemaCorruptf builds an ErrSchemaCorrupt naming the offending field.
func SchemaCorruptf(fullName, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if fullName != "" {
		msg = fmt.Sprintf("schema for %q: %s", fullName, msg)
	}
	return &kindError{kind: ErrSchemaCorrupt, msg: msg}
}

// NotSupportedErrorf builds an ErrNotSupported.
func NotSupportedErrorf(format string, args ...interface{}) error {
	return &kindError{kind: ErrNotSupported, msg: fmt.Sprintf(format, args...)}
}

// KeywordTooLongErrorf builds an ErrKeywordTooLong.
func KeywordTooLongErrorf(format string, args ...interface{}) error {
	return &kindError{kind: ErrKeywordTooLong, msg: fmt.Sprintf(format, args...)}
}
