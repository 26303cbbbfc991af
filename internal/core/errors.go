package core

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrAmountTooLarge     = errors.New("amount too large")
	ErrInvalidDate        = errors.New("invalid date")
	ErrFutureDate         = errors.New("cannot add future expenses")
	ErrInvalidCategory    = errors.New("unknown category")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")

	ErrNotFound        = errors.New("expense not found")
	ErrEmptyCollection = errors.New("no expenses recorded")
)

// ValidationError reports user input that must not be committed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user as a blocking notice.
func (e *ValidationError) Message() string {
	msg := e.Err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage extracts a display message from err, falling back to a
// generic text for anything that is not a validation problem.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	if errors.Is(err, ErrNotFound) {
		return "Expense not found"
	}
	return "Something went wrong"
}
