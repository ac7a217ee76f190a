package auth

import "errors"

// Error is a failure from an authentication collaborator whose Message is safe
// to show to the person at the keyboard.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same message so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == e.Message
}

// NewError builds an Error with a display message and optional cause.
func NewError(message string, cause error) *Error {
	return &Error{Message: message, Cause: cause}
}

var (
	// ErrInvalidCredentials is returned for unknown identifiers and wrong secrets alike.
	ErrInvalidCredentials = &Error{Message: "Invalid credentials"}
	// ErrCredentialsRequired is returned when the form is submitted with an empty field.
	ErrCredentialsRequired = &Error{Message: "E-posta adresi ve şifre gereklidir."}
	// ErrAccountDisabled is returned when the account exists but may not sign in.
	ErrAccountDisabled = &Error{Message: "Hesabınız devre dışı bırakılmış."}
)

// DisplayMessage extracts the user-facing message from err.
// ok is false when err is not an *Error and callers should use a generic message.
func DisplayMessage(err error) (msg string, ok bool) {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message, true
	}
	return "", false
}
