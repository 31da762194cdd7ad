// Package validate holds the client-side checks that run before any remote
// call. A failed check returns an *Error wrapping ErrInvalid and the request
// is never sent.
package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 4
	MaxPasswordLength = 128
	MaxEmailLength    = 254
	OTPLength         = 6
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("validation failed")

// Error describes which input was rejected and why.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NormalizeEmail trims and NFKC-normalizes an address and lowercases it.
func NormalizeEmail(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// NormalizeUsername trims and NFKC-normalizes a username. Case is kept.
func NormalizeUsername(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

// Email checks an already normalized address.
func Email(email string) error {
	if email == "" {
		return invalid("email", "must not be empty")
	}
	if len(email) > MaxEmailLength {
		return invalid("email", "exceeds maximum length of %d", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("email", "is not a valid address")
	}
	if at := strings.LastIndexByte(email, '@'); !strings.Contains(email[at+1:], ".") {
		return invalid("email", "is not a valid address")
	}
	return nil
}

// Username checks an already normalized username.
func Username(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return invalid("username", "must be at least %d characters", MinUsernameLength)
	}
	if n > MaxUsernameLength {
		return invalid("username", "exceeds maximum length of %d", MaxUsernameLength)
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return invalid("username", "must not contain spaces or control characters")
		}
	}
	return nil
}

// Password checks length only; strength rules belong to the server.
func Password(password string) error {
	if !utf8.ValidString(password) {
		return invalid("password", "contains invalid UTF-8")
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return invalid("password", "exceeds maximum length of %d", MaxPasswordLength)
	}
	return nil
}

// OTP checks that code is exactly OTPLength ASCII digits.
func OTP(code string) error {
	if len(code) != OTPLength {
		return invalid("otp", "must be %d digits", OTPLength)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return invalid("otp", "must be %d digits", OTPLength)
		}
	}
	return nil
}

// Signup validates a registration form.
func Signup(username, email, password string) error {
	return errors.Join(Username(username), Email(email), Password(password))
}

// Credentials validates a login form.
func Credentials(email, password string) error {
	if err := Email(email); err != nil {
		return err
	}
	if password == "" {
		return invalid("password", "must not be empty")
	}
	return nil
}
