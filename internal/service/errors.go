package service

import (
	"errors"
	"sort"
	"strings"
)

// ErrAccessDenied covers unknown references, missing relationships and wrong
// statuses alike so callers cannot tell whether a claim exists.
var ErrAccessDenied = errors.New("access denied")

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Field messages shown next to form inputs.
const (
	MsgRequired           = "This field is required."
	MsgTooLong            = "Ensure this value has at most %d characters."
	MsgAmountPositive     = "Enter an amount greater than zero."
	MsgAmountInvalid      = "Enter a valid amount."
	MsgVATNonNegative     = "Enter a VAT greater or equal to zero."
	MsgVATInvalid         = "Enter a valid VAT."
	MsgVATBelowAmount     = "Enter a value less than Amount."
	MsgDateInvalid        = "Enter a valid date."
	MsgChoiceInvalid      = "Select a valid choice."
	MsgAccountInvalid     = "Enter the email address of a valid account."
	MsgSubstituteSelf     = "You cannot be your own substitute."
	MsgEmailTaken         = "An account with this email already exists."
	MsgPasswordTooShort   = "Ensure the password has at least 8 characters."
	MsgClaimWithoutRecpts = "Add at least one receipt before submitting."
	MsgDeleteSelf         = "You cannot delete your own account."
)

// ValidationError carries field-level messages. Nothing is written when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
