// Package validation holds the contact form field rules shared by the
// submission pipeline and the mail relay endpoint.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field names as they appear in the form and the JSON payload.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

const (
	MinNameLength    = 2
	MinMessageLength = 10

	MsgNameTooShort    = "Name must be at least 2 characters long"
	MsgInvalidEmail    = "Please enter a valid email address"
	MsgMessageTooShort = "Message must be at least 10 characters long"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Fields lists the validated fields in form order.
var Fields = []string{FieldName, FieldEmail, FieldMessage}

// Validate returns the error message for value in field, or "" when the
// value satisfies the field's rule. Unknown fields always pass.
func Validate(field, value string) string {
	switch field {
	case FieldName:
		if utf8.RuneCountInString(strings.TrimSpace(value)) < MinNameLength {
			return MsgNameTooShort
		}
	case FieldEmail:
		if !emailPattern.MatchString(value) {
			return MsgInvalidEmail
		}
	case FieldMessage:
		if utf8.RuneCountInString(strings.TrimSpace(value)) < MinMessageLength {
			return MsgMessageTooShort
		}
	}
	return ""
}

// FormState is the contact form as typed by the visitor.
type FormState struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Get returns the value of a named field.
func (f FormState) Get(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldMessage:
		return f.Message
	}
	return ""
}

// Set assigns a named field and reports whether the field exists.
func (f *FormState) Set(field, value string) bool {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldMessage:
		f.Message = value
	default:
		return false
	}
	return true
}

// FieldErrors carries one message per field; empty means valid.
type FieldErrors struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (e FieldErrors) Get(field string) string {
	switch field {
	case FieldName:
		return e.Name
	case FieldEmail:
		return e.Email
	case FieldMessage:
		return e.Message
	}
	return ""
}

func (e *FieldErrors) Set(field, msg string) {
	switch field {
	case FieldName:
		e.Name = msg
	case FieldEmail:
		e.Email = msg
	case FieldMessage:
		e.Message = msg
	}
}

// Any reports whether at least one field is invalid.
func (e FieldErrors) Any() bool {
	return e.Name != "" || e.Email != "" || e.Message != ""
}

// ValidateForm runs every rule against the form.
func ValidateForm(f FormState) FieldErrors {
	var errs FieldErrors
	for _, field := range Fields {
		errs.Set(field, Validate(field, f.Get(field)))
	}
	return errs
}
