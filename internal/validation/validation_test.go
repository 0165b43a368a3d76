package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"", false},
		{"A", false},
		{"  A  ", false},
		{"\tA\n", false},
		{"Al", true},
		{" Al ", true},
		{"Zoë", true},
		{"é", false},
	}
	for _, tt := range tests {
		got := Validate(FieldName, tt.value)
		if tt.ok {
			assert.Empty(t, got, "name %q", tt.value)
		} else {
			assert.Equal(t, MsgNameTooShort, got, "name %q", tt.value)
		}
	}
}

func TestValidateMessageBoundary(t *testing.T) {
	for n := 0; n < 15; n++ {
		value := strings.Repeat("x", n)
		got := Validate(FieldMessage, "  "+value+"  ")
		if n < MinMessageLength {
			assert.Equal(t, MsgMessageTooShort, got, "length %d", n)
		} else {
			assert.Empty(t, got, "length %d", n)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"a@b.co", true},
		{"jo@x.com", true},
		{"first.last@sub.domain.org", true},
		{"bad", false},
		{"a@b", false},
		{"@b.co", false},
		{"a@.co", false},
		{"a@b.c.d", true},
		{"a@b.", false},
		{"a b@c.de", false},
		{"a@@b.co", false},
		{"a@b.co ", false},
		{"", false},
	}
	for _, tt := range tests {
		got := Validate(FieldEmail, tt.value)
		if tt.ok {
			assert.Empty(t, got, "email %q", tt.value)
		} else {
			assert.Equal(t, MsgInvalidEmail, got, "email %q", tt.value)
		}
	}
}

func TestValidateUnknownField(t *testing.T) {
	assert.Empty(t, Validate("subject", ""))
}

func TestValidateForm(t *testing.T) {
	errs := ValidateForm(FormState{Name: "A", Email: "bad", Message: "short"})
	assert.True(t, errs.Any())
	assert.Equal(t, MsgNameTooShort, errs.Name)
	assert.Equal(t, MsgInvalidEmail, errs.Email)
	assert.Equal(t, MsgMessageTooShort, errs.Message)

	errs = ValidateForm(FormState{Name: "Al", Email: "a@b.co", Message: "1234567890"})
	assert.False(t, errs.Any())
}

func TestFormStateAccessors(t *testing.T) {
	var f FormState
	assert.True(t, f.Set(FieldEmail, "a@b.co"))
	assert.False(t, f.Set("phone", "123"))
	assert.Equal(t, "a@b.co", f.Get(FieldEmail))
	assert.Empty(t, f.Get("phone"))
}
