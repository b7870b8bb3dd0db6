package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrongPassword(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Secret123", true},
		{"Test123()()", true},
		{"secret123", false},
		{"SECRET123", false},
		{"SecretABC", false},
		{"Se1", false},
		{"", false},
		{"Secret123" + strings.Repeat("a", 63), true},
		{"Secret123" + strings.Repeat("a", 64), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StrongPassword(tc.in), tc.in)
	}
}

func TestValidate_ReportsFailedTags(t *testing.T) {
	type signup struct {
		Email    string `binding:"required,email"`
		Password string `binding:"required,password"`
	}

	assert.Nil(t, Validate(signup{Email: "a@b.com", Password: "Secret123"}))

	errs := Validate(signup{Email: "nope", Password: "weak"})
	assert.Equal(t, "email", errs["Email"])
	assert.Equal(t, "password", errs["Password"])
}

func TestValidate_NonStruct(t *testing.T) {
	var errs map[string]string
	assert.NotPanics(t, func() { errs = Validate("not a struct") })
	assert.Contains(t, errs, "")
}
