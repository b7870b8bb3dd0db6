package validator

import (
	"errors"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func init() {
	validate = validator.New()
	validate.SetTagName("binding")
	_ = validate.RegisterValidation("password", passwordRule)
}

// RegisterGinRules installs the custom rules on gin's binding validator so
// `binding:"password"` works in request DTOs.
func RegisterGinRules() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("password", passwordRule)
		}
	})
}

// Validate checks the `binding` tags of a request DTO outside gin and maps
// each failing field to its tag. A non-struct argument is reported under "".
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"": err.Error()}
	}

	errs := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs[fe.Field()] = fe.Tag()
	}
	return errs
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// StrongPassword reports whether s has at least 8 characters, an upper and a
// lower case letter and a digit, and fits in MaxPasswordBytes.
func StrongPassword(s string) bool {
	if len([]rune(s)) < 8 || len(s) > MaxPasswordBytes {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func passwordRule(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}
