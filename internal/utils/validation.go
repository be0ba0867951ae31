package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidEmail checks if an email address is valid using go-playground/validator
func IsValidEmail(email string) bool {
	return validate.Var(email, "email") == nil
}

// IsValidUsername checks that a username is 3-50 characters of letters,
// digits, underscores, dots or hyphens.
func IsValidUsername(username string) bool {
	return validate.Var(username, "required,min=3,max=50,printascii,excludesall= ") == nil
}
