package auth

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"zchat/errors"
)

var validate = validator.New()

type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=12,max=72"`
	FullName string `validate:"required,min=1,max=100"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

type ProfileUpdateRequest struct {
	FullName string `validate:"omitempty,min=1,max=100"`
	Bio      string `validate:"max=150"`
	Gender   string `validate:"omitempty,oneof=male female other"`
	Privacy  string `validate:"omitempty,oneof=public friends private"`
}

func ValidateProfileUpdate(req ProfileUpdateRequest) error {
	return validate.Struct(req)
}

func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
