package onboarding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/suteetoe/tenant-onboarding/internal/apperror"
	"github.com/suteetoe/tenant-onboarding/internal/model"
)

// RegisterRequest is a tenant signup.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	CompanyName string `json:"companyName" validate:"max=128"`
	Plan        string `json:"plan" validate:"required,plan"`
}

// Validator checks request structs and reports failures as validation errors.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the "plan" tag registered.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		_, err := model.ParsePlan(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	const op = "Validator.Validate"

	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.E(apperror.KindValidation, op, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperror.Errorf(apperror.KindValidation, op, "%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "plan":
		return fmt.Sprintf("%s must be one of Basic, Standard, Premium", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
