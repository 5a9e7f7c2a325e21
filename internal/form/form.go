// Package form holds the web form types and their validation. A form
// that fails validation is re-rendered with an Errors map; nothing is
// written to the store.
package form

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to a user-facing message.
type Errors map[string]string

func (e Errors) Merge(other Errors) Errors {
	for field, msg := range other {
		if _, taken := e[field]; !taken {
			e[field] = msg
		}
	}
	return e
}

type SignUp struct {
	Email           string `form:"email" validate:"required,email,max=100"`
	FirstName       string `form:"first_name" validate:"required,max=20"`
	LastName        string `form:"last_name" validate:"required,max=20"`
	Organisation    string `form:"organisation" validate:"required,max=100"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type Lead struct {
	FirstName   string `form:"first_name" validate:"required,max=20"`
	LastName    string `form:"last_name" validate:"required,max=20"`
	Age         int    `form:"age" validate:"gte=0,lte=150"`
	Description string `form:"description" validate:"max=2000"`
	CategoryID  string `form:"category_id" validate:"omitempty,uuid"`
}

type Category struct {
	Name string `form:"name" validate:"required,max=30"`
}

type Agent struct {
	Email     string `form:"email" validate:"required,email,max=100"`
	FirstName string `form:"first_name" validate:"required,max=20"`
	LastName  string `form:"last_name" validate:"required,max=20"`
}

type AssignAgent struct {
	AgentID string `form:"agent_id" validate:"required,uuid"`
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Report errors under the form field name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// Check validates a form and returns its field errors, nil when valid.
func (v *Validator) Check(i any) Errors {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	errs := make(Errors)
	for _, fieldErr := range err.(validator.ValidationErrors) {
		if _, taken := errs[fieldErr.Field()]; !taken {
			errs[fieldErr.Field()] = message(fieldErr)
		}
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "uuid":
		return "Invalid selection"
	default:
		return "Invalid value"
	}
}
