// Package validate checks form input before it is sent to the marketplace
// API. Failures are reported as *Error and never reach the transport.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/models"
)

const (
	MsgCredentialsRequired  = "Email and password are required!"
	MsgRegistrationRequired = "Username, Email & Password are required!"
	MsgPasswordTooShort     = "Password must be at least 6 characters long!"
	MsgInvalidEmail         = "Please enter a valid email address!"
	MsgValidationFailed     = "Validation failed"
)

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

// Error is a rejected form. Message is the single line a screen shows;
// Errors carries one entry per offending field.
type Error struct {
	Message string
	Errors  []models.FieldError
}

func (e *Error) Error() string {
	return e.Message
}

var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	return v
}

// Struct validates any tagged form and reports every failing field.
func Struct(form interface{}) error {
	return check(form, func(validator.ValidationErrors) string {
		return MsgValidationFailed
	})
}

// Login validates the sign-in form with the messages of the login screen.
func Login(data models.LoginData) error {
	return check(data, func(errs validator.ValidationErrors) string {
		if failed(errs, "required") {
			return MsgCredentialsRequired
		}
		return MsgInvalidEmail
	})
}

// Register validates the sign-up form. Missing fields are reported before
// a short password, and a short password before a malformed email.
func Register(data models.RegisterData) error {
	return check(data, func(errs validator.ValidationErrors) string {
		switch {
		case failed(errs, "required"):
			return MsgRegistrationRequired
		case failed(errs, "min"):
			return MsgPasswordTooShort
		default:
			return MsgInvalidEmail
		}
	})
}

func Order(data models.CreateOrderData) error {
	return Struct(data)
}

func check(form interface{}, summary func(validator.ValidationErrors) string) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	out := &Error{Message: summary(errs)}
	for _, fe := range errs {
		out.Errors = append(out.Errors, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func failed(errs validator.ValidationErrors, tag string) bool {
	for _, fe := range errs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}

var fieldOverrides = map[string]string{
	"imageUri.required": "An image is required",
	"password.min":      MsgPasswordTooShort,
	"newPassword.min":   MsgPasswordTooShort,
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldOverrides[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "Required"
	case "price":
		return "Must be 0 or positive"
	case "looseemail":
		return MsgInvalidEmail
	case "min":
		return "Must be at least " + fe.Param()
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Invalid"
	}
}
