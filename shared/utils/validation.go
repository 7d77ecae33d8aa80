package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	registerOnce sync.Once

	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	phonePattern    = regexp.MustCompile(`^\+?\d{10,15}$`)
)

// RegisterValidators adds the custom tags to gin's validator and makes field
// errors report json names. Safe to call more than once.
//
//	notblank    rejects whitespace-only strings
//	phone       10 to 15 digits, see ValidatePhone
//	maxbytes=N  at most N bytes of UTF-8 (bcrypt reads only 72)
//	uuidany     anything uuid.Parse accepts, in either case
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String())
		})
		_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			return err == nil && len(fl.Field().String()) <= n
		})
		_ = v.RegisterValidation("uuidany", func(fl validator.FieldLevel) bool {
			_, err := uuid.Parse(fl.Field().String())
			return err == nil
		})
	})
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// NormalizePhone strips spaces, dashes and parentheses
func NormalizePhone(phone string) string {
	return phoneSeparators.ReplaceAllString(strings.TrimSpace(phone), "")
}

// ValidatePhone accepts 10 to 15 digits with an optional leading +
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// ValidateVar checks a single value against a validator tag using the same
// engine as request binding.
func ValidateVar(field interface{}, tag string) error {
	RegisterValidators()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("validator engine unavailable")
	}
	return v.Var(field, tag)
}

// ValidationMessage turns a binding error into a client-facing message
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		return fmt.Sprintf("%s must contain 10 to 15 digits", field)
	case "uuid", "uuid4", "uuidany":
		return fmt.Sprintf("%s must be a valid id", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must not be empty", field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
