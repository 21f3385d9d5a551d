package middleware

import (
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var senegalPhone = regexp.MustCompile(`^(\+221)?[0-9]{9}$`)

// RequestValidator plugs go-playground/validator into echo.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the sn_phone rule next to the built-in ones.
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("sn_phone", func(fl validator.FieldLevel) bool {
		return senegalPhone.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	// report json field names instead of Go ones
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return &RequestValidator{validate: v}
}

// Validate returns a 400 HTTPError describing the first failing field.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, describe(verrs[0])).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request").SetInternal(err)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "sn_phone":
		return field + " must be a valid Senegalese phone number"
	case "oneof":
		return field + " must be one of " + fe.Param()
	default:
		return field + " is invalid"
	}
}
