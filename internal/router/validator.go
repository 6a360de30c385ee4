package router

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	mobileStripper = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports JSON field names and knows the "mobile" tag.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// RegisterValidation only fails on an empty tag or a baked-in name.
	_ = v.RegisterValidation("mobile", validateMobile)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// validateMobile accepts an optional leading + and 7 to 15 digits once
// common separators are removed.
func validateMobile(fl validator.FieldLevel) bool {
	return IsMobile(fl.Field().String())
}

// IsMobile reports whether s looks like a mobile phone number.
func IsMobile(s string) bool {
	return mobilePattern.MatchString(mobileStripper.Replace(strings.TrimSpace(s)))
}
