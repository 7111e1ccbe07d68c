package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shenikar/surakshita/pkg/e"
)

// NewValidator создает validator.Validate с тегами incident_type и unit.
// Имена полей в ошибках берутся из json/form тегов.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("incident_type", func(fl validator.FieldLevel) bool {
		return IncidentType(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		_, err := Unit(fl.Field().String())
		return err == nil
	})
	return v
}

// Explain переводит ошибку validator в ValidationError с понятной причиной
func Explain(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return e.Invalid("", "invalid request body")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return e.Invalid(fe.Field(), fmt.Sprintf("%s is required", fe.Field()))
	case "max":
		return e.Invalid(fe.Field(), fmt.Sprintf("%s must be %s characters or less", fe.Field(), fe.Param()))
	case "incident_type":
		return IncidentType(fmt.Sprint(fe.Value()))
	case "unit":
		_, unitErr := Unit(fmt.Sprint(fe.Value()))
		return unitErr
	default:
		return e.Invalid(fe.Field(), fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
