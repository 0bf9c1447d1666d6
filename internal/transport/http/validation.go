package http

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"mindhaven/internal/model"
)

// registerValidators adds the gender enum to gin's validator and reports
// JSON field names in validation errors.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return model.IsGender(fl.Field().String())
	})
}
