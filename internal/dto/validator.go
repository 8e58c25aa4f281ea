package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v5"
)

// NewValidator returns a validator that understands nullable patch fields and reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if s, ok := field.Interface().(null.String); ok && s.Valid {
			return s.String
		}
		return nil
	}, null.String{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if t, ok := field.Interface().(null.Time); ok && t.Valid {
			return t.Time
		}
		return nil
	}, null.Time{})
	return v
}
