package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// fieldName reports a field by the name clients use for it, its json or query tag.
// Untagged fields keep their Go name.
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}

	return field.Name
}

func NewValidator() (*validator.Validate, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(fieldName)

	// Verify that the raw JSON input is an object.
	if err := validate.RegisterValidation("jsonObject", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 {
			return false
		}

		raw := field.Bytes()

		return gjson.ValidBytes(raw) && gjson.ParseBytes(raw).IsObject()
	}); err != nil {
		return nil, err
	}

	return validate, nil
}
