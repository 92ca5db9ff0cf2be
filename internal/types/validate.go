package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("entitytype", func(fl validator.FieldLevel) bool {
		return IsEntityType(EntityType(fl.Field().String()))
	})
	return v
}

// Validate checks struct tags on any of the package's types.
func Validate(v any) error {
	return validate.Struct(v)
}

func IsEntityType(t EntityType) bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NormalizeEntityType maps free-form model output onto the fixed vocabulary.
// Matching ignores case and surrounding space; anything unknown is Other.
func NormalizeEntityType(raw string) EntityType {
	s := strings.TrimSpace(raw)
	for _, known := range EntityTypes {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	switch strings.ToLower(s) {
	case "acquiring entity", "target entity", "organization", "organisation":
		return EntityCompany
	case "person", "director", "executive":
		return EntityIndividual
	case "regulator", "government":
		return EntityGovernmentBody
	}
	return EntityOther
}
