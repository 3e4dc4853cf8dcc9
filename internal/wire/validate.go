package wire

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(useJSONFieldNames)
	return v
})

// useJSONFieldNames makes validation errors name wire fields instead of Go fields.
func useJSONFieldNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// validateDTO runs struct-tag validation and converts the first failure into a SchemaError.
func validateDTO(dto any) error {
	err := structValidator().Struct(dto)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &domain.SchemaError{Expected: "valid document", Got: err.Error(), Err: err}
	}

	fe := validationErrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return domain.NewSchemaError(field, "field present", "missing")
	case "min":
		return domain.SchemaErrorf(field, ">= "+fe.Param(), "%v", indirect(fe.Value()))
	case "oneof":
		return domain.SchemaErrorf(field, "one of "+strings.ReplaceAll(fe.Param(), " ", ", "), "%q", indirect(fe.Value()))
	default:
		return domain.SchemaErrorf(field, fe.Tag()+" "+fe.Param(), "%v", indirect(fe.Value()))
	}
}

// fieldPath drops the Go struct name the validator puts in front of the namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
