package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their json name so errors match the payload.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ReadAndValidateRequest binds path, query and body into req, applies `default`
// tags and validates. It returns nil or a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	err := c.Bind(req)
	if err == nil {
		err = defaults.Set(req)
	}
	if err == nil {
		err = validate.StructCtx(c.Request().Context(), req)
	}
	if err == nil {
		return nil
	}
	return toValidationErrors(err)
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, len(fieldErrs))
		for i, fe := range fieldErrs {
			msg, params := describe(fe)
			out[i] = ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: msg,
				Params:  params,
			}
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

// bound phrases the comparison tags; the param key is what clients read back.
var bound = map[string]struct{ phrase, key string }{
	"min": {"at least", "min"},
	"gte": {"greater than or equal to", "min"},
	"max": {"at most", "max"},
	"lte": {"less than or equal to", "max"},
	"gt":  {"greater than", "value"},
	"lt":  {"less than", "value"},
}

// describe turns one failed rule into a readable message plus its params.
func describe(fe validator.FieldError) (string, map[string]interface{}) {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	params := map[string]interface{}{}

	if b, ok := bound[tag]; ok {
		params[b.key] = param
		msg := fmt.Sprintf("%s must be %s %s", field, b.phrase, param)
		if (tag == "min" || tag == "max") && fe.Kind() == reflect.String {
			msg += " characters"
		}
		return msg, params
	}

	switch tag {
	case "required":
		return field + " is required", params
	case "oneof":
		opts := strings.Fields(param)
		params["options"] = opts
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(opts, ", ")), params
	case "datetime":
		params["layout"] = param
		return fmt.Sprintf("%s must be a date formatted as %s", field, param), params
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag), params
	}
}
