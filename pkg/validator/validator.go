package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateMap(data map[string]interface{}, rules map[string]string) error
}

type validator struct {
	v *playground.Validate
}

func New() Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &validator{v: v}
}

// Validate checks the `validate` tags of a struct and returns the first
// failure as a readable error.
func (v *validator) Validate(obj interface{}) error {
	err := v.v.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describe(verrs[0].Field(), verrs[0])
	}
	return err
}

// ValidateMap applies per-key rules to a schemaless document. Failures are
// reported in key order.
func (v *validator) ValidateMap(data map[string]interface{}, rules map[string]string) error {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		err := v.v.Var(data[k], rules[k])
		if err == nil {
			continue
		}
		var verrs playground.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describe(k, verrs[0])
		}
		return fmt.Errorf("%s is invalid", k)
	}
	return nil
}

func describe(field string, fe playground.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Errorf("%s must be a valid email", field)
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
