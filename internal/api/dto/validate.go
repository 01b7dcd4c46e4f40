package dto

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"roadtrip-meal-service/internal/domain"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// mealHolder exposes meal preference maps by their request path. Map values
// are not reached by the dive tags, so Validate checks each entry itself.
type mealHolder interface {
	mealPreferences() map[string]MealPreferences
}

// Validate checks struct tags on a decoded request body. Failures wrap
// domain.ErrInvalidRequest and name the offending fields.
func Validate(v any) error {
	var msgs []string
	err := validate.Struct(v)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe, ""))
		}
	}
	if h, ok := v.(mealHolder); ok {
		msgs = append(msgs, validateMeals(h.mealPreferences())...)
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.Join(unique(msgs), "; "))
}

func validateMeals(byPath map[string]MealPreferences) []string {
	var msgs []string
	for _, path := range slices.Sorted(maps.Keys(byPath)) {
		prefs := byPath[path]
		for _, name := range slices.Sorted(maps.Keys(prefs)) {
			err := validate.Struct(prefs[name])
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				continue
			}
			prefix := fmt.Sprintf("%s[%s].", path, name)
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe, prefix))
			}
		}
	}
	return msgs
}

func describe(fe validator.FieldError, prefix string) string {
	field := strings.TrimPrefix(fe.Namespace(), rootName(fe))
	field = prefix + strings.TrimPrefix(field, ".")
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// rootName is the top-level struct name validator prefixes namespaces with.
func rootName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[:i]
	}
	return ""
}

// unique drops repeated messages, keeping first occurrences in order.
func unique(msgs []string) []string {
	seen := make(map[string]bool, len(msgs))
	out := msgs[:0]
	for _, m := range msgs {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}
