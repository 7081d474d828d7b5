package validation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"roomstay/internal/app/middleware"
	"roomstay/internal/domain/shared/apperr"
)

// Validator checks `validate` struct tags on commands and queries and turns
// failures into InvalidInput errors listing every violated field.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (s *Validator) Validate(ctx context.Context, message any) error {
	if message == nil {
		return nil
	}
	rv := reflect.ValueOf(message)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := s.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.InvalidInput, "validation failed", err)
	}
	fields := make([]apperr.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldViolation{
			Field: snakeCase(fe.Field()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return apperr.Invalid("validation failed", fields...)
}

func snakeCase(name string) string {
	name = strings.ReplaceAll(name, "ID", "Id")
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ middleware.Validator = (*Validator)(nil)
