package rest

import (
	"errors"
	"reflect"

	"github.com/abgdnv/productapi/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxPrice is the first value that does not fit NUMERIC(12,2).
var maxPrice = decimal.New(1, 10)

// newValidator returns a validator that knows two extra rules.
// "price" accepts a non-negative decimal below 10^10 with at most two fractional digits.
// "text" accepts strings the store can hold, see model.IsStorableText.
// Decimals are presented to rules as their string form.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	if err := v.RegisterValidation("price", validatePrice); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("text", validateText); err != nil {
		panic(err)
	}
	return v
}

func validatePrice(fl validator.FieldLevel) bool {
	price, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !price.IsNegative() && price.LessThan(maxPrice) && price.Equal(price.Truncate(2))
}

func validateText(fl validator.FieldLevel) bool {
	return model.IsStorableText(fl.Field().String())
}

// validationErrors flattens validator errors into field -> rule, or returns false for other errors.
func validationErrors(err error) (map[string]string, bool) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, false
	}
	fields := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return fields, true
}
