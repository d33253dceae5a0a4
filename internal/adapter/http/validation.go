package http

import (
	"errors"
	"regexp"

	"loan-engine/internal/domain/custody"
	"loan-engine/pkg/id"

	"github.com/go-playground/validator/v10"
)

// amountRe matches base-10 integer strings that fit the decimal(65,0) columns.
var amountRe = regexp.MustCompile(`^[0-9]{1,65}$`)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer. Kind names the engine
// error when there is one.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// party ids: 32-char lowercase hex
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return id.IsID32(fl.Field().String())
	})
	// party ids plus the engine's own custody account
	_ = v.RegisterValidation("party", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == custody.EscrowParty || id.IsID32(s)
	})
	// amounts travel as base-10 integer strings; positivity is the engine's call
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		return amountRe.MatchString(fl.Field().String())
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator.ValidationErrors to readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "hex32":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex"})
		case "party":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex or " + custody.EscrowParty})
		case "amount":
			out = append(out, FieldError{Field: field, Message: "must be a non-negative integer string of at most 65 digits"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
