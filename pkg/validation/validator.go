package validation

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()
	_ = Register(Validate)
}

// Register installs the custom rules on v.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"latitude":  validateLatitude,
		"longitude": validateLongitude,
		"notblank":  validators.NotBlank,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// RegisterGinBinding installs the custom rules on gin's binding engine so
// `binding:"notblank"` works in request structs.
func RegisterGinBinding() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// FieldError describes one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError aggregates rule failures for a struct.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed %s", f.Field, f.Rule))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError converts validator errors into a ValidationError.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{Fields: make([]FieldError, 0, len(errs))}
	for _, fe := range errs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// validateLatitude checks if latitude is within valid range (-90 to 90)
func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

// validateLongitude checks if longitude is within valid range (-180 to 180)
func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}
