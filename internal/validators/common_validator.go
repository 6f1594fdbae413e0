package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"razorpay-provider/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

func init() {
	validate = validator.New()

	// Report json field names so errors line up with the request body.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// Money travels as decimal.Decimal; numeric tags compare its float value.
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	// Register custom validation functions
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("currency_code", validateCurrencyCode)
	validate.RegisterValidation("razorpay_id", validateRazorpayID)
}

// Common validation errors
var (
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	ErrInvalidCurrency    = errors.New("invalid currency code")
)

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Map keys messages by field, for utils.ValidationErrorResponse.
func (v ValidationErrors) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "body", Message: err.Error()}}
	}

	for _, err := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Value:   fmt.Sprintf("%v", err.Value()),
			Message: getErrorMessage(err),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "phone_number":
		return "Invalid phone number format"
	case "currency_code":
		return "Invalid currency code"
	case "razorpay_id":
		return fmt.Sprintf("%s is not a Razorpay %s id", err.Field(), err.Param())
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return utils.IsValidPhone(phone)
}

// Currency codes are ISO 4217 alpha codes; case is normalised by the service.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyRegex.MatchString(strings.ToUpper(fl.Field().String()))
}

// razorpay_id=pay checks for the "pay_" prefix the gateway puts on ids.
func validateRazorpayID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return strings.HasPrefix(value, fl.Param()+"_") && len(value) > len(fl.Param())+1
}
