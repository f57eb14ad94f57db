package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their wire name, as clients send them.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	validate.RegisterValidation("decimal_min", validateDecimalMin)
	validate.RegisterValidation("decimal_places", validateDecimalPlaces)
	validate.RegisterValidation("decimal_digits", validateDecimalDigits)
}

// validateDecimalMin accepts a decimal string not below the tag parameter.
// Empty strings pass so the rule composes with omitempty and required.
func validateDecimalMin(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	if field.String() == "" {
		return true
	}
	value, err := decimal.NewFromString(field.String())
	if err != nil {
		return false
	}
	min, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	return value.GreaterThanOrEqual(min)
}

// decimalParam parses a decimal string field. ok is false for non-strings
// and unparsable values; empty strings report empty.
func decimalParam(fl validator.FieldLevel) (value decimal.Decimal, empty, ok bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return decimal.Decimal{}, false, false
	}
	if field.String() == "" {
		return decimal.Decimal{}, true, true
	}
	value, err := decimal.NewFromString(field.String())
	return value, false, err == nil
}

// validateDecimalPlaces rejects values with more significant fractional
// digits than the parameter. Trailing zeros do not count.
func validateDecimalPlaces(fl validator.FieldLevel) bool {
	value, empty, ok := decimalParam(fl)
	if !ok || empty {
		return ok
	}
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	return value.Equal(value.Truncate(int32(places)))
}

// validateDecimalDigits rejects values with more integer digits than the
// parameter.
func validateDecimalDigits(fl validator.FieldLevel) bool {
	value, empty, ok := decimalParam(fl)
	if !ok || empty {
		return ok
	}
	digits, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(value.Abs().Truncate(0).String()) <= digits
}

// ValidateRequest validates a struct against its validate tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// ErrMalformedBody is returned when the body cannot be read as JSON or a form
var ErrMalformedBody = errors.New("malformed request body")

// FieldErrors carries field -> messages for values that could not be
// converted to the request's field types.
type FieldErrors map[string][]string

func (f FieldErrors) Error() string {
	return fmt.Sprintf("invalid fields: %v", map[string][]string(f))
}

const formMemory = 10 << 20

// DecodeAndValidate reads a JSON, urlencoded or multipart body into v and
// validates it. Scalars are converted weakly, so "7" fills an int64 field.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	input, err := readBody(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if err := decodeFields(input, v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// readBody returns the request fields keyed by wire name
func readBody(r *http.Request) (map[string]interface{}, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		input := make(map[string]interface{}, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				input[key] = values[0]
			}
		}
		return input, nil
	}

	input := map[string]interface{}{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&input); err != nil {
		return nil, err
	}
	return input, nil
}

// decodeFields copies input into v one key at a time so every
// unconvertible value is reported against its own field.
func decodeFields(input map[string]interface{}, v interface{}) error {
	fields := FieldErrors{}
	for key, value := range input {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			Result:           v,
		})
		if err != nil {
			return err
		}
		if err := decoder.Decode(map[string]interface{}{key: value}); err != nil {
			fields[key] = append(fields[key], fmt.Sprintf("The %s field is invalid.", strings.ReplaceAll(key, "_", " ")))
		}
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// FormatValidationErrors converts validator errors to field -> messages
func FormatValidationErrors(err error) map[string][]string {
	var fieldErrors FieldErrors
	if errors.As(err, &fieldErrors) {
		return fieldErrors
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string][]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = append(fields[e.Field()], getErrorMessage(e))
	}
	return fields
}

// getErrorMessage renders the message a client sees for a failed rule
func getErrorMessage(e validator.FieldError) string {
	attribute := strings.ReplaceAll(e.Field(), "_", " ")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attribute)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", attribute)
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", attribute, e.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", attribute, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", attribute, e.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", attribute, e.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", attribute)
	case "numeric", "number":
		return fmt.Sprintf("The %s field must be a number.", attribute)
	case "decimal_min":
		return fmt.Sprintf("The %s field must be at least %s.", attribute, e.Param())
	case "decimal_places":
		return fmt.Sprintf("The %s field must have 0-%s decimal places.", attribute, e.Param())
	case "decimal_digits":
		return fmt.Sprintf("The %s field must not have more than %s digits before the decimal point.", attribute, e.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", attribute, e.Param())
	case "image":
		return fmt.Sprintf("The %s field must be a file of type: %s.", attribute, e.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", attribute)
	}
}
