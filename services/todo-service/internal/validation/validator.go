package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var isoDateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Error carries field-level validation failures keyed by JSON field name.
type Error struct {
	Fields map[string][]string
}

// NewError creates an Error with a single field message.
func NewError(field, message string) *Error {
	e := &Error{Fields: map[string][]string{}}
	e.Add(field, message)
	return e
}

// Add appends a message for field.
func (e *Error) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, strings.Join(e.Fields[field], "; "))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator validates request payloads and reports English messages per field.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with the default English translations and the isodate rule.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if err := validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isoDateRegexp.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	if err := validate.RegisterTranslation("isodate", trans,
		func(ut ut.Translator) error {
			return ut.Add("isodate", "{0} must be a date in YYYY-MM-DD format", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("isodate", fe.Field())
			return t
		},
	); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Validate checks s against its validate tags. It returns nil, an *Error describing
// every failing field, or the validator's own error when s cannot be validated.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := &Error{Fields: make(map[string][]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		result.Add(fe.Field(), fe.Translate(v.trans))
	}

	return result
}
