package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"todoapi/internal/core/domain"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	Validator.RegisterTagNameFunc(jsonFieldName)

	Validator.RegisterCustomTypeFunc(unwrapOptional,
		domain.Optional[string]{},
		domain.Optional[bool]{},
		domain.Optional[int]{},
		domain.Optional[[]string]{},
		domain.Optional[time.Time]{},
		domain.Optional[domain.TodoStatus]{},
		domain.Optional[domain.TodoPriority]{},
	)

	addCustomTranslations()
}

// unwrapOptional hands the wrapped value to the validator; absent and null
// fields become nil.
func unwrapOptional(field reflect.Value) interface{} {
	if optional, ok := field.Interface().(interface{ Interface() any }); ok {
		return optional.Interface()
	}

	return nil
}

func jsonFieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]

		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return field.Name
}

func addCustomTranslations() {
	register("required", "{0} is required", func(fe validator.FieldError) []string {
		return []string{fe.Field()}
	})

	register("email", "{0} must be a valid email address", func(fe validator.FieldError) []string {
		return []string{fe.Field()}
	})

	register("url", "{0} must be a valid URL", func(fe validator.FieldError) []string {
		return []string{fe.Field()}
	})

	register("oneof", "{0} must be one of: {1}", func(fe validator.FieldError) []string {
		return []string{fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")}
	})

	register("min", "{0} must be at least {1} {2}", func(fe validator.FieldError) []string {
		return []string{fe.Field(), fe.Param(), unit(fe)}
	})

	register("max", "{0} must be at most {1} {2}", func(fe validator.FieldError) []string {
		return []string{fe.Field(), fe.Param(), unit(fe)}
	})
}

func register(tag, text string, params func(validator.FieldError) []string) {
	err := Validator.RegisterTranslation(tag, Translator, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, err := ut.T(tag, params(fe)...)

		if err != nil {
			return fe.Error()
		}

		return t
	})

	if err != nil {
		panic(err)
	}
}

func unit(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	case reflect.String:
		return "characters"
	}

	return ""
}

// Validate runs the struct rules and returns a ValidationError carrying one
// detail per failing field.
func Validate(payload any) error {
	err := Validator.Struct(payload)

	if err == nil {
		return nil
	}

	details := FormatValidationErrors(err)

	if len(details) == 0 {
		return domain.NewInternalError("Validation could not run", err)
	}

	return domain.NewValidationError("Validation failed", details)
}

func FormatValidationErrors(err error) []domain.FieldError {
	var errors []domain.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors = append(errors, domain.FieldError{
				Field:   fieldError.Field(),
				Message: strings.TrimSpace(fieldError.Translate(Translator)),
			})
		}
	}

	return errors
}

// NullFieldsError reports fields that were sent as null but cannot be cleared.
func NullFieldsError(fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	details := make([]domain.FieldError, 0, len(fields))

	for _, field := range fields {
		details = append(details, domain.FieldError{Field: field, Message: field + " cannot be null"})
	}

	return domain.NewValidationError("Validation failed", details)
}
