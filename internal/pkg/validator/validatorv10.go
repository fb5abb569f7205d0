package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/gatepass/internal/pkg/strcase"
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

type rule struct {
	tag string
	re  *regexp.Regexp
	msg string
}

// gatepass specific tags. bcrypt ignores input past 72 bytes.
var rules = []rule{
	{tag: "password", re: regexp.MustCompile(`^.{8,72}$`), msg: "{0} must be 8-72 characters"},
	{tag: "holdername", re: regexp.MustCompile(`^[\p{L}\p{N} .'-]+$`), msg: "{0} can contain only letters, digits, spaces and .'-"},
}

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to English messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, _ := json.Marshal(map[string]string(vs))

	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

func NewV10Validator() (*V10Validator, error) {
	locale := en.New()
	trans, ok := ut.New(locale, locale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(validate, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func register(validate *validator.Validate, trans ut.Translator, r rule) error {
	err := validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error {
			return t.Add(r.tag, r.msg, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("validation message not translated", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}

			return msg
		},
	)
}

// Validate returns a V10ValidationError when data fails its tags.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}

	return out
}
