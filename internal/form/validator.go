// Package form decodes raw user input into typed form structs and validates
// them against the rules declared in their validate tags.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Normalizer is implemented by forms that enforce invariants (clearing
// conditional fields, assigning row keys) after decoding.
type Normalizer interface {
	Normalize()
}

// Validator validates form structs and renders messages in English.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator builds a Validator with JSON field names, English messages and
// the cross-field rules of every known form.
func NewValidator() (*Validator, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("form: register default translations: %w", err)
	}

	v := &Validator{validate: validate, trans: trans}
	for tag, text := range messages {
		if err := v.registerMessage(tag, text); err != nil {
			return nil, err
		}
	}
	registerRules(validate)
	return v, nil
}

func (v *Validator) registerMessage(tag, text string) error {
	err := v.validate.RegisterTranslation(tag, v.trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return msg
		})
	if err != nil {
		return fmt.Errorf("form: register message for %q: %w", tag, err)
	}
	return nil
}

// Struct validates s against every rule and returns nil when it is valid.
func (v *Validator) Struct(s any) FieldErrors {
	return v.collect(v.validate.Struct(s))
}

// Touched validates s but reports only the errors for the given paths, which
// is what runs when a field loses focus.
func (v *Validator) Touched(s any, paths ...string) FieldErrors {
	if len(paths) == 0 {
		return nil
	}
	return v.Struct(s).Only(paths...)
}

// DecodeAndValidate decodes raw into dst, normalizes it and validates it. dst
// is left untouched by validation; decode errors take precedence.
func (v *Validator) DecodeAndValidate(raw map[string]any, dst any) FieldErrors {
	if errs := Decode(raw, dst); !errs.Empty() {
		return errs
	}
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}
	return v.Struct(dst)
}

func (v *Validator) collect(err error) FieldErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{FormKey: err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		if _, exists := out[path]; exists {
			continue
		}
		out[path] = fe.Translate(v.trans)
	}
	return out
}

// fieldPath strips the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
