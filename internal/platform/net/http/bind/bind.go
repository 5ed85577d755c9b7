// Package bind decodes and validates request input for handlers
package bind

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	perr "ghdigest/internal/platform/errors"
)

// ValidatorSvc holds the validator and its english translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *ValidatorSvc
)

// Get returns the process validator, built on first use
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// messages name the query key, not the Go field
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"query", "json"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterTranslation("len", trans,
			func(t ut.Translator) error { return t.Add("len", "{0} must be {1} characters", true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T("len", fe.Field(), fe.Param())
				return msg
			},
		)
		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

// Query copies the first value of each query key into the string field of T
// carrying the matching `query` tag, then validates T. Unknown keys are ignored
func Query[T any](r *http.Request) (T, error) {
	var zero, dst T
	rv := reflect.ValueOf(&dst).Elem()
	if rv.Kind() != reflect.Struct {
		return zero, perr.Configf("bind: %s is not a struct", rv.Type())
	}
	q := r.URL.Query()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "" || name == "-" || f.Type.Kind() != reflect.String || !f.IsExported() {
			continue
		}
		if v := q.Get(name); v != "" {
			rv.Field(i).SetString(v)
		}
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate runs the validator on v and maps the first failure to a Validation error
func Validate(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.New(perr.ErrorCodeValidation, msg), field)
}

// FieldAndMessage returns the first failing field and its translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(Get().Translator)
	}
	return "", err.Error()
}
