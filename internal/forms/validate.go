package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to its validation messages. Empty means valid.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Valid reports whether no field has errors.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// First returns the first message for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// bcrypt rejects passwords longer than 72 bytes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// Validate evaluates form's rules. form must be a pointer to one of the form structs.
func Validate(form any) Errors {
	errs := Errors{}

	err := validate.Struct(form)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("_form", err.Error())
		return errs
	}

	t := reflect.Indirect(reflect.ValueOf(form)).Type()
	for _, fe := range verrs {
		sf, _ := t.FieldByName(fe.StructField())
		errs.Add(fe.Field(), message(fe, sf))
	}
	return errs
}

func message(fe validator.FieldError, sf reflect.StructField) string {
	label := sf.Tag.Get("label")
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot be longer than %s characters.", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s cannot be longer than %s bytes.", label, fe.Param())
	case "eqfield":
		if msg := sf.Tag.Get("eqfield_msg"); msg != "" {
			return msg
		}
		return fmt.Sprintf("%s must match.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
