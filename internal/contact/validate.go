package contact

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var nameCharset = regexp.MustCompile(`^[a-zA-Z0-9\s\-'.,@_]+$`)

// emailTLD is the last domain label: two or more letters, or a punycode label.
var emailTLD = regexp.MustCompile(`^(?:[a-zA-Z\x{00a1}-\x{ffff}]{2,}|xn--[a-zA-Z0-9-]{2,})$`)

// hasEmailTLD rejects addresses whose domain lacks a real top-level label,
// e.g. ada@example.c or ada@localhost.
func hasEmailTLD(addr string) bool {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return false
	}
	domain := addr[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot < 0 {
		return false
	}
	return emailTLD.MatchString(domain[dot+1:])
}

var fieldMessages = map[string]string{
	"name":         "Name must be between 1 and 100 characters",
	"name.charset": "Name contains invalid characters",
	"email":        "Please provide a valid email address",
	"message":      "Message must be between 1 and 1000 characters",
}

// Validator checks contact payloads. Every field is checked independently so
// a single call reports all failing fields.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("contactname", func(fl validator.FieldLevel) bool {
		return nameCharset.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("emailtld", func(fl validator.FieldLevel) bool {
		return hasEmailTLD(fl.Field().String())
	})
	return &Validator{v: v}
}

// Check trims the payload, validates it and returns the cleaned copy with a
// normalized email. The returned field errors are in payload field order.
func (v *Validator) Check(p Payload) (Payload, []FieldError) {
	clean := Payload{
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.TrimSpace(p.Email),
		Message: strings.TrimSpace(p.Message),
	}
	err := v.v.Struct(clean)
	if err == nil {
		clean.Email = NormalizeEmail(clean.Email)
		return clean, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return clean, []FieldError{{Field: "payload", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if fe.Tag() == "contactname" {
			key = "name.charset"
		}
		msg, ok := fieldMessages[key]
		if !ok {
			msg = "Invalid value"
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return clean, out
}
