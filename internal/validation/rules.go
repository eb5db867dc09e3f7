package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	reUpper       = regexp.MustCompile(`[A-Z]`)
	reLower       = regexp.MustCompile(`[a-z]`)
	reDigit       = regexp.MustCompile(`[0-9]`)
	reSpecial     = regexp.MustCompile(`[^a-zA-Z0-9]`)
	reUsername    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	reUnderscores = regexp.MustCompile(`^[a-zA-Z0-9]+(?:_[a-zA-Z0-9]+)*$`)
	reLetters     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	reProviderID  = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]+$`)
)

// rules are the custom tags registered on every engine.
var rules = map[string]validator.Func{
	"password": func(fl validator.FieldLevel) bool {
		return len(passwordProblems(fl.Field().String())) == 0
	},
	"username": func(fl validator.FieldLevel) bool {
		return len(usernameProblems(fl.Field().String())) == 0
	},
	"lettersspaces": func(fl validator.FieldLevel) bool {
		return reLetters.MatchString(fl.Field().String())
	},
	"providerid": func(fl validator.FieldLevel) bool {
		return reProviderID.MatchString(fl.Field().String())
	},
}

// passwordProblems lists every password rule s breaks.
func passwordProblems(s string) []string {
	var out []string
	n := utf8.RuneCountInString(s)
	if n < 6 {
		out = append(out, "Password must be at least 6 characters long.")
	}
	if n > 100 {
		out = append(out, "Password cannot exceed 100 characters.")
	}
	if !reUpper.MatchString(s) {
		out = append(out, "Password must contain at least one uppercase letter.")
	}
	if !reLower.MatchString(s) {
		out = append(out, "Password must contain at least one lowercase letter.")
	}
	if !reDigit.MatchString(s) {
		out = append(out, "Password must contain at least one number.")
	}
	if !reSpecial.MatchString(s) {
		out = append(out, "Password must contain at least one special character.")
	}
	return out
}

// usernameProblems lists every username rule s breaks.
func usernameProblems(s string) []string {
	var out []string
	n := utf8.RuneCountInString(s)
	if n < 3 {
		out = append(out, "Username must be at least 3 characters long.")
	}
	if n > 30 {
		out = append(out, "Username cannot exceed 30 characters.")
	}
	charset := reUsername.MatchString(s)
	if !charset {
		out = append(out, "Username can only contain letters, numbers, and underscores.")
	}
	if !charset || strings.Contains(s, "__") {
		out = append(out, "Username cannot contain consecutive underscores.")
	}
	if !reUnderscores.MatchString(s) {
		out = append(out, "Username cannot start or end with an underscore.")
	}
	return out
}

func messageFor(fe validator.FieldError) []string {
	lbl := label(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return []string{"Required"}
	case "email":
		return []string{"Please provide a valid email address."}
	case "url", "http_url", "uri":
		return []string{"Please provide a valid URL."}
	case "uuid", "uuid4", "hexadecimal":
		return []string{"Invalid " + lbl + " format."}
	case "providerid":
		return []string{"Invalid " + lbl + " format."}
	case "lettersspaces":
		return []string{lbl + " can only contain letters and spaces."}
	case "password":
		return passwordProblems(stringValue(fe.Value()))
	case "username":
		return usernameProblems(stringValue(fe.Value()))
	case "oneof":
		opts := strings.Fields(param)
		for i, o := range opts {
			opts[i] = "'" + o + "'"
		}
		return []string{"Invalid enum value. Expected " + strings.Join(opts, " | ")}
	case "min", "gte":
		return []string{minMessage(fe.Kind(), lbl, param)}
	case "max", "lte":
		return []string{maxMessage(fe.Kind(), lbl, param)}
	}
	return []string{"Invalid value."}
}

func minMessage(k reflect.Kind, lbl, param string) string {
	switch k {
	case reflect.String:
		if param == "1" {
			return lbl + " is required."
		}
		return fmt.Sprintf("%s must be at least %s characters long.", lbl, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		if param == "1" {
			return fmt.Sprintf("At least one %s is required.", strings.ToLower(strings.TrimSuffix(lbl, "s")))
		}
		return fmt.Sprintf("At least %s %s are required.", param, strings.ToLower(lbl))
	default:
		return fmt.Sprintf("%s must be at least %s.", lbl, param)
	}
}

func maxMessage(k reflect.Kind, lbl, param string) string {
	switch k {
	case reflect.String:
		return fmt.Sprintf("%s cannot exceed %s characters.", lbl, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("Cannot add more than %s %s.", param, strings.ToLower(lbl))
	default:
		return fmt.Sprintf("%s must be at most %s.", lbl, param)
	}
}

// stringValue dereferences pointers before formatting a failed value.
func stringValue(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	if !rv.IsValid() {
		return ""
	}
	return fmt.Sprint(rv.Interface())
}
