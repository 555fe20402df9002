package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var phoneRe = regexp.MustCompile(`^[+]?[0-9\-\s()]+$`)

// messages overrides the generic message for a field and rule.
var messages = map[string]string{
	"job_post_id.required":          "The job post ID is required",
	"job_post_id.min":               "The selected job post does not exist",
	"full_name.required":            "Your full name is required",
	"phone_number.required":         "Your phone number is required",
	"email.email":                   "Please provide a valid email address",
	"work_experience.required":      "Please provide your work experience",
	"work_experience.max":           "Your work experience is too long. Please limit it to 1000 characters.",
	"title.required":                "The job title is required",
	"description.required":          "The job description is required",
	"company.required":              "The company name is required",
	"location.required":             "The job location is required",
	"job_type.required":             "The job type is required",
	"contact_email.required":        "A contact email is required",
	"contact_email.email":           "Please provide a valid email address",
	"application_deadline.notpast":  "The application deadline must be today or a future date",
	"application_deadline.datetime": "The application deadline is not a valid date",
	"status.oneof":                  "The selected status is invalid",
}

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *Validator {
	v := &Validator{validate: validator.New(), now: time.Now}
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	// notpast accepts a YYYY-MM-DD date of today or later
	v.validate.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		d, err := time.Parse("2006-01-02", fl.Field().String())
		if err != nil {
			return false
		}
		today := v.now().UTC().Truncate(24 * time.Hour)
		return !d.Before(today)
	})
	return v
}

// Struct validates s and returns the failures keyed by JSON field, or nil.
// Slice elements are keyed as field.index.
func (v *Validator) Struct(s interface{}) (map[string]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, err
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldKey(fe)
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe)
	}
	return out, nil
}

// Var validates a single value against tag.
func (v *Validator) Var(field string, value interface{}, tag string) string {
	err := v.validate.Var(value, tag)
	if err == nil {
		return ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	return message(field, verrs[0])
}

func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	return ns
}

func message(field string, fe validator.FieldError) string {
	if m, ok := messages[field+"."+fe.Tag()]; ok {
		return m
	}
	name := strings.Replace(field, "_", " ", -1)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", name, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "phone":
		return fmt.Sprintf("The %s format is invalid.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "datetime":
		return fmt.Sprintf("The %s is not a valid date.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}
