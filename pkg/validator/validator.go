package validator

import (
	"fmt"
	"reflect"
	"strings"

	gvalidator "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError represents a single field validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
	Param   string `json:"param,omitempty"`
}

// ValidationError collects every failed field of one struct.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validator is the wrapper around go-playground validator with readable
// messages. Field names come from the "key" tag, then "json", then the
// Go field name.
type Validator struct {
	v           *gvalidator.Validate
	tagMessages map[string]func(fe gvalidator.FieldError) string
}

// New creates a new Validator instance.
func New() *Validator {
	v := gvalidator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := getTagName(f, "key"); name != "" {
			return name
		}
		if name := getTagName(f, "json"); name != "" {
			return name
		}
		return f.Name
	})

	vi := &Validator{
		v:           v,
		tagMessages: make(map[string]func(gvalidator.FieldError) string),
	}
	vi.RegisterTagMessage("required", func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%s is required", fe.Field())
	})
	vi.RegisterTagMessage("url", func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%s must be an absolute URL, got %q", fe.Field(), fe.Value())
	})
	vi.RegisterTagMessage("oneof", func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	})
	return vi
}

// helper to get tag name
func getTagName(f reflect.StructField, tagName string) string {
	tagValue := f.Tag.Get(tagName)
	if tagValue == "-" {
		return ""
	}
	return strings.SplitN(tagValue, ",", 2)[0]
}

// RegisterValidation registers a custom validator (name) to the engine.
func (vi *Validator) RegisterValidation(tag string, fn gvalidator.Func) error {
	return vi.v.RegisterValidation(tag, fn)
}

// MustRegisterValidation is RegisterValidation that panics on error.
func (vi *Validator) MustRegisterValidation(tag string, fn gvalidator.Func) {
	if err := vi.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: registering %q: %v", tag, err))
	}
}

// RegisterTagMessage overrides the message built for a failed tag.
func (vi *Validator) RegisterTagMessage(tag string, builder func(gvalidator.FieldError) string) {
	vi.tagMessages[tag] = builder
}

// Struct validates s. Field failures come back as *ValidationError.
func (vi *Validator) Struct(s any) error {
	err := vi.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs gvalidator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: vi.buildMessageForField(fe),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
		})
	}
	return out
}

// buildMessageForField uses registered tag builders or defaults
func (vi *Validator) buildMessageForField(fe gvalidator.FieldError) string {
	if b, ok := vi.tagMessages[fe.Tag()]; ok && b != nil {
		return b(fe)
	}
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed on '%s' validation (param=%s)", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed on '%s' validation", fe.Field(), fe.Tag())
}
