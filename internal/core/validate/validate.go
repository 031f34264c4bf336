// Package validate provides shared validation functions.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hay-kot/criterio"
)

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// Title validates an item title.
func Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// NoteText validates the text of a checklist note.
func NoteText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("note text is required")
	}
	return nil
}

// HTTPURL validates an absolute http(s) URL.
func HTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// TitleField returns a criterio validator for item titles.
func TitleField(field, title string) error {
	return criterio.Run(field, title, Title)
}

// NoteTextField returns a criterio validator for note text.
func NoteTextField(field, text string) error {
	return criterio.Run(field, text, NoteText)
}

// HTTPURLField returns a criterio validator for http(s) URLs.
func HTTPURLField(field, raw string) error {
	return criterio.Run(field, raw, HTTPURL)
}

// FieldMessage is one field failure in a form suitable for JSON output.
type FieldMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Fields flattens the criterio field errors carried by err. It returns nil
// when err holds none.
func Fields(err error) []FieldMessage {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]FieldMessage, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldMessage{Field: fe.Field, Message: fe.Err.Error()})
	}
	return out
}
