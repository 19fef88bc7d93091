package pimsclient

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the server answers 401. Match with
// errors.Is.
var ErrUnauthorized = errors.New("unauthorized: server rejected the supplied credentials")

// maxServerMessage bounds how much server-provided text is relayed in
// errors. Some deployments return whole HTML error pages.
const maxServerMessage = 300

// truncate cuts s down to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ServerError is any non-2xx, non-401 response from PIMS. Message holds the
// server's own text, truncated to 300 characters.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// ValidationError means a server response was missing a required field, or
// carried it with the wrong JSON type. Unknown extra fields never cause
// this; the response schema is open.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid server response: missing or malformed required field %q", e.Field)
}

// TypedKeyError means the server returned an identity source that does not
// name a known value type, so the key could not be typed.
type TypedKeyError struct {
	ValueType string
}

func (e *TypedKeyError) Error() string {
	return fmt.Sprintf("unknown value type %q, known types: %v", e.ValueType, ValueTypes)
}

// IdentityNotFoundError is raised when a reidentify response contains
// pseudonyms that were never asked for. What comes back must match what was
// requested.
type IdentityNotFoundError struct {
	Pseudonyms []string
}

func (e *IdentityNotFoundError) Error() string {
	return fmt.Sprintf("server returned pseudonyms that were not requested: %v", e.Pseudonyms)
}

// TemplateError means a keyfile's pseudonym template does not cover a value
// type the caller requires. See KeyFile.AssertPseudonymTemplates.
type TemplateError struct {
	Missing  string
	Template string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("could not find %q in keyfile template %q, this is required", e.Missing, e.Template)
}
