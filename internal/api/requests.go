package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TaskRequest is the body of create and update requests.
type TaskRequest struct {
	Command string `json:"command"`
	Action  string `json:"action"`
	Status  string `json:"status"`
}

// Validate checks that every field is present and non-empty.
func (r TaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Command, validation.Required),
		validation.Field(&r.Action, validation.Required),
		validation.Field(&r.Status, validation.Required),
	)
}

// CommandRequest is the body of delete, complete and duplicate requests.
type CommandRequest struct {
	Command string `json:"command"`
}

// Validate checks that the command is present and non-empty.
func (r CommandRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Command, validation.Required),
	)
}

// validationError is a request that failed validation. fields lists the
// offending fields, if known.
type validationError struct {
	msg    string
	fields []string
}

func (e *validationError) Error() string {
	return e.msg
}

// decodeRequest decodes the JSON body of r into v and validates it. An empty
// body decodes as an empty object so missing fields are reported by name.
func decodeRequest(r *http.Request, v validation.Validatable) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &validationError{
				msg: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			}
		}
		return &validationError{msg: fmt.Sprintf("invalid request body: %v", err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &validationError{msg: "invalid request body: unexpected data after JSON object"}
	}

	if err := v.Validate(); err != nil {
		return newValidationError(err)
	}
	return nil
}

// newValidationError converts ozzo validation errors into a
// validationError naming every invalid field.
func newValidationError(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &validationError{msg: err.Error()}
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return &validationError{
		msg:    "missing required fields: " + errs.Error(),
		fields: fields,
	}
}

// requireQuery returns the named query parameter or a validation error if it
// is missing or empty.
func requireQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", &validationError{
			msg:    fmt.Sprintf("missing query parameter: %s", name),
			fields: []string{name},
		}
	}
	return v, nil
}
