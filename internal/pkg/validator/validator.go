// Package validator validates request and domain structs.
//
// Usecases depend on the Validator interface. The go-playground v10
// implementation reports failures as a field-to-message map keyed by the
// snake_case field name.
package validator

// Validator validates a struct using its `validate` tags.
type Validator interface {
	Validate(data any) error
}
