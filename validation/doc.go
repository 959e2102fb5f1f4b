// Package validation validates configuration and request descriptors with
// struct tags, using the go-playground validator.
//
//	type Request struct {
//	    Path   string `validate:"required"`
//	    Method string `validate:"required,httpmethod"`
//	}
//	err := validation.Validate(req)
//
// Failures are returned as *errors.AppError with code INVALID_INPUT and the
// offending fields listed under Details["fields"].
package validation
