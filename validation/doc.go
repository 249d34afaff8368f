// Package validation provides struct-tag validation (go-playground/validator)
// and a small collecting Validator for hand-written checks.
//
// Struct tags are used for configuration sections:
//
//	type Config struct {
//	    FunctionsURL string `mapstructure:"functions_url" validate:"required,url"`
//	    Timeout      string `mapstructure:"timeout" validate:"duration"`
//	}
//	err := validation.Validate(cfg)
//
// The collecting Validator is used for user input such as prompt names:
//
//	err := validation.New().
//	    Required("name", in.Name).
//	    MaxLength("name", in.Name, 100).
//	    Err()
//
// Both return *errors.AppError with code INVALID_INPUT and a "fields" detail.
package validation
