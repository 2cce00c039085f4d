// internal/registry/validate.go
package registry

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{9,15}$`)
)

// ValidationError marks malformed or missing input fields.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func validateRegisterInput(in RegisterInput) error {
	if in.FirstName == "" {
		return invalid("first_name", "required")
	}
	if in.LastName == "" {
		return invalid("last_name", "required")
	}
	if in.DateOfBirth.IsZero() {
		return invalid("date_of_birth", "required")
	}
	if in.JoinDateToOrganization.IsZero() {
		return invalid("join_date_to_organization", "required")
	}
	if in.JoinDateToCircle.IsZero() {
		return invalid("join_date_to_circle", "required")
	}
	if in.JoinDateToCircle.Before(in.JoinDateToOrganization) {
		return invalid("join_date_to_circle", "precedes join date to organization")
	}
	if in.Circle == "" {
		return invalid("circle", "required")
	}
	if in.Region == "" {
		return invalid("region", "required")
	}
	if err := validateDocumentNumber(in.IDDocumentNumber); err != nil {
		return err
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	return validatePhone(in.PhoneNumber)
}

func validateDocumentNumber(n string) error {
	if n == "" {
		return invalid("id_document_number", "required")
	}
	if strings.Contains(n, " ") {
		return invalid("id_document_number", "must not contain spaces")
	}
	return nil
}

func validateEmail(e string) error {
	if !emailPattern.MatchString(e) {
		return invalid("email", "malformed address")
	}
	return nil
}

func validatePhone(p string) error {
	if !phonePattern.MatchString(p) {
		return invalid("phone_number", "must be 9-15 digits with optional leading +")
	}
	return nil
}
