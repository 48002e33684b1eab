package learnsdk

import (
	"strings"
)

// Validate checks the login form before it is sent.
func (r LoginRequest) Validate() error {
	errs := map[string]string{}
	if strings.TrimSpace(r.Mobile) == "" {
		errs["mobile"] = "mobile is required"
	}
	if r.Password == "" {
		errs["password"] = "password is required"
	}
	return validation(errs)
}

// Validate checks the signup form. The gateway runs the same checks so a
// bad form never reaches the backend.
func (r RegisterRequest) Validate() error {
	errs := map[string]string{}
	if strings.TrimSpace(r.Mobile) == "" {
		errs["mobile"] = "mobile is required"
	}
	if _, ok := RoleFromCode(r.Role); !ok {
		errs["role"] = "role must be between 0 and 6"
	}
	if r.Password == "" {
		errs["password"] = "password is required"
	}
	if r.Password != r.PasswordConfirm {
		errs["password_confirm"] = "passwords do not match"
	}
	return validation(errs)
}
