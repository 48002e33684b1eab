package learnsdk

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Roles
// ============================================================================

// Role is the platform role of a user account.
type Role string

const (
	RoleStudent   Role = "student"
	RoleVolunteer Role = "volunteer"
	RoleTeacher   Role = "teacher"
	RoleSuper     Role = "super"
	RoleHero      Role = "hero"
	RoleAdmin     Role = "admin"
	RoleParent    Role = "parent"
)

// roleCodes is the signup wire encoding: the index is the integer the
// backend expects in the register body.
var roleCodes = []Role{
	RoleStudent,
	RoleVolunteer,
	RoleTeacher,
	RoleSuper,
	RoleHero,
	RoleAdmin,
	RoleParent,
}

// RoleFromCode maps the backend's integer role onto a Role.
func RoleFromCode(code int) (Role, bool) {
	if code < 0 || code >= len(roleCodes) {
		return "", false
	}
	return roleCodes[code], true
}

// Code returns the backend's integer for r, or -1 for unknown roles.
func (r Role) Code() int {
	for i, known := range roleCodes {
		if known == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r.Code() >= 0 }

// UnmarshalJSON accepts the display name ("Student"), the lowercase name or
// the integer code. Unknown strings are kept lowercased so callers can still
// see what the backend sent.
func (r *Role) UnmarshalJSON(b []byte) error {
	var code int
	if err := json.Unmarshal(b, &code); err == nil {
		role, ok := RoleFromCode(code)
		if !ok {
			return fmt.Errorf("learnsdk: unknown role code %d", code)
		}
		*r = role
		return nil
	}

	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("learnsdk: role must be a string or integer: %w", err)
	}
	if n, err := strconv.Atoi(name); err == nil {
		if role, ok := RoleFromCode(n); ok {
			*r = role
			return nil
		}
	}
	*r = Role(strings.ToLower(strings.TrimSpace(name)))
	return nil
}

// ProfileRole is the subset of roles that have an onboarding profile.
type ProfileRole string

const (
	ProfileStudent ProfileRole = "student"
	ProfileTeacher ProfileRole = "teacher"
	ProfileParent  ProfileRole = "parent"
)

// ParseProfileRole validates a role path segment. Matching is exact: the
// route is lowercase and anything else is rejected.
func ParseProfileRole(s string) (ProfileRole, bool) {
	switch ProfileRole(s) {
	case ProfileStudent, ProfileTeacher, ProfileParent:
		return ProfileRole(s), true
	default:
		return "", false
	}
}

// ============================================================================
// Identity
// ============================================================================

// Identity is the signed-in user as reported by the backend. Treat it as
// immutable, a new fetch produces a new value.
type Identity struct {
	ID       int64  `json:"id"`
	Mobile   string `json:"mobile"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
	Email    string `json:"email,omitempty"`
}

// ============================================================================
// Requests
// ============================================================================

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Mobile          string `json:"mobile"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Role            int    `json:"role"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// StudentProfile is the onboarding form for students. All fields are
// optional on the backend.
type StudentProfile struct {
	NationCode    string   `json:"nation_code,omitempty"`
	BirthDate     string   `json:"birth_date,omitempty"` // YYYY-MM-DD
	Gender        *int     `json:"gender,omitempty"`     // 0 female, 1 male, 2 not set
	HomeAddress   string   `json:"home_address,omitempty"`
	SchoolName    string   `json:"school_name,omitempty"`
	SchoolAddress string   `json:"school_address,omitempty"`
	Grade         string   `json:"grade,omitempty"`
	LastYearAvg   *float64 `json:"last_year_avg,omitempty"`
}

// TeacherProfile is the onboarding form for teachers.
type TeacherProfile struct {
	NationCode      string   `json:"nation_code,omitempty"`
	Gender          *int     `json:"gender,omitempty"`
	LicenseNumber   string   `json:"license_number,omitempty"`
	Specialization  string   `json:"specialization,omitempty"`
	Education       string   `json:"education,omitempty"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Department      string   `json:"department,omitempty"`
	ConsultationFee *float64 `json:"consultation_fee,omitempty"`
	Day             string   `json:"day,omitempty"`   // MON..SUN
	Start           string   `json:"start,omitempty"` // HH:MM
	End             string   `json:"end,omitempty"`
}

// ParentProfile is the onboarding form for parents.
type ParentProfile struct {
	Occupation    string `json:"occupation,omitempty"`
	ChildrenCount *int   `json:"children_count,omitempty"`
}

// ============================================================================
// Responses
// ============================================================================

// envelope is the backend's standard response wrapper. The gateway relays it
// unchanged, so the SDK unwraps it.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  map[string]any  `json:"errors"`
}

// ErrorResponse is the gateway's own error body.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
}

// ProfileResult is what the backend returns after creating a profile.
type ProfileResult struct {
	User string `json:"user"`
	Role Role   `json:"role"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the gateway's required configuration.
type HealthChecks struct {
	Backend  string `json:"backend"`
	Verifier string `json:"verifier"`
}
